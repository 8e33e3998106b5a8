package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

type fakeTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
	commitErr  error
}

func (t *fakeTx) Commit(context.Context) error {
	if t.commitErr != nil {
		return t.commitErr
	}
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

type fakeBeginner struct {
	txs  []*fakeTx
	opts []pgx.TxOptions
}

func (b *fakeBeginner) BeginTx(_ context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	tx := &fakeTx{}
	b.txs = append(b.txs, tx)
	b.opts = append(b.opts, opts)
	return tx, nil
}

func TestWithTxCommitsOnSuccess(t *testing.T) {
	b := &fakeBeginner{}
	require.NoError(t, WithTx(context.Background(), b, func(pgx.Tx) error { return nil }))
	require.Len(t, b.txs, 1)
	require.True(t, b.txs[0].committed)
	require.Equal(t, pgx.RepeatableRead, b.opts[0].IsoLevel)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	b := &fakeBeginner{}
	boom := errors.New("boom")
	err := WithTx(context.Background(), b, func(pgx.Tx) error { return boom })
	require.ErrorIs(t, err, boom)
	require.True(t, b.txs[0].rolledBack)
}

func TestWithSerializableRetries(t *testing.T) {
	b := &fakeBeginner{}
	calls := 0
	err := WithSerializable(context.Background(), b, 3, func(pgx.Tx) error {
		calls++
		if calls < 3 {
			return fmt.Errorf("insert: %w", &pgconn.PgError{Code: "40001"})
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)
	require.Equal(t, pgx.Serializable, b.opts[0].IsoLevel)
	require.True(t, b.txs[2].committed)
}

func TestWithSerializableGivesUp(t *testing.T) {
	b := &fakeBeginner{}
	err := WithSerializable(context.Background(), b, 2, func(pgx.Tx) error {
		return &pgconn.PgError{Code: "40001"}
	})
	require.True(t, IsSerializationFailure(err))
	require.Len(t, b.txs, 2)
}

func TestWithTxNilPool(t *testing.T) {
	require.Error(t, WithTx(context.Background(), nil, func(pgx.Tx) error { return nil }))
}
