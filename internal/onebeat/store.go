package onebeat

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/onebeat/internal/platform/db"
)

const (
	sqlListBuffers = `
SELECT id, company_id, product_id, location_id, buffer_size, replenishment_time
FROM onebeat_buffers
WHERE company_id = $1
ORDER BY product_id, location_id`

	sqlInsertBuffers = `
INSERT INTO onebeat_buffers (company_id, product_id, location_id, buffer_size, replenishment_time)
SELECT $1, p, l, b, t
FROM unnest($2::bigint[], $3::bigint[], $4::numeric[], $5::int[]) AS x(p, l, b, t)
ON CONFLICT (company_id, product_id, location_id) DO NOTHING`

	sqlUpdateBufferSize = `
UPDATE onebeat_buffers SET buffer_size = $2, updated_at = NOW()
WHERE id = $1`
)

// maxTxAttempts bounds retries of serializable transactions.
const maxTxAttempts = 3

// Store is the PostgreSQL BufferStore.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// WithTx runs fn in a serializable transaction, retrying serialization failures.
func (s *Store) WithTx(ctx context.Context, fn func(context.Context, BufferTx) error) error {
	if s == nil || s.pool == nil {
		return errors.New("onebeat store not initialised")
	}
	return db.WithSerializable(ctx, s.pool, maxTxAttempts, func(tx pgx.Tx) error {
		return fn(ctx, &storeTx{tx: tx})
	})
}

type storeTx struct {
	tx pgx.Tx
}

func (t *storeTx) ListBuffers(ctx context.Context, companyID int64) ([]Buffer, error) {
	rows, err := t.tx.Query(ctx, sqlListBuffers, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Buffer
	for rows.Next() {
		var b Buffer
		if err := rows.Scan(&b.ID, &b.CompanyID, &b.ProductID, &b.LocationID, &b.BufferSize, &b.ReplenishmentTime); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (t *storeTx) InsertBuffers(ctx context.Context, buffers []Buffer) (int, error) {
	if len(buffers) == 0 {
		return 0, nil
	}
	companyID := buffers[0].CompanyID
	products := make([]int64, len(buffers))
	locations := make([]int64, len(buffers))
	sizes := make([]float64, len(buffers))
	times := make([]int32, len(buffers))
	for i, b := range buffers {
		if b.CompanyID != companyID {
			return 0, fmt.Errorf("onebeat: mixed companies in buffer batch")
		}
		products[i] = b.ProductID
		locations[i] = b.LocationID
		sizes[i] = b.BufferSize
		times[i] = int32(b.ReplenishmentTime)
	}
	tag, err := t.tx.Exec(ctx, sqlInsertBuffers, companyID, products, locations, sizes, times)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (t *storeTx) UpdateBufferSize(ctx context.Context, id int64, size float64) error {
	tag, err := t.tx.Exec(ctx, sqlUpdateBufferSize, id, size)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("onebeat: buffer %d not found", id)
	}
	return nil
}
