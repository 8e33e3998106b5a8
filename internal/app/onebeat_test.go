package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/onebeat/internal/onebeat"
	"github.com/odyssey-erp/onebeat/internal/onebeat/export"
)

func TestNewOneBeatWiresDirRemotes(t *testing.T) {
	root := t.TempDir()
	cfg := &Config{OneBeatConfig: OneBeatConfig{
		Schema:    "fillrate100",
		Remote:    "dir",
		RemoteDir: filepath.Join(root, "out"),
		InboxDir:  filepath.Join(root, "in"),
	}}
	ob, err := NewOneBeat(context.Background(), cfg, nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ob.Close() })

	require.Equal(t, export.SchemaFillrate100, ob.Assembler.Schema().Name)
	require.NotNil(t, ob.Service)
	require.NotNil(t, ob.Importer)

	ctx := context.Background()
	require.NoError(t, ob.Outbox.Upload(ctx, "a.csv", []byte("x")))
	names, err := ob.Inbox.List(ctx)
	require.NoError(t, err)
	require.Empty(t, names)
}

func TestNewOneBeatRejectsUnknownSchema(t *testing.T) {
	cfg := &Config{OneBeatConfig: OneBeatConfig{Schema: "csv2", Remote: "dir", RemoteDir: t.TempDir()}}
	_, err := NewOneBeat(context.Background(), cfg, nil, nil)
	require.ErrorIs(t, err, onebeat.ErrConfiguration)
}

func TestOptionsFromConfig(t *testing.T) {
	opts := OneBeatConfig{DefaultBuffer: 9, AllCombinations: true, SeedOrigins: []int64{1}, ProductionLocationID: 7}.Options()
	require.Equal(t, onebeat.Options{DefaultBuffer: 9, AllCombinations: true, SeedOriginIDs: []int64{1}, ProductionLocationID: 7}, opts)
}
