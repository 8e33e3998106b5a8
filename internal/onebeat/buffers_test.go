package onebeat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/onebeat/internal/inventory"
)

type memoryBufferStore struct {
	rows   []Buffer
	nextID int64
	// raced is inserted by a "concurrent" caller on the first insert.
	raced []Buffer
}

type memoryBufferTx struct {
	store *memoryBufferStore
}

func (s *memoryBufferStore) WithTx(ctx context.Context, fn func(context.Context, BufferTx) error) error {
	return fn(ctx, &memoryBufferTx{store: s})
}

func (s *memoryBufferStore) add(b Buffer) bool {
	for _, row := range s.rows {
		if row.CompanyID == b.CompanyID && row.ProductID == b.ProductID && row.LocationID == b.LocationID {
			return false
		}
	}
	s.nextID++
	b.ID = s.nextID
	s.rows = append(s.rows, b)
	return true
}

func (tx *memoryBufferTx) ListBuffers(_ context.Context, companyID int64) ([]Buffer, error) {
	var out []Buffer
	for _, row := range tx.store.rows {
		if row.CompanyID == companyID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (tx *memoryBufferTx) InsertBuffers(_ context.Context, buffers []Buffer) (int, error) {
	for _, b := range tx.store.raced {
		tx.store.add(b)
	}
	tx.store.raced = nil
	n := 0
	for _, b := range buffers {
		if tx.store.add(b) {
			n++
		}
	}
	return n, nil
}

func (tx *memoryBufferTx) UpdateBufferSize(_ context.Context, id int64, size float64) error {
	for i := range tx.store.rows {
		if tx.store.rows[i].ID == id {
			tx.store.rows[i].BufferSize = size
			return nil
		}
	}
	return ErrConfiguration
}

func TestRegistryEnsureIsIdempotent(t *testing.T) {
	store := &memoryBufferStore{}
	reg := NewRegistry(store, nil)
	ctx := context.Background()
	locations := []int64{locWarehouse, 42}

	first, err := reg.Ensure(ctx, 1, testProducts(), locations, 15)
	require.NoError(t, err)
	require.Equal(t, 4, first.Created)
	require.Len(t, first.Buffers, 4)

	second, err := reg.Ensure(ctx, 1, testProducts(), locations, 15)
	require.NoError(t, err)
	require.Zero(t, second.Created)
	require.Len(t, second.Buffers, 4)
	require.Len(t, store.rows, 4)
	require.ElementsMatch(t, first.Buffers, second.Buffers)
}

func TestRegistryEnsureDefaults(t *testing.T) {
	store := &memoryBufferStore{}
	reg := NewRegistry(store, nil)

	res, err := reg.Ensure(context.Background(), 1, testProducts(), []int64{locWarehouse}, 15)
	require.NoError(t, err)
	require.Len(t, res.Buffers, 2)
	byProduct := map[int64]Buffer{}
	for _, b := range res.Buffers {
		require.NotZero(t, b.ID)
		require.Equal(t, 15.0, b.BufferSize)
		byProduct[b.ProductID] = b
	}
	require.Equal(t, 9, byProduct[100].ReplenishmentTime)
	require.Equal(t, 4, byProduct[200].ReplenishmentTime)
}

func TestRegistryEnsureConvergesWithConcurrentWriter(t *testing.T) {
	store := &memoryBufferStore{
		raced: []Buffer{{CompanyID: 1, ProductID: 100, LocationID: locWarehouse, BufferSize: 30, ReplenishmentTime: 1}},
	}
	reg := NewRegistry(store, nil)

	res, err := reg.Ensure(context.Background(), 1, testProducts(), []int64{locWarehouse}, 15)
	require.NoError(t, err)
	require.Equal(t, 1, res.Created)
	require.Len(t, res.Buffers, 2)
	require.Len(t, store.rows, 2)
	for _, b := range res.Buffers {
		if b.ProductID == 100 {
			require.Equal(t, 30.0, b.BufferSize)
		}
	}
}

func TestRegistryApplyUpdates(t *testing.T) {
	store := &memoryBufferStore{}
	reg := NewRegistry(store, nil)
	ctx := context.Background()
	_, err := reg.Ensure(ctx, 1, testProducts(), []int64{locWarehouse}, 15)
	require.NoError(t, err)

	report, err := reg.ApplyUpdates(ctx, 1, testProducts(), ResolveReportable(testLocations()), []BufferUpdate{
		{SKU: "SKU1", Location: "WH/Stock", BufferSize: 40},
		{SKU: "SKU2", Location: "WH-STOCK", BufferSize: 8},
		{SKU: "SKU9", Location: "WH/Stock", BufferSize: 1},
		{SKU: "SKU1", Location: "Nowhere", BufferSize: 1},
	})
	require.NoError(t, err)
	require.Equal(t, UpdateReport{Updated: 2, Missing: 2}, report)

	sizes := map[int64]float64{}
	for _, row := range store.rows {
		sizes[row.ProductID] = row.BufferSize
	}
	require.Equal(t, 40.0, sizes[100])
	require.Equal(t, 8.0, sizes[200])
}

func TestRegistryUpdateIsNoop(t *testing.T) {
	store := &memoryBufferStore{}
	reg := NewRegistry(store, nil)
	require.NoError(t, reg.Update(context.Background(), Buffer{ID: 1, BufferSize: 3}))
	require.Empty(t, store.rows)
}

func TestRegistryApplyUpdatesMatchesDecomposedAccents(t *testing.T) {
	locations := []inventory.Location{
		{ID: 1, Name: "Bodega Ñuñoa", CompleteName: "Bodega Ñuñoa", Usage: inventory.UsageInternal, WarehouseDirect: true},
	}
	store := &memoryBufferStore{}
	reg := NewRegistry(store, nil)
	ctx := context.Background()
	_, err := reg.Ensure(ctx, 1, testProducts()[:1], []int64{1}, 15)
	require.NoError(t, err)

	// "N" + U+0303 COMBINING TILDE, as some spreadsheet exports write it.
	report, err := reg.ApplyUpdates(ctx, 1, testProducts(), ResolveReportable(locations), []BufferUpdate{
		{SKU: "SKU1", Location: "Bodega N\u0303un\u0303oa", BufferSize: 22},
	})
	require.NoError(t, err)
	require.Equal(t, UpdateReport{Updated: 1}, report)
	require.Equal(t, 22.0, store.rows[0].BufferSize)
}

func TestRegistryApplyUpdatesSkipsAmbiguousNames(t *testing.T) {
	locations := []inventory.Location{
		{ID: 1, Name: "Stock", CompleteName: "NORTE/Stock", Usage: inventory.UsageInternal, WarehouseDirect: true},
		{ID: 2, Name: "Stock", CompleteName: "SUR/Stock", Usage: inventory.UsageInternal, WarehouseDirect: true},
	}
	store := &memoryBufferStore{}
	reg := NewRegistry(store, nil)
	ctx := context.Background()
	_, err := reg.Ensure(ctx, 1, testProducts()[:1], []int64{1, 2}, 15)
	require.NoError(t, err)

	report, err := reg.ApplyUpdates(ctx, 1, testProducts(), ResolveReportable(locations), []BufferUpdate{
		{SKU: "SKU1", Location: "Stock", BufferSize: 99},
		{SKU: "SKU1", Location: "SUR/Stock", BufferSize: 30},
	})
	require.NoError(t, err)
	require.Equal(t, UpdateReport{Updated: 1, Missing: 1}, report)

	sizes := map[int64]float64{}
	for _, row := range store.rows {
		sizes[row.LocationID] = row.BufferSize
	}
	require.Equal(t, map[int64]float64{1: 15, 2: 30}, sizes)
}
