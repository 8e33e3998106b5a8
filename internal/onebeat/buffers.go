package onebeat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/odyssey-erp/onebeat/internal/inventory"
)

// BufferStore persists buffers inside a single transaction.
type BufferStore interface {
	WithTx(ctx context.Context, fn func(context.Context, BufferTx) error) error
}

// BufferTx exposes the transactional buffer operations.
type BufferTx interface {
	ListBuffers(ctx context.Context, companyID int64) ([]Buffer, error)
	// InsertBuffers skips rows that already exist and returns how many were written.
	InsertBuffers(ctx context.Context, buffers []Buffer) (int, error)
	UpdateBufferSize(ctx context.Context, id int64, size float64) error
}

// EnsureResult lists the buffers covering the requested cross product.
type EnsureResult struct {
	Buffers []Buffer
	Created int
}

// UpdateReport summarises a buffer update batch.
type UpdateReport struct {
	Updated int
	Missing int
}

// Registry owns the buffer targets shared with the planner.
type Registry struct {
	store  BufferStore
	logger *slog.Logger
}

// NewRegistry constructs a Registry.
func NewRegistry(store BufferStore, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{store: store, logger: logger}
}

// Ensure creates the buffers missing from products x locations and returns
// the full set. New rows get defaultBuffer and the product lead time.
func (r *Registry) Ensure(ctx context.Context, companyID int64, products []inventory.Product, locationIDs []int64, defaultBuffer float64) (EnsureResult, error) {
	var result EnsureResult
	err := r.store.WithTx(ctx, func(ctx context.Context, tx BufferTx) error {
		existing, err := tx.ListBuffers(ctx, companyID)
		if err != nil {
			return fmt.Errorf("list buffers: %w", err)
		}
		have := indexBuffers(existing)
		var missing []Buffer
		for _, p := range products {
			for _, locID := range locationIDs {
				if _, ok := have[Pair{ProductID: p.ID, LocationID: locID}]; ok {
					continue
				}
				missing = append(missing, Buffer{
					CompanyID:         companyID,
					ProductID:         p.ID,
					LocationID:        locID,
					BufferSize:        defaultBuffer,
					ReplenishmentTime: replenishmentTime(p),
				})
			}
		}
		result = EnsureResult{}
		if len(missing) > 0 {
			n, err := tx.InsertBuffers(ctx, missing)
			if err != nil {
				return fmt.Errorf("insert buffers: %w", err)
			}
			result.Created = n
			// Re-read so ids are populated and rows written by a concurrent
			// caller are picked up.
			existing, err = tx.ListBuffers(ctx, companyID)
			if err != nil {
				return fmt.Errorf("list buffers: %w", err)
			}
			have = indexBuffers(existing)
		}
		result.Buffers = make([]Buffer, 0, len(products)*len(locationIDs))
		for _, p := range products {
			for _, locID := range locationIDs {
				if b, ok := have[Pair{ProductID: p.ID, LocationID: locID}]; ok {
					result.Buffers = append(result.Buffers, b)
				}
			}
		}
		return nil
	})
	if err != nil {
		return EnsureResult{}, err
	}
	if result.Created > 0 {
		r.logger.Info("onebeat buffers created", slog.Int64("company_id", companyID), slog.Int("created", result.Created))
	}
	return result, nil
}

// Update is reserved for pushing buffer changes back to the ERP. It does nothing yet.
func (r *Registry) Update(context.Context, Buffer) error {
	return nil
}

// ApplyUpdates sets new buffer sizes addressed by SKU and location name.
// Rows that match no buffer, or name a location shared by several reportable
// locations, are logged and skipped.
func (r *Registry) ApplyUpdates(ctx context.Context, companyID int64, products []inventory.Product, res Resolution, updates []BufferUpdate) (UpdateReport, error) {
	bySKU := make(map[string]int64, len(products))
	for _, p := range products {
		if p.Code != "" {
			bySKU[p.Code] = p.ID
		}
	}
	byName := map[string]int64{}
	ambiguous := map[string]bool{}
	for _, id := range res.Reportable() {
		loc, ok := res.Location(id)
		if !ok {
			continue
		}
		for _, name := range []string{loc.DisplayName(), loc.Name, loc.Barcode} {
			key := nameKey(name)
			if key == "" {
				continue
			}
			if prev, seen := byName[key]; seen && prev != id {
				ambiguous[key] = true
				continue
			}
			byName[key] = id
		}
	}

	var report UpdateReport
	err := r.store.WithTx(ctx, func(ctx context.Context, tx BufferTx) error {
		existing, err := tx.ListBuffers(ctx, companyID)
		if err != nil {
			return fmt.Errorf("list buffers: %w", err)
		}
		have := indexBuffers(existing)
		report = UpdateReport{}
		for _, u := range updates {
			key := nameKey(u.Location)
			if ambiguous[key] {
				report.Missing++
				r.logger.Warn("onebeat buffer update with ambiguous location",
					slog.Int64("company_id", companyID),
					slog.String("sku", u.SKU),
					slog.String("location", u.Location))
				continue
			}
			productID, okP := bySKU[strings.TrimSpace(u.SKU)]
			locationID, okL := byName[key]
			buf, okB := have[Pair{ProductID: productID, LocationID: locationID}]
			if !okP || !okL || !okB {
				report.Missing++
				r.logger.Warn("onebeat buffer update without mapping",
					slog.Int64("company_id", companyID),
					slog.String("sku", u.SKU),
					slog.String("location", u.Location))
				continue
			}
			if err := tx.UpdateBufferSize(ctx, buf.ID, u.BufferSize); err != nil {
				return fmt.Errorf("update buffer %d: %w", buf.ID, err)
			}
			report.Updated++
		}
		return nil
	})
	if err != nil {
		return UpdateReport{}, err
	}
	return report, nil
}

// nameKey folds location names so composed and decomposed accents match.
func nameKey(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func indexBuffers(buffers []Buffer) map[Pair]Buffer {
	out := make(map[Pair]Buffer, len(buffers))
	for _, b := range buffers {
		out[Pair{ProductID: b.ProductID, LocationID: b.LocationID}] = b
	}
	return out
}

func replenishmentTime(p inventory.Product) int {
	if seller, ok := p.MainSeller(); ok {
		return seller.Delay
	}
	return p.ProduceDelay
}
