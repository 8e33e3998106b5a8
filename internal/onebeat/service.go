package onebeat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/onebeat/internal/inventory"
)

// InventoryPort exposes the ERP reads the service needs.
type InventoryPort interface {
	GetCompany(ctx context.Context, id int64) (inventory.Company, error)
	ListProducts(ctx context.Context, filter inventory.ProductFilter) ([]inventory.Product, error)
	ListLocations(ctx context.Context, filter inventory.LocationFilter) ([]inventory.Location, error)
	SumQuants(ctx context.Context, companyID int64) ([]inventory.Quant, error)
	ListOpenMoveLines(ctx context.Context, companyID int64) ([]inventory.MoveLine, error)
	ListMoves(ctx context.Context, filter inventory.MoveFilter) ([]inventory.Move, error)
}

// Options tune how datasets are built.
type Options struct {
	DefaultBuffer   float64
	AllCombinations bool
	// SeedOriginIDs and SeedDestinationIDs fix the lanes pre-seeded when
	// AllCombinations is on. Empty means every reportable location as origin
	// and every customer location as destination.
	SeedOriginIDs      []int64
	SeedDestinationIDs []int64
	// ProductionLocationID is the origin of products without a seller or
	// their own production location. Zero picks the first production location.
	ProductionLocationID int64
}

// Request selects the company and period of an export run.
type Request struct {
	CompanyID int64
	Window    Window
	AsOf      time.Time
	// Timezone overrides the company timezone when set.
	Timezone string
}

// Dataset is everything an export run renders.
type Dataset struct {
	RunID              string
	Company            inventory.Company
	CompanyCode        string
	Timezone           *time.Location
	AsOf               time.Time
	Window             Window
	Products           []inventory.Product
	Locations          []inventory.Location
	Resolution         Resolution
	Buffers            []Buffer
	Snapshot           *Snapshot
	Ledger             Ledger
	ProductionLocation *inventory.Location
}

// Service builds OneBeat datasets from ERP data.
type Service struct {
	inventory InventoryPort
	registry  *Registry
	opts      Options
	logger    *slog.Logger
	now       func() time.Time
}

// NewService constructs Service.
func NewService(inv InventoryPort, registry *Registry, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{inventory: inv, registry: registry, opts: opts, logger: logger, now: time.Now}
}

// CompanyCode derives the file name code from the company VAT.
func CompanyCode(c inventory.Company) (string, error) {
	vat := strings.TrimSpace(c.VAT)
	if vat == "" {
		return "", &ConfigurationError{Field: "vat", Reason: fmt.Sprintf("company %q has no VAT", c.Name)}
	}
	if r := []rune(vat); len(r) > 3 {
		vat = string(r[:3])
	}
	return vat, nil
}

// DefaultWindow is the last day ending at now.
func DefaultWindow(now time.Time) Window {
	return Window{Start: now.Add(-24 * time.Hour), Stop: now}
}

// Prepare loads ERP data, ensures buffers and computes the snapshot and ledger.
func (s *Service) Prepare(ctx context.Context, req Request) (*Dataset, error) {
	company, err := s.inventory.GetCompany(ctx, req.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("load company %d: %w", req.CompanyID, err)
	}
	code, err := CompanyCode(company)
	if err != nil {
		return nil, err
	}
	tzName := req.Timezone
	if tzName == "" {
		tzName = company.Timezone
	}
	tz, err := LoadTimezone(tzName)
	if err != nil {
		return nil, err
	}
	asOf := req.AsOf
	if asOf.IsZero() {
		asOf = s.now()
	}
	window := req.Window
	if window.Start.IsZero() && window.Stop.IsZero() {
		window = DefaultWindow(asOf)
	}
	if err := window.Validate(); err != nil {
		return nil, err
	}

	ds := &Dataset{
		RunID:       uuid.NewString(),
		Company:     company,
		CompanyCode: code,
		Timezone:    tz,
		AsOf:        asOf,
		Window:      window,
	}
	logger := s.logger.With(slog.String("run_id", ds.RunID), slog.Int64("company_id", company.ID))

	ds.Products, err = s.inventory.ListProducts(ctx, inventory.ProductFilter{CompanyID: company.ID, Reportable: true})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	ds.Locations, err = s.inventory.ListLocations(ctx, inventory.LocationFilter{CompanyID: company.ID})
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	ds.Resolution = ResolveReportable(ds.Locations)
	for _, id := range ds.Resolution.Unresolved {
		loc, _ := ds.Resolution.Location(id)
		logger.Warn("onebeat location has no reportable ancestor",
			slog.Int64("location_id", id), slog.String("location", loc.DisplayName()))
	}
	ds.ProductionLocation = s.productionLocation(ds.Locations)

	if s.registry != nil {
		ensured, err := s.registry.Ensure(ctx, company.ID, ds.Products, ds.Resolution.Reportable(), s.opts.DefaultBuffer)
		if err != nil {
			return nil, fmt.Errorf("ensure buffers: %w", err)
		}
		ds.Buffers = ensured.Buffers
	}

	quants, err := s.inventory.SumQuants(ctx, company.ID)
	if err != nil {
		return nil, fmt.Errorf("sum quants: %w", err)
	}
	lines, err := s.inventory.ListOpenMoveLines(ctx, company.ID)
	if err != nil {
		return nil, fmt.Errorf("list move lines: %w", err)
	}
	ds.Snapshot = BuildSnapshot(SnapshotInput{
		Products:   ds.Products,
		Resolution: ds.Resolution,
		Quants:     quants,
		Lines:      lines,
	})
	for pair, lvl := range ds.Snapshot.Leaked {
		logger.Warn("onebeat stock outside reportable locations",
			slog.Int64("product_id", pair.ProductID),
			slog.Int64("location_id", pair.LocationID),
			slog.Float64("on_hand", lvl.OnHand),
			slog.Float64("in_transit", lvl.InTransit))
	}

	moves, err := s.inventory.ListMoves(ctx, inventory.MoveFilter{
		CompanyID: company.ID,
		From:      window.Start,
		To:        window.Stop,
		States:    []inventory.MoveState{inventory.MoveStateDone},
	})
	if err != nil {
		return nil, fmt.Errorf("list moves: %w", err)
	}
	ds.Ledger = GroupTransactions(GroupInput{
		Moves:      moves,
		Products:   ds.Products,
		Resolution: ds.Resolution,
		Window:     window,
		Timezone:   tz,
		Seed:       s.seed(ds),
	})
	logger.Info("onebeat dataset prepared",
		slog.Int("products", len(ds.Products)),
		slog.Int("locations", len(ds.Snapshot.Locations)),
		slog.Int("buffers", len(ds.Buffers)),
		slog.Int("transactions", len(ds.Ledger)))
	return ds, nil
}

// ApplyBufferUpdates resolves the company catalog and applies the updates.
func (s *Service) ApplyBufferUpdates(ctx context.Context, companyID int64, updates []BufferUpdate) (UpdateReport, error) {
	if s.registry == nil {
		return UpdateReport{}, &ConfigurationError{Field: "registry", Reason: "buffer registry not configured"}
	}
	products, err := s.inventory.ListProducts(ctx, inventory.ProductFilter{CompanyID: companyID, Reportable: true})
	if err != nil {
		return UpdateReport{}, fmt.Errorf("list products: %w", err)
	}
	locations, err := s.inventory.ListLocations(ctx, inventory.LocationFilter{CompanyID: companyID})
	if err != nil {
		return UpdateReport{}, fmt.Errorf("list locations: %w", err)
	}
	report, err := s.registry.ApplyUpdates(ctx, companyID, products, ResolveReportable(locations), updates)
	if err != nil {
		return UpdateReport{}, err
	}
	s.logger.Info("onebeat buffer updates applied",
		slog.Int64("company_id", companyID),
		slog.Int("updated", report.Updated),
		slog.Int("missing", report.Missing))
	return report, nil
}

func (s *Service) productionLocation(locations []inventory.Location) *inventory.Location {
	for i := range locations {
		loc := locations[i]
		if s.opts.ProductionLocationID != 0 {
			if loc.ID == s.opts.ProductionLocationID {
				return &loc
			}
			continue
		}
		if loc.Usage == inventory.UsageProduction {
			return &loc
		}
	}
	return nil
}

func (s *Service) seed(ds *Dataset) *SeedConfig {
	if !s.opts.AllCombinations {
		return nil
	}
	cfg := &SeedConfig{Products: ds.Products}
	if len(s.opts.SeedOriginIDs) > 0 {
		cfg.Origins = pickLocations(ds.Resolution, s.opts.SeedOriginIDs)
	} else {
		cfg.Origins = pickLocations(ds.Resolution, ds.Resolution.Reportable())
	}
	if len(s.opts.SeedDestinationIDs) > 0 {
		cfg.Destinations = pickLocations(ds.Resolution, s.opts.SeedDestinationIDs)
	} else {
		for _, loc := range ds.Locations {
			if loc.Usage == inventory.UsageCustomer && !loc.Ignore {
				cfg.Destinations = append(cfg.Destinations, loc)
			}
		}
	}
	return cfg
}

func pickLocations(res Resolution, ids []int64) []inventory.Location {
	out := make([]inventory.Location, 0, len(ids))
	for _, id := range ids {
		if loc, ok := res.Location(id); ok {
			out = append(out, loc)
		}
	}
	return out
}
