// Package replenish turns planner recommendations into purchase orders and
// buffer updates.
package replenish

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/odyssey-erp/onebeat/internal/inventory"
	"github.com/odyssey-erp/onebeat/internal/onebeat"
	"github.com/odyssey-erp/onebeat/internal/procurement"
	"github.com/odyssey-erp/onebeat/internal/transfer"
)

// Origin tags purchase orders created from recommendations.
const Origin = "Fillrate100"

// FilePattern matches recommendation files on the remote.
var FilePattern = regexp.MustCompile(`sku_ro_.+\.csv`)

// ErrNoReplenishmentFile is returned when the remote holds no usable file.
var ErrNoReplenishmentFile = errors.New("replenish: no replenishment file found")

// ProductCatalog loads company products.
type ProductCatalog interface {
	ListProducts(ctx context.Context, filter inventory.ProductFilter) ([]inventory.Product, error)
}

// OrderCreator persists the purchase orders of one file atomically.
type OrderCreator interface {
	CreatePurchaseOrders(ctx context.Context, inputs []procurement.CreatePOInput) ([]procurement.PurchaseOrder, error)
}

// BufferApplier applies buffer size updates.
type BufferApplier interface {
	ApplyBufferUpdates(ctx context.Context, companyID int64, updates []onebeat.BufferUpdate) (onebeat.UpdateReport, error)
}

// Result summarises a replenishment run.
type Result struct {
	File    string
	Orders  []procurement.PurchaseOrder
	Skipped []string
}

// Importer reads recommendation files and creates purchase orders.
type Importer struct {
	remote  transfer.Remote
	catalog ProductCatalog
	orders  OrderCreator
	buffers BufferApplier
	logger  *slog.Logger
}

// NewImporter constructs Importer. buffers may be nil when buffer updates
// are not ingested.
func NewImporter(remote transfer.Remote, catalog ProductCatalog, orders OrderCreator, buffers BufferApplier, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{remote: remote, catalog: catalog, orders: orders, buffers: buffers, logger: logger}
}

// Run consumes the latest recommendation file and deletes it once every
// purchase order was created.
func (i *Importer) Run(ctx context.Context, companyID int64) (Result, error) {
	if i.remote == nil {
		return Result{}, &onebeat.ConfigurationError{Field: "remote", Reason: "no remote configured"}
	}
	name, err := transfer.Latest(ctx, i.remote, FilePattern)
	if errors.Is(err, transfer.ErrNotFound) {
		return Result{}, ErrNoReplenishmentFile
	}
	if err != nil {
		return Result{}, fmt.Errorf("replenish: list remote: %w", err)
	}
	data, err := i.remote.Download(ctx, name)
	if err != nil {
		return Result{}, fmt.Errorf("replenish: download %s: %w", name, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return Result{}, ErrNoReplenishmentFile
	}
	rows, rejected, err := ParseRows(bytes.NewReader(data))
	if err != nil {
		return Result{}, fmt.Errorf("replenish: parse %s: %w", name, err)
	}
	for _, r := range rejected {
		i.logger.Warn("replenish row rejected", slog.String("file", name), slog.Int("line", r.Line), slog.String("reason", r.Reason))
	}
	res, err := i.Replenish(ctx, companyID, rows)
	res.File = name
	if err != nil {
		return res, err
	}
	if err := i.remote.Delete(ctx, name); err != nil {
		return res, fmt.Errorf("replenish: delete %s: %w", name, err)
	}
	i.logger.Info("replenish file consumed",
		slog.Int64("company_id", companyID),
		slog.String("file", name),
		slog.Int("orders", len(res.Orders)),
		slog.Int("skipped", len(res.Skipped)))
	return res, nil
}

type supplierOrder struct {
	supplierID int64
	lines      []procurement.POLineInput
}

// Replenish groups rows by the company seller of each product and creates
// one draft purchase order per supplier. The orders are created together.
func (i *Importer) Replenish(ctx context.Context, companyID int64, rows []Row) (Result, error) {
	var res Result
	if len(rows) == 0 {
		return res, nil
	}
	codes := make([]string, 0, len(rows))
	for _, r := range rows {
		codes = append(codes, r.SKU)
	}
	products, err := i.catalog.ListProducts(ctx, inventory.ProductFilter{CompanyID: companyID, Codes: codes})
	if err != nil {
		return res, fmt.Errorf("replenish: list products: %w", err)
	}
	bySKU := make(map[string]inventory.Product, len(products))
	for _, p := range products {
		bySKU[p.Code] = p
	}

	var ordered []*supplierOrder
	bySupplier := map[int64]*supplierOrder{}
	for _, r := range rows {
		p, ok := bySKU[r.SKU]
		if !ok || !p.PurchaseOK {
			i.skip(&res, companyID, r.SKU, "unknown or not purchasable")
			continue
		}
		seller, ok := p.SellerForCompany(companyID)
		if !ok {
			i.skip(&res, companyID, r.SKU, "no seller for company")
			continue
		}
		if r.Qty <= 0 {
			i.skip(&res, companyID, r.SKU, "non-positive quantity")
			continue
		}
		uom := p.UoM
		if p.PurchaseUoM != nil {
			uom = *p.PurchaseUoM
		}
		order, ok := bySupplier[seller.PartnerID]
		if !ok {
			order = &supplierOrder{supplierID: seller.PartnerID}
			bySupplier[seller.PartnerID] = order
			ordered = append(ordered, order)
		}
		order.lines = append(order.lines, procurement.POLineInput{ProductID: p.ID, Qty: r.Qty, UoMID: uom.ID})
	}

	if len(ordered) == 0 {
		return res, nil
	}
	inputs := make([]procurement.CreatePOInput, 0, len(ordered))
	for _, order := range ordered {
		inputs = append(inputs, procurement.CreatePOInput{
			CompanyID:  companyID,
			SupplierID: order.supplierID,
			Origin:     Origin,
			Lines:      order.lines,
		})
	}
	pos, err := i.orders.CreatePurchaseOrders(ctx, inputs)
	if err != nil {
		return res, fmt.Errorf("replenish: create orders: %w", err)
	}
	res.Orders = pos
	return res, nil
}

func (i *Importer) skip(res *Result, companyID int64, sku, reason string) {
	res.Skipped = append(res.Skipped, sku)
	i.logger.Warn("replenish sku skipped",
		slog.Int64("company_id", companyID),
		slog.String("sku", sku),
		slog.String("reason", reason))
}

// ImportBufferUpdates parses a sku;location;buffer file and applies it.
// Unparseable lines count as missing.
func (i *Importer) ImportBufferUpdates(ctx context.Context, companyID int64, r io.Reader) (onebeat.UpdateReport, error) {
	if i.buffers == nil {
		return onebeat.UpdateReport{}, &onebeat.ConfigurationError{Field: "buffers", Reason: "buffer updates not configured"}
	}
	updates, rejected, err := ParseBufferUpdates(r)
	if err != nil {
		return onebeat.UpdateReport{}, err
	}
	for _, rj := range rejected {
		i.logger.Warn("buffer update rejected",
			slog.Int64("company_id", companyID),
			slog.Int("line", rj.Line),
			slog.String("reason", rj.Reason))
	}
	report, err := i.buffers.ApplyBufferUpdates(ctx, companyID, updates)
	if err != nil {
		return onebeat.UpdateReport{}, err
	}
	report.Missing += len(rejected)
	return report, nil
}

// ImportBufferFile consumes a buffer update file from the remote.
func (i *Importer) ImportBufferFile(ctx context.Context, companyID int64, name string) (onebeat.UpdateReport, error) {
	if i.remote == nil {
		return onebeat.UpdateReport{}, &onebeat.ConfigurationError{Field: "remote", Reason: "no remote configured"}
	}
	data, err := i.remote.Download(ctx, strings.TrimSpace(name))
	if err != nil {
		return onebeat.UpdateReport{}, fmt.Errorf("replenish: download %s: %w", name, err)
	}
	return i.ImportBufferUpdates(ctx, companyID, bytes.NewReader(data))
}
