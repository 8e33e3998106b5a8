package export

import (
	"math"
	"strings"

	"github.com/odyssey-erp/onebeat/internal/inventory"
	"github.com/odyssey-erp/onebeat/internal/onebeat"
)

// ReportDate is a calendar date split the way OneBeat columns expect it.
type ReportDate struct {
	Year  string
	Month string
	Day   string
}

func splitDay(d onebeat.Day) ReportDate {
	s := d.String()
	return ReportDate{Year: s[0:4], Month: s[5:7], Day: s[8:10]}
}

// StockLocationRow is one line of STOCKLOCATIONS.
type StockLocationRow struct {
	Name        string
	Description string
	Reported    ReportDate
}

// SKURow is one line of MTSSKUS.
type SKURow struct {
	Location            string
	Origin              string
	SKU                 string
	Description         string
	BufferSize          float64
	ReplenishmentTime   int
	InventoryAtSite     float64
	InventoryInTransit  float64
	InventoryProduction float64
	UnitPrice           float64
	TVC                 float64
	Throughput          float64
	MinReplenishment    float64
	UoM                 string
	Reported            ReportDate
}

// TransactionRow is one line of TRANSACTIONS.
type TransactionRow struct {
	Origin      string
	SKU         string
	Destination string
	Direction   onebeat.Direction
	Quantity    float64
	Shipped     ReportDate
}

// StatusRow is one line of STATUS.
type StatusRow struct {
	Location    string
	SKU         string
	Description string
	OnHand      float64
	InTransit   float64
	Reported    ReportDate
}

func clean(s string) string {
	return strings.NewReplacer("\r", "", "\n", "").Replace(s)
}

func reported(ds *onebeat.Dataset) ReportDate {
	return splitDay(onebeat.DayOf(ds.AsOf, ds.Timezone))
}

// StockLocationRows lists the reportable locations followed by the partner
// locations OneBeat needs to know about.
func StockLocationRows(ds *onebeat.Dataset) []StockLocationRow {
	date := reported(ds)
	seen := map[int64]struct{}{}
	var rows []StockLocationRow
	add := func(loc inventory.Location) {
		if _, ok := seen[loc.ID]; ok {
			return
		}
		seen[loc.ID] = struct{}{}
		rows = append(rows, StockLocationRow{
			Name:        clean(loc.Name),
			Description: clean(loc.Barcode),
			Reported:    date,
		})
	}
	for _, id := range ds.Resolution.Reportable() {
		if loc, ok := ds.Resolution.Location(id); ok {
			add(loc)
		}
	}
	for _, usage := range []inventory.Usage{inventory.UsageCustomer, inventory.UsageSupplier} {
		for _, loc := range ds.Locations {
			if loc.Usage == usage && !loc.Ignore {
				add(loc)
			}
		}
	}
	if ds.ProductionLocation != nil {
		add(*ds.ProductionLocation)
	}
	return rows
}

// SKURows renders one line per buffer.
func SKURows(ds *onebeat.Dataset) []SKURow {
	date := reported(ds)
	products := make(map[int64]inventory.Product, len(ds.Products))
	for _, p := range ds.Products {
		products[p.ID] = p
	}
	rows := make([]SKURow, 0, len(ds.Buffers))
	for _, b := range ds.Buffers {
		p, ok := products[b.ProductID]
		if !ok {
			continue
		}
		loc, _ := ds.Resolution.Location(b.LocationID)
		level := ds.Snapshot.Level(b.ProductID, b.LocationID)
		row := SKURow{
			Location:           clean(ds.Resolution.ReportableName(loc)),
			Origin:             clean(originName(ds, p)),
			SKU:                clean(p.Code),
			Description:        clean(p.Name),
			BufferSize:         b.BufferSize,
			ReplenishmentTime:  b.ReplenishmentTime,
			InventoryAtSite:    level.OnHand,
			InventoryInTransit: level.InTransit,
			UnitPrice:          p.ListPrice,
			TVC:                p.StandardPrice,
			Throughput:         math.Max(p.ListPrice-p.StandardPrice, 0),
			UoM:                clean(p.UoM.Name),
			Reported:           date,
		}
		if seller, ok := p.MainSeller(); ok {
			row.MinReplenishment = seller.MinQty
		}
		rows = append(rows, row)
	}
	return rows
}

func originName(ds *onebeat.Dataset, p inventory.Product) string {
	if seller, ok := p.MainSeller(); ok {
		if loc, ok := ds.Resolution.Location(seller.SupplierLocationID); ok {
			return loc.Name
		}
		return ""
	}
	if p.ProductionLocationID != 0 {
		if loc, ok := ds.Resolution.Location(p.ProductionLocationID); ok {
			return loc.Name
		}
	}
	if ds.ProductionLocation != nil {
		return ds.ProductionLocation.Name
	}
	return ""
}

// TransactionRows renders the ledger in date order.
func TransactionRows(ds *onebeat.Dataset) []TransactionRow {
	entries := ds.Ledger.Entries()
	rows := make([]TransactionRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, TransactionRow{
			Origin:      clean(e.Key.Origin),
			SKU:         clean(e.Key.SKU),
			Destination: clean(e.Key.Destination),
			Direction:   e.Key.Direction,
			Quantity:    e.Quantity,
			Shipped:     splitDay(e.Key.Date),
		})
	}
	return rows
}

// StatusRows renders every product at every reportable location.
func StatusRows(ds *onebeat.Dataset) []StatusRow {
	date := reported(ds)
	products := make(map[int64]inventory.Product, len(ds.Products))
	for _, p := range ds.Products {
		products[p.ID] = p
	}
	snapRows := ds.Snapshot.Rows(ds.Products)
	rows := make([]StatusRow, 0, len(snapRows))
	for _, sr := range snapRows {
		p := products[sr.ProductID]
		loc, _ := ds.Resolution.Location(sr.LocationID)
		rows = append(rows, StatusRow{
			Location:    clean(ds.Resolution.ReportableName(loc)),
			SKU:         clean(p.Code),
			Description: clean(p.Name),
			OnHand:      sr.Level.OnHand,
			InTransit:   sr.Level.InTransit,
			Reported:    date,
		})
	}
	return rows
}
