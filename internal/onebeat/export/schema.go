package export

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/odyssey-erp/onebeat/internal/onebeat"
)

// Kind names one of the four OneBeat files.
type Kind string

const (
	KindStockLocations Kind = "STOCKLOCATIONS"
	KindSKUs           Kind = "MTSSKUS"
	KindTransactions   Kind = "TRANSACTIONS"
	KindStatus         Kind = "STATUS"
)

// Kinds lists the files in upload order.
var Kinds = []Kind{KindStockLocations, KindSKUs, KindTransactions, KindStatus}

// Column renders one field of a row.
type Column[R any] struct {
	Header string
	Value  func(R) string
}

// Report describes the layout of one file.
type Report[R any] struct {
	Kind    Kind
	Prefix  string
	Columns []Column[R]
}

// Headers returns the header line.
func (r Report[R]) Headers() []string {
	out := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		out[i] = c.Header
	}
	return out
}

// FileName builds <prefix><KIND>_<code>_<YYYYMMDD>.csv.
func (r Report[R]) FileName(companyCode, stamp string) string {
	return fmt.Sprintf("%s%s_%s_%s.csv", r.Prefix, r.Kind, companyCode, stamp)
}

// Schema selects the column layout of every file.
type Schema struct {
	Name           string
	StockLocations Report[StockLocationRow]
	SKUs           Report[SKURow]
	Transactions   Report[TransactionRow]
	Status         Report[StatusRow]
}

const (
	SchemaOneBeat     = "onebeat"
	SchemaFillrate100 = "fillrate100"
)

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func blank[R any](header string) Column[R] {
	return Column[R]{Header: header}
}

var stockLocationColumns = []Column[StockLocationRow]{
	{"Nombre Agencia", func(r StockLocationRow) string { return r.Name }},
	{"Descripción", func(r StockLocationRow) string { return r.Description }},
	{"Año reporte", func(r StockLocationRow) string { return r.Reported.Year }},
	{"Mes Reporte", func(r StockLocationRow) string { return r.Reported.Month }},
	{"Dia Reporte", func(r StockLocationRow) string { return r.Reported.Day }},
	blank[StockLocationRow]("Ubicación"),
}

// OneBeatSchema is the native OneBeat layout.
var OneBeatSchema = Schema{
	Name:           SchemaOneBeat,
	StockLocations: Report[StockLocationRow]{Kind: KindStockLocations, Columns: stockLocationColumns},
	SKUs: Report[SKURow]{Kind: KindSKUs, Columns: []Column[SKURow]{
		{"Stock Location Name", func(r SKURow) string { return r.Location }},
		{"Origin SL", func(r SKURow) string { return r.Origin }},
		{"SKU Name", func(r SKURow) string { return r.SKU }},
		{"SKU Description", func(r SKURow) string { return r.Description }},
		{"Buffer Size", func(r SKURow) string { return num(r.BufferSize) }},
		{"Replenishment Time", func(r SKURow) string { return strconv.Itoa(r.ReplenishmentTime) }},
		{"Inventory at Site", func(r SKURow) string { return num(r.InventoryAtSite) }},
		{"Inventory at Transit", func(r SKURow) string { return num(r.InventoryInTransit) }},
		{"Inventory at Production", func(r SKURow) string { return num(r.InventoryProduction) }},
		{"Precio unitario", func(r SKURow) string { return num(r.UnitPrice) }},
		{"TVC", func(r SKURow) string { return num(r.TVC) }},
		{"Throughput", func(r SKURow) string { return num(r.Throughput) }},
		{"Minimo Reabastecimiento", func(r SKURow) string { return num(r.MinReplenishment) }},
		{"Unidad de Medida", func(r SKURow) string { return r.UoM }},
		{"Reported Year", func(r SKURow) string { return r.Reported.Year }},
		{"Reported Month", func(r SKURow) string { return r.Reported.Month }},
		{"Reported Day", func(r SKURow) string { return r.Reported.Day }},
	}},
	Transactions: Report[TransactionRow]{Kind: KindTransactions, Columns: []Column[TransactionRow]{
		{"Origin", func(r TransactionRow) string { return r.Origin }},
		{"SKU Name", func(r TransactionRow) string { return r.SKU }},
		{"Destination", func(r TransactionRow) string { return r.Destination }},
		{"Transaction Type (in/out)", func(r TransactionRow) string { return string(r.Direction) }},
		{"Quantity", func(r TransactionRow) string { return num(r.Quantity) }},
		{"Shipping Year", func(r TransactionRow) string { return r.Shipped.Year }},
		{"Shipping Month", func(r TransactionRow) string { return r.Shipped.Month }},
		{"Shipping Day", func(r TransactionRow) string { return r.Shipped.Day }},
	}},
	Status: Report[StatusRow]{Kind: KindStatus, Columns: []Column[StatusRow]{
		{"Stock Location Name", func(r StatusRow) string { return r.Location }},
		{"SKU Name", func(r StatusRow) string { return r.SKU }},
		{"SKU Description", func(r StatusRow) string { return r.Description }},
		{"Inventory At Hand", func(r StatusRow) string { return num(r.OnHand) }},
		{"Inventory On The Way", func(r StatusRow) string { return num(r.InTransit) }},
		{"Reported Year", func(r StatusRow) string { return r.Reported.Year }},
		{"Reported Month", func(r StatusRow) string { return r.Reported.Month }},
		{"Reported Day", func(r StatusRow) string { return r.Reported.Day }},
	}},
}

// Fillrate100Schema is the import layout of the Fillrate100 planner. Its
// STOCKLOCATIONS file keeps the OneBeat layout and name.
var Fillrate100Schema = Schema{
	Name:           SchemaFillrate100,
	StockLocations: Report[StockLocationRow]{Kind: KindStockLocations, Columns: stockLocationColumns},
	SKUs: Report[SKURow]{Kind: KindSKUs, Prefix: "input_", Columns: []Column[SKURow]{
		blank[SKURow]("External id"),
		{"sku", func(r SKURow) string { return r.SKU }},
		{"location", func(r SKURow) string { return r.Location }},
		{"description", func(r SKURow) string { return r.Description }},
		{"origin", func(r SKURow) string { return r.Origin }},
		{"replenishment_time", func(r SKURow) string { return strconv.Itoa(r.ReplenishmentTime) }},
		blank[SKURow]("day_to_replenish"),
		{"buffer", func(r SKURow) string { return num(r.BufferSize) }},
		{"unit_cost", func(r SKURow) string { return num(r.UnitPrice) }},
		blank[SKURow]("min_qty"),
		blank[SKURow]("multiple"),
	}},
	Transactions: Report[TransactionRow]{Kind: KindTransactions, Prefix: "input_", Columns: []Column[TransactionRow]{
		blank[TransactionRow]("External id"),
		blank[TransactionRow]("replenishment order"),
		{"order_date", func(r TransactionRow) string {
			return fmt.Sprintf("%s-%s-%s 00:00:00", r.Shipped.Year, r.Shipped.Month, r.Shipped.Day)
		}},
		blank[TransactionRow]("skuloc"),
		{"sku", func(r TransactionRow) string { return r.SKU }},
		{"destination", func(r TransactionRow) string { return r.Destination }},
		blank[TransactionRow]("description"),
		{"Origin", func(r TransactionRow) string { return r.Origin }},
		{"quantity", func(r TransactionRow) string { return num(r.Quantity) }},
	}},
	Status: Report[StatusRow]{Kind: KindStatus, Prefix: "input_", Columns: []Column[StatusRow]{
		blank[StatusRow]("External id"),
		{"sku", func(r StatusRow) string { return r.SKU }},
		{"location", func(r StatusRow) string { return r.Location }},
		{"description", func(r StatusRow) string { return r.Description }},
		{"onhand", func(r StatusRow) string { return num(r.OnHand) }},
		{"transit", func(r StatusRow) string { return num(r.InTransit) }},
	}},
}

// SchemaByName resolves a configured schema name.
func SchemaByName(name string) (Schema, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", SchemaOneBeat:
		return OneBeatSchema, nil
	case SchemaFillrate100:
		return Fillrate100Schema, nil
	}
	return Schema{}, &onebeat.ConfigurationError{Field: "schema", Reason: fmt.Sprintf("unknown schema %q", name)}
}
