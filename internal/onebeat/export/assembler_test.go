package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/onebeat/internal/inventory"
	"github.com/odyssey-erp/onebeat/internal/onebeat"
)

func testDataset(t *testing.T) *onebeat.Dataset {
	t.Helper()
	locations := []inventory.Location{
		{ID: 1, Name: "Stock", CompleteName: "WH/Stock", Barcode: "WH-STOCK", Usage: inventory.UsageInternal, WarehouseDirect: true},
		{ID: 2, ParentID: 1, Name: "Shelf", CompleteName: "WH/Stock/Shelf", Usage: inventory.UsageInternal},
		{ID: 5, Name: "Vendors", CompleteName: "Partners/Vendors", Usage: inventory.UsageSupplier},
		{ID: 6, Name: "Customers", CompleteName: "Partners/Customers", Usage: inventory.UsageCustomer},
		{ID: 7, Name: "Production", CompleteName: "Virtual/Production", Usage: inventory.UsageProduction},
	}
	unit := inventory.UnitOfMeasure{ID: 1, Name: "Units", Rounding: 0.01}
	products := []inventory.Product{
		{ID: 100, Code: "SKU1", Name: "Widget\nlarge", Type: inventory.ProductTypeStorable, ListPrice: 12, StandardPrice: 7, UoM: unit,
			Sellers: []inventory.SupplierInfo{{PartnerID: 9, Delay: 3, MinQty: 20, SupplierLocationID: 5}}},
		{ID: 200, Code: "SKU2", Name: "Gadget", Type: inventory.ProductTypeStorable, ListPrice: 3, StandardPrice: 5, UoM: unit},
	}
	res := onebeat.ResolveReportable(locations)
	tz, err := time.LoadLocation("America/Bogota")
	require.NoError(t, err)
	asOf := time.Date(2024, time.March, 5, 2, 0, 0, 0, time.UTC)
	production := locations[4]
	return &onebeat.Dataset{
		Company:     inventory.Company{ID: 1, Name: "Acme", VAT: "900123"},
		CompanyCode: "900",
		Timezone:    tz,
		AsOf:        asOf,
		Products:    products,
		Locations:   locations,
		Resolution:  res,
		Buffers: []onebeat.Buffer{
			{ID: 1, ProductID: 100, LocationID: 1, BufferSize: 15, ReplenishmentTime: 3},
			{ID: 2, ProductID: 200, LocationID: 1, BufferSize: 15},
		},
		Snapshot: onebeat.BuildSnapshot(onebeat.SnapshotInput{
			Products:   products,
			Resolution: res,
			Quants:     []inventory.Quant{{ProductID: 100, LocationID: 2, Quantity: 4.5}},
			Lines:      []inventory.MoveLine{{ProductID: 100, LocationID: 5, LocationDestID: 2, State: inventory.MoveStateAssigned, ProductUomQty: 2}},
		}),
		Ledger: onebeat.Ledger{
			{SKU: "SKU1", Origin: "WH/Stock", Destination: "Partners/Customers", Direction: onebeat.DirectionOut, Date: onebeat.DayOf(asOf, tz)}: 3,
		},
		ProductionLocation: &production,
	}
}

func readCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = Delimiter
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	require.NoError(t, err)
	return records
}

func TestRenderAllOneBeat(t *testing.T) {
	files, err := NewAssembler(OneBeatSchema).RenderAll(testDataset(t))
	require.NoError(t, err)
	require.Len(t, files, 4)

	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
		require.True(t, bytes.Contains(f.Data, []byte("\r\n")))
	}
	require.Equal(t, []string{
		"STOCKLOCATIONS_900_20240304.csv",
		"MTSSKUS_900_20240304.csv",
		"TRANSACTIONS_900_20240304.csv",
		"STATUS_900_20240304.csv",
	}, names)

	skus := readCSV(t, files[1].Data)
	require.Equal(t, OneBeatSchema.SKUs.Headers(), skus[0])
	require.Equal(t, "Stock Location Name", skus[0][0])
	require.Len(t, skus, 3)
	require.Equal(t, []string{
		"WH/Stock", "Vendors", "SKU1", "Widgetlarge", "15", "3", "4.5", "2", "0",
		"12", "7", "5", "20", "Units", "2024", "03", "04",
	}, skus[1])
	require.Equal(t, "Production", skus[2][1])
	require.Equal(t, "0", skus[2][11])

	locations := readCSV(t, files[0].Data)
	require.Equal(t, []string{"Nombre Agencia", "Descripción", "Año reporte", "Mes Reporte", "Dia Reporte", "Ubicación"}, locations[0])
	require.Equal(t, []string{"Stock", "WH-STOCK", "2024", "03", "04", ""}, locations[1])
	require.Len(t, locations, 5)

	tx := readCSV(t, files[2].Data)
	require.Equal(t, []string{"WH/Stock", "SKU1", "Partners/Customers", "OUT", "3", "2024", "03", "04"}, tx[1])

	status := readCSV(t, files[3].Data)
	require.Len(t, status, 3)
	require.Equal(t, []string{"WH/Stock", "SKU2", "Gadget", "0", "0", "2024", "03", "04"}, status[2])
}

func TestRenderFillrate100(t *testing.T) {
	asm := NewAssembler(Fillrate100Schema)
	ds := testDataset(t)

	stock, err := asm.Render(ds, KindStockLocations)
	require.NoError(t, err)
	require.Equal(t, "STOCKLOCATIONS_900_20240304.csv", stock.Name)

	skus, err := asm.Render(ds, KindSKUs)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(skus.Name, "input_MTSSKUS_"))
	rows := readCSV(t, skus.Data)
	require.Equal(t, []string{"External id", "sku", "location", "description", "origin", "replenishment_time",
		"day_to_replenish", "buffer", "unit_cost", "min_qty", "multiple"}, rows[0])
	require.Equal(t, []string{"", "SKU1", "WH/Stock", "Widgetlarge", "Vendors", "3", "", "15", "12", "", ""}, rows[1])

	tx, err := asm.Render(ds, KindTransactions)
	require.NoError(t, err)
	rows = readCSV(t, tx.Data)
	require.Equal(t, "2024-03-04 00:00:00", rows[1][2])
	require.Equal(t, "WH/Stock", rows[1][7])

	status, err := asm.Render(ds, KindStatus)
	require.NoError(t, err)
	rows = readCSV(t, status.Data)
	require.Equal(t, []string{"External id", "sku", "location", "description", "onhand", "transit"}, rows[0])
	require.Equal(t, []string{"", "SKU1", "WH/Stock", "Widgetlarge", "4.5", "2"}, rows[1])
}

func TestRenderRequiresCompanyCode(t *testing.T) {
	ds := testDataset(t)
	ds.CompanyCode = ""
	_, err := NewAssembler(OneBeatSchema).RenderAll(ds)
	require.ErrorIs(t, err, onebeat.ErrConfiguration)
}

func TestFileNameDefaultsToUTC(t *testing.T) {
	ds := testDataset(t)
	ds.Timezone = nil
	name, err := NewAssembler(OneBeatSchema).FileName(ds, KindStatus)
	require.NoError(t, err)
	require.Equal(t, "STATUS_900_20240305.csv", name)
}

func TestSchemaByName(t *testing.T) {
	s, err := SchemaByName("Fillrate100")
	require.NoError(t, err)
	require.Equal(t, SchemaFillrate100, s.Name)
	s, err = SchemaByName("")
	require.NoError(t, err)
	require.Equal(t, SchemaOneBeat, s.Name)
	_, err = SchemaByName("csv2")
	require.ErrorIs(t, err, onebeat.ErrConfiguration)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("mtsskus")
	require.NoError(t, err)
	require.Equal(t, KindSKUs, k)
	_, err = ParseKind("ledger")
	require.Error(t, err)
}
