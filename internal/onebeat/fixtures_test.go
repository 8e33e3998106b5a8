package onebeat

import (
	"time"

	"github.com/odyssey-erp/onebeat/internal/inventory"
)

const (
	locWarehouse  int64 = 1
	locZone       int64 = 2
	locShelf      int64 = 3
	locOrphan     int64 = 4
	locSupplier   int64 = 5
	locCustomer   int64 = 6
	locProduction int64 = 7
	locIgnored    int64 = 8
	locTransit    int64 = 9
	locView       int64 = 10
)

func testLocations() []inventory.Location {
	return []inventory.Location{
		{ID: locView, Name: "WH", CompleteName: "WH", Usage: inventory.UsageOther},
		{ID: locWarehouse, ParentID: locView, Name: "Stock", CompleteName: "WH/Stock", Barcode: "WH-STOCK", Usage: inventory.UsageInternal, WarehouseDirect: true},
		{ID: locZone, ParentID: locWarehouse, Name: "Zone-1", CompleteName: "WH/Stock/Zone-1", Usage: inventory.UsageInternal},
		{ID: locShelf, ParentID: locZone, Name: "Shelf-A", CompleteName: "WH/Stock/Zone-1/Shelf-A", Usage: inventory.UsageInternal},
		{ID: locOrphan, Name: "Loose", CompleteName: "Loose", Usage: inventory.UsageInternal},
		{ID: locSupplier, Name: "Vendors", CompleteName: "Partners/Vendors", Usage: inventory.UsageSupplier},
		{ID: locCustomer, Name: "Customers", CompleteName: "Partners/Customers", Usage: inventory.UsageCustomer},
		{ID: locProduction, Name: "Production", CompleteName: "Virtual/Production", Usage: inventory.UsageProduction},
		{ID: locIgnored, ParentID: locWarehouse, Name: "Quarantine", CompleteName: "WH/Stock/Quarantine", Usage: inventory.UsageInternal, Ignore: true},
		{ID: locTransit, Name: "Transit", CompleteName: "Virtual/Transit", Usage: inventory.UsageTransit},
	}
}

func testProducts() []inventory.Product {
	unit := inventory.UnitOfMeasure{ID: 1, Name: "Units", Rounding: 1}
	return []inventory.Product{
		{
			ID: 100, CompanyID: 1, Code: "SKU1", Name: "Widget", Type: inventory.ProductTypeStorable,
			ListPrice: 12, StandardPrice: 7, UoM: unit, PurchaseOK: true,
			Sellers: []inventory.SupplierInfo{{PartnerID: 50, PartnerName: "Acme", Delay: 9, MinQty: 20, SupplierLocationID: locSupplier}},
		},
		{
			ID: 200, CompanyID: 1, Code: "SKU2", Name: "Gadget", Type: inventory.ProductTypeStorable,
			ListPrice: 3, StandardPrice: 5, UoM: unit, ProduceDelay: 4,
		},
	}
}

func day(y int, m time.Month, d int) Day {
	return Day{Year: y, Month: m, Dom: d}
}
