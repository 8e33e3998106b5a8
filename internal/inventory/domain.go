package inventory

import (
	"errors"
	"time"
)

// Usage classifies a stock location.
type Usage string

const (
	UsageSupplier   Usage = "supplier"
	UsageInternal   Usage = "internal"
	UsageCustomer   Usage = "customer"
	UsageProduction Usage = "production"
	UsageTransit    Usage = "transit"
	UsageOther      Usage = "other"
)

// MoveState enumerates the lifecycle of a stock move or move line.
type MoveState string

const (
	MoveStateDraft              MoveState = "draft"
	MoveStateWaiting            MoveState = "waiting"
	MoveStateConfirmed          MoveState = "confirmed"
	MoveStatePartiallyAvailable MoveState = "partially_available"
	MoveStateAssigned           MoveState = "assigned"
	MoveStateDone               MoveState = "done"
	MoveStateCancel             MoveState = "cancel"
)

// Pending reports whether the state still expects goods to arrive.
func (s MoveState) Pending() bool {
	switch s {
	case MoveStateWaiting, MoveStateConfirmed, MoveStatePartiallyAvailable, MoveStateAssigned:
		return true
	}
	return false
}

// ProductType mirrors the ERP product kind.
type ProductType string

const (
	ProductTypeStorable   ProductType = "product"
	ProductTypeConsumable ProductType = "consu"
	ProductTypeService    ProductType = "service"
)

// Company carries the settings needed to label exports.
type Company struct {
	ID       int64
	Name     string
	VAT      string
	Timezone string
}

// UnitOfMeasure describes a product unit and its rounding step.
type UnitOfMeasure struct {
	ID       int64
	Name     string
	Rounding float64
}

// SupplierInfo is the first vendor price list entry of a product.
type SupplierInfo struct {
	PartnerID          int64
	PartnerName        string
	CompanyID          int64
	Delay              int
	MinQty             float64
	SupplierLocationID int64
}

// Product is a stockable item identified by its code inside a company.
type Product struct {
	ID                   int64
	CompanyID            int64
	Code                 string
	Name                 string
	Type                 ProductType
	ListPrice            float64
	StandardPrice        float64
	UoM                  UnitOfMeasure
	PurchaseUoM          *UnitOfMeasure
	Sellers              []SupplierInfo
	ProduceDelay         int
	ProductionLocationID int64
	PurchaseOK           bool
}

// Reportable reports whether the product takes part in OneBeat exports.
func (p Product) Reportable() bool {
	return p.Type != ProductTypeService && p.Code != ""
}

// MainSeller returns the first seller registered for the product.
func (p Product) MainSeller() (SupplierInfo, bool) {
	if len(p.Sellers) == 0 {
		return SupplierInfo{}, false
	}
	return p.Sellers[0], true
}

// SellerForCompany returns the first seller restricted to (or shared with) the company.
func (p Product) SellerForCompany(companyID int64) (SupplierInfo, bool) {
	for _, s := range p.Sellers {
		if s.CompanyID == companyID || s.CompanyID == 0 {
			return s, true
		}
	}
	return SupplierInfo{}, false
}

// Location is a node of the stock location tree.
type Location struct {
	ID              int64
	ParentID        int64
	CompanyID       int64
	Name            string
	CompleteName    string
	Barcode         string
	Usage           Usage
	Ignore          bool
	WarehouseDirect bool
}

// DisplayName prefers the complete (path) name.
func (l Location) DisplayName() string {
	if l.CompleteName != "" {
		return l.CompleteName
	}
	return l.Name
}

// Quant is an on-hand quantity record.
type Quant struct {
	ProductID  int64
	LocationID int64
	Quantity   float64
}

// MoveLine is a detailed move operation still open or finished.
type MoveLine struct {
	ProductID      int64
	LocationID     int64
	LocationDestID int64
	State          MoveState
	ProductUomQty  float64
	QtyDone        float64
}

// Remaining returns the quantity still expected.
func (l MoveLine) Remaining() float64 {
	return l.ProductUomQty - l.QtyDone
}

// Move is a transfer of a product between two locations.
type Move struct {
	ID             int64
	ProductID      int64
	LocationID     int64
	LocationDestID int64
	State          MoveState
	Date           time.Time
	QuantityDone   float64
}

// ProductFilter narrows product queries.
type ProductFilter struct {
	CompanyID  int64
	Codes      []string
	Reportable bool
}

// LocationFilter narrows location queries.
type LocationFilter struct {
	CompanyID int64
	Usages    []Usage
	IDs       []int64
}

// MoveFilter narrows done-move queries.
type MoveFilter struct {
	CompanyID int64
	From      time.Time
	To        time.Time
	States    []MoveState
}

// ErrCompanyNotFound indicates the company does not exist.
var ErrCompanyNotFound = errors.New("inventory: company not found")

// ErrLocationNotFound indicates a missing location reference.
var ErrLocationNotFound = errors.New("inventory: location not found")
