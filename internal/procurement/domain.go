package procurement

import (
	"errors"
	"time"
)

// Purchase order lifecycle statuses.
type POStatus string

const (
	POStatusDraft     POStatus = "DRAFT"
	POStatusApproved  POStatus = "APPROVED"
	POStatusCancelled POStatus = "CANCELLED"
)

// PurchaseOrder domain model.
type PurchaseOrder struct {
	ID           int64
	Number       string
	CompanyID    int64
	SupplierID   int64
	Status       POStatus
	Origin       string
	ExpectedDate *time.Time
	Note         string
	CreatedAt    time.Time
}

// POLine represents PO lines.
type POLine struct {
	ID        int64
	POID      int64
	ProductID int64
	Qty       float64
	UoMID     int64
	Note      string
}

var (
	// ErrInvalidState occurs when action violates status workflow.
	ErrInvalidState = errors.New("procurement: invalid state transition")
	// ErrNotFound indicates record missing.
	ErrNotFound = errors.New("procurement: not found")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("procurement: invalid input")
)
