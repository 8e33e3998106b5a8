package procurement

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetPO(ctx context.Context, id int64) (PurchaseOrder, []POLine, error)
}

// Service orchestrates procurement flows.
type Service struct {
	repo   RepositoryPort
	logger *slog.Logger
}

// NewService constructs procurement service.
func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// CreatePOInput describes a purchase order to create.
type CreatePOInput struct {
	Number       string
	CompanyID    int64
	SupplierID   int64
	Origin       string
	ExpectedDate *time.Time
	Note         string
	Lines        []POLineInput
}

// POLineInput describes an ordered product.
type POLineInput struct {
	ProductID int64
	Qty       float64
	UoMID     int64
	Note      string
}

// CreatePurchaseOrder persists a draft purchase order with its lines.
func (s *Service) CreatePurchaseOrder(ctx context.Context, input CreatePOInput) (PurchaseOrder, error) {
	pos, err := s.CreatePurchaseOrders(ctx, []CreatePOInput{input})
	if err != nil {
		return PurchaseOrder{}, err
	}
	return pos[0], nil
}

// CreatePurchaseOrders persists every order in one transaction. Either all
// orders are stored or none is.
func (s *Service) CreatePurchaseOrders(ctx context.Context, inputs []CreatePOInput) ([]PurchaseOrder, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	pos := make([]PurchaseOrder, len(inputs))
	for i, input := range inputs {
		if err := validatePO(input); err != nil {
			return nil, err
		}
		if input.Number == "" {
			input.Number = generateNumber("PO")
		}
		pos[i] = PurchaseOrder{
			Number:       input.Number,
			CompanyID:    input.CompanyID,
			SupplierID:   input.SupplierID,
			Status:       POStatusDraft,
			Origin:       strings.TrimSpace(input.Origin),
			ExpectedDate: input.ExpectedDate,
			Note:         input.Note,
		}
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		for i := range pos {
			id, created, err := tx.CreatePO(ctx, pos[i])
			if err != nil {
				return fmt.Errorf("create po for supplier %d: %w", pos[i].SupplierID, err)
			}
			for _, line := range inputs[i].Lines {
				if err := tx.InsertPOLine(ctx, POLine{POID: id, ProductID: line.ProductID, Qty: line.Qty, UoMID: line.UoMID, Note: line.Note}); err != nil {
					return fmt.Errorf("insert line for supplier %d: %w", pos[i].SupplierID, err)
				}
			}
			pos[i].ID = id
			pos[i].CreatedAt = created
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for i, po := range pos {
		s.logger.Info("purchase order created",
			slog.Int64("po_id", po.ID),
			slog.String("number", po.Number),
			slog.Int64("supplier_id", po.SupplierID),
			slog.String("origin", po.Origin),
			slog.Int("lines", len(inputs[i].Lines)))
	}
	return pos, nil
}

func validatePO(input CreatePOInput) error {
	if input.SupplierID == 0 || input.CompanyID == 0 || len(input.Lines) == 0 {
		return ErrValidation
	}
	for _, line := range input.Lines {
		if line.ProductID == 0 || line.Qty <= 0 {
			return fmt.Errorf("%w: product %d qty %v", ErrValidation, line.ProductID, line.Qty)
		}
	}
	return nil
}

// GetPurchaseOrder loads a purchase order with its lines.
func (s *Service) GetPurchaseOrder(ctx context.Context, id int64) (PurchaseOrder, []POLine, error) {
	return s.repo.GetPO(ctx, id)
}

// CancelPurchaseOrder cancels a draft purchase order.
func (s *Service) CancelPurchaseOrder(ctx context.Context, id int64) error {
	po, _, err := s.repo.GetPO(ctx, id)
	if err != nil {
		return err
	}
	if po.Status != POStatusDraft {
		return ErrInvalidState
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.UpdatePOStatus(ctx, id, POStatusCancelled)
	})
}

func generateNumber(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, strings.ToUpper(uuid.NewString()[:8]))
}
