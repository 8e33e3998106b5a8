package procurement

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	sqlInsertPO = `INSERT INTO purchase_orders (number, company_id, supplier_id, status, origin, expected_date, note)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, created_at`

	sqlInsertPOLine = `INSERT INTO purchase_order_lines (po_id, product_id, qty, uom_id, note)
VALUES ($1, $2, $3, $4, $5)`

	sqlUpdatePOStatus = `UPDATE purchase_orders SET status = $2, updated_at = NOW() WHERE id = $1`

	sqlGetPO = `SELECT id, number, company_id, supplier_id, status, origin, expected_date, note, created_at
FROM purchase_orders WHERE id = $1`

	sqlGetPOLines = `SELECT id, po_id, product_id, qty, uom_id, note
FROM purchase_order_lines WHERE po_id = $1 ORDER BY id`
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations.
type TxRepository interface {
	CreatePO(ctx context.Context, po PurchaseOrder) (int64, time.Time, error)
	InsertPOLine(ctx context.Context, line POLine) error
	UpdatePOStatus(ctx context.Context, id int64, status POStatus) error
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx wraps callback in repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	if err := fn(ctx, &txRepo{tx: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// GetPO returns purchase order and lines.
func (r *Repository) GetPO(ctx context.Context, id int64) (PurchaseOrder, []POLine, error) {
	var po PurchaseOrder
	var status string
	err := r.pool.QueryRow(ctx, sqlGetPO, id).Scan(&po.ID, &po.Number, &po.CompanyID, &po.SupplierID, &status,
		&po.Origin, &po.ExpectedDate, &po.Note, &po.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PurchaseOrder{}, nil, ErrNotFound
		}
		return PurchaseOrder{}, nil, err
	}
	po.Status = POStatus(status)

	rows, err := r.pool.Query(ctx, sqlGetPOLines, id)
	if err != nil {
		return PurchaseOrder{}, nil, err
	}
	defer rows.Close()
	var lines []POLine
	for rows.Next() {
		var l POLine
		if err := rows.Scan(&l.ID, &l.POID, &l.ProductID, &l.Qty, &l.UoMID, &l.Note); err != nil {
			return PurchaseOrder{}, nil, err
		}
		lines = append(lines, l)
	}
	return po, lines, rows.Err()
}

func (t *txRepo) CreatePO(ctx context.Context, po PurchaseOrder) (int64, time.Time, error) {
	var (
		id      int64
		created time.Time
	)
	err := t.tx.QueryRow(ctx, sqlInsertPO, po.Number, po.CompanyID, po.SupplierID, string(po.Status),
		po.Origin, po.ExpectedDate, po.Note).Scan(&id, &created)
	return id, created, err
}

func (t *txRepo) InsertPOLine(ctx context.Context, line POLine) error {
	_, err := t.tx.Exec(ctx, sqlInsertPOLine, line.POID, line.ProductID, line.Qty, line.UoMID, line.Note)
	return err
}

func (t *txRepo) UpdatePOStatus(ctx context.Context, id int64, status POStatus) error {
	tag, err := t.tx.Exec(ctx, sqlUpdatePOStatus, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
