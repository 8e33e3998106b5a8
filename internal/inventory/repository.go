package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads ERP stock entities from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var errRepoNotInitialised = errors.New("inventory repository not initialised")

// GetCompany loads the company export settings.
func (r *Repository) GetCompany(ctx context.Context, id int64) (Company, error) {
	if r == nil || r.pool == nil {
		return Company{}, errRepoNotInitialised
	}
	var c Company
	err := r.pool.QueryRow(ctx, sqlGetCompany, id).Scan(&c.ID, &c.Name, &c.VAT, &c.Timezone)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Company{}, ErrCompanyNotFound
		}
		return Company{}, err
	}
	return c, nil
}

// ListProducts returns products with their unit of measure and sellers.
func (r *Repository) ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error) {
	if r == nil || r.pool == nil {
		return nil, errRepoNotInitialised
	}
	rows, err := r.pool.Query(ctx, sqlListProducts, filter.CompanyID, filter.Reportable, nullStrings(filter.Codes))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	products := []Product{}
	index := map[int64]int{}
	for rows.Next() {
		var (
			p          Product
			poID       *int64
			poName     *string
			poRounding *float64
		)
		if err := rows.Scan(&p.ID, &p.CompanyID, &p.Code, &p.Name, &p.Type, &p.ListPrice, &p.StandardPrice,
			&p.UoM.ID, &p.UoM.Name, &p.UoM.Rounding, &poID, &poName, &poRounding,
			&p.ProduceDelay, &p.ProductionLocationID, &p.PurchaseOK); err != nil {
			return nil, err
		}
		if poID != nil {
			p.PurchaseUoM = &UnitOfMeasure{ID: *poID, Name: deref(poName), Rounding: derefFloat(poRounding)}
		}
		index[p.ID] = len(products)
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return products, nil
	}
	ids := make([]int64, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	sellerRows, err := r.pool.Query(ctx, sqlListSellers, ids)
	if err != nil {
		return nil, err
	}
	defer sellerRows.Close()
	for sellerRows.Next() {
		var (
			productID int64
			s         SupplierInfo
		)
		if err := sellerRows.Scan(&productID, &s.PartnerID, &s.PartnerName, &s.CompanyID, &s.Delay, &s.MinQty, &s.SupplierLocationID); err != nil {
			return nil, err
		}
		if i, ok := index[productID]; ok {
			products[i].Sellers = append(products[i].Sellers, s)
		}
	}
	return products, sellerRows.Err()
}

// ListLocations returns locations with the warehouse-direct flag resolved.
func (r *Repository) ListLocations(ctx context.Context, filter LocationFilter) ([]Location, error) {
	if r == nil || r.pool == nil {
		return nil, errRepoNotInitialised
	}
	usages := make([]string, 0, len(filter.Usages))
	for _, u := range filter.Usages {
		usages = append(usages, string(u))
	}
	rows, err := r.pool.Query(ctx, sqlListLocations, filter.CompanyID, nullStrings(usages), nullInts(filter.IDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	locations := []Location{}
	for rows.Next() {
		var l Location
		if err := rows.Scan(&l.ID, &l.ParentID, &l.CompanyID, &l.Name, &l.CompleteName, &l.Barcode, &l.Usage, &l.Ignore, &l.WarehouseDirect); err != nil {
			return nil, err
		}
		locations = append(locations, l)
	}
	return locations, rows.Err()
}

// SumQuants groups on-hand quantities by product and location.
func (r *Repository) SumQuants(ctx context.Context, companyID int64) ([]Quant, error) {
	if r == nil || r.pool == nil {
		return nil, errRepoNotInitialised
	}
	rows, err := r.pool.Query(ctx, sqlSumQuants, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	quants := []Quant{}
	for rows.Next() {
		var q Quant
		if err := rows.Scan(&q.ProductID, &q.LocationID, &q.Quantity); err != nil {
			return nil, err
		}
		quants = append(quants, q)
	}
	return quants, rows.Err()
}

// ListOpenMoveLines groups not yet finished move lines by product and endpoints.
func (r *Repository) ListOpenMoveLines(ctx context.Context, companyID int64) ([]MoveLine, error) {
	if r == nil || r.pool == nil {
		return nil, errRepoNotInitialised
	}
	states := []string{
		string(MoveStateWaiting),
		string(MoveStateConfirmed),
		string(MoveStatePartiallyAvailable),
		string(MoveStateAssigned),
	}
	rows, err := r.pool.Query(ctx, sqlListOpenMoveLines, companyID, states)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	lines := []MoveLine{}
	for rows.Next() {
		var l MoveLine
		if err := rows.Scan(&l.ProductID, &l.LocationID, &l.LocationDestID, &l.State, &l.ProductUomQty, &l.QtyDone); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// ListMoves returns moves dated inside [From, To).
func (r *Repository) ListMoves(ctx context.Context, filter MoveFilter) ([]Move, error) {
	if r == nil || r.pool == nil {
		return nil, errRepoNotInitialised
	}
	states := make([]string, 0, len(filter.States))
	for _, s := range filter.States {
		states = append(states, string(s))
	}
	if len(states) == 0 {
		states = append(states, string(MoveStateDone))
	}
	rows, err := r.pool.Query(ctx, sqlListMoves, filter.CompanyID, states, nullTime(filter.From), nullTime(filter.To))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	moves := []Move{}
	for rows.Next() {
		var m Move
		if err := rows.Scan(&m.ID, &m.ProductID, &m.LocationID, &m.LocationDestID, &m.State, &m.Date, &m.QuantityDone); err != nil {
			return nil, err
		}
		moves = append(moves, m)
	}
	return moves, rows.Err()
}

func nullStrings(values []string) any {
	if len(values) == 0 {
		return nil
	}
	return values
}

func nullInts(values []int64) any {
	if len(values) == 0 {
		return nil
	}
	return values
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefFloat(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
