// Package postgres implements the importer's persistence contract over
// pgx. Each import batch is applied in a single transaction, so a commit
// either lands completely or not at all.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/growmetrics/sheetimport/internal/importer"
)

// Store persists customers and orders in Postgres.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wraps a pgx pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const findCustomerSQL = `
SELECT org_id, email, first_name, last_name, phone, city, country,
       total_orders, total_revenue, last_order_date
FROM customers
WHERE org_id = $1 AND email = $2`

func (s *Store) FindCustomerByEmail(ctx context.Context, orgID, email string) (*importer.Customer, error) {
	var (
		c        importer.Customer
		revenue  pgtype.Numeric
		lastDate pgtype.Date
	)
	err := s.pool.QueryRow(ctx, findCustomerSQL, orgID, email).Scan(
		&c.OrgID, &c.Email, &c.FirstName, &c.LastName, &c.Phone, &c.City, &c.Country,
		&c.TotalOrders, &revenue, &lastDate,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find customer: %w", err)
	}

	c.TotalRevenue, err = fromPgNumeric(revenue)
	if err != nil {
		return nil, fmt.Errorf("customer %s total_revenue: %w", email, err)
	}
	if lastDate.Valid {
		c.LastOrderDate = lastDate.Time
	}
	return &c, nil
}

const findOrderSQL = `
SELECT org_id, customer_email, order_key, order_date, amount, currency,
       product_name, status, quantity
FROM orders
WHERE org_id = $1 AND order_key = $2`

func (s *Store) FindOrderByKey(ctx context.Context, orgID, key string) (*importer.Order, error) {
	var (
		o      importer.Order
		amount pgtype.Numeric
		date   pgtype.Date
	)
	err := s.pool.QueryRow(ctx, findOrderSQL, orgID, key).Scan(
		&o.OrgID, &o.CustomerEmail, &o.Key, &date, &amount, &o.Currency,
		&o.ProductName, &o.Status, &o.Quantity,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}

	o.Amount, err = fromPgNumeric(amount)
	if err != nil {
		return nil, fmt.Errorf("order %s amount: %w", key, err)
	}
	if date.Valid {
		o.OrderDate = date.Time
	}
	return &o, nil
}

const upsertCustomerSQL = `
INSERT INTO customers (org_id, email, first_name, last_name, phone, city, country,
                       total_orders, total_revenue, last_order_date)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (org_id, email) DO UPDATE SET
    first_name      = COALESCE(NULLIF(customers.first_name, ''), EXCLUDED.first_name),
    last_name       = COALESCE(NULLIF(customers.last_name, ''), EXCLUDED.last_name),
    phone           = COALESCE(NULLIF(customers.phone, ''), EXCLUDED.phone),
    city            = COALESCE(NULLIF(customers.city, ''), EXCLUDED.city),
    country         = COALESCE(NULLIF(customers.country, ''), EXCLUDED.country),
    total_orders    = EXCLUDED.total_orders,
    total_revenue   = EXCLUDED.total_revenue,
    last_order_date = EXCLUDED.last_order_date`

const insertOrderSQL = `
INSERT INTO orders (org_id, customer_email, order_key, order_date, amount, currency,
                    product_name, status, quantity)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (org_id, order_key) DO NOTHING`

// Apply writes the whole batch in one transaction. The COALESCE guards
// in the upsert keep a concurrent writer from blanking populated fields;
// within an import the merge engine already resolved the final state.
func (s *Store) Apply(ctx context.Context, batch *importer.Batch) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) // No-op if already committed

	for _, c := range append(batch.InsertCustomers, batch.UpdateCustomers...) {
		_, err := tx.Exec(ctx, upsertCustomerSQL,
			c.OrgID, c.Email, c.FirstName, c.LastName, c.Phone, c.City, c.Country,
			c.TotalOrders, toPgNumeric(c.TotalRevenue), toPgDate(c.LastOrderDate),
		)
		if err != nil {
			return fmt.Errorf("upsert customer %s: %w", c.Email, err)
		}
	}

	for _, o := range batch.InsertOrders {
		_, err := tx.Exec(ctx, insertOrderSQL,
			o.OrgID, o.CustomerEmail, o.Key, toPgDate(o.OrderDate), toPgNumeric(o.Amount),
			o.Currency, o.ProductName, o.Status, o.Quantity,
		)
		if err != nil {
			return fmt.Errorf("insert order %s: %w", o.Key, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func toPgDate(t time.Time) pgtype.Date {
	if t.IsZero() {
		return pgtype.Date{Valid: false}
	}
	return pgtype.Date{Time: t, Valid: true}
}

func toPgNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	// decimal round-trips cleanly through its string form.
	if err := n.Scan(d.String()); err != nil {
		return pgtype.Numeric{Valid: false}
	}
	return n
}

func fromPgNumeric(n pgtype.Numeric) (decimal.Decimal, error) {
	if !n.Valid {
		return decimal.Zero, nil
	}
	v, err := n.Value()
	if err != nil {
		return decimal.Zero, err
	}
	s, ok := v.(string)
	if !ok {
		return decimal.Zero, fmt.Errorf("unexpected numeric driver value %T", v)
	}
	return decimal.NewFromString(s)
}
