// Package importer assembles classified sheet rows into Customer and
// Order entities and merges them into an organization's store without
// creating duplicates on repeated runs. It owns the import pipeline:
// entity mapping, dedup/merge, the per-org write lock, and the
// orchestration of preview and commit.
package importer

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer is the canonical customer entity, identified per org by
// normalized email. Aggregate fields are maintained by the merge engine.
type Customer struct {
	OrgID         string          `json:"org_id"`
	Email         string          `json:"email"`
	FirstName     string          `json:"first_name,omitempty"`
	LastName      string          `json:"last_name,omitempty"`
	Phone         string          `json:"phone,omitempty"`
	City          string          `json:"city,omitempty"`
	Country       string          `json:"country,omitempty"`
	TotalOrders   int             `json:"total_orders"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	LastOrderDate time.Time       `json:"last_order_date,omitempty"`
}

// Order is the canonical order entity, identified per org by Key: the
// source order id when the sheet has one, otherwise a synthetic key
// derived from (customer email, order date, amount).
type Order struct {
	OrgID         string          `json:"org_id"`
	CustomerEmail string          `json:"customer_email"`
	Key           string          `json:"key"`
	OrderDate     time.Time       `json:"order_date,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	ProductName   string          `json:"product_name,omitempty"`
	Status        string          `json:"status,omitempty"`
	Quantity      int             `json:"quantity"`
}

// CustomerCandidate is a customer assembled from one sheet row, before
// merging. Blank fields mean the row carried no value.
type CustomerCandidate struct {
	Email     string
	FirstName string
	LastName  string
	Phone     string
	City      string
	Country   string
}

// OrderCandidate is an order assembled from one sheet row. Key is always
// populated by the mapper (explicit or synthetic).
type OrderCandidate struct {
	Key         string
	OrderDate   time.Time
	Amount      decimal.Decimal
	Currency    string
	ProductName string
	Status      string
	Quantity    int
}

// RowCandidates pairs the entities derived from a single row. Order may
// be nil when the sheet has no order columns; Customer is always set for
// rows that survive mapping.
type RowCandidates struct {
	Row      int // 1-based data row number
	Customer *CustomerCandidate
	Order    *OrderCandidate
}

// Skip records a row excluded from the import and why.
type Skip struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// Batch is the staged output of one merge pass, applied atomically by
// the store. Update entries carry the full post-merge state.
type Batch struct {
	OrgID           string
	InsertCustomers []*Customer
	UpdateCustomers []*Customer
	InsertOrders    []*Order
}

// Empty reports whether the batch stages no writes.
func (b *Batch) Empty() bool {
	return len(b.InsertCustomers) == 0 && len(b.UpdateCustomers) == 0 && len(b.InsertOrders) == 0
}

// ImportResult summarizes one commit call. It is produced exactly once
// per call and reflects either the fully applied import or, on failure,
// nothing at all.
type ImportResult struct {
	Success                  bool     `json:"success"`
	CustomersImported        int      `json:"customers_imported"`
	OrdersImported           int      `json:"orders_imported"`
	CustomersUpdated         int      `json:"customers_updated"`
	OrdersSkippedAsDuplicate int      `json:"orders_skipped_as_duplicate"`
	RowsSkipped              int      `json:"rows_skipped"`
	Message                  string   `json:"message"`
	Warnings                 []string `json:"warnings,omitempty"`
}
