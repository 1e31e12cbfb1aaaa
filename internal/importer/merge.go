package importer

import (
	"context"
	"fmt"
	"sort"
)

// merge.go is the dedup & merge engine. It walks candidate pairs in
// original row order, resolves each against the store's current state
// plus the writes already staged in this pass, and produces a Batch the
// store applies atomically. Nothing is written until the whole sheet has
// merged cleanly, so a failure partway through leaves the store untouched.

// MergeCounts are the per-commit tallies the merge pass produces.
type MergeCounts struct {
	CustomersImported        int
	CustomersUpdated         int
	OrdersImported           int
	OrdersSkippedAsDuplicate int
}

type mergeState struct {
	store Store
	orgID string

	customers map[string]*Customer // staged view, keyed by email
	orders    map[string]struct{}  // staged order keys
	inserted  map[string]bool      // emails inserted in this pass

	batch  Batch
	counts MergeCounts
}

// Merge resolves candidates against the store and returns the staged
// batch plus counts. The caller holds the org lock; Merge itself only
// reads the store.
func Merge(ctx context.Context, store Store, orgID string, pairs []RowCandidates) (*Batch, MergeCounts, error) {
	m := &mergeState{
		store:     store,
		orgID:     orgID,
		customers: make(map[string]*Customer),
		orders:    make(map[string]struct{}),
		inserted:  make(map[string]bool),
		batch:     Batch{OrgID: orgID},
	}

	for _, pair := range pairs {
		customer, err := m.mergeCustomer(ctx, pair.Customer)
		if err != nil {
			return nil, MergeCounts{}, fmt.Errorf("row %d: %w", pair.Row, err)
		}
		if pair.Order != nil {
			if err := m.mergeOrder(ctx, customer, pair.Order); err != nil {
				return nil, MergeCounts{}, fmt.Errorf("row %d: %w", pair.Row, err)
			}
		}
	}

	m.buildBatch()
	return &m.batch, m.counts, nil
}

// mergeCustomer resolves a candidate to its staged customer, creating or
// updating as needed. Incoming values only ever fill blanks: a populated
// store field is never overwritten by an empty cell.
func (m *mergeState) mergeCustomer(ctx context.Context, cand *CustomerCandidate) (*Customer, error) {
	if existing, ok := m.customers[cand.Email]; ok {
		fillBlanks(existing, cand)
		return existing, nil
	}

	stored, err := m.store.FindCustomerByEmail(ctx, m.orgID, cand.Email)
	if err != nil {
		return nil, fmt.Errorf("find customer %s: %w", cand.Email, err)
	}

	if stored == nil {
		c := &Customer{
			OrgID:     m.orgID,
			Email:     cand.Email,
			FirstName: cand.FirstName,
			LastName:  cand.LastName,
			Phone:     cand.Phone,
			City:      cand.City,
			Country:   cand.Country,
		}
		m.customers[cand.Email] = c
		m.inserted[cand.Email] = true
		m.counts.CustomersImported++
		return c, nil
	}

	fillBlanks(stored, cand)
	m.customers[cand.Email] = stored
	m.counts.CustomersUpdated++
	return stored, nil
}

// mergeOrder dedups by identity key and rolls new orders into the
// customer's aggregates.
func (m *mergeState) mergeOrder(ctx context.Context, customer *Customer, cand *OrderCandidate) error {
	if _, staged := m.orders[cand.Key]; staged {
		m.counts.OrdersSkippedAsDuplicate++
		return nil
	}

	stored, err := m.store.FindOrderByKey(ctx, m.orgID, cand.Key)
	if err != nil {
		return fmt.Errorf("find order %s: %w", cand.Key, err)
	}
	if stored != nil {
		m.counts.OrdersSkippedAsDuplicate++
		return nil
	}

	m.orders[cand.Key] = struct{}{}
	m.batch.InsertOrders = append(m.batch.InsertOrders, &Order{
		OrgID:         m.orgID,
		CustomerEmail: customer.Email,
		Key:           cand.Key,
		OrderDate:     cand.OrderDate,
		Amount:        cand.Amount,
		Currency:      cand.Currency,
		ProductName:   cand.ProductName,
		Status:        cand.Status,
		Quantity:      cand.Quantity,
	})
	m.counts.OrdersImported++

	customer.TotalOrders++
	customer.TotalRevenue = customer.TotalRevenue.Add(cand.Amount)
	if cand.OrderDate.After(customer.LastOrderDate) {
		customer.LastOrderDate = cand.OrderDate
	}
	return nil
}

// buildBatch splits the staged customers into inserts and updates,
// sorted by email for stable batch output.
func (m *mergeState) buildBatch() {
	for email, c := range m.customers {
		if m.inserted[email] {
			m.batch.InsertCustomers = append(m.batch.InsertCustomers, c)
		} else {
			m.batch.UpdateCustomers = append(m.batch.UpdateCustomers, c)
		}
	}
	sortCustomers(m.batch.InsertCustomers)
	sortCustomers(m.batch.UpdateCustomers)
}

func sortCustomers(cs []*Customer) {
	sort.Slice(cs, func(i, j int) bool { return cs[i].Email < cs[j].Email })
}

// fillBlanks copies candidate fields onto the customer only where the
// customer's field is blank.
func fillBlanks(c *Customer, cand *CustomerCandidate) {
	if c.FirstName == "" {
		c.FirstName = cand.FirstName
	}
	if c.LastName == "" {
		c.LastName = cand.LastName
	}
	if c.Phone == "" {
		c.Phone = cand.Phone
	}
	if c.City == "" {
		c.City = cand.City
	}
	if c.Country == "" {
		c.Country = cand.Country
	}
}
