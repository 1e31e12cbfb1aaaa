package importer

import (
	"context"
	"sync"
)

// Store is the persistence contract the merge engine runs against.
// Lookups give the merge engine its read view; Apply persists a staged
// batch as one atomic unit. Implementations return (nil, nil) from the
// finders when no record exists.
type Store interface {
	FindCustomerByEmail(ctx context.Context, orgID, email string) (*Customer, error)
	FindOrderByKey(ctx context.Context, orgID, key string) (*Order, error)
	Apply(ctx context.Context, batch *Batch) error
}

// MemoryStore is an in-process Store keyed by org. It backs tests and
// single-node deployments without a database.
type MemoryStore struct {
	mu        sync.RWMutex
	customers map[string]map[string]*Customer // org -> email -> customer
	orders    map[string]map[string]*Order    // org -> key -> order
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		customers: make(map[string]map[string]*Customer),
		orders:    make(map[string]map[string]*Order),
	}
}

func (s *MemoryStore) FindCustomerByEmail(_ context.Context, orgID, email string) (*Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.customers[orgID][email]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (s *MemoryStore) FindOrderByKey(_ context.Context, orgID, key string) (*Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[orgID][key]
	if !ok {
		return nil, nil
	}
	op := *o
	return &op, nil
}

// Apply installs the batch under one lock so readers never observe a
// partially applied import.
func (s *MemoryStore) Apply(_ context.Context, batch *Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.customers[batch.OrgID] == nil {
		s.customers[batch.OrgID] = make(map[string]*Customer)
	}
	if s.orders[batch.OrgID] == nil {
		s.orders[batch.OrgID] = make(map[string]*Order)
	}

	for _, c := range batch.InsertCustomers {
		cp := *c
		s.customers[batch.OrgID][c.Email] = &cp
	}
	for _, c := range batch.UpdateCustomers {
		cp := *c
		s.customers[batch.OrgID][c.Email] = &cp
	}
	for _, o := range batch.InsertOrders {
		op := *o
		s.orders[batch.OrgID][o.Key] = &op
	}
	return nil
}

// CustomerCount returns the number of customers stored for an org.
func (s *MemoryStore) CustomerCount(orgID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.customers[orgID])
}

// OrderCount returns the number of orders stored for an org.
func (s *MemoryStore) OrderCount(orgID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders[orgID])
}
