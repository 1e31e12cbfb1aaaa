package importer

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestMerge_InsertsAndAggregates(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	pairs := []RowCandidates{
		{
			Row:      1,
			Customer: &CustomerCandidate{Email: "a@x.com", FirstName: "Ann"},
			Order: &OrderCandidate{
				Key:       "1001",
				OrderDate: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
				Amount:    decimal.RequireFromString("42.50"),
				Currency:  "USD",
				Quantity:  1,
			},
		},
		{
			Row:      2,
			Customer: &CustomerCandidate{Email: "a@x.com", LastName: "Lee"},
			Order: &OrderCandidate{
				Key:       "1002",
				OrderDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
				Amount:    decimal.RequireFromString("10.00"),
				Currency:  "USD",
				Quantity:  2,
			},
		},
	}

	batch, counts, err := Merge(ctx, store, "org-1", pairs)
	if err != nil {
		t.Fatalf("Merge error = %v", err)
	}

	if counts.CustomersImported != 1 || counts.OrdersImported != 2 {
		t.Errorf("counts = %+v, want 1 customer / 2 orders imported", counts)
	}
	if len(batch.InsertCustomers) != 1 || len(batch.InsertOrders) != 2 {
		t.Fatalf("batch = %d customers / %d orders, want 1 / 2", len(batch.InsertCustomers), len(batch.InsertOrders))
	}

	c := batch.InsertCustomers[0]
	if c.FirstName != "Ann" || c.LastName != "Lee" {
		t.Errorf("customer fields not merged across rows: %+v", c)
	}
	if c.TotalOrders != 2 {
		t.Errorf("TotalOrders = %d, want 2", c.TotalOrders)
	}
	if !c.TotalRevenue.Equal(decimal.RequireFromString("52.50")) {
		t.Errorf("TotalRevenue = %s, want 52.50", c.TotalRevenue)
	}
	if c.LastOrderDate.Format("2006-01-02") != "2024-02-01" {
		t.Errorf("LastOrderDate = %v, want 2024-02-01", c.LastOrderDate)
	}
}

func TestMerge_NeverErasesPopulatedFields(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	seed := &Batch{OrgID: "org-1", InsertCustomers: []*Customer{
		{OrgID: "org-1", Email: "a@x.com", Phone: "+8801712345678", FirstName: "Ann"},
	}}
	if err := store.Apply(ctx, seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	pairs := []RowCandidates{
		{Row: 1, Customer: &CustomerCandidate{Email: "a@x.com", Phone: "", LastName: "Lee"}},
	}

	batch, counts, err := Merge(ctx, store, "org-1", pairs)
	if err != nil {
		t.Fatalf("Merge error = %v", err)
	}
	if counts.CustomersUpdated != 1 || counts.CustomersImported != 0 {
		t.Errorf("counts = %+v, want 1 updated / 0 imported", counts)
	}
	if err := store.Apply(ctx, batch); err != nil {
		t.Fatalf("apply: %v", err)
	}

	got, err := store.FindCustomerByEmail(ctx, "org-1", "a@x.com")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Phone != "+8801712345678" {
		t.Errorf("Phone = %q, blank candidate must not erase it", got.Phone)
	}
	if got.LastName != "Lee" {
		t.Errorf("LastName = %q, blank store field should be filled", got.LastName)
	}
	if got.FirstName != "Ann" {
		t.Errorf("FirstName = %q, want Ann", got.FirstName)
	}
}

func TestMerge_DuplicateOrdersSkipped(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	order := &OrderCandidate{Key: "1001", Amount: decimal.RequireFromString("10.00"), Currency: "USD", Quantity: 1}
	pairs := []RowCandidates{
		{Row: 1, Customer: &CustomerCandidate{Email: "a@x.com"}, Order: order},
		{Row: 2, Customer: &CustomerCandidate{Email: "a@x.com"}, Order: order},
	}

	batch, counts, err := Merge(ctx, store, "org-1", pairs)
	if err != nil {
		t.Fatalf("Merge error = %v", err)
	}
	if counts.OrdersImported != 1 || counts.OrdersSkippedAsDuplicate != 1 {
		t.Errorf("counts = %+v, want 1 imported / 1 duplicate", counts)
	}
	if err := store.Apply(ctx, batch); err != nil {
		t.Fatalf("apply: %v", err)
	}

	// Second pass over the same candidates: everything is a duplicate.
	_, counts, err = Merge(ctx, store, "org-1", pairs)
	if err != nil {
		t.Fatalf("Merge error = %v", err)
	}
	if counts.OrdersImported != 0 || counts.OrdersSkippedAsDuplicate != 2 {
		t.Errorf("second pass counts = %+v, want 0 imported / 2 duplicates", counts)
	}

	c, err := store.FindCustomerByEmail(ctx, "org-1", "a@x.com")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if c.TotalOrders != 1 {
		t.Errorf("TotalOrders = %d, duplicates must not double-count", c.TotalOrders)
	}
}

func TestMerge_OrgScoping(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	pairs := []RowCandidates{
		{Row: 1, Customer: &CustomerCandidate{Email: "a@x.com"}},
	}

	for _, org := range []string{"org-1", "org-2"} {
		batch, counts, err := Merge(ctx, store, org, pairs)
		if err != nil {
			t.Fatalf("Merge(%s) error = %v", org, err)
		}
		if counts.CustomersImported != 1 {
			t.Errorf("Merge(%s) imported = %d, want 1 (orgs are isolated)", org, counts.CustomersImported)
		}
		if err := store.Apply(ctx, batch); err != nil {
			t.Fatalf("apply: %v", err)
		}
	}
}
