package importer

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/growmetrics/sheetimport/internal/mapping"
	"github.com/growmetrics/sheetimport/internal/source"
)

// stubConnector serves a fixed sheet, optionally blocking until released
// so tests can hold a commit in flight.
type stubConnector struct {
	sheet *source.Sheet
	err   error

	block   chan struct{} // closed to release a blocked Fetch
	fetched chan struct{} // signalled when Fetch is entered
}

func (s *stubConnector) Fetch(ctx context.Context, sourceRef string) (*source.Sheet, error) {
	if s.fetched != nil {
		s.fetched <- struct{}{}
	}
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.sheet, nil
}

func exampleSheet() *source.Sheet {
	return &source.Sheet{
		Header: []string{"Email", "Full Name", "Order #", "Date", "Amt"},
		Rows: [][]string{
			{"a@x.com", "Ann Lee", "1001", "2024-01-05", "$42.50"},
		},
	}
}

func newTestService(conn source.Connector, store Store) *Service {
	return NewService(conn, store, slog.Default(), ServiceOptions{DefaultCurrency: "USD"})
}

func TestCommit_ImportsExampleSheet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	svc := newTestService(&stubConnector{sheet: exampleSheet()}, store)

	res, err := svc.Commit(ctx, "org-1", "sheet-ref", nil)
	if err != nil {
		t.Fatalf("Commit error = %v", err)
	}

	if !res.Success {
		t.Error("Success = false, want true")
	}
	if res.CustomersImported != 1 || res.OrdersImported != 1 {
		t.Errorf("result = %+v, want 1 customer / 1 order imported", res)
	}

	c, err := store.FindCustomerByEmail(ctx, "org-1", "a@x.com")
	if err != nil || c == nil {
		t.Fatalf("customer not stored: %v", err)
	}
	if !c.TotalRevenue.Equal(decimal.RequireFromString("42.50")) {
		t.Errorf("TotalRevenue = %s, want 42.50", c.TotalRevenue)
	}
	if c.FirstName != "Ann" || c.LastName != "Lee" {
		t.Errorf("name = %q %q, want Ann Lee", c.FirstName, c.LastName)
	}

	o, err := store.FindOrderByKey(ctx, "org-1", "1001")
	if err != nil || o == nil {
		t.Fatalf("order not stored: %v", err)
	}
	if o.CustomerEmail != "a@x.com" {
		t.Errorf("order customer = %q, want a@x.com", o.CustomerEmail)
	}
}

func TestCommit_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	svc := newTestService(&stubConnector{sheet: exampleSheet()}, store)

	first, err := svc.Commit(ctx, "org-1", "sheet-ref", nil)
	if err != nil {
		t.Fatalf("first Commit error = %v", err)
	}
	if first.CustomersImported != 1 || first.OrdersImported != 1 {
		t.Fatalf("first = %+v, want 1 / 1", first)
	}

	second, err := svc.Commit(ctx, "org-1", "sheet-ref", nil)
	if err != nil {
		t.Fatalf("second Commit error = %v", err)
	}
	if second.CustomersImported != 0 || second.OrdersImported != 0 {
		t.Errorf("second = %+v, want 0 / 0 imported", second)
	}
	if second.OrdersSkippedAsDuplicate != 1 {
		t.Errorf("OrdersSkippedAsDuplicate = %d, want 1", second.OrdersSkippedAsDuplicate)
	}

	if store.CustomerCount("org-1") != 1 || store.OrderCount("org-1") != 1 {
		t.Errorf("store has %d customers / %d orders, want 1 / 1",
			store.CustomerCount("org-1"), store.OrderCount("org-1"))
	}

	c, _ := store.FindCustomerByEmail(ctx, "org-1", "a@x.com")
	if c.TotalOrders != 1 || !c.TotalRevenue.Equal(decimal.RequireFromString("42.50")) {
		t.Errorf("aggregates changed on re-import: %+v", c)
	}
}

func TestCommit_NoFieldsDetected(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	sheet := &source.Sheet{
		Header: []string{"Alpha", "Beta"},
		Rows:   [][]string{{"lorem ipsum dolor", "sit amet consectetur"}},
	}
	svc := newTestService(&stubConnector{sheet: sheet}, store)

	res, err := svc.Commit(ctx, "org-1", "sheet-ref", nil)
	if err != nil {
		t.Fatalf("Commit error = %v", err)
	}
	if !res.Success {
		t.Error("Success = false, want true (no fields is a warning, not a failure)")
	}
	if res.CustomersImported != 0 || res.OrdersImported != 0 {
		t.Errorf("result = %+v, want zero counts", res)
	}
	if len(res.Warnings) == 0 {
		t.Error("want a no-fields warning")
	}
	if store.CustomerCount("org-1") != 0 {
		t.Error("nothing should have been written")
	}
}

func TestCommit_FailsFastWhenImportInProgress(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	conn := &stubConnector{
		sheet:   exampleSheet(),
		block:   make(chan struct{}),
		fetched: make(chan struct{}, 1),
	}
	svc := newTestService(conn, store)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Commit(ctx, "org-1", "sheet-ref", nil)
		done <- err
	}()

	<-conn.fetched // first commit holds the org lock inside Fetch

	if _, err := svc.Commit(ctx, "org-1", "sheet-ref", nil); !errors.Is(err, ErrImportInProgress) {
		t.Errorf("concurrent Commit error = %v, want ErrImportInProgress", err)
	}

	// A different org is not blocked.
	conn2 := &stubConnector{sheet: exampleSheet()}
	svc2 := newTestService(conn2, store)
	if _, err := svc2.Commit(ctx, "org-2", "sheet-ref", nil); err != nil {
		t.Errorf("other org Commit error = %v", err)
	}

	close(conn.block)
	if err := <-done; err != nil {
		t.Errorf("first Commit error = %v", err)
	}

	// Lock released: a new commit succeeds.
	if _, err := svc.Commit(ctx, "org-1", "sheet-ref", nil); err != nil {
		t.Errorf("Commit after release error = %v", err)
	}
}

func TestCommit_SourceErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(&stubConnector{err: source.ErrSourceEmpty}, NewMemoryStore())

	_, err := svc.Commit(ctx, "org-1", "sheet-ref", nil)
	if !errors.Is(err, source.ErrSourceEmpty) {
		t.Errorf("Commit error = %v, want ErrSourceEmpty", err)
	}
}

func TestCommit_MappingOverride(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	sheet := &source.Sheet{
		Header: []string{"Email", "Code", "Amt"},
		Rows:   [][]string{{"a@x.com", "X-99", "10.00"}},
	}
	svc := newTestService(&stubConnector{sheet: sheet}, store)

	res, err := svc.Commit(ctx, "org-1", "sheet-ref", map[string]mapping.FieldTag{
		"Code": mapping.FieldOrderID,
	})
	if err != nil {
		t.Fatalf("Commit error = %v", err)
	}
	if res.OrdersImported != 1 {
		t.Fatalf("OrdersImported = %d, want 1", res.OrdersImported)
	}

	o, err := store.FindOrderByKey(ctx, "org-1", "X-99")
	if err != nil || o == nil {
		t.Fatalf("order with overridden key not stored: %v", err)
	}
}

func TestCommit_InvalidOverrideRejected(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(&stubConnector{sheet: exampleSheet()}, NewMemoryStore())

	_, err := svc.Commit(ctx, "org-1", "sheet-ref", map[string]mapping.FieldTag{
		"No Such Column": mapping.FieldEmail,
	})
	if !errors.Is(err, mapping.ErrInvalidOverride) {
		t.Errorf("Commit error = %v, want ErrInvalidOverride", err)
	}
}

func TestPreview_NoWrites(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	svc := newTestService(&stubConnector{sheet: exampleSheet()}, store)

	result, err := svc.Preview(ctx, "org-1", "sheet-ref")
	if err != nil {
		t.Fatalf("Preview error = %v", err)
	}
	if result.RowCount != 1 || result.ColumnCount != 5 {
		t.Errorf("result = %d rows / %d cols, want 1 / 5", result.RowCount, result.ColumnCount)
	}
	if got := result.FieldIndex(mapping.FieldEmail); got != 0 {
		t.Errorf("email column = %d, want 0", got)
	}

	if store.CustomerCount("org-1") != 0 || store.OrderCount("org-1") != 0 {
		t.Error("preview must not write entities")
	}
}
