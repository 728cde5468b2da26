package testsupport

import (
	"context"
	"testing"

	"fabworks/internal/config"
	"fabworks/internal/store"
	"fabworks/internal/workorder"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// NewWorkOrder creates a work order with the given service kinds for tests.
func NewWorkOrder(t testing.TB, st *store.Store, customer string, kinds []workorder.StepKind, quoteID *int64) *workorder.WorkOrder {
	t.Helper()

	order, err := st.CreateWorkOrder(context.Background(), customer, "test project", kinds, quoteID)
	if err != nil {
		t.Fatalf("store.CreateWorkOrder: %v", err)
	}
	return order
}

// NewQuote creates a quote with the given line items for tests.
func NewQuote(t testing.TB, st *store.Store, items []*workorder.QuoteItem) int64 {
	t.Helper()

	id, err := st.CreateQuote(context.Background(), "test customer", items)
	if err != nil {
		t.Fatalf("store.CreateQuote: %v", err)
	}
	return id
}
