package metrics

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func delta(t *testing.T, collector prometheus.Collector, observe func()) float64 {
	t.Helper()

	before := testutil.ToFloat64(collector)
	observe()
	after := testutil.ToFloat64(collector)
	return after - before
}

func TestLedgerRecords(t *testing.T) {
	var m Ledger
	start := time.Now().Add(-time.Second)

	if inc := delta(t, operationsTotal.WithLabelValues("transfer", "success"), func() {
		m.ObserveOperation("transfer", nil, start)
	}); inc != 1 {
		t.Fatalf("expected transfer success increment, got %v", inc)
	}

	if inc := delta(t, operationsTotal.WithLabelValues("transfer", "error"), func() {
		m.ObserveOperation("transfer", errors.New("boom"), start)
	}); inc != 1 {
		t.Fatalf("expected transfer error increment, got %v", inc)
	}

	if inc := delta(t, submissionsTotal.WithLabelValues("solution_incorrect"), func() {
		m.ObserveSubmission("solution_incorrect")
	}); inc != 1 {
		t.Fatalf("expected submission increment, got %v", inc)
	}

	m.SetWork(4200)
	if got := testutil.ToFloat64(currentWork); got != 4200 {
		t.Fatalf("expected work gauge 4200, got %v", got)
	}
}

func TestRequestRecords(t *testing.T) {
	if inc := delta(t, requestsTotal.WithLabelValues("4xx"), func() {
		ObserveRequest(http.StatusNotFound)
	}); inc != 1 {
		t.Fatalf("expected 4xx increment, got %v", inc)
	}

	if inc := delta(t, panicsTotal, AddPanic); inc != 1 {
		t.Fatalf("expected panic increment, got %v", inc)
	}
}
