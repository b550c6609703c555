package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestActionMetricsCountsByKindAndResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewActionMetrics(reg)

	m.IncApplied("create_borrow", "borrow_created")
	m.IncApplied("create_borrow", "borrow_created")
	m.IncApplied("", "noop")

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}

	var applied *dto.MetricFamily
	for _, fam := range families {
		if fam.GetName() == "actions_applied_total" {
			applied = fam
		}
	}
	if applied == nil {
		t.Fatal("actions_applied_total not registered")
	}

	total := 0.0
	for _, metric := range applied.GetMetric() {
		total += metric.GetCounter().GetValue()
		for _, label := range metric.GetLabel() {
			if label.GetName() == "kind" && label.GetValue() == "" {
				t.Fatal("empty kind label should be normalized")
			}
		}
	}
	if total != 3 {
		t.Fatalf("expected 3 applied actions, got %v", total)
	}
}

func TestStateMetricsIgnoreZeroCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewStateMetrics(reg)

	m.AddDropped("items", 0)
	m.AddDropped("borrowings", 2)
	m.AddStatusResets(1)
	m.IncCollectionEvents()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}

	seen := map[string]float64{}
	for _, fam := range families {
		for _, metric := range fam.GetMetric() {
			seen[fam.GetName()] += metric.GetCounter().GetValue()
		}
	}

	if seen["reconcile_dropped_records_total"] != 2 {
		t.Fatalf("expected 2 dropped records, got %v", seen["reconcile_dropped_records_total"])
	}
	if seen["reconcile_status_resets_total"] != 1 {
		t.Fatalf("expected 1 status reset, got %v", seen["reconcile_status_resets_total"])
	}
	if seen["collection_events_created_total"] != 1 {
		t.Fatalf("expected 1 collection event, got %v", seen["collection_events_created_total"])
	}
}

func TestNilRegistererProducesNoopMetrics(t *testing.T) {
	a := NewActionMetrics(nil)
	s := NewStateMetrics(nil)

	// Must not panic.
	a.IncApplied("x", "y")
	s.AddDropped("items", 3)
	s.AddStatusResets(1)
	s.IncCollectionEvents()
}
