package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()

	// Swap the default registry so the test can inspect what New
	// registers without colliding with other packages.
	prometheus.DefaultRegisterer = registry
	prometheus.DefaultGatherer = registry

	m := New()

	if m.TransactionsAppended == nil || m.TransfersExecuted == nil || m.AuditFindings == nil || m.HTTPRequests == nil {
		t.Fatalf("expected key metrics to be initialized: %+v", m)
	}

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	if len(metricFamilies) == 0 {
		t.Fatalf("expected registered metrics, got none")
	}

	for _, family := range metricFamilies {
		if !strings.HasPrefix(family.GetName(), "fintrack_") {
			t.Fatalf("expected fintrack_ metric name prefix, got %s", family.GetName())
		}
	}
}
