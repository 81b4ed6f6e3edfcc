package mission

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/wricardo/mcp-training/rescuebot/game/explore"
)

func TestMetrics_CountsMission(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("Failed to create metrics: %v", err)
	}

	w := mustWorld(t, straightPath...)
	m := New(w,
		WithNotifier(metrics),
		WithActivitySink(metrics),
		WithExploreOptions(explore.WithScanMode(explore.ScanLazy)),
	)
	report, err := m.Run(context.Background())
	if err != nil {
		t.Fatalf("Mission failed: %v", err)
	}
	metrics.ObserveReport(report)

	if got := testutil.ToFloat64(metrics.Missions.WithLabelValues("done")); got != 1 {
		t.Errorf("Expected 1 completed mission, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.Commands.WithLabelValues("advance", "ok")); got != 2 {
		t.Errorf("Expected 2 advances, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.Commands.WithLabelValues("rotate", "ok")); got != 2 {
		t.Errorf("Expected 2 rotations, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.Events.WithLabelValues("discovery")); got != 1 {
		t.Errorf("Expected 1 discovery event, got %v", got)
	}
	if got := testutil.CollectAndCount(metrics.Iterations); got != 1 {
		t.Errorf("Expected iterations histogram to be collected once, got %d", got)
	}
}

func TestMetrics_FailedMission(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("Failed to create metrics: %v", err)
	}

	w := mustWorld(t, "*E***", "* *@*", "*****")
	if _, err := New(w, WithNotifier(metrics)).Run(context.Background()); err == nil {
		t.Fatal("Expected mission to fail")
	}
	if got := testutil.ToFloat64(metrics.Missions.WithLabelValues("failed")); got != 1 {
		t.Errorf("Expected 1 failed mission, got %v", got)
	}
}

func TestNewMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewMetrics(reg); err != nil {
		t.Fatalf("Failed to create metrics: %v", err)
	}
	if _, err := NewMetrics(reg); err == nil {
		t.Error("Expected duplicate registration to fail")
	}
}
