package prometheus

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	goGate "github.com/MrEthical07/goGate"
	"github.com/MrEthical07/goGate/store"
)

type fakeSource struct {
	snapshot goGate.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() goGate.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                    { return f.dropped }

func TestRenderEmptyWhenMetricsDisabled(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goGate.MetricsSnapshot{
			Counters:   map[goGate.MetricID]uint64{},
			Histograms: map[goGate.MetricID][]uint64{},
		},
	})

	if got := exp.Render(); got != "" {
		t.Fatalf("expected empty output for disabled metrics, got:\n%s", got)
	}
}

func TestRenderIncludesCounterAndHistogram(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goGate.MetricsSnapshot{
			Counters: map[goGate.MetricID]uint64{
				goGate.MetricLockoutProtected: 7,
			},
			Histograms: map[goGate.MetricID][]uint64{
				goGate.MetricStateLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped: 2,
	})

	out := exp.Render()
	for _, want := range []string{
		"gogate_lockouts_total{feature=\"PROFILE\"} 7",
		"gogate_lockouts_total{feature=\"PROMPT_GEN\"} 0",
		"gogate_verify_success_total 0",
		"gogate_state_latency_seconds_bucket{le=\"0.005\"} 1",
		"gogate_state_latency_seconds_bucket{le=\"+Inf\"} 36",
		"gogate_state_latency_seconds_count 36",
		"gogate_audit_dropped_total 2",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, out)
		}
	}
	if n := strings.Count(out, "# TYPE gogate_lockouts_total counter"); n != 1 {
		t.Fatalf("expected one TYPE line for the lockout family, got %d", n)
	}
}

func TestHandlerAgainstEngine(t *testing.T) {
	engine, err := goGate.New().
		WithStore(store.NewMemory()).
		WithMetricsEnabled(true).
		Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	defer engine.Close()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, _ = engine.Submit(ctx, goGate.FeatureGeneral, "nope")
	}

	rec := httptest.NewRecorder()
	NewPrometheusExporter(engine).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "text/plain") {
		t.Fatalf("expected prometheus content type, got %q", got)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "gogate_lockouts_total{feature=\"PROMPT_GEN\"} 1") || !strings.Contains(body, "gogate_attempt_recorded_total 3") {
		t.Fatalf("unexpected metrics body:\n%s", body)
	}
}
