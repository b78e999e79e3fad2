package goGate

import (
	"context"
	"testing"

	"github.com/MrEthical07/goGate/store"
)

func BenchmarkMetricsInc(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		m.Inc(MetricVerifyFailure)
	}
}

func BenchmarkMetricsIncParallel(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			m.Inc(MetricVerifyFailure)
		}
	})
}

func BenchmarkStateMemory(b *testing.B) {
	engine, err := New().WithStore(store.NewMemory()).WithMetricsEnabled(true).Build()
	if err != nil {
		b.Fatalf("build failed: %v", err)
	}
	ctx := context.Background()
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := engine.State(ctx); err != nil {
			b.Fatal(err)
		}
	}
}
