// Package otel publishes gate metrics through an OpenTelemetry Meter.
//
// Each counter becomes an Int64ObservableCounter and each histogram bucket an
// Int64ObservableGauge; one callback reads the engine snapshot per collection.
// Callers own the MeterProvider.
package otel
