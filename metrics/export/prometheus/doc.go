// Package prometheus renders gate metrics in the Prometheus text exposition
// format. Mount [PrometheusExporter.Handler] on a route of your choosing; no
// global registry is touched.
package prometheus
