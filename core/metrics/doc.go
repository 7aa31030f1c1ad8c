// Package metrics defines the sink interface used to record planning runs.
// Implementations such as the Prometheus and InfluxDB sinks live in
// infra/metrics and register themselves by name; NewMetricsSink combines
// several configured sinks into a MultiSink.
package metrics
