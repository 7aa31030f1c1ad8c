// Package infra contains technical adapters: CSV input tables, metrics
// sinks, the MQTT roster publisher, Sentry and the zerolog logger. These
// packages depend only on the interfaces defined in the core packages.
package infra
