// Package otel publishes the engine's counters and the validation latency
// histogram as OpenTelemetry observable instruments. Values are pulled from
// the engine snapshot inside the meter callback; nothing is pushed on the
// hot path.
package otel
