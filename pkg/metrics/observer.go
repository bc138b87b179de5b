// Package metrics records pipeline events (synthesis latency, stored
// artifacts, turn failures, HTTP timings, cache hits) behind a small
// Observer interface. Emitting code never blocks on a sink: the async
// observer drops on a full buffer, and the JSONL sink is for offline
// inspection, not a live metrics backend.
package metrics

import "time"

type MetricsEvent struct {
	Name   string
	Time   time.Time
	Value  float64
	Tags   map[string]string
	Fields map[string]any
}

type Observer interface {
	RecordEvent(ev MetricsEvent)
}

type Flusher interface {
	Flush() error
}

type NoopObserver struct{}

func (NoopObserver) RecordEvent(MetricsEvent) {}
