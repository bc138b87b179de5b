package metrics

import "time"

// Canonical event names recorded by the pipeline.
const (
	EventSynthesisLatency = "synthesis_latency_ms"
	EventArtifactStored   = "artifact_stored_bytes"
	EventTurnFailed       = "turn_failed"
	EventGenerateBatch    = "generate_batch"
	EventHTTPRequest      = "http_request"
	EventCacheHit         = "bundle_cache_hit"
	EventCacheMiss        = "bundle_cache_miss"
)

// Event builds a MetricsEvent stamped with the current time.
func Event(name string, value float64, tags map[string]string) MetricsEvent {
	return MetricsEvent{Name: name, Time: time.Now(), Value: value, Tags: tags}
}
