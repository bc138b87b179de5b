package errorsx

// ReasonCode is a short machine-readable error reason.
type ReasonCode string

const (
	ReasonUnknown ReasonCode = "unknown"

	// Per-turn synthesis failures; absorbed into the manifest, never fatal.
	ReasonSynthesis          ReasonCode = "synthesis_failed"
	ReasonSynthesisRateLimit ReasonCode = "synthesis_rate_limit"

	// Artifact-store failures. During generation they are treated like
	// synthesis failures; on status/delete/stream they are request-level.
	ReasonStoragePut    ReasonCode = "storage_put"
	ReasonStorageGet    ReasonCode = "storage_get"
	ReasonStorageDelete ReasonCode = "storage_delete"
	ReasonStorageList   ReasonCode = "storage_list"

	ReasonLessonNotFound   ReasonCode = "lesson_not_found"
	ReasonManifestNotFound ReasonCode = "manifest_not_found"
	ReasonArtifactNotFound ReasonCode = "artifact_not_found"

	// Malformed requests, rejected before any I/O.
	ReasonValidation ReasonCode = "validation"
)
