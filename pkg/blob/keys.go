package blob

import "path"

// Artifacts for one lesson share a key prefix so whole-lesson deletion
// is a single prefix-scoped operation, with the manifest alongside.

const (
	lessonRoot   = "lessons"
	manifestName = "manifest.json"
)

// LessonPrefix returns the namespace all of a lesson's objects live under.
func LessonPrefix(lessonID string) string {
	return path.Join(lessonRoot, lessonID) + "/"
}

// ArtifactKey returns the object key for one synthesized audio file.
func ArtifactKey(lessonID, artifactID, format string) string {
	return path.Join(lessonRoot, lessonID, artifactID+"."+format)
}

// ManifestKey returns the object key of the per-lesson manifest document.
func ManifestKey(lessonID string) string {
	return path.Join(lessonRoot, lessonID, manifestName)
}
