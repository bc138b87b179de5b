package manifest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/lessoncast/lessoncast/pkg/blob"
	"github.com/lessoncast/lessoncast/pkg/errorsx"
	"github.com/lessoncast/lessoncast/pkg/lesson"
	"github.com/lessoncast/lessoncast/pkg/logging"
)

// Store persists per-lesson manifests as whole JSON documents in the
// artifact store, next to the audio objects they describe.
//
// Writes replace the whole document; there is no per-artifact locking.
// Concurrent generate calls for one lesson are not a supported
// scenario, and when they race the last write wins.
type Store struct {
	blobs  blob.Store
	logger *slog.Logger
}

// NewStore creates a manifest store over the given object store.
func NewStore(blobs blob.Store) *Store {
	return &Store{
		blobs:  blobs,
		logger: logging.NewComponentLogger(slog.Default(), "manifest_store"),
	}
}

// Load reads the manifest for a lesson. Returns a manifest_not_found
// reasoned error when none exists.
func (s *Store) Load(ctx context.Context, lessonID string) (lesson.Manifest, error) {
	data, err := s.blobs.Get(ctx, blob.ManifestKey(lessonID))
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return lesson.Manifest{}, errorsx.New(errorsx.ReasonManifestNotFound, "no manifest for lesson %s", lessonID)
		}
		return lesson.Manifest{}, errorsx.Wrap(err, errorsx.ReasonStorageGet)
	}
	var m lesson.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return lesson.Manifest{}, errorsx.Wrap(err, errorsx.ReasonStorageGet)
	}
	return m, nil
}

// Save writes the manifest as a single document replace.
func (s *Store) Save(ctx context.Context, m lesson.Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	key := blob.ManifestKey(m.LessonID)
	if err := s.blobs.Put(ctx, key, data, "application/json", nil); err != nil {
		return errorsx.Wrap(err, errorsx.ReasonStoragePut)
	}
	s.logger.Debug("manifest saved",
		slog.String("lesson_id", m.LessonID),
		slog.Int("artifacts", len(m.Artifacts)))
	return nil
}

// Exists reports whether a manifest is present for the lesson.
func (s *Store) Exists(ctx context.Context, lessonID string) (bool, error) {
	ok, err := s.blobs.Exists(ctx, blob.ManifestKey(lessonID))
	if err != nil {
		return false, errorsx.Wrap(err, errorsx.ReasonStorageGet)
	}
	return ok, nil
}

// Delete removes every audio object under the lesson namespace plus
// the manifest itself, returning the removed keys. Deleting a lesson
// with nothing stored is a no-op, not an error.
func (s *Store) Delete(ctx context.Context, lessonID string) ([]string, error) {
	objects, err := s.blobs.List(ctx, blob.LessonPrefix(lessonID))
	if err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonStorageList)
	}
	removed := make([]string, 0, len(objects))
	// Audio objects first, manifest last, so a partial delete never
	// leaves a manifest pointing at nothing while objects remain.
	manifestKey := blob.ManifestKey(lessonID)
	for _, obj := range objects {
		if obj.Key == manifestKey {
			continue
		}
		if err := s.blobs.Delete(ctx, obj.Key); err != nil {
			return removed, errorsx.Wrap(err, errorsx.ReasonStorageDelete)
		}
		removed = append(removed, obj.Key)
	}
	if containsKey(objects, manifestKey) {
		if err := s.blobs.Delete(ctx, manifestKey); err != nil {
			return removed, errorsx.Wrap(err, errorsx.ReasonStorageDelete)
		}
		removed = append(removed, manifestKey)
	}
	s.logger.Info("lesson audio deleted",
		slog.String("lesson_id", lessonID),
		slog.Int("files_deleted", len(removed)))
	return removed, nil
}

func containsKey(objects []blob.ObjectInfo, key string) bool {
	for _, obj := range objects {
		if strings.EqualFold(obj.Key, key) {
			return true
		}
	}
	return false
}
