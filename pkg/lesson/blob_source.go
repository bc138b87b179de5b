package lesson

import (
	"context"
	"encoding/json"
	"path"
	"strings"

	"github.com/lessoncast/lessoncast/pkg/blob"
)

const programRoot = "programs"

// programDoc is the stored shape of a program: an identifier plus its
// lessons. Program CRUD lives elsewhere; this source only reads.
type programDoc struct {
	ID      string   `json:"id"`
	Lessons []Lesson `json:"lessons"`
}

// BlobSource resolves lessons from program documents kept in the
// object store under programs/<programID>.json.
type BlobSource struct {
	blobs blob.Store
}

// NewBlobSource creates a lesson source over the given object store.
func NewBlobSource(blobs blob.Store) *BlobSource {
	return &BlobSource{blobs: blobs}
}

// ProgramKey returns the object key of one program document.
func ProgramKey(programID string) string {
	return path.Join(programRoot, programID+".json")
}

func (s *BlobSource) Lesson(ctx context.Context, lessonID string) (Lesson, error) {
	return s.find(ctx, func(l Lesson) bool { return l.ID == lessonID })
}

func (s *BlobSource) ByProgramDay(ctx context.Context, programID string, day int) (Lesson, error) {
	doc, err := s.program(ctx, programID)
	if err != nil {
		return Lesson{}, err
	}
	for _, l := range doc.Lessons {
		if l.DayNumber == day {
			return l, nil
		}
	}
	return Lesson{}, ErrNotFound
}

func (s *BlobSource) program(ctx context.Context, programID string) (programDoc, error) {
	data, err := s.blobs.Get(ctx, ProgramKey(programID))
	if err != nil {
		if err == blob.ErrNotFound {
			return programDoc{}, ErrNotFound
		}
		return programDoc{}, err
	}
	var doc programDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return programDoc{}, err
	}
	return doc, nil
}

// find scans every program document for a matching lesson. Lesson IDs
// are unique across programs, so first match wins.
func (s *BlobSource) find(ctx context.Context, match func(Lesson) bool) (Lesson, error) {
	objects, err := s.blobs.List(ctx, programRoot+"/")
	if err != nil {
		return Lesson{}, err
	}
	for _, obj := range objects {
		if !strings.HasSuffix(obj.Key, ".json") {
			continue
		}
		data, err := s.blobs.Get(ctx, obj.Key)
		if err != nil {
			return Lesson{}, err
		}
		var doc programDoc
		if err := json.Unmarshal(data, &doc); err != nil {
			continue
		}
		for _, l := range doc.Lessons {
			if match(l) {
				return l, nil
			}
		}
	}
	return Lesson{}, ErrNotFound
}

var _ Source = (*BlobSource)(nil)
