package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/lessoncast/lessoncast/pkg/blob"
	"github.com/lessoncast/lessoncast/pkg/errorsx"
	"github.com/lessoncast/lessoncast/pkg/generate"
	"github.com/lessoncast/lessoncast/pkg/lesson"
	"github.com/lessoncast/lessoncast/pkg/notify"
)

type generateRequest struct {
	LessonID     string            `json:"lesson_id"`
	VoiceMapping map[string]string `json:"voice_mapping,omitempty"`
	Regenerate   bool              `json:"regenerate,omitempty"`
}

type audioFileMetadata struct {
	ChunkIndex      int    `json:"chunk_index"`
	AudioID         string `json:"audio_id,omitempty"`
	Speaker         string `json:"speaker"`
	Voice           string `json:"voice,omitempty"`
	FilePath        string `json:"file_path,omitempty"`
	DurationSeconds int    `json:"duration_seconds,omitempty"`
	Regenerated     bool   `json:"regenerated"`
	Error           string `json:"error,omitempty"`
}

type generateResponse struct {
	Success              bool                `json:"success"`
	LessonID             string              `json:"lesson_id"`
	AudioFiles           []audioFileMetadata `json:"audio_files"`
	TotalDurationSeconds int                 `json:"total_duration_seconds"`
	FilesGenerated       int                 `json:"files_generated"`
	FilesTotal           int                 `json:"files_total"`
	ManifestPath         string              `json:"manifest_path"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errorsx.New(errorsx.ReasonValidation, "invalid request body: %v", err))
		return
	}
	if err := validLessonID(req.LessonID); err != nil {
		writeError(w, err)
		return
	}
	mapping, err := lesson.VoiceMappingFromWire(req.VoiceMapping)
	if err != nil {
		writeError(w, errorsx.Wrap(err, errorsx.ReasonValidation))
		return
	}

	lsn, err := s.lessons.Lesson(r.Context(), req.LessonID)
	if err != nil {
		writeError(w, err)
		return
	}

	summary, err := s.orch.Generate(r.Context(), lsn, mapping, req.Regenerate)
	if err != nil {
		writeError(w, err)
		return
	}

	// The notifier is fire and forget: generation already succeeded,
	// and the HTTP response must not wait on a messaging provider.
	go s.notifyReady(lsn, summary)

	files := make([]audioFileMetadata, 0, len(summary.Files))
	for _, f := range summary.Files {
		files = append(files, audioFileMetadata{
			ChunkIndex:      f.ChunkIndex,
			AudioID:         f.ArtifactID,
			Speaker:         f.Speaker.String(),
			Voice:           f.Voice,
			FilePath:        f.StorageKey,
			DurationSeconds: f.DurationSeconds,
			Regenerated:     f.Regenerated,
			Error:           f.Error,
		})
	}
	writeJSON(w, http.StatusOK, generateResponse{
		Success:              true,
		LessonID:             lsn.ID,
		AudioFiles:           files,
		TotalDurationSeconds: summary.TotalDurationSeconds,
		FilesGenerated:       summary.FilesGenerated,
		FilesTotal:           summary.FilesTotal,
		ManifestPath:         summary.ManifestKey,
	})
}

func (s *Server) notifyReady(lsn lesson.Lesson, summary generate.Summary) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	err := s.notifier.NotifyAudioReady(ctx, notify.AudioReady{
		LessonID:       lsn.ID,
		ProgramID:      lsn.ProgramID,
		DayNumber:      lsn.DayNumber,
		FilesGenerated: summary.FilesGenerated,
		FilesTotal:     summary.FilesTotal,
	})
	if err != nil {
		s.logger.Warn("audio ready notification failed",
			slog.String("lesson_id", lsn.ID),
			slog.String("notifier", s.notifier.Name()),
			slog.String("error", err.Error()))
	}
}

type statusResponse struct {
	Exists                bool             `json:"exists"`
	LessonID              string           `json:"lesson_id,omitempty"`
	HasConversationChunks *bool            `json:"has_conversation_chunks,omitempty"`
	TotalChunks           *int             `json:"total_chunks,omitempty"`
	Manifest              *lesson.Manifest `json:"manifest,omitempty"`
	AudioDirectory        string           `json:"audio_directory,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	lessonID := mux.Vars(r)["lessonID"]
	if err := validLessonID(lessonID); err != nil {
		writeError(w, err)
		return
	}
	lsn, err := s.lessons.Lesson(r.Context(), lessonID)
	if err != nil {
		writeError(w, err)
		return
	}

	m, err := s.manifests.Load(r.Context(), lessonID)
	if err != nil {
		if errorsx.HasReason(err, errorsx.ReasonManifestNotFound) {
			hasChunks := len(lsn.Turns) > 0
			total := len(lsn.Turns)
			writeJSON(w, http.StatusOK, statusResponse{
				Exists:                false,
				LessonID:              lsn.ID,
				HasConversationChunks: &hasChunks,
				TotalChunks:           &total,
			})
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{
		Exists:         true,
		LessonID:       lsn.ID,
		Manifest:       &m,
		AudioDirectory: blob.LessonPrefix(lessonID),
	})
}

type deleteResponse struct {
	Success      bool     `json:"success"`
	LessonID     string   `json:"lesson_id"`
	DeletedFiles []string `json:"deleted_files"`
	FilesDeleted int      `json:"files_deleted"`
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	lessonID := mux.Vars(r)["lessonID"]
	if err := validLessonID(lessonID); err != nil {
		writeError(w, err)
		return
	}
	removed, err := s.manifests.Delete(r.Context(), lessonID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteResponse{
		Success:      true,
		LessonID:     lessonID,
		DeletedFiles: removed,
		FilesDeleted: len(removed),
	})
}

type playlistResponse struct {
	LessonID             string           `json:"lesson_id"`
	TotalChunks          int              `json:"total_chunks"`
	TotalDurationSeconds int              `json:"total_duration_seconds"`
	Playlist             []lesson.Segment `json:"playlist"`
}

func (s *Server) handlePlaylist(w http.ResponseWriter, r *http.Request) {
	lessonID := mux.Vars(r)["lessonID"]
	if err := validLessonID(lessonID); err != nil {
		writeError(w, err)
		return
	}
	lsn, err := s.lessons.Lesson(r.Context(), lessonID)
	if err != nil {
		writeError(w, err)
		return
	}
	m, err := s.manifests.Load(r.Context(), lessonID)
	if err != nil {
		writeError(w, err)
		return
	}
	segments, err := s.assembler.Assemble(r.Context(), lsn, m)
	if err != nil {
		writeError(w, err)
		return
	}
	if segments == nil {
		segments = []lesson.Segment{}
	}
	writeJSON(w, http.StatusOK, playlistResponse{
		LessonID:             lessonID,
		TotalChunks:          len(m.Artifacts),
		TotalDurationSeconds: m.TotalDurationSeconds(),
		Playlist:             segments,
	})
}
