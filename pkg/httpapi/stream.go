package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/lessoncast/lessoncast/pkg/errorsx"
)

// handleStream serves one artifact's raw bytes. http.ServeContent over
// the store's seekable reader gives byte-range delivery for seeking.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	lessonID, audioID := vars["lessonID"], vars["audioID"]
	if err := validLessonID(lessonID); err != nil {
		writeError(w, err)
		return
	}

	m, err := s.manifests.Load(r.Context(), lessonID)
	if err != nil {
		writeError(w, err)
		return
	}
	artifact, ok := m.ArtifactByID(audioID)
	if !ok || !artifact.OK() {
		writeError(w, errorsx.New(errorsx.ReasonArtifactNotFound, "audio %s not found in lesson %s", audioID, lessonID))
		return
	}

	reader, info, err := s.blobs.Open(r.Context(), artifact.StorageKey)
	if err != nil {
		writeError(w, errorsx.Wrap(err, errorsx.ReasonStorageGet))
		return
	}
	defer reader.Close()

	if info.ContentType != "" {
		w.Header().Set("Content-Type", info.ContentType)
	}
	w.Header().Set("Cache-Control", "private, max-age=3600")
	http.ServeContent(w, r, artifact.ArtifactID+"."+artifact.Format, artifact.GeneratedAt, reader)
}
