package httpapi

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/lessoncast/lessoncast/pkg/generate"
	"github.com/lessoncast/lessoncast/pkg/logging"
)

// ProgressHub fans generation turn events out to websocket subscribers
// keyed by lesson. It plugs into the orchestrator as a listener, so
// clients can watch a long generation pass instead of polling status.
type ProgressHub struct {
	mu       sync.Mutex
	subs     map[string]map[*websocket.Conn]struct{}
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewProgressHub creates an empty hub.
func NewProgressHub() *ProgressHub {
	return &ProgressHub{
		subs: make(map[string]map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger: logging.NewComponentLogger(slog.Default(), "progress_hub"),
	}
}

// OnTurn broadcasts one turn event to the lesson's subscribers.
// Dead connections are dropped on write failure.
func (h *ProgressHub) OnTurn(ev generate.TurnEvent) {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.subs[ev.LessonID]))
	for conn := range h.subs[ev.LessonID] {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		if err := conn.WriteJSON(ev); err != nil {
			h.logger.Debug("dropping progress subscriber",
				slog.String("lesson_id", ev.LessonID),
				slog.String("error", err.Error()))
			h.unsubscribe(ev.LessonID, conn)
			_ = conn.Close()
		}
	}
}

func (h *ProgressHub) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	lessonID := mux.Vars(r)["lessonID"]
	if err := validLessonID(lessonID); err != nil {
		writeError(w, err)
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	h.subscribe(lessonID, conn)
	h.logger.Debug("progress subscriber added", slog.String("lesson_id", lessonID))

	// Reader loop exists only to detect close.
	go func() {
		defer func() {
			h.unsubscribe(lessonID, conn)
			_ = conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *ProgressHub) subscribe(lessonID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[lessonID] == nil {
		h.subs[lessonID] = make(map[*websocket.Conn]struct{})
	}
	h.subs[lessonID][conn] = struct{}{}
}

func (h *ProgressHub) unsubscribe(lessonID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.subs[lessonID]; ok {
		delete(set, conn)
		if len(set) == 0 {
			delete(h.subs, lessonID)
		}
	}
}

var _ generate.Listener = (*ProgressHub)(nil)
