package http

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"quizhub-service/internal/app"
	"quizhub-service/internal/domain"
)

// WSHandler streams realtime analytics snapshots to dashboard clients. Every
// recorded participation triggers a fresh snapshot push; masking follows the
// viewer role like the plain HTTP endpoints.
type WSHandler struct {
	reports  *app.AnalyticsService
	feed     *app.StatsFeed
	upgrader websocket.Upgrader
}

func NewWSHandler(reports *app.AnalyticsService, feed *app.StatsFeed) *WSHandler {
	return &WSHandler{
		reports: reports,
		feed:    feed,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServeWS upgrades the request and pushes a stats snapshot on connect and
// after every new participation. The role comes from a query parameter since
// browser websocket clients cannot set custom headers.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	if quizID == "" {
		http.Error(w, "missing quizId", http.StatusBadRequest)
		return
	}
	role := viewerRole(r)
	if qRole := r.URL.Query().Get("role"); qRole != "" {
		role = domain.Role(qRole)
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	stats, err := h.reports.GetRealtimeStats(r.Context(), quizID, role)
	if err != nil {
		_ = conn.WriteJSON(errorResponse{Error: "analytics request failed"})
		return
	}
	if err := conn.WriteJSON(stats); err != nil {
		return
	}

	signals, cancel := h.feed.Subscribe(quizID)
	defer cancel()

	// Reader goroutine only detects the peer going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case _, ok := <-signals:
			if !ok {
				return
			}
			stats, err := h.reports.GetRealtimeStats(r.Context(), quizID, role)
			if err != nil {
				log.Printf("ws snapshot refresh failed for quiz %s: %v", quizID, err)
				continue
			}
			if err := conn.WriteJSON(stats); err != nil {
				return
			}
		case <-closed:
			return
		case <-r.Context().Done():
			return
		}
	}
}
