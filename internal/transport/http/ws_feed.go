package http

import (
	"log"
	"net/http"

	"campus-quiz-service/internal/app"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type feedMessage struct {
	Type    string              `json:"type"`
	Payload app.SubmissionEvent `json:"payload"`
}

// handleResultsFeed streams recorded submissions to a websocket client
// (monitoring dashboards, teacher views). The subscription is cancelled
// when the socket closes on either side.
func (s *Server) handleResultsFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	events, cancel := s.feed.Subscribe()
	defer cancel()

	done := make(chan struct{})

	// Reader only detects the peer closing; inbound frames are ignored.
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(feedMessage{Type: "submission", Payload: event}); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}
