package http

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/45-baron/1-Jour-1-science/internal/domain"
)

var rankingUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type rankingMessage struct {
	Type    string         `json:"type"`
	Payload domain.Ranking `json:"payload"`
}

// handleRankingWS streams leaderboard snapshots: one on connect, then
// one after every grading action, until the client disconnects.
func (a *API) handleRankingWS(w http.ResponseWriter, r *http.Request) {
	conn, err := rankingUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel, err := a.ranking.Subscribe(r.Context())
	if err != nil {
		_ = conn.WriteJSON(map[string]string{"type": "error", "error": err.Error()})
		return
	}
	defer cancel()

	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			// Clients never send payloads; reading only detects the close.
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ranking, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(rankingMessage{Type: "ranking", Payload: ranking}); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		case <-readerDone:
			return
		}
	}
}
