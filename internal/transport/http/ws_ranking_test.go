package http

import (
	"context"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/45-baron/1-Jour-1-science/internal/domain"
)

func TestRankingStream(t *testing.T) {
	ctx := context.Background()
	ts := newTestServer(t)

	resp := ts.do(t, "POST", "/api/register", "u1", map[string]string{"fullName": "Ama"})
	expectStatus(t, resp, 201)
	resp.Body.Close()

	u := "ws" + ts.URL[len("http"):] + "/ws/ranking?token=" + signToken(t, "u1")
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Initial snapshot on connect.
	initial := readRanking(t, conn)
	if len(initial.Entries) != 1 || initial.Entries[0].TotalPoints != 0 {
		t.Fatalf("unexpected initial snapshot: %+v", initial.Entries)
	}

	// A recompute after grading pushes a fresh snapshot.
	if err := ts.submissions.CreateIfAbsent(ctx, domain.Submission{
		ID: "s1-u1", SessionID: "s1", UserID: "u1", Corrected: true, TotalPoints: 10,
	}); err != nil {
		t.Fatalf("seed submission: %v", err)
	}
	if _, err := ts.ranking.RecomputeUserTotal(ctx, "u1"); err != nil {
		t.Fatalf("recompute: %v", err)
	}

	update := readRanking(t, conn)
	if len(update.Entries) != 1 || update.Entries[0].TotalPoints != 10 {
		t.Fatalf("expected updated total 10, got %+v", update.Entries)
	}
}

func readRanking(t *testing.T, conn *websocket.Conn) domain.Ranking {
	t.Helper()
	var msg rankingMessage
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if msg.Type != "ranking" {
		t.Fatalf("expected ranking message, got %s", msg.Type)
	}
	return msg.Payload
}
