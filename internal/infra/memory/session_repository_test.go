package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/45-baron/1-Jour-1-science/internal/domain"
)

func TestSessionCreateDoesNotOverwrite(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository()

	session := domain.QuestionSession{
		ID:        "comp-1-2026-08-31",
		Date:      "2026-08-31",
		Deadline:  time.Now().Add(time.Hour),
		Questions: []domain.Question{{ID: "q1", Text: "Première ?", Points: 5, Order: 1}},
	}
	if err := repo.Create(ctx, session); err != nil {
		t.Fatalf("create: %v", err)
	}

	empty := session
	empty.Questions = nil
	if err := repo.Create(ctx, empty); !errors.Is(err, domain.ErrSessionExists) {
		t.Fatalf("expected ErrSessionExists, got %v", err)
	}

	stored, err := repo.Get(ctx, session.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(stored.Questions) != 1 {
		t.Fatalf("duplicate create must not wipe questions, got %d", len(stored.Questions))
	}
}

func TestSessionListPast(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository()
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	seed := []domain.QuestionSession{
		{ID: "2026-08-29", Date: "2026-08-29", Deadline: now.Add(-48 * time.Hour)},
		{ID: "comp-1-2026-08-30", Date: "2026-08-30", Deadline: now.Add(-time.Hour)},
		{ID: "comp-1-2026-08-31", Date: "2026-08-31", Deadline: now.Add(time.Hour)},
	}
	for _, s := range seed {
		if err := repo.Create(ctx, s); err != nil {
			t.Fatalf("create %s: %v", s.ID, err)
		}
	}

	past, err := repo.ListPast(ctx, now)
	if err != nil {
		t.Fatalf("list past: %v", err)
	}
	if len(past) != 2 {
		t.Fatalf("expected 2 past sessions, got %d", len(past))
	}
	if past[0].ID != "comp-1-2026-08-30" || past[1].ID != "2026-08-29" {
		t.Fatalf("expected most recent date first, got %s then %s", past[0].ID, past[1].ID)
	}
}
