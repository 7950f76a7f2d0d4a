package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/45-baron/1-Jour-1-science/internal/app"
	"github.com/45-baron/1-Jour-1-science/internal/domain"
	"github.com/45-baron/1-Jour-1-science/internal/infra/memory"
)

const testSecret = "test-secret"

type testServer struct {
	*httptest.Server
	users       *app.UserService
	ranking     *app.RankingService
	submissions app.SubmissionRepository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	users := memory.NewUserRepository()
	comps := memory.NewCompetitionRepository()
	sessions := memory.NewSessionRepository()
	submissions := memory.NewSubmissionRepository()

	userService := app.NewUserServiceWithClock(users, time.Now, 1)
	competitionService := app.NewCompetitionService(comps, sessions, submissions, users, "http://test")
	rankingService := app.NewRankingService(users, submissions, nil)
	gradingService := app.NewGradingService(submissions, sessions, users, rankingService)

	api := NewAPI(userService, competitionService, gradingService, rankingService, nil)
	server := httptest.NewServer(api.Handler(testSecret))
	t.Cleanup(server.Close)
	return &testServer{Server: server, users: userService, ranking: rankingService, submissions: submissions}
}

func signToken(t *testing.T, userID string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func (ts *testServer) do(t *testing.T, method, path, userID string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, ts.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+signToken(t, userID))
	}
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("expected status %d, got %d", want, resp.StatusCode)
	}
}

func TestRequestsWithoutTokenAreRejected(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodGet, "/api/me", "", nil)
	expectStatus(t, resp, http.StatusUnauthorized)
	resp.Body.Close()
}

func TestGradingFlowEndToEnd(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	// Profiles: one organizer, one player.
	resp := ts.do(t, http.MethodPost, "/api/register", "org-1", map[string]string{
		"phoneNumber": "+22890000009", "fullName": "Orga Nisateur",
	})
	expectStatus(t, resp, http.StatusCreated)
	resp.Body.Close()
	if err := ts.users.PromoteToOrganizer(ctx, "org-1"); err != nil {
		t.Fatalf("promote: %v", err)
	}

	resp = ts.do(t, http.MethodPost, "/api/register", "u1", map[string]string{
		"phoneNumber": "+22890000001", "fullName": "Ama Dupont",
	})
	expectStatus(t, resp, http.StatusCreated)
	player := decodeBody[domain.User](t, resp)
	if player.Pseudo == "" || player.Role != domain.RolePlayer {
		t.Fatalf("unexpected registered player: %+v", player)
	}

	// Organizer sets up a competition with one 10-point and one 5-point question.
	resp = ts.do(t, http.MethodPost, "/api/competitions", "org-1", map[string]string{"name": "Concours Sciences"})
	expectStatus(t, resp, http.StatusCreated)
	comp := decodeBody[domain.Competition](t, resp)

	resp = ts.do(t, http.MethodPost, "/api/competitions/"+comp.ID+"/sessions", "org-1", map[string]any{
		"deadline": time.Now().Add(time.Hour),
	})
	expectStatus(t, resp, http.StatusCreated)
	session := decodeBody[domain.QuestionSession](t, resp)

	for _, q := range []map[string]any{
		{"text": "Quelle est la vitesse de la lumière ?", "points": 10},
		{"text": "Symbole chimique de l'or ?", "points": 5},
	} {
		resp = ts.do(t, http.MethodPost, "/api/sessions/"+session.ID+"/questions", "org-1", q)
		expectStatus(t, resp, http.StatusCreated)
		resp.Body.Close()
	}

	// Player joins and submits.
	resp = ts.do(t, http.MethodPost, "/api/competitions/"+comp.ID+"/join", "u1", nil)
	expectStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	submitBody := map[string]any{"answers": []map[string]string{
		{"questionId": "q1", "answer": "300000 km/s"},
		{"questionId": "q2", "answer": "Ag"},
	}}
	resp = ts.do(t, http.MethodPost, "/api/sessions/"+session.ID+"/submissions", "u1", submitBody)
	expectStatus(t, resp, http.StatusCreated)
	sub := decodeBody[domain.Submission](t, resp)

	// Resubmission is rejected, not overwritten.
	resp = ts.do(t, http.MethodPost, "/api/sessions/"+session.ID+"/submissions", "u1", submitBody)
	expectStatus(t, resp, http.StatusConflict)
	resp.Body.Close()

	// Players cannot see the grading queue.
	resp = ts.do(t, http.MethodGet, "/api/sessions/"+session.ID+"/submissions", "u1", nil)
	expectStatus(t, resp, http.StatusForbidden)
	resp.Body.Close()

	resp = ts.do(t, http.MethodGet, "/api/sessions/"+session.ID+"/submissions", "org-1", nil)
	expectStatus(t, resp, http.StatusOK)
	pending := decodeBody[[]domain.GradedSubmission](t, resp)
	if len(pending) != 1 || pending[0].User.FullName != "Ama Dupont" {
		t.Fatalf("unexpected grading queue: %+v", pending)
	}

	// Organizer grades: q1 correct, q2 incorrect.
	resp = ts.do(t, http.MethodPost, "/api/submissions/"+sub.ID+"/finalize", "org-1", map[string]any{
		"verdicts": []map[string]any{
			{"answerIndex": 0, "isCorrect": true},
			{"answerIndex": 1, "isCorrect": false},
		},
	})
	expectStatus(t, resp, http.StatusOK)
	graded := decodeBody[domain.Submission](t, resp)
	if !graded.Corrected || graded.TotalPoints != 10 {
		t.Fatalf("unexpected graded submission: %+v", graded)
	}

	// The board shows the player at rank 1 with 10 points.
	resp = ts.do(t, http.MethodGet, "/api/ranking?limit=1", "u1", nil)
	expectStatus(t, resp, http.StatusOK)
	board := decodeBody[domain.Ranking](t, resp)
	if len(board.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(board.Entries))
	}
	entry := board.Entries[0]
	if entry.Rank != 1 || entry.UserID != "u1" || entry.TotalPoints != 10 {
		t.Fatalf("unexpected leaderboard entry: %+v", entry)
	}
	if entry.Pseudo != player.Pseudo {
		t.Fatalf("leaderboard must show the pseudo, got %q", entry.Pseudo)
	}

	resp = ts.do(t, http.MethodGet, "/api/ranking/me", "u1", nil)
	expectStatus(t, resp, http.StatusOK)
	mine := decodeBody[map[string]int](t, resp)
	if mine["rank"] != 1 {
		t.Fatalf("expected rank 1, got %d", mine["rank"])
	}
}

func TestValidationErrors(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodPost, "/api/register", "u1", map[string]string{"phoneNumber": "+228"})
	expectStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()

	resp = ts.do(t, http.MethodPost, "/api/register", "u1", map[string]string{"fullName": "Ama"})
	expectStatus(t, resp, http.StatusCreated)
	resp.Body.Close()

	// Unknown competition.
	resp = ts.do(t, http.MethodGet, "/api/competitions/absente", "u1", nil)
	expectStatus(t, resp, http.StatusNotFound)
	resp.Body.Close()
}

func TestPlayersCannotCreateCompetitions(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodPost, "/api/register", "u1", map[string]string{"fullName": "Ama"})
	expectStatus(t, resp, http.StatusCreated)
	resp.Body.Close()

	resp = ts.do(t, http.MethodPost, "/api/competitions", "u1", map[string]string{"name": "Interdit"})
	expectStatus(t, resp, http.StatusForbidden)
	resp.Body.Close()
}

func TestCompetitionSearch(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	resp := ts.do(t, http.MethodPost, "/api/register", "org-1", map[string]string{"fullName": "Orga"})
	expectStatus(t, resp, http.StatusCreated)
	resp.Body.Close()
	if err := ts.users.PromoteToOrganizer(ctx, "org-1"); err != nil {
		t.Fatalf("promote: %v", err)
	}

	for _, name := range []string{"Concours Sciences", "Défi Maths"} {
		resp = ts.do(t, http.MethodPost, "/api/competitions", "org-1", map[string]string{"name": name})
		expectStatus(t, resp, http.StatusCreated)
		resp.Body.Close()
	}

	resp = ts.do(t, http.MethodGet, "/api/competitions?search=maths", "org-1", nil)
	expectStatus(t, resp, http.StatusOK)
	found := decodeBody[[]domain.Competition](t, resp)
	if len(found) != 1 || found[0].Name != "Défi Maths" {
		t.Fatalf("unexpected search result: %+v", found)
	}

	resp = ts.do(t, http.MethodGet, "/api/competitions?mine=1", "org-1", nil)
	expectStatus(t, resp, http.StatusOK)
	mine := decodeBody[[]domain.Competition](t, resp)
	if len(mine) != 2 {
		t.Fatalf("expected 2 owned competitions, got %d", len(mine))
	}
}

func TestFinalizeRequiresCompetitionOwnership(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	for _, org := range []string{"org-1", "org-2"} {
		resp := ts.do(t, http.MethodPost, "/api/register", org, map[string]string{"fullName": "Orga " + org})
		expectStatus(t, resp, http.StatusCreated)
		resp.Body.Close()
		if err := ts.users.PromoteToOrganizer(ctx, org); err != nil {
			t.Fatalf("promote %s: %v", org, err)
		}
	}
	resp := ts.do(t, http.MethodPost, "/api/register", "u1", map[string]string{"fullName": "Ama"})
	expectStatus(t, resp, http.StatusCreated)
	resp.Body.Close()

	resp = ts.do(t, http.MethodPost, "/api/competitions", "org-1", map[string]string{"name": "Concours"})
	expectStatus(t, resp, http.StatusCreated)
	comp := decodeBody[domain.Competition](t, resp)

	resp = ts.do(t, http.MethodPost, "/api/competitions/"+comp.ID+"/sessions", "org-1", map[string]any{
		"deadline": time.Now().Add(time.Hour),
	})
	expectStatus(t, resp, http.StatusCreated)
	session := decodeBody[domain.QuestionSession](t, resp)

	resp = ts.do(t, http.MethodPost, "/api/sessions/"+session.ID+"/questions", "org-1", map[string]any{
		"text": "Question ?", "points": 10,
	})
	expectStatus(t, resp, http.StatusCreated)
	resp.Body.Close()

	resp = ts.do(t, http.MethodPost, "/api/sessions/"+session.ID+"/submissions", "u1", map[string]any{
		"answers": []map[string]string{{"questionId": "q1", "answer": "réponse"}},
	})
	expectStatus(t, resp, http.StatusCreated)
	sub := decodeBody[domain.Submission](t, resp)

	verdicts := map[string]any{"verdicts": []map[string]any{{"answerIndex": 0, "isCorrect": true}}}

	// An organizer of an unrelated competition cannot grade here.
	resp = ts.do(t, http.MethodPost, "/api/submissions/"+sub.ID+"/finalize", "org-2", verdicts)
	expectStatus(t, resp, http.StatusForbidden)
	resp.Body.Close()

	resp = ts.do(t, http.MethodPost, "/api/submissions/"+sub.ID+"/finalize", "org-1", verdicts)
	expectStatus(t, resp, http.StatusOK)
	resp.Body.Close()
}

func TestSubmissionHistoryAndArchives(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	resp := ts.do(t, http.MethodPost, "/api/register", "org-1", map[string]string{"fullName": "Orga"})
	expectStatus(t, resp, http.StatusCreated)
	resp.Body.Close()
	if err := ts.users.PromoteToOrganizer(ctx, "org-1"); err != nil {
		t.Fatalf("promote: %v", err)
	}
	resp = ts.do(t, http.MethodPost, "/api/register", "u1", map[string]string{"fullName": "Ama"})
	expectStatus(t, resp, http.StatusCreated)
	resp.Body.Close()

	resp = ts.do(t, http.MethodPost, "/api/competitions", "org-1", map[string]string{"name": "Concours"})
	expectStatus(t, resp, http.StatusCreated)
	comp := decodeBody[domain.Competition](t, resp)

	resp = ts.do(t, http.MethodPost, "/api/competitions/"+comp.ID+"/sessions", "org-1", map[string]any{
		"deadline": time.Now().Add(time.Hour),
	})
	expectStatus(t, resp, http.StatusCreated)
	session := decodeBody[domain.QuestionSession](t, resp)

	resp = ts.do(t, http.MethodPost, "/api/sessions/"+session.ID+"/questions", "org-1", map[string]any{
		"text": "Question ?", "points": 10,
	})
	expectStatus(t, resp, http.StatusCreated)
	resp.Body.Close()

	resp = ts.do(t, http.MethodPost, "/api/sessions/"+session.ID+"/submissions", "u1", map[string]any{
		"answers": []map[string]string{{"questionId": "q1", "answer": "réponse"}},
	})
	expectStatus(t, resp, http.StatusCreated)
	resp.Body.Close()

	// The player sees their own history, other users see nothing.
	resp = ts.do(t, http.MethodGet, "/api/me/submissions", "u1", nil)
	expectStatus(t, resp, http.StatusOK)
	history := decodeBody[[]domain.Submission](t, resp)
	if len(history) != 1 || history[0].UserID != "u1" {
		t.Fatalf("unexpected history: %+v", history)
	}
	resp = ts.do(t, http.MethodGet, "/api/me/submissions", "org-1", nil)
	expectStatus(t, resp, http.StatusOK)
	if others := decodeBody[[]domain.Submission](t, resp); len(others) != 0 {
		t.Fatalf("expected empty history for organizer, got %+v", others)
	}

	// A past-deadline daily quiz shows up in the archives, the open
	// session does not.
	resp = ts.do(t, http.MethodPost, "/api/daily-quizzes", "org-1", map[string]any{
		"date": "2026-08-30", "deadline": time.Now().Add(-time.Hour),
	})
	expectStatus(t, resp, http.StatusCreated)
	resp.Body.Close()

	resp = ts.do(t, http.MethodGet, "/api/archives", "u1", nil)
	expectStatus(t, resp, http.StatusOK)
	archives := decodeBody[[]domain.QuestionSession](t, resp)
	if len(archives) != 1 || archives[0].ID != "2026-08-30" {
		t.Fatalf("unexpected archives: %+v", archives)
	}
}

func TestHealthzSkipsAuth(t *testing.T) {
	ts := newTestServer(t)

	resp, err := ts.Client().Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)
}
