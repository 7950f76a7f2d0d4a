package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/45-baron/1-Jour-1-science/internal/app"
	"github.com/45-baron/1-Jour-1-science/internal/domain"
)

// RankingProvider serves leaderboard snapshots; in production this is
// the Redis cache wrapped around the ranking service.
type RankingProvider interface {
	GlobalRanking(ctx context.Context, limit int) (domain.Ranking, error)
}

// API exposes the quiz competition use cases over JSON.
type API struct {
	users        *app.UserService
	competitions *app.CompetitionService
	grading      *app.GradingService
	ranking      *app.RankingService
	board        RankingProvider
	validate     *validator.Validate
}

func NewAPI(users *app.UserService, competitions *app.CompetitionService, grading *app.GradingService, ranking *app.RankingService, board RankingProvider) *API {
	if board == nil {
		board = ranking
	}
	return &API{
		users:        users,
		competitions: competitions,
		grading:      grading,
		ranking:      ranking,
		board:        board,
		validate:     validator.New(),
	}
}

// Handler returns the routed handler with authentication applied to
// every route except the health check.
func (a *API) Handler(secret string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/register", a.handleRegister)
	mux.HandleFunc("GET /api/me", a.handleMe)
	mux.HandleFunc("GET /api/me/submissions", a.handleMySubmissions)
	mux.HandleFunc("GET /api/archives", a.handleArchives)
	mux.HandleFunc("POST /api/competitions", a.handleCreateCompetition)
	mux.HandleFunc("GET /api/competitions", a.handleListCompetitions)
	mux.HandleFunc("GET /api/competitions/{id}", a.handleGetCompetition)
	mux.HandleFunc("POST /api/competitions/{id}/join", a.handleJoinCompetition)
	mux.HandleFunc("POST /api/competitions/{id}/collaborators", a.handleAddCollaborator)
	mux.HandleFunc("POST /api/competitions/{id}/sessions", a.handleCreateSession)
	mux.HandleFunc("POST /api/daily-quizzes", a.handleCreateDailyQuiz)
	mux.HandleFunc("GET /api/daily-quizzes/today", a.handleTodayQuiz)
	mux.HandleFunc("GET /api/sessions/{id}", a.handleGetSession)
	mux.HandleFunc("POST /api/sessions/{id}/questions", a.handleAddQuestion)
	mux.HandleFunc("POST /api/sessions/{id}/submissions", a.handleSubmit)
	mux.HandleFunc("GET /api/sessions/{id}/submissions", a.handleListUngraded)
	mux.HandleFunc("POST /api/submissions/{id}/finalize", a.handleFinalize)
	mux.HandleFunc("GET /api/ranking", a.handleRanking)
	mux.HandleFunc("GET /api/ranking/me", a.handleMyRank)
	mux.HandleFunc("/ws/ranking", a.handleRankingWS)

	root := http.NewServeMux()
	root.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	root.Handle("/", AuthMiddleware(secret, mux))
	return root
}

type registerRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	FullName    string `json:"fullName" validate:"required"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !a.decode(w, r, &req) {
		return
	}
	user, err := a.users.Register(r.Context(), UserID(r.Context()), req.PhoneNumber, req.FullName)
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := a.users.Get(r.Context(), UserID(r.Context()))
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *API) handleMySubmissions(w http.ResponseWriter, r *http.Request) {
	subs, err := a.competitions.UserSubmissions(r.Context(), UserID(r.Context()))
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

func (a *API) handleArchives(w http.ResponseWriter, r *http.Request) {
	sessions, err := a.competitions.ArchivedSessions(r.Context())
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

type createCompetitionRequest struct {
	Name string `json:"name" validate:"required"`
}

func (a *API) handleCreateCompetition(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireOrganizer(w, r); !ok {
		return
	}
	var req createCompetitionRequest
	if !a.decode(w, r, &req) {
		return
	}
	comp, err := a.competitions.CreateCompetition(r.Context(), req.Name, UserID(r.Context()))
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, comp)
}

func (a *API) handleListCompetitions(w http.ResponseWriter, r *http.Request) {
	var (
		comps []domain.Competition
		err   error
	)
	if r.URL.Query().Get("mine") == "1" {
		comps, err = a.competitions.OrganizerCompetitions(r.Context(), UserID(r.Context()))
	} else {
		comps, err = a.competitions.SearchCompetitions(r.Context(), r.URL.Query().Get("search"))
	}
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, comps)
}

func (a *API) handleGetCompetition(w http.ResponseWriter, r *http.Request) {
	comp, err := a.competitions.GetCompetition(r.Context(), r.PathValue("id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, comp)
}

func (a *API) handleJoinCompetition(w http.ResponseWriter, r *http.Request) {
	if err := a.competitions.JoinCompetition(r.Context(), r.PathValue("id"), UserID(r.Context())); err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"joined": true})
}

type addCollaboratorRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required"`
}

func (a *API) handleAddCollaborator(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireOrganizer(w, r); !ok {
		return
	}
	var req addCollaboratorRequest
	if !a.decode(w, r, &req) {
		return
	}
	if err := a.competitions.AddCollaborator(r.Context(), r.PathValue("id"), req.PhoneNumber); err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"added": true})
}

type createSessionRequest struct {
	Deadline time.Time `json:"deadline" validate:"required"`
}

func (a *API) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireOrganizer(w, r); !ok {
		return
	}
	var req createSessionRequest
	if !a.decode(w, r, &req) {
		return
	}
	session, err := a.competitions.CreateSession(r.Context(), r.PathValue("id"), req.Deadline)
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

type createDailyQuizRequest struct {
	Date     string    `json:"date" validate:"required,datetime=2006-01-02"`
	Deadline time.Time `json:"deadline" validate:"required"`
}

func (a *API) handleCreateDailyQuiz(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireOrganizer(w, r); !ok {
		return
	}
	var req createDailyQuizRequest
	if !a.decode(w, r, &req) {
		return
	}
	session, err := a.competitions.CreateDailyQuiz(r.Context(), req.Date, req.Deadline, UserID(r.Context()))
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (a *API) handleTodayQuiz(w http.ResponseWriter, r *http.Request) {
	session, err := a.competitions.TodayQuiz(r.Context())
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (a *API) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := a.competitions.GetSession(r.Context(), r.PathValue("id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

type addQuestionRequest struct {
	Text   string `json:"text" validate:"required"`
	Points int    `json:"points" validate:"required,gt=0"`
	Hint   string `json:"hint"`
}

func (a *API) handleAddQuestion(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireOrganizer(w, r); !ok {
		return
	}
	var req addQuestionRequest
	if !a.decode(w, r, &req) {
		return
	}
	question, err := a.competitions.AddQuestion(r.Context(), r.PathValue("id"), req.Text, req.Points, req.Hint)
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, question)
}

type submitAnswer struct {
	QuestionID string `json:"questionId" validate:"required"`
	Answer     string `json:"answer"`
}

type submitRequest struct {
	Answers []submitAnswer `json:"answers" validate:"required,min=1,dive"`
}

func (a *API) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if !a.decode(w, r, &req) {
		return
	}
	answers := make([]domain.Answer, 0, len(req.Answers))
	for _, answer := range req.Answers {
		answers = append(answers, domain.Answer{QuestionID: answer.QuestionID, Text: answer.Answer})
	}
	sub, err := a.competitions.Submit(r.Context(), r.PathValue("id"), UserID(r.Context()), answers)
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func (a *API) handleListUngraded(w http.ResponseWriter, r *http.Request) {
	user, ok := a.requireOrganizer(w, r)
	if !ok {
		return
	}
	session, err := a.competitions.GetSession(r.Context(), r.PathValue("id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	allowed, err := a.competitions.CanGrade(r.Context(), session, user)
	if err != nil {
		a.fail(w, err)
		return
	}
	if !allowed {
		a.fail(w, domain.ErrNotOrganizer)
		return
	}
	subs, err := a.grading.ListUngraded(r.Context(), session.ID)
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

type finalizeRequest struct {
	Verdicts []domain.Verdict `json:"verdicts" validate:"required,min=1"`
}

func (a *API) handleFinalize(w http.ResponseWriter, r *http.Request) {
	user, ok := a.requireOrganizer(w, r)
	if !ok {
		return
	}
	var req finalizeRequest
	if !a.decode(w, r, &req) {
		return
	}
	// Grading is restricted to the owning organizer or a collaborator,
	// same as listing the session's submissions.
	pending, err := a.grading.GetSubmission(r.Context(), r.PathValue("id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	session, err := a.competitions.GetSession(r.Context(), pending.SessionID)
	if err != nil {
		a.fail(w, err)
		return
	}
	allowed, err := a.competitions.CanGrade(r.Context(), session, user)
	if err != nil {
		a.fail(w, err)
		return
	}
	if !allowed {
		a.fail(w, domain.ErrNotOrganizer)
		return
	}
	sub, err := a.grading.Finalize(r.Context(), r.PathValue("id"), req.Verdicts)
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (a *API) handleRanking(w http.ResponseWriter, r *http.Request) {
	limit := app.DefaultRankingLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	ranking, err := a.board.GlobalRanking(r.Context(), limit)
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ranking)
}

func (a *API) handleMyRank(w http.ResponseWriter, r *http.Request) {
	rank, total, err := a.ranking.UserRank(r.Context(), UserID(r.Context()))
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"rank": rank, "totalPlayers": total})
}

// requireOrganizer loads the caller's profile and rejects players.
func (a *API) requireOrganizer(w http.ResponseWriter, r *http.Request) (domain.User, bool) {
	user, err := a.users.Get(r.Context(), UserID(r.Context()))
	if err != nil {
		a.fail(w, err)
		return domain.User{}, false
	}
	if user.Role != domain.RoleOrganizer && user.Role != domain.RoleAdmin {
		a.fail(w, domain.ErrNotOrganizer)
		return domain.User{}, false
	}
	return user, true
}

func (a *API) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	if err := a.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func (a *API) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrCompetitionNotFound),
		errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrSubmissionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrDuplicateSubmission),
		errors.Is(err, domain.ErrAlreadyGraded),
		errors.Is(err, domain.ErrUserExists),
		errors.Is(err, domain.ErrCompetitionExists),
		errors.Is(err, domain.ErrSessionExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrDeadlinePassed),
		errors.Is(err, domain.ErrNotOrganizer):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrSessionFull),
		errors.Is(err, domain.ErrCollaboratorLimit),
		errors.Is(err, domain.ErrVerdictCount),
		errors.Is(err, domain.ErrEmptyName):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
