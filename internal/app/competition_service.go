package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/45-baron/1-Jour-1-science/internal/domain"
)

// CompetitionService manages competitions, their question sessions, the
// standalone daily quizzes and answer-set intake.
type CompetitionService struct {
	competitions CompetitionRepository
	sessions     SessionRepository
	submissions  SubmissionRepository
	users        UserRepository
	baseURL      string
	now          func() time.Time
}

func NewCompetitionService(competitions CompetitionRepository, sessions SessionRepository, submissions SubmissionRepository, users UserRepository, baseURL string) *CompetitionService {
	return &CompetitionService{
		competitions: competitions,
		sessions:     sessions,
		submissions:  submissions,
		users:        users,
		baseURL:      strings.TrimRight(baseURL, "/"),
		now:          time.Now,
	}
}

// WithClock is test-only for deterministic ids and deadlines.
func (s *CompetitionService) WithClock(now func() time.Time) *CompetitionService {
	s.now = now
	return s
}

// CreateCompetition creates an active competition owned by organizerID.
// The id is derived from the name plus a millisecond timestamp.
func (s *CompetitionService) CreateCompetition(ctx context.Context, name, organizerID string) (domain.Competition, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Competition{}, domain.ErrEmptyName
	}

	now := s.now()
	comp := domain.Competition{
		ID:            competitionID(name, now),
		Name:          name,
		OrganizerID:   organizerID,
		Collaborators: []string{},
		Participants:  []string{},
		Active:        true,
		CreatedAt:     now,
	}
	if err := s.competitions.Create(ctx, comp); err != nil {
		return domain.Competition{}, err
	}
	return comp, nil
}

// GetCompetition returns one competition by id.
func (s *CompetitionService) GetCompetition(ctx context.Context, id string) (domain.Competition, error) {
	return s.competitions.Get(ctx, id)
}

// SearchCompetitions returns active competitions whose name contains the
// term, case-insensitively.
func (s *CompetitionService) SearchCompetitions(ctx context.Context, term string) ([]domain.Competition, error) {
	active, err := s.competitions.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	term = strings.ToLower(term)
	results := make([]domain.Competition, 0, len(active))
	for _, comp := range active {
		if strings.Contains(strings.ToLower(comp.Name), term) {
			results = append(results, comp)
		}
	}
	return results, nil
}

// OrganizerCompetitions lists the active competitions owned by an organizer.
func (s *CompetitionService) OrganizerCompetitions(ctx context.Context, organizerID string) ([]domain.Competition, error) {
	return s.competitions.ListByOrganizer(ctx, organizerID)
}

// JoinCompetition adds a user to the participant list. Joining twice is a no-op.
func (s *CompetitionService) JoinCompetition(ctx context.Context, competitionID, userID string) error {
	comp, err := s.competitions.Get(ctx, competitionID)
	if err != nil {
		return err
	}
	for _, id := range comp.Participants {
		if id == userID {
			return nil
		}
	}
	comp.Participants = append(comp.Participants, userID)
	return s.competitions.Update(ctx, comp)
}

// AddCollaborator registers a co-organizer by phone number, capped at
// domain.MaxCollaborators, and promotes the user to organizer.
func (s *CompetitionService) AddCollaborator(ctx context.Context, competitionID, phone string) error {
	comp, err := s.competitions.Get(ctx, competitionID)
	if err != nil {
		return err
	}
	user, err := s.users.FindByPhone(ctx, strings.ReplaceAll(phone, " ", ""))
	if err != nil {
		return err
	}
	// Re-adding an existing collaborator stays a no-op even at the cap.
	for _, id := range comp.Collaborators {
		if id == user.ID {
			return nil
		}
	}
	if len(comp.Collaborators) >= domain.MaxCollaborators {
		return domain.ErrCollaboratorLimit
	}

	comp.Collaborators = append(comp.Collaborators, user.ID)
	if err := s.competitions.Update(ctx, comp); err != nil {
		return err
	}
	return s.users.UpdateRole(ctx, user.ID, domain.RoleOrganizer)
}

// CanGrade reports whether userID is the organizer or a collaborator of
// the competition that owns the session. Daily quizzes are gradable by
// any organizer or admin.
func (s *CompetitionService) CanGrade(ctx context.Context, session domain.QuestionSession, user domain.User) (bool, error) {
	if user.Role == domain.RoleAdmin {
		return true, nil
	}
	if session.IsDailyQuiz() {
		return user.Role == domain.RoleOrganizer, nil
	}
	comp, err := s.competitions.Get(ctx, session.CompetitionID)
	if err != nil {
		return false, err
	}
	if comp.OrganizerID == user.ID {
		return true, nil
	}
	for _, id := range comp.Collaborators {
		if id == user.ID {
			return true, nil
		}
	}
	return false, nil
}

// CreateSession opens today's question session for a competition. The
// session id is <competitionID>-<date> so one session exists per day.
func (s *CompetitionService) CreateSession(ctx context.Context, competitionID string, deadline time.Time) (domain.QuestionSession, error) {
	if _, err := s.competitions.Get(ctx, competitionID); err != nil {
		return domain.QuestionSession{}, err
	}

	now := s.now()
	date := now.Format("2006-01-02")
	session := domain.QuestionSession{
		ID:            competitionID + "-" + date,
		CompetitionID: competitionID,
		Date:          date,
		Deadline:      deadline,
		Questions:     []domain.Question{},
		Link:          s.baseURL + "/quiz/" + competitionID + "-" + date,
		CreatedAt:     now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return domain.QuestionSession{}, err
	}
	return session, nil
}

// CreateDailyQuiz opens the standalone quiz of the day for the given
// date (YYYY-MM-DD). The date doubles as the session id, so there is at
// most one daily quiz per calendar day.
func (s *CompetitionService) CreateDailyQuiz(ctx context.Context, date string, deadline time.Time, createdBy string) (domain.QuestionSession, error) {
	session := domain.QuestionSession{
		ID:        date,
		Date:      date,
		Deadline:  deadline,
		Questions: []domain.Question{},
		Link:      fmt.Sprintf("%s/quiz/%s-%s", s.baseURL, date, uuid.NewString()[:8]),
		CreatedBy: createdBy,
		CreatedAt: s.now(),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return domain.QuestionSession{}, err
	}
	return session, nil
}

// GetSession returns one session by id.
func (s *CompetitionService) GetSession(ctx context.Context, id string) (domain.QuestionSession, error) {
	return s.sessions.Get(ctx, id)
}

// TodayQuiz returns the daily quiz for the current date.
func (s *CompetitionService) TodayQuiz(ctx context.Context) (domain.QuestionSession, error) {
	return s.sessions.Get(ctx, s.now().Format("2006-01-02"))
}

// AddQuestion appends a question to a session, capped at
// domain.MaxQuestionsPerSession. Question ids are q1..qN in insertion order.
func (s *CompetitionService) AddQuestion(ctx context.Context, sessionID, text string, points int, hint string) (domain.Question, error) {
	if strings.TrimSpace(text) == "" {
		return domain.Question{}, domain.ErrEmptyName
	}
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return domain.Question{}, err
	}
	if len(session.Questions) >= domain.MaxQuestionsPerSession {
		return domain.Question{}, domain.ErrSessionFull
	}

	question := domain.Question{
		ID:     fmt.Sprintf("q%d", len(session.Questions)+1),
		Text:   strings.TrimSpace(text),
		Points: points,
		Hint:   hint,
		Order:  len(session.Questions) + 1,
	}
	session.Questions = append(session.Questions, question)
	if err := s.sessions.Update(ctx, session); err != nil {
		return domain.Question{}, err
	}
	return question, nil
}

// Submit records a player's answer set for a session. The submission id
// is derived from (session, user): a second submit for the same pair is
// rejected with domain.ErrDuplicateSubmission rather than overwriting.
// Submissions after the deadline are rejected.
func (s *CompetitionService) Submit(ctx context.Context, sessionID, userID string, answers []domain.Answer) (domain.Submission, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return domain.Submission{}, err
	}

	now := s.now()
	if now.After(session.Deadline) {
		return domain.Submission{}, domain.ErrDeadlinePassed
	}

	sub := domain.Submission{
		ID:          domain.SubmissionID(sessionID, userID),
		SessionID:   sessionID,
		UserID:      userID,
		Answers:     answers,
		Corrected:   false,
		TotalPoints: 0,
		SubmittedAt: now,
	}
	for i := range sub.Answers {
		sub.Answers[i].Correct = nil
		sub.Answers[i].Points = 0
	}
	if err := s.submissions.CreateIfAbsent(ctx, sub); err != nil {
		return domain.Submission{}, err
	}
	return sub, nil
}

// UserSubmissions returns the user's own answer sets, most recent first.
func (s *CompetitionService) UserSubmissions(ctx context.Context, userID string) ([]domain.Submission, error) {
	subs, err := s.submissions.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	sort.Slice(subs, func(i, j int) bool {
		if !subs[i].SubmittedAt.Equal(subs[j].SubmittedAt) {
			return subs[i].SubmittedAt.After(subs[j].SubmittedAt)
		}
		return subs[i].ID < subs[j].ID
	})
	return subs, nil
}

// ArchivedSessions lists sessions whose deadline has passed, questions
// included, for the public archives page.
func (s *CompetitionService) ArchivedSessions(ctx context.Context) ([]domain.QuestionSession, error) {
	return s.sessions.ListPast(ctx, s.now())
}

// HasSubmitted reports whether the user already has an answer set for the session.
func (s *CompetitionService) HasSubmitted(ctx context.Context, sessionID, userID string) (bool, error) {
	_, err := s.submissions.Get(ctx, domain.SubmissionID(sessionID, userID))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, domain.ErrSubmissionNotFound) {
		return false, nil
	}
	return false, err
}

func competitionID(name string, now time.Time) string {
	clean := strings.ToLower(strings.Join(strings.Fields(name), "-"))
	return fmt.Sprintf("%s-%d", clean, now.UnixMilli())
}
