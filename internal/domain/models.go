package domain

import (
	"math/rand"
	"time"
)

// Role controls what a user may do: players submit answers, organizers
// run competitions and grade, admins can do both.
type Role string

const (
	RolePlayer    Role = "player"
	RoleOrganizer Role = "organizer"
	RoleAdmin     Role = "admin"
)

// User is a registered participant. The ID comes from the identity
// provider; TotalPoints is owned by the ranking aggregator and must not
// be written anywhere else.
type User struct {
	ID          string    `json:"uid"`
	PhoneNumber string    `json:"phoneNumber,omitempty"`
	FullName    string    `json:"fullName"`
	Pseudo      string    `json:"pseudo"`
	Role        Role      `json:"role"`
	TotalPoints int       `json:"totalPoints"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Competition groups question sessions under one organizer.
// Collaborators are co-organizers, capped at MaxCollaborators.
type Competition struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	OrganizerID   string    `json:"organizerId"`
	Collaborators []string  `json:"collaborators"`
	Participants  []string  `json:"participants"`
	Active        bool      `json:"isActive"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Question is a free-text question inside a session. Points is the full
// value awarded when an organizer marks the answer correct.
type Question struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Points int    `json:"points"`
	Hint   string `json:"hint,omitempty"`
	Order  int    `json:"order"`
}

// QuestionSession is a dated set of questions with a submission deadline.
// Sessions belong to a competition; a daily quiz is a session with an
// empty CompetitionID whose ID is the date itself (YYYY-MM-DD).
type QuestionSession struct {
	ID            string     `json:"id"`
	CompetitionID string     `json:"competitionId,omitempty"`
	Date          string     `json:"date"`
	Deadline      time.Time  `json:"deadline"`
	Questions     []Question `json:"questions"`
	Link          string     `json:"link"`
	CreatedBy     string     `json:"createdBy,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// IsDailyQuiz reports whether the session is a standalone quiz of the day.
func (s QuestionSession) IsDailyQuiz() bool {
	return s.CompetitionID == ""
}

// Answer is one free-text answer inside a submission. Correct stays nil
// until an organizer grades it; Points is the question's full value when
// correct, zero otherwise.
type Answer struct {
	QuestionID string `json:"questionId"`
	Text       string `json:"answer"`
	Correct    *bool  `json:"isCorrect"`
	Points     int    `json:"points"`
}

// Submission is one user's answer set for one session. The ID is derived
// from (session, user) so the pair is unique by construction.
type Submission struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"sessionId"`
	UserID      string    `json:"userId"`
	Answers     []Answer  `json:"answers"`
	Corrected   bool      `json:"corrected"`
	TotalPoints int       `json:"totalPoints"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// SubmissionID derives the deterministic document id for a (session, user) pair.
func SubmissionID(sessionID, userID string) string {
	return sessionID + "-" + userID
}

// Verdict is an organizer's correctness decision for one answer,
// addressed by position in the submission's answer list.
type Verdict struct {
	AnswerIndex int  `json:"answerIndex"`
	Correct     bool `json:"isCorrect"`
}

// GradedSubmission is a submission joined with the submitter's profile,
// as presented to the grading organizer.
type GradedSubmission struct {
	Submission Submission `json:"submission"`
	User       User       `json:"user"`
}

// RankingEntry is one row of the global leaderboard. FullName is only
// exposed to organizers; the public board shows the pseudo.
type RankingEntry struct {
	Rank        int    `json:"rank"`
	UserID      string `json:"uid"`
	Pseudo      string `json:"pseudo"`
	FullName    string `json:"fullName,omitempty"`
	TotalPoints int    `json:"totalPoints"`
}

// Ranking is a point-in-time snapshot of the leaderboard.
type Ranking struct {
	Entries   []RankingEntry `json:"entries"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

const (
	// MaxQuestionsPerSession caps how many questions an organizer can add.
	MaxQuestionsPerSession = 20
	// MaxCollaborators caps co-organizers per competition.
	MaxCollaborators = 2
	pseudoLength     = 10
)

const pseudoAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// GeneratePseudo returns a random alphanumeric public handle, distinct
// from the user's real name so the leaderboard stays pseudonymous.
func GeneratePseudo(rnd *rand.Rand) string {
	b := make([]byte, pseudoLength)
	for i := range b {
		b[i] = pseudoAlphabet[rnd.Intn(len(pseudoAlphabet))]
	}
	return string(b)
}
