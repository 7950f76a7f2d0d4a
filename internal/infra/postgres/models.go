package postgres

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/45-baron/1-Jour-1-science/internal/domain"
)

type userRow struct {
	bun.BaseModel `bun:"table:users"`

	ID          string    `bun:"id,pk"`
	PhoneNumber string    `bun:"phone_number"`
	FullName    string    `bun:"full_name,notnull"`
	Pseudo      string    `bun:"pseudo,notnull"`
	Role        string    `bun:"role,notnull"`
	TotalPoints int       `bun:"total_points,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
	UpdatedAt   time.Time `bun:"updated_at,notnull"`
}

func (r userRow) toDomain() domain.User {
	return domain.User{
		ID:          r.ID,
		PhoneNumber: r.PhoneNumber,
		FullName:    r.FullName,
		Pseudo:      r.Pseudo,
		Role:        domain.Role(r.Role),
		TotalPoints: r.TotalPoints,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func userToRow(u domain.User) userRow {
	return userRow{
		ID:          u.ID,
		PhoneNumber: u.PhoneNumber,
		FullName:    u.FullName,
		Pseudo:      u.Pseudo,
		Role:        string(u.Role),
		TotalPoints: u.TotalPoints,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

type competitionRow struct {
	bun.BaseModel `bun:"table:competitions"`

	ID            string    `bun:"id,pk"`
	Name          string    `bun:"name,notnull"`
	OrganizerID   string    `bun:"organizer_id,notnull"`
	Collaborators []string  `bun:"collaborators,type:jsonb"`
	Participants  []string  `bun:"participants,type:jsonb"`
	Active        bool      `bun:"is_active,notnull"`
	CreatedAt     time.Time `bun:"created_at,notnull"`
}

func (r competitionRow) toDomain() domain.Competition {
	collaborators := r.Collaborators
	if collaborators == nil {
		collaborators = []string{}
	}
	participants := r.Participants
	if participants == nil {
		participants = []string{}
	}
	return domain.Competition{
		ID:            r.ID,
		Name:          r.Name,
		OrganizerID:   r.OrganizerID,
		Collaborators: collaborators,
		Participants:  participants,
		Active:        r.Active,
		CreatedAt:     r.CreatedAt,
	}
}

func competitionToRow(c domain.Competition) competitionRow {
	return competitionRow{
		ID:            c.ID,
		Name:          c.Name,
		OrganizerID:   c.OrganizerID,
		Collaborators: c.Collaborators,
		Participants:  c.Participants,
		Active:        c.Active,
		CreatedAt:     c.CreatedAt,
	}
}

type sessionRow struct {
	bun.BaseModel `bun:"table:question_sessions"`

	ID            string            `bun:"id,pk"`
	CompetitionID string            `bun:"competition_id"`
	Date          string            `bun:"date,notnull"`
	Deadline      time.Time         `bun:"deadline,notnull"`
	Questions     []domain.Question `bun:"questions,type:jsonb"`
	Link          string            `bun:"link"`
	CreatedBy     string            `bun:"created_by"`
	CreatedAt     time.Time         `bun:"created_at,notnull"`
}

func (r sessionRow) toDomain() domain.QuestionSession {
	questions := r.Questions
	if questions == nil {
		questions = []domain.Question{}
	}
	return domain.QuestionSession{
		ID:            r.ID,
		CompetitionID: r.CompetitionID,
		Date:          r.Date,
		Deadline:      r.Deadline,
		Questions:     questions,
		Link:          r.Link,
		CreatedBy:     r.CreatedBy,
		CreatedAt:     r.CreatedAt,
	}
}

func sessionToRow(s domain.QuestionSession) sessionRow {
	return sessionRow{
		ID:            s.ID,
		CompetitionID: s.CompetitionID,
		Date:          s.Date,
		Deadline:      s.Deadline,
		Questions:     s.Questions,
		Link:          s.Link,
		CreatedBy:     s.CreatedBy,
		CreatedAt:     s.CreatedAt,
	}
}

type submissionRow struct {
	bun.BaseModel `bun:"table:submissions"`

	ID          string          `bun:"id,pk"`
	SessionID   string          `bun:"session_id,notnull"`
	UserID      string          `bun:"user_id,notnull"`
	Answers     []domain.Answer `bun:"answers,type:jsonb"`
	Corrected   bool            `bun:"corrected,notnull"`
	TotalPoints int             `bun:"total_points,notnull"`
	SubmittedAt time.Time       `bun:"submitted_at,notnull"`
}

func (r submissionRow) toDomain() domain.Submission {
	answers := r.Answers
	if answers == nil {
		answers = []domain.Answer{}
	}
	return domain.Submission{
		ID:          r.ID,
		SessionID:   r.SessionID,
		UserID:      r.UserID,
		Answers:     answers,
		Corrected:   r.Corrected,
		TotalPoints: r.TotalPoints,
		SubmittedAt: r.SubmittedAt,
	}
}

func submissionToRow(s domain.Submission) submissionRow {
	return submissionRow{
		ID:          s.ID,
		SessionID:   s.SessionID,
		UserID:      s.UserID,
		Answers:     s.Answers,
		Corrected:   s.Corrected,
		TotalPoints: s.TotalPoints,
		SubmittedAt: s.SubmittedAt,
	}
}
