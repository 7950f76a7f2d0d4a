package domain

import "errors"

var (
	// ErrUserNotFound is returned when no profile exists for an identity id.
	ErrUserNotFound = errors.New("user not found")
	// ErrCompetitionNotFound is returned when a competition id is unknown.
	ErrCompetitionNotFound = errors.New("competition not found")
	// ErrSessionNotFound is returned when a question session id is unknown.
	ErrSessionNotFound = errors.New("question session not found")
	// ErrSubmissionNotFound is returned when a submission id is unknown.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrDuplicateSubmission rejects a second answer set for the same (session, user) pair.
	ErrDuplicateSubmission = errors.New("answers already submitted for this session")
	// ErrUserExists rejects creating a second profile for the same identity id.
	ErrUserExists = errors.New("user already registered")
	// ErrCompetitionExists rejects reusing an existing competition id.
	ErrCompetitionExists = errors.New("competition already exists")
	// ErrSessionExists rejects opening a second session with the same id.
	ErrSessionExists = errors.New("question session already exists")
	// ErrDeadlinePassed rejects submissions after the session deadline.
	ErrDeadlinePassed = errors.New("session deadline has passed")
	// ErrSessionFull rejects questions beyond the per-session cap.
	ErrSessionFull = errors.New("maximum number of questions reached")
	// ErrCollaboratorLimit rejects collaborators beyond the per-competition cap.
	ErrCollaboratorLimit = errors.New("maximum number of collaborators reached")
	// ErrAlreadyGraded rejects finalizing a submission twice; grading is terminal.
	ErrAlreadyGraded = errors.New("submission already corrected")
	// ErrVerdictCount is returned when verdicts do not cover every answer exactly once.
	ErrVerdictCount = errors.New("verdict count does not match answer count")
	// ErrNotOrganizer is returned when a player calls an organizer-only operation.
	ErrNotOrganizer = errors.New("operation requires organizer role")
	// ErrEmptyName rejects blank names before any store call.
	ErrEmptyName = errors.New("name must not be empty")
)
