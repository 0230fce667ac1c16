package session

import (
	"context"
	"errors"

	"github.com/mailstudy/mailstudy/internal/grading"
	"github.com/mailstudy/mailstudy/internal/questionnaire"
)

// Mode selects the submission semantics for a whole session. It is
// fixed at construction; switching modes means starting a new session.
type Mode string

const (
	ModeTest     Mode = "test"
	ModeTraining Mode = "training"
	ModeAdmin    Mode = "admin"
)

// Valid reports whether m is one of the three known modes.
func (m Mode) Valid() bool {
	return m == ModeTest || m == ModeTraining || m == ModeAdmin
}

// Engine contract errors. Handlers and callers distinguish these with
// errors.Is; none of them corrupts session state.
var (
	// ErrAlreadyAnswered marks a duplicate test-mode submission,
	// whether detected locally or reported by the store as a conflict.
	ErrAlreadyAnswered = errors.New("email already answered in test mode")
	// ErrLocked rejects edits to a test-mode email after its one
	// permitted submission.
	ErrLocked = errors.New("email is locked")
	// ErrParticipantRequired blocks listing and submitting in test and
	// training mode until a participant id is set.
	ErrParticipantRequired = errors.New("participant id required")
	// ErrAdminRequired gates the privileged solution commit.
	ErrAdminRequired = errors.New("admin login required")
	// ErrSuperseded reports that a newer Open replaced this one while
	// its fetches were in flight; its results were discarded.
	ErrSuperseded = errors.New("open superseded by a newer one")
	// ErrNoEmail means no email is currently open.
	ErrNoEmail = errors.New("no email open")
)

// EmailSummary is one inbox row.
type EmailSummary struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	From    string `json:"from"`
	Date    string `json:"date"`
}

// Attachment describes one attachment without its content.
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
}

// Email is the full rendered message.
type Email struct {
	ID          string       `json:"id"`
	Subject     string       `json:"subject"`
	From        string       `json:"from"`
	To          string       `json:"to"`
	Date        string       `json:"date"`
	HTML        string       `json:"html"`
	Attachments []Attachment `json:"attachments"`
}

// Submission is one persisted answer set.
type Submission struct {
	EmailID       string                  `json:"email_id"`
	ParticipantID string                  `json:"participant_id"`
	Answers       questionnaire.AnswerSet `json:"answers"`
	Mode          Mode                    `json:"mode"`
}

// Store is the external email/question/credential collaborator. The
// engine never persists anything itself; transport, retries and
// timeouts all belong to the implementation behind this interface.
type Store interface {
	ListEmails(ctx context.Context) ([]EmailSummary, error)
	// AnsweredIDs seeds the test-mode locked set at session start.
	AnsweredIDs(ctx context.Context, participantID string) ([]string, error)
	GetEmail(ctx context.Context, id string) (Email, error)
	GetQuestions(ctx context.Context, emailID string) ([]questionnaire.Question, error)
	GetSolutions(ctx context.Context, emailID string) (map[string]grading.Solution, error)
	// SubmitAnswers returns ErrAlreadyAnswered for a test-mode
	// duplicate detected on the store side.
	SubmitAnswers(ctx context.Context, sub Submission) error
	AdminLogin(ctx context.Context, password string) (token string, err error)
	// PutSolutions returns ErrAdminRequired when the credential is
	// missing or rejected.
	PutSolutions(ctx context.Context, emailID string, solutions map[string]grading.Solution, token string) error
}
