package session

import (
	"context"
	"strings"
	"sync"

	"github.com/mailstudy/mailstudy/internal/grading"
	"github.com/mailstudy/mailstudy/internal/questionnaire"
)

// Status reflects the last interaction with the store. A failed fetch
// leaves previously loaded state untouched so no input is lost; the
// caller re-triggers the fetch, the engine never retries on its own.
type Status string

const (
	StatusLoading   Status = "loading"
	StatusConnected Status = "connected"
	StatusError     Status = "error"
)

// TrainingResult is the per-submit evaluation shown in training mode.
// It is rebuilt on every submit and discarded when another email is
// opened. Ungraded questions count toward Total but never Correct.
type TrainingResult struct {
	PerQuestion  map[string]grading.Result
	CorrectCount int
	Total        int
}

// openEmail is the state owned by the currently open email.
type openEmail struct {
	email     Email
	questions []questionnaire.Question
	solutions map[string]grading.Solution
	answers   questionnaire.AnswerSet
}

// Session drives one participant (or admin) through the study. All
// branching over the mode lives here: test mode locks each email after
// its single submission, training mode grades locally on every submit,
// admin mode captures answers unrestricted and may commit them as
// expected solutions once a credential is held.
//
// Methods are safe for concurrent use, but the intended shape is one
// event at a time: each edit, recompute or submit runs to completion.
// The store is the only asynchronous boundary; Open carries a
// generation counter so a stale fetch can never overwrite the state of
// a newer one.
type Session struct {
	store       Store
	mode        Mode
	participant string

	mu         sync.Mutex
	status     Status
	emails     []EmailSummary
	locked     map[string]struct{}
	cur        *openEmail
	gen        uint64
	result     *TrainingResult
	adminToken string
}

// New builds a session in the given mode. The participant id may be
// empty; the session then reports Blocked and refuses listing and
// submission for test and training until a reset provides one.
func New(store Store, mode Mode, participantID string) *Session {
	return &Session{
		store:       store,
		mode:        mode,
		participant: strings.TrimSpace(participantID),
		status:      StatusLoading,
		locked:      map[string]struct{}{},
	}
}

func (s *Session) Mode() Mode { return s.mode }

func (s *Session) Participant() string { return s.participant }

// Blocked reports the configuration-gap state: test and training need
// a participant id before anything may load or submit. This is a
// guidance condition, not an error.
func (s *Session) Blocked() bool {
	return (s.mode == ModeTest || s.mode == ModeTraining) && s.participant == ""
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Refresh loads the inbox and, for this participant, the set of
// already-answered emails that seeds the test-mode locked set. While
// blocked it clears the listing and succeeds without touching the
// store.
func (s *Session) Refresh(ctx context.Context) error {
	if s.Blocked() {
		s.mu.Lock()
		s.emails = nil
		s.locked = map[string]struct{}{}
		s.cur = nil
		s.result = nil
		s.status = StatusConnected
		s.mu.Unlock()
		return nil
	}

	emails, err := s.store.ListEmails(ctx)
	if err != nil {
		s.mu.Lock()
		s.status = StatusError
		s.mu.Unlock()
		return err
	}
	// A failed answered-set fetch degrades to "nothing answered yet";
	// the store still rejects true duplicates.
	answered, err := s.store.AnsweredIDs(ctx, s.participant)
	if err != nil {
		answered = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.emails = emails
	s.locked = make(map[string]struct{}, len(answered))
	for _, id := range answered {
		s.locked[id] = struct{}{}
	}
	s.status = StatusConnected
	return nil
}

// Emails returns the current inbox listing.
func (s *Session) Emails() []EmailSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]EmailSummary, len(s.emails))
	copy(out, s.emails)
	return out
}

// Answered reports whether this participant already submitted for the
// email. In test mode that also means the email is locked.
func (s *Session) Answered(emailID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.locked[emailID]
	return ok
}

// Open fetches an email with its questions and expected solutions and
// makes it current, clearing answers and any previous training result.
// If another Open starts before this one finishes, the slower one's
// results are discarded and it returns ErrSuperseded. Question and
// solution fetch failures degrade to empty sets; only the email fetch
// itself is fatal.
func (s *Session) Open(ctx context.Context, id string) error {
	if s.Blocked() {
		return ErrParticipantRequired
	}

	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	email, err := s.store.GetEmail(ctx, id)
	if err != nil {
		s.mu.Lock()
		s.status = StatusError
		s.mu.Unlock()
		return err
	}
	questions, err := s.store.GetQuestions(ctx, id)
	if err != nil {
		questions = nil
	}
	solutions, err := s.store.GetSolutions(ctx, id)
	if err != nil {
		solutions = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return ErrSuperseded
	}
	s.cur = &openEmail{
		email:     email,
		questions: questions,
		solutions: solutions,
		answers:   questionnaire.AnswerSet{},
	}
	s.result = nil
	s.status = StatusConnected
	return nil
}

// Current returns the open email, if any.
func (s *Session) Current() (Email, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil {
		return Email{}, false
	}
	return s.cur.email, true
}

// SetAnswer records one tentative answer. Rejected with ErrLocked for
// a test-mode email that has already been submitted.
func (s *Session) SetAnswer(questionID, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil {
		return ErrNoEmail
	}
	if s.lockedNow() {
		return ErrLocked
	}
	s.cur.answers[questionID] = value
	return nil
}

// ResetAnswers clears all tentative answers for the open email.
func (s *Session) ResetAnswers() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil {
		return ErrNoEmail
	}
	if s.lockedNow() {
		return ErrLocked
	}
	s.cur.answers = questionnaire.AnswerSet{}
	return nil
}

// Answers returns a snapshot of the tentative answer set.
func (s *Session) Answers() questionnaire.AnswerSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil {
		return questionnaire.AnswerSet{}
	}
	return s.cur.answers.Clone()
}

// Visible recomputes the flattened visible sequence for the open
// email. Pure over the current (tree, answers) snapshot.
func (s *Session) Visible() []questionnaire.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil {
		return nil
	}
	return questionnaire.FlattenVisible(s.cur.questions, s.cur.answers)
}

// Progress derives completion over the visible sequence.
func (s *Session) Progress() questionnaire.Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil {
		return questionnaire.Progress{}
	}
	vis := questionnaire.FlattenVisible(s.cur.questions, s.cur.answers)
	return questionnaire.Track(vis, s.cur.answers)
}

// Explanation returns the stored advisory text for a question, seeded
// from the loaded expected solutions. Admin mode edits start from it.
func (s *Session) Explanation(questionID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil {
		return ""
	}
	return s.cur.solutions[questionID].Explanation
}

// Result returns the training evaluation from the latest submit, nil
// outside training mode or before the first submit of the open email.
func (s *Session) Result() *TrainingResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Submit sends the current answers to the store, applying the mode's
// semantics. Test mode rejects a second submission for a locked email
// locally, before any store call; a store-side conflict surfaces as
// the same ErrAlreadyAnswered. Training mode grades the visible
// sequence against the loaded expected solutions and returns the fresh
// TrainingResult. Admin mode submits under the "admin" participant.
func (s *Session) Submit(ctx context.Context) (*TrainingResult, error) {
	s.mu.Lock()
	if s.cur == nil {
		s.mu.Unlock()
		return nil, ErrNoEmail
	}
	if s.Blocked() {
		s.mu.Unlock()
		return nil, ErrParticipantRequired
	}
	if s.lockedNow() {
		s.mu.Unlock()
		return nil, ErrAlreadyAnswered
	}

	emailID := s.cur.email.ID
	sub := Submission{
		EmailID:       emailID,
		ParticipantID: s.submitParticipant(),
		Answers:       s.cur.answers.Clone(),
		Mode:          s.mode,
	}
	// Snapshot for grading so the evaluation stays pure even if edits
	// land while the store call is in flight.
	questions := s.cur.questions
	solutions := s.cur.solutions
	gen := s.gen
	s.mu.Unlock()

	if err := s.store.SubmitAnswers(ctx, sub); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.mode {
	case ModeTest:
		s.locked[emailID] = struct{}{}
		return nil, nil
	case ModeTraining:
		res := evaluate(questions, sub.Answers, solutions)
		if gen == s.gen {
			s.result = res
		}
		return res, nil
	default:
		return nil, nil
	}
}

// AdminLogin obtains and holds the bearer credential for privileged
// actions. Only meaningful in admin mode.
func (s *Session) AdminLogin(ctx context.Context, password string) error {
	token, err := s.store.AdminLogin(ctx, password)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.adminToken = token
	s.mu.Unlock()
	return nil
}

// AdminAuthed reports whether a credential is held.
func (s *Session) AdminAuthed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.adminToken != ""
}

// SaveSolutions commits the current answers of the visible sequence as
// the email's expected solutions, attaching the given explanations.
// Refused locally with ErrAdminRequired when no credential is held; an
// expired or rejected credential surfaces the same way from the store.
// On success the locally held solutions are refreshed.
func (s *Session) SaveSolutions(ctx context.Context, explanations map[string]string) error {
	s.mu.Lock()
	if s.cur == nil {
		s.mu.Unlock()
		return ErrNoEmail
	}
	if s.mode != ModeAdmin || s.adminToken == "" {
		s.mu.Unlock()
		return ErrAdminRequired
	}
	emailID := s.cur.email.ID
	token := s.adminToken
	payload := map[string]grading.Solution{}
	for _, q := range questionnaire.FlattenVisible(s.cur.questions, s.cur.answers) {
		v, ok := s.cur.answers[q.ID]
		if !ok || !q.Interactive() {
			continue
		}
		entry := grading.Solution{Values: []string{v}}
		if v == "" {
			entry.Values = nil
		}
		if exp := strings.TrimSpace(explanations[q.ID]); exp != "" {
			entry.Explanation = exp
		}
		payload[q.ID] = entry
	}
	gen := s.gen
	s.mu.Unlock()

	if err := s.store.PutSolutions(ctx, emailID, payload, token); err != nil {
		return err
	}

	solutions, err := s.store.GetSolutions(ctx, emailID)
	if err != nil {
		return nil // committed; the refresh is best effort
	}
	s.mu.Lock()
	if gen == s.gen && s.cur != nil {
		s.cur.solutions = solutions
	}
	s.mu.Unlock()
	return nil
}

// lockedNow holds s.mu.
func (s *Session) lockedNow() bool {
	if s.mode != ModeTest || s.cur == nil {
		return false
	}
	_, ok := s.locked[s.cur.email.ID]
	return ok
}

func (s *Session) submitParticipant() string {
	if s.participant == "" {
		return "admin"
	}
	return s.participant
}

// evaluate grades the visible sequence. Pure over its arguments.
func evaluate(tree []questionnaire.Question, answers questionnaire.AnswerSet, solutions map[string]grading.Solution) *TrainingResult {
	visible := questionnaire.FlattenVisible(tree, answers)
	res := &TrainingResult{
		PerQuestion: make(map[string]grading.Result, len(visible)),
		Total:       len(visible),
	}
	for _, q := range visible {
		r := grading.Grade(solutions[q.ID], answers[q.ID])
		res.PerQuestion[q.ID] = r
		if r.Verdict == grading.Correct {
			res.CorrectCount++
		}
	}
	return res
}
