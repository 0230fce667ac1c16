package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/mailstudy/mailstudy/internal/grading"
	"github.com/mailstudy/mailstudy/internal/questionnaire"
	"github.com/mailstudy/mailstudy/internal/session"
)

/* ---------------- In-memory fake satisfying session.Store ---------------- */

type fakeStore struct {
	mu          sync.Mutex
	emails      []session.EmailSummary
	byID        map[string]session.Email
	questions   map[string][]questionnaire.Question
	solutions   map[string]map[string]grading.Solution
	answered    map[string][]string
	submissions []session.Submission
	submitErr   error
	putPayload  map[string]grading.Solution
	putToken    string

	blockID string        // GetEmail for this id waits on gate
	entered chan struct{} // signalled when the blocked fetch starts
	gate    chan struct{} // closed to release the blocked fetch
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		byID:      map[string]session.Email{},
		questions: map[string][]questionnaire.Question{},
		solutions: map[string]map[string]grading.Solution{},
		answered:  map[string][]string{},
	}
}

func (f *fakeStore) addEmail(id string, qs []questionnaire.Question, sols map[string]grading.Solution) {
	f.emails = append(f.emails, session.EmailSummary{ID: id, Subject: "Subject " + id})
	f.byID[id] = session.Email{ID: id, Subject: "Subject " + id, HTML: "<p>hi</p>"}
	f.questions[id] = qs
	f.solutions[id] = sols
}

func (f *fakeStore) ListEmails(context.Context) ([]session.EmailSummary, error) {
	return f.emails, nil
}

func (f *fakeStore) AnsweredIDs(_ context.Context, pid string) ([]string, error) {
	return f.answered[pid], nil
}

func (f *fakeStore) GetEmail(_ context.Context, id string) (session.Email, error) {
	if f.blockID == id && f.gate != nil {
		f.entered <- struct{}{}
		<-f.gate
	}
	e, ok := f.byID[id]
	if !ok {
		return session.Email{}, errors.New("email not found")
	}
	return e, nil
}

func (f *fakeStore) GetQuestions(_ context.Context, id string) ([]questionnaire.Question, error) {
	return f.questions[id], nil
}

func (f *fakeStore) GetSolutions(_ context.Context, id string) (map[string]grading.Solution, error) {
	return f.solutions[id], nil
}

func (f *fakeStore) SubmitAnswers(_ context.Context, sub session.Submission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return f.submitErr
	}
	f.submissions = append(f.submissions, sub)
	return nil
}

func (f *fakeStore) AdminLogin(_ context.Context, password string) (string, error) {
	if password != "hunter2" {
		return "", errors.New("unauthorized")
	}
	return "tok-1", nil
}

func (f *fakeStore) PutSolutions(_ context.Context, id string, sols map[string]grading.Solution, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if token == "" {
		return session.ErrAdminRequired
	}
	f.putPayload = sols
	f.putToken = token
	f.solutions[id] = sols
	return nil
}

func (f *fakeStore) submitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.submissions)
}

func basicQuestions() []questionnaire.Question {
	return []questionnaire.Question{
		{ID: "q1", Type: questionnaire.TypeChoice, Options: []string{"yes", "no"}},
		{ID: "q2", Type: questionnaire.TypeText, ShowIf: map[string][]string{"q1": {"yes"}}},
	}
}

/* ------------------------------- Tests ------------------------------- */

func TestBlockedWithoutParticipant(t *testing.T) {
	st := newFakeStore()
	st.addEmail("e1", basicQuestions(), nil)
	s := session.New(st, session.ModeTest, "  ")

	if !s.Blocked() {
		t.Fatalf("test mode without participant must be blocked")
	}
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("blocked refresh must be a clean no-op: %v", err)
	}
	if len(s.Emails()) != 0 {
		t.Fatalf("blocked session must not list emails")
	}
	if err := s.Open(context.Background(), "e1"); !errors.Is(err, session.ErrParticipantRequired) {
		t.Fatalf("expected ErrParticipantRequired, got %v", err)
	}

	// admin mode needs no participant
	if session.New(st, session.ModeAdmin, "").Blocked() {
		t.Fatalf("admin mode must not be blocked")
	}
}

func TestTestMode_LocksAfterSubmit(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore()
	st.addEmail("e1", basicQuestions(), nil)
	s := session.New(st, session.ModeTest, "p1")

	if err := s.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if err := s.Open(ctx, "e1"); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.SetAnswer("q1", "yes"); err != nil {
		t.Fatalf("set answer: %v", err)
	}

	if _, err := s.Submit(ctx); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if !s.Answered("e1") {
		t.Fatalf("email must be locked after test submit")
	}
	if err := s.SetAnswer("q1", "no"); !errors.Is(err, session.ErrLocked) {
		t.Fatalf("locked email must refuse edits, got %v", err)
	}

	// second submit is rejected locally, without a store call
	before := st.submitCount()
	if _, err := s.Submit(ctx); !errors.Is(err, session.ErrAlreadyAnswered) {
		t.Fatalf("expected ErrAlreadyAnswered, got %v", err)
	}
	if st.submitCount() != before {
		t.Fatalf("duplicate submit must not reach the store")
	}
}

func TestTestMode_SeedsLockedSetFromStore(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore()
	st.addEmail("e1", basicQuestions(), nil)
	st.answered["p1"] = []string{"e1"}
	s := session.New(st, session.ModeTest, "p1")

	if err := s.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if err := s.Open(ctx, "e1"); err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := s.Submit(ctx); !errors.Is(err, session.ErrAlreadyAnswered) {
		t.Fatalf("seeded lock must reject submit, got %v", err)
	}
	if st.submitCount() != 0 {
		t.Fatalf("rejected submit must not reach the store")
	}
}

func TestTestMode_StoreConflictSurfaces(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore()
	st.addEmail("e1", basicQuestions(), nil)
	st.submitErr = session.ErrAlreadyAnswered // race with another tab
	s := session.New(st, session.ModeTest, "p1")

	_ = s.Refresh(ctx)
	_ = s.Open(ctx, "e1")
	if _, err := s.Submit(ctx); !errors.Is(err, session.ErrAlreadyAnswered) {
		t.Fatalf("store conflict must surface as already-answered, got %v", err)
	}
	if s.Answered("e1") {
		t.Fatalf("a failed submit must not lock the email locally")
	}
}

func TestTrainingMode_GradesVisibleSequence(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore()
	st.addEmail("e1", basicQuestions(), map[string]grading.Solution{
		"q1": {Values: []string{"yes"}},
		// q2 has no key: counted in total, never in the numerator
	})
	s := session.New(st, session.ModeTraining, "p1")

	_ = s.Refresh(ctx)
	if err := s.Open(ctx, "e1"); err != nil {
		t.Fatalf("open: %v", err)
	}
	_ = s.SetAnswer("q1", "yes")
	_ = s.SetAnswer("q2", "free text")

	res, err := s.Submit(ctx)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Total != 2 || res.CorrectCount != 1 {
		t.Fatalf("expected 1/2, got %d/%d", res.CorrectCount, res.Total)
	}
	if res.PerQuestion["q2"].Verdict != grading.Ungraded {
		t.Fatalf("q2 must be ungraded, got %v", res.PerQuestion["q2"].Verdict)
	}
	if st.submitCount() != 1 {
		t.Fatalf("training submits still persist raw answers")
	}

	// a second submit replaces the evaluation
	_ = s.SetAnswer("q1", "no")
	res2, err := s.Submit(ctx)
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if res2.CorrectCount != 0 || res2.Total != 1 {
		t.Fatalf("hiding q2 should shrink the sequence: %d/%d", res2.CorrectCount, res2.Total)
	}
	if got := s.Result(); got != res2 {
		t.Fatalf("session must hold the latest result")
	}
}

func TestTrainingMode_LabelNodesCountInTotal(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore()
	st.addEmail("e1", []questionnaire.Question{
		{ID: "intro", Text: "Look at the sender address.", Type: "label"},
		{ID: "q1", Type: questionnaire.TypeChoice, Options: []string{"yes", "no"}},
	}, map[string]grading.Solution{
		"q1": {Values: []string{"yes"}},
	})
	s := session.New(st, session.ModeTraining, "p1")

	_ = s.Refresh(ctx)
	if err := s.Open(ctx, "e1"); err != nil {
		t.Fatalf("open: %v", err)
	}
	_ = s.SetAnswer("q1", "yes")

	res, err := s.Submit(ctx)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	// the total spans the whole visible sequence; the keyless label
	// stays out of the numerator only
	if res.Total != 2 || res.CorrectCount != 1 {
		t.Fatalf("expected 1/2 over the visible sequence, got %d/%d", res.CorrectCount, res.Total)
	}
	if res.PerQuestion["intro"].Verdict != grading.Ungraded {
		t.Fatalf("label must be ungraded, got %v", res.PerQuestion["intro"].Verdict)
	}
}

func TestTrainingMode_OpeningAnotherEmailDiscardsResult(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore()
	st.addEmail("e1", basicQuestions(), map[string]grading.Solution{"q1": {Values: []string{"yes"}}})
	st.addEmail("e2", basicQuestions(), nil)
	s := session.New(st, session.ModeTraining, "p1")

	_ = s.Refresh(ctx)
	_ = s.Open(ctx, "e1")
	_ = s.SetAnswer("q1", "yes")
	if _, err := s.Submit(ctx); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if s.Result() == nil {
		t.Fatalf("expected a training result")
	}
	if err := s.Open(ctx, "e2"); err != nil {
		t.Fatalf("open e2: %v", err)
	}
	if s.Result() != nil {
		t.Fatalf("opening another email must discard the result")
	}
	if len(s.Answers()) != 0 {
		t.Fatalf("opening another email must clear answers")
	}
}

func TestAdminMode_SolutionCommitRequiresCredential(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore()
	st.addEmail("e1", basicQuestions(), nil)
	s := session.New(st, session.ModeAdmin, "")

	_ = s.Refresh(ctx)
	_ = s.Open(ctx, "e1")
	_ = s.SetAnswer("q1", "yes")
	_ = s.SetAnswer("q2", "check the sender domain")

	if err := s.SaveSolutions(ctx, nil); !errors.Is(err, session.ErrAdminRequired) {
		t.Fatalf("commit without credential must be refused locally, got %v", err)
	}
	if err := s.AdminLogin(ctx, "wrong"); err == nil {
		t.Fatalf("bad password must fail login")
	}
	if err := s.AdminLogin(ctx, "hunter2"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if !s.AdminAuthed() {
		t.Fatalf("credential should be held after login")
	}

	if err := s.SaveSolutions(ctx, map[string]string{"q2": " look closely "}); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if st.putToken != "tok-1" {
		t.Fatalf("commit must carry the bearer credential, got %q", st.putToken)
	}
	got := st.putPayload
	if len(got) != 2 {
		t.Fatalf("expected both visible answers committed, got %+v", got)
	}
	if got["q2"].Explanation != "look closely" {
		t.Fatalf("explanation must be trimmed and attached, got %q", got["q2"].Explanation)
	}

	// admin submission goes through under the admin participant
	if _, err := s.Submit(ctx); err != nil {
		t.Fatalf("admin submit: %v", err)
	}
	if st.submissions[0].ParticipantID != "admin" {
		t.Fatalf("admin submissions use the admin participant, got %q", st.submissions[0].ParticipantID)
	}
}

func TestOpen_SupersededFetchIsDiscarded(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore()
	st.addEmail("e1", basicQuestions(), nil)
	st.addEmail("e2", basicQuestions(), nil)
	st.blockID = "e1"
	st.entered = make(chan struct{})
	st.gate = make(chan struct{})
	s := session.New(st, session.ModeTraining, "p1")
	_ = s.Refresh(ctx)

	errc := make(chan error, 1)
	go func() { errc <- s.Open(ctx, "e1") }()
	<-st.entered

	// The second open completes while the first is still in flight.
	st.blockID = ""
	if err := s.Open(ctx, "e2"); err != nil {
		t.Fatalf("open e2: %v", err)
	}
	close(st.gate)

	if err := <-errc; !errors.Is(err, session.ErrSuperseded) {
		t.Fatalf("stale open must report supersession, got %v", err)
	}
	cur, ok := s.Current()
	if !ok || cur.ID != "e2" {
		t.Fatalf("the newer open must win, current=%+v", cur)
	}
}

func TestProgressFollowsVisibility(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore()
	st.addEmail("e1", basicQuestions(), nil)
	s := session.New(st, session.ModeTraining, "p1")
	_ = s.Refresh(ctx)
	_ = s.Open(ctx, "e1")

	if p := s.Progress(); p.Total != 1 {
		t.Fatalf("only q1 visible at start, got total %d", p.Total)
	}
	_ = s.SetAnswer("q1", "yes")
	if p := s.Progress(); p.Total != 2 || p.Answered != 1 || p.Percent != 50 {
		t.Fatalf("expected 1/2 (50%%), got %+v", p)
	}
	_ = s.SetAnswer("q1", "no")
	if p := s.Progress(); p.Total != 1 || p.Percent != 100 {
		t.Fatalf("hiding q2 shrinks the denominator, got %+v", p)
	}
}
