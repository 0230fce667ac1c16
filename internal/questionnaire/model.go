package questionnaire

// Question types. Anything else renders as a label only and stays
// unanswered unless a value is set programmatically.
const (
	TypeScale  = "scale"  // ordinal 1-5
	TypeChoice = "choice" // one value out of Options
	TypeText   = "text"   // free-form
)

// Question is one node of an email's question tree. ShowIf maps another
// question's id to the set of answers that make this node visible; the
// referenced id may live anywhere in the same tree, not just among
// ancestors. Subquestions are scoped to their parent: they are only
// reachable while the parent itself is visible.
type Question struct {
	ID           string              `json:"id"`
	Text         string              `json:"text"`
	Type         string              `json:"type"`
	Options      []string            `json:"options,omitempty"`
	ShowIf       map[string][]string `json:"show_if,omitempty"`
	Subquestions []Question          `json:"subquestions,omitempty"`
}

// Interactive reports whether the question type accepts input.
func (q Question) Interactive() bool {
	switch q.Type {
	case TypeScale, TypeChoice, TypeText:
		return true
	}
	return false
}

// AnswerSet maps question id to the submitted value. An empty string
// counts as unanswered everywhere: visibility, progress and grading.
type AnswerSet map[string]string

// Clone returns an independent copy so snapshots handed to pure
// evaluation never alias live session state.
func (a AnswerSet) Clone() AnswerSet {
	out := make(AnswerSet, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}
