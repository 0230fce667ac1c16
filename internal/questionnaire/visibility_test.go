package questionnaire

import (
	"reflect"
	"testing"
)

func sampleTree() []Question {
	return []Question{
		{ID: "q1", Text: "Is this mail suspicious?", Type: TypeChoice, Options: []string{"yes", "no"}},
		{
			ID: "q2", Text: "Why?", Type: TypeText,
			ShowIf: map[string][]string{"q1": {"yes"}},
			Subquestions: []Question{
				{ID: "q2a", Text: "How confident are you?", Type: TypeScale},
				{
					ID: "q2b", Text: "Which element?", Type: TypeChoice,
					Options: []string{"sender", "link", "attachment"},
					ShowIf:  map[string][]string{"q2a": {"4", "5"}},
				},
			},
		},
		{ID: "q3", Text: "Would you reply?", Type: TypeChoice, Options: []string{"yes", "no"},
			ShowIf: map[string][]string{"q1": {"yes", "no"}}},
	}
}

func ids(qs []Question) []string {
	out := make([]string, 0, len(qs))
	for _, q := range qs {
		out = append(out, q.ID)
	}
	return out
}

func TestFlattenVisible_HidesUnsatisfiedAndDescendants(t *testing.T) {
	tree := sampleTree()

	got := ids(FlattenVisible(tree, AnswerSet{}))
	if !reflect.DeepEqual(got, []string{"q1"}) {
		t.Fatalf("no answers: expected only q1 visible, got %v", got)
	}

	got = ids(FlattenVisible(tree, AnswerSet{"q1": "no"}))
	if !reflect.DeepEqual(got, []string{"q1", "q3"}) {
		t.Fatalf("q1=no: expected q1,q3, got %v", got)
	}

	got = ids(FlattenVisible(tree, AnswerSet{"q1": "yes"}))
	if !reflect.DeepEqual(got, []string{"q1", "q2", "q2a", "q3"}) {
		t.Fatalf("q1=yes: expected q1,q2,q2a,q3, got %v", got)
	}

	got = ids(FlattenVisible(tree, AnswerSet{"q1": "yes", "q2a": "5"}))
	if !reflect.DeepEqual(got, []string{"q1", "q2", "q2a", "q2b", "q3"}) {
		t.Fatalf("q1=yes,q2a=5: expected full branch, got %v", got)
	}
}

func TestFlattenVisible_HidingParentHidesSatisfiedChildren(t *testing.T) {
	tree := sampleTree()
	// q2b's own clause holds, but its parent q2 is hidden once q1 flips.
	got := ids(FlattenVisible(tree, AnswerSet{"q1": "no", "q2a": "5"}))
	for _, id := range got {
		if id == "q2a" || id == "q2b" {
			t.Fatalf("descendant %s of hidden q2 leaked into %v", id, got)
		}
	}
}

func TestIsVisible_DanglingReferenceStaysHidden(t *testing.T) {
	q := Question{ID: "x", ShowIf: map[string][]string{"nope": {"yes"}}}
	if IsVisible(q, AnswerSet{"q1": "yes"}) {
		t.Fatalf("clause on unknown question id must never be satisfied")
	}
}

func TestIsVisible_EmptyAnswerNeverSatisfies(t *testing.T) {
	q := Question{ID: "x", ShowIf: map[string][]string{"q1": {""}}}
	if IsVisible(q, AnswerSet{"q1": ""}) {
		t.Fatalf("empty answer must not satisfy a clause, even if listed")
	}
}

func TestFlattenVisible_PureAndOrderIndependent(t *testing.T) {
	tree := sampleTree()
	a := AnswerSet{"q2a": "5", "q1": "yes"} // accumulated in reverse order
	b := AnswerSet{"q1": "yes", "q2a": "5"}
	if !reflect.DeepEqual(ids(FlattenVisible(tree, a)), ids(FlattenVisible(tree, b))) {
		t.Fatalf("result must depend only on answer contents")
	}
	first := ids(FlattenVisible(tree, a))
	second := ids(FlattenVisible(tree, a))
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated evaluation diverged: %v vs %v", first, second)
	}
}
