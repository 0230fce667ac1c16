package questionnaire

// IsVisible evaluates a node's own show_if predicate against an answer
// snapshot. Every clause must hold: the referenced answer is non-empty
// and a member of the allowed set. A clause referencing an id that is
// never answered (including ids absent from the tree) can never hold,
// which keeps the node hidden rather than raising an error.
func IsVisible(q Question, answers AnswerSet) bool {
	for ref, allowed := range q.ShowIf {
		v := answers[ref]
		if v == "" || !contains(allowed, v) {
			return false
		}
	}
	return true
}

// FlattenVisible walks the tree pre-order and returns the currently
// visible sequence: each visible node immediately followed by its
// visible subquestions. Subtrees of hidden nodes are skipped wholesale,
// their predicates are never evaluated. The result depends only on
// (tree, answers), so callers may recompute it after every edit.
func FlattenVisible(tree []Question, answers AnswerSet) []Question {
	var out []Question
	var walk func(qs []Question)
	walk = func(qs []Question) {
		for _, q := range qs {
			if !IsVisible(q, answers) {
				continue
			}
			out = append(out, q)
			if len(q.Subquestions) > 0 {
				walk(q.Subquestions)
			}
		}
	}
	walk(tree)
	return out
}

func contains(vals []string, v string) bool {
	for _, s := range vals {
		if s == v {
			return true
		}
	}
	return false
}
