package grading

import (
	"regexp"
	"strings"
)

// Verdict is the tri-state grading outcome. Ungraded means no answer
// key exists for the question; consumers must not collapse it into
// Incorrect.
type Verdict int

const (
	Ungraded Verdict = iota
	Incorrect
	Correct
)

func (v Verdict) String() string {
	switch v {
	case Correct:
		return "correct"
	case Incorrect:
		return "incorrect"
	}
	return "ungraded"
}

// Result is the outcome of grading a single answer.
type Result struct {
	Verdict     Verdict `json:"verdict"`
	Expected    string  `json:"expected"`    // display form of the key
	Explanation string  `json:"explanation"` // verbatim from the entry
}

// Grade evaluates one submitted answer against one normalized key.
// Pure: identical inputs always yield identical results.
//
// Policy, in priority order: a pattern that compiles wins; a pattern
// that does not compile is skipped and the literal path applies, so a
// broken admin-entered regex degrades instead of breaking the whole
// question set. Literal comparison is on trimmed strings, exact case,
// no locale folding. The pattern is matched against the trimmed value.
func Grade(sol Solution, answer string) Result {
	res := Result{Explanation: sol.Explanation}
	ans := strings.TrimSpace(answer)

	if sol.Pattern != "" {
		if re, err := compilePattern(sol.Pattern, sol.Flags); err == nil {
			res.Expected = "/" + sol.Pattern + "/" + sol.Flags
			res.Verdict = verdictOf(re.MatchString(ans))
			return res
		}
	}

	if sol.IsList {
		res.Expected = strings.Join(sol.Values, " / ")
		res.Verdict = Incorrect
		for _, v := range sol.Values {
			if strings.TrimSpace(v) == ans {
				res.Verdict = Correct
				break
			}
		}
		return res
	}

	if len(sol.Values) == 0 {
		return res // no ground truth: Ungraded, empty Expected
	}

	want := strings.TrimSpace(sol.Values[0])
	res.Expected = want
	res.Verdict = verdictOf(want == ans)
	return res
}

func verdictOf(ok bool) Verdict {
	if ok {
		return Correct
	}
	return Incorrect
}

// compilePattern maps the stored ECMAScript-style flags onto Go inline
// flags. i, m and s carry over; d, g, u, v and y are legal in JS but
// have no effect on a single unanchored membership test, so they are
// dropped. Any other flag makes the pattern count as malformed, which
// sends grading down the literal path.
func compilePattern(pattern, flags string) (*regexp.Regexp, error) {
	var inline strings.Builder
	for _, f := range flags {
		switch f {
		case 'i', 'm', 's':
			inline.WriteRune(f)
		case 'd', 'g', 'u', 'v', 'y':
			// no-op for a membership test
		default:
			return nil, &flagError{flag: f}
		}
	}
	if inline.Len() > 0 {
		pattern = "(?" + inline.String() + ")" + pattern
	}
	return regexp.Compile(pattern)
}

type flagError struct{ flag rune }

func (e *flagError) Error() string { return "unsupported regex flag: " + string(e.flag) }
