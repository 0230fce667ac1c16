package grading

import (
	"encoding/json"
	"strconv"
)

// Solution is the normalized form of an administrator-authored answer
// key. Stored records come in two shapes: a bare value (string or list
// of acceptable strings, the legacy form) and a rich object
// {solution, solution_regex, solution_flags, explanation}. Both decode
// into this one struct so every read site behaves identically.
//
// Pattern takes precedence over Values when set. A nil Values with no
// Pattern means no answer key exists for the question.
type Solution struct {
	Values      []string // acceptable literal answers; nil = no key
	IsList      bool     // authored as a list of alternatives
	Pattern     string   // regex source, wins over Values
	Flags       string   // regex flags as authored ("i", "im", ...)
	Explanation string   // advisory text for training feedback only
}

// HasKey reports whether any ground truth exists.
func (s Solution) HasKey() bool { return s.Pattern != "" || len(s.Values) > 0 }

// richEntry is the stored object shape.
type richEntry struct {
	Solution      json.RawMessage `json:"solution,omitempty"`
	SolutionRegex string          `json:"solution_regex,omitempty"`
	SolutionFlags string          `json:"solution_flags,omitempty"`
	Explanation   string          `json:"explanation,omitempty"`
}

// UnmarshalJSON performs the normalization at the ingestion boundary.
// An object carrying a "solution" or "solution_regex" key is the rich
// shape; anything else is wrapped as a bare solution value.
func (s *Solution) UnmarshalJSON(b []byte) error {
	*s = Solution{}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(b, &obj); err == nil && obj != nil {
		_, hasSol := obj["solution"]
		_, hasRe := obj["solution_regex"]
		if hasSol || hasRe {
			var e richEntry
			if err := json.Unmarshal(b, &e); err != nil {
				return err
			}
			s.Values, s.IsList = decodeValue(e.Solution)
			s.Pattern = e.SolutionRegex
			s.Flags = e.SolutionFlags
			s.Explanation = e.Explanation
			return nil
		}
		// An object without those keys carries no usable key; treat it
		// like an absent solution rather than failing the whole set.
		return nil
	}

	s.Values, s.IsList = decodeValue(b)
	return nil
}

// MarshalJSON writes the rich shape so re-stored legacy records come
// out normalized.
func (s Solution) MarshalJSON() ([]byte, error) {
	e := richEntry{
		SolutionRegex: s.Pattern,
		SolutionFlags: s.Flags,
		Explanation:   s.Explanation,
	}
	switch {
	case s.IsList:
		b, err := json.Marshal(s.Values)
		if err != nil {
			return nil, err
		}
		e.Solution = b
	case len(s.Values) > 0:
		b, err := json.Marshal(s.Values[0])
		if err != nil {
			return nil, err
		}
		e.Solution = b
	case s.Pattern == "":
		e.Solution = json.RawMessage(`""`)
	}
	return json.Marshal(e)
}

// Parse normalizes one raw stored entry. Unparseable input degrades to
// "no key" so a single corrupt record cannot break grading for the
// rest of the set.
func Parse(raw json.RawMessage) Solution {
	var s Solution
	if len(raw) == 0 {
		return s
	}
	_ = s.UnmarshalJSON(raw)
	return s
}

// ParseAll normalizes a whole questionId -> raw entry mapping.
func ParseAll(raw map[string]json.RawMessage) map[string]Solution {
	out := make(map[string]Solution, len(raw))
	for qid, entry := range raw {
		out[qid] = Parse(entry)
	}
	return out
}

// decodeValue turns a bare solution value into literal alternatives.
// Scalars are stringified; an empty scalar means no key. Null and
// anything non-scalar inside a list are dropped.
func decodeValue(raw json.RawMessage) (values []string, isList bool) {
	if len(raw) == 0 {
		return nil, false
	}

	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err == nil && len(raw) > 0 && raw[0] == '[' {
		out := make([]string, 0, len(arr))
		for _, el := range arr {
			if v, ok := decodeScalar(el); ok {
				out = append(out, v)
			}
		}
		return out, true
	}

	if v, ok := decodeScalar(raw); ok && v != "" {
		return []string{v}, false
	}
	return nil, false
}

func decodeScalar(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), true
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return strconv.FormatBool(b), true
	}
	return "", false
}
