package transport

import (
	"encoding/json"
	"errors"
	"sort"

	"relocation_quiz_backend/platform/sanitize"
)

// StringSet is a multi-select answer. It accepts either a JSON string or a
// JSON array of strings and always holds a sorted set of non-empty values.
type StringSet []string

func (s *StringSet) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = nil
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*s = NewStringSet(single)
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return errors.New("expected a string or a list of strings")
	}
	*s = NewStringSet(many...)
	return nil
}

// NewStringSet sanitizes, de-duplicates and sorts values.
func NewStringSet(values ...string) StringSet {
	seen := make(map[string]struct{}, len(values))
	out := make(StringSet, 0, len(values))
	for _, v := range values {
		clean := sanitize.Line(v)
		if clean == "" {
			continue
		}
		if _, dup := seen[clean]; dup {
			continue
		}
		seen[clean] = struct{}{}
		out = append(out, clean)
	}
	sort.Strings(out)
	return out
}
