package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Candidate is one undecoded element of the model's JSON array. It may be any
// JSON value; normalization happens before anything is stored.
type Candidate = json.RawMessage

// ErrUndecodable means the reply was not a JSON array of candidates.
var ErrUndecodable = errors.New("llm reply is not a JSON array")

// wrapperKeys are the object keys models sometimes nest the array under.
var wrapperKeys = []string{"products", "items", "records"}

// ParseResponse decodes a model reply into candidates. Markdown code fences
// are stripped first, and an object wrapping the array under one of
// wrapperKeys is unwrapped.
func ParseResponse(raw string) ([]Candidate, error) {
	cleaned := stripCodeFence(raw)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: empty reply", ErrUndecodable)
	}

	var records []Candidate
	arrErr := json.Unmarshal([]byte(cleaned), &records)
	if arrErr == nil {
		// a bare null leaves records nil
		if records == nil {
			return nil, fmt.Errorf("%w: null", ErrUndecodable)
		}
		return records, nil
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &wrapper); err == nil {
		for _, key := range wrapperKeys {
			inner, ok := wrapper[key]
			if !ok {
				continue
			}
			if err := json.Unmarshal(inner, &records); err == nil && records != nil {
				return records, nil
			}
		}
	}

	return nil, fmt.Errorf("%w: %v", ErrUndecodable, arrErr)
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// drop the info string, e.g. ```json
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
