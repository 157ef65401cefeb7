package agent

import (
	"encoding/json"
	"strings"
)

// Outcome is the structured report the reasoning service embeds in its reply
// text. The engine never trusts free text; it scans for the last valid JSON
// object and falls back to a still-processing outcome when none parses.
type Outcome struct {
	Done       bool           `json:"done"`
	Status     string         `json:"status"`
	Message    string         `json:"message"`
	Results    map[string]any `json:"results"`
	Iterations int            `json:"-"`
}

// ParseOutcome extracts the last valid JSON object from the reply text. Model
// replies often wrap the report in prose or code fences, and earlier objects
// in the same reply may be examples, so the scan runs back to front.
func ParseOutcome(text string) Outcome {
	fallback := Outcome{Done: false, Status: "processing"}

	objects := scanObjects(text)
	for i := len(objects) - 1; i >= 0; i-- {
		var outcome Outcome
		if err := json.Unmarshal([]byte(objects[i]), &outcome); err != nil {
			continue
		}
		if outcome.Status == "" && !outcome.Done {
			outcome.Status = "processing"
		}
		return outcome
	}
	return fallback
}

// scanObjects finds balanced top-level {...} spans, ignoring braces inside
// JSON string literals.
func scanObjects(text string) []string {
	var spans []string
	depth := 0
	start := -1
	inString := false
	escaped := false

	for i, r := range text {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}
		switch r {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && start >= 0 {
				candidate := strings.TrimSpace(text[start : i+1])
				if json.Valid([]byte(candidate)) {
					spans = append(spans, candidate)
				}
				start = -1
			}
		}
	}
	return spans
}
