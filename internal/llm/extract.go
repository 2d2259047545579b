package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseError reports that a model response carried no extractable JSON.
// Call sites treat it exactly like a generation failure: apply their
// documented fallback and move on.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "llm response parse failed: " + e.Reason
}

// ExtractJSON implements the two-stage parsing contract for model output:
// locate the first '{' and the last '}', then strictly decode that substring
// into dst. Anything else (no braces, truncated object, trailing garbage
// inside the braces) is a ParseError, so every call site has exactly one
// fallback policy to implement.
func ExtractJSON(raw string, dst interface{}) error {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return &ParseError{Reason: "no JSON object found in response"}
	}

	candidate := raw[start : end+1]

	dec := json.NewDecoder(strings.NewReader(candidate))
	if err := dec.Decode(dst); err != nil {
		return &ParseError{Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}

	return nil
}
