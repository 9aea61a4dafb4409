// extract.go - Tolerant JSON extraction from free-form model text

package extract

import (
	"encoding/json"
	"strings"
)

// ParseResult is the tagged outcome of parsing model output: either a parsed
// JSON object or a parse failure. The field normalizer accepts only this type,
// so the fallback branch is an explicit decision rather than a swallowed
// exception.
type ParseResult struct {
	value  map[string]interface{}
	parsed bool
}

// Parsed wraps a successfully parsed JSON object.
func Parsed(value map[string]interface{}) ParseResult {
	return ParseResult{value: value, parsed: true}
}

// Failed marks a parse failure.
func Failed() ParseResult {
	return ParseResult{}
}

// Value returns the parsed object and whether parsing succeeded.
func (r ParseResult) Value() (map[string]interface{}, bool) {
	return r.value, r.parsed
}

// StripCodeFences removes a single Markdown code fence the model may have
// wrapped its JSON in, despite instructions not to. Handles exactly one
// fencing style at a time: a ```json fence first, else a generic ``` fence.
// Partially-fenced or nested output beyond this pattern falls through to the
// fallback path instead of a secondary repair attempt.
func StripCodeFences(text string) string {
	if strings.Contains(text, "```json") {
		text = strings.Replace(text, "```json", "", 1)
		text = strings.Replace(text, "```", "", 1)
	} else if strings.Contains(text, "```") {
		text = strings.Replace(text, "```", "", 1)
		text = strings.Replace(text, "```", "", 1)
	}
	return strings.TrimSpace(text)
}

// ParseModelOutput strips fencing artifacts and attempts a strict JSON parse.
// Any parse error yields Failed(); it is never propagated to the HTTP layer.
func ParseModelOutput(raw string) ParseResult {
	cleaned := StripCodeFences(raw)
	if cleaned == "" {
		return Failed()
	}

	decoder := json.NewDecoder(strings.NewReader(cleaned))
	decoder.UseNumber()

	var value map[string]interface{}
	if err := decoder.Decode(&value); err != nil {
		return Failed()
	}

	return Parsed(value)
}
