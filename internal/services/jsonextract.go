package services

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
)

// Greedy on purpose: the span runs from the first opening bracket to the
// last closing one. Two JSON values in one completion over-capture and fail
// to parse rather than being guessed apart.
var jsonSpanPattern = regexp.MustCompile(`(?s)(\{.*\}|\[.*\])`)

// ExtractJSON pulls a JSON value out of a model completion. It first tries
// the whole trimmed text, then the bracketed span found by jsonSpanPattern.
func ExtractJSON(text string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed != "" && json.Valid([]byte(trimmed)) {
		return json.RawMessage(trimmed), nil
	}

	span := jsonSpanPattern.FindString(trimmed)
	if span != "" && json.Valid([]byte(span)) {
		return json.RawMessage(span), nil
	}

	return nil, &ParseError{Reason: "no JSON value found", Raw: text}
}

// QuizQuestions returns the question array from either a bare array or an
// object carrying a "questions" array.
func QuizQuestions(text string) (json.RawMessage, error) {
	return extractArray(text, "questions")
}

// MindMapNodes returns the node array from either a bare array or an object
// carrying a "nodes" array.
func MindMapNodes(text string) (json.RawMessage, error) {
	return extractArray(text, "nodes")
}

func extractArray(text, key string) (json.RawMessage, error) {
	raw, err := ExtractJSON(text)
	if err != nil {
		return nil, err
	}

	switch raw[0] {
	case '[':
		return raw, nil
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, &ParseError{Reason: err.Error(), Raw: text}
		}
		inner := bytes.TrimSpace(obj[key])
		if len(inner) > 0 && inner[0] == '[' {
			return json.RawMessage(inner), nil
		}
	}

	return nil, &ParseError{Reason: "expected an array or an object with " + key, Raw: text}
}
