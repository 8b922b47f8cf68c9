package services

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// UpstreamError is a non-success HTTP response from OpenRouter.
type UpstreamError struct {
	StatusCode int
	Body       string
	Model      string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("openrouter returned status %d for model %s", e.StatusCode, e.Model)
}

// Status is the code surfaced to the caller; 500 when upstream gave none.
func (e *UpstreamError) Status() int {
	if e.StatusCode < 100 || e.StatusCode > 599 {
		return http.StatusInternalServerError
	}
	return e.StatusCode
}

// Details returns the upstream body as JSON when it is JSON, else as text.
func (e *UpstreamError) Details() interface{} {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return nil
	}
	if json.Valid([]byte(body)) {
		return json.RawMessage(body)
	}
	return body
}

// ParseError means the model output did not contain the expected JSON.
type ParseError struct {
	Reason string
	Raw    string
}

func (e *ParseError) Error() string {
	return "could not parse model output: " + e.Reason
}

// ValidationError is a caller mistake; it is never retried.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// FetchError means a remote source needed for extraction could not be read.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
