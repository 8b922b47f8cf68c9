package models

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
	Raw     string      `json:"raw,omitempty"`
}
