package services

import (
	"encoding/base64"
	"strings"
)

// decodePayload accepts plain base64 or a data URL and returns the bytes plus
// the MIME type named by the data URL, if any. field names the request field
// in validation messages.
func decodePayload(payload, field string) ([]byte, string, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, "", &ValidationError{Message: field + " is required"}
	}

	var mimeType string
	if strings.HasPrefix(payload, "data:") {
		comma := strings.Index(payload, ",")
		if comma < 0 {
			return nil, "", &ValidationError{Message: field + " data URL is malformed"}
		}
		meta := strings.TrimPrefix(payload[:comma], "data:")
		mimeType = strings.TrimSuffix(meta, ";base64")
		payload = payload[comma+1:]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		if data, err = base64.RawStdEncoding.DecodeString(payload); err != nil {
			return nil, "", &ValidationError{Message: field + " must be base64 encoded"}
		}
	}
	if len(data) == 0 {
		return nil, "", &ValidationError{Message: field + " is required"}
	}

	return data, mimeType, nil
}
