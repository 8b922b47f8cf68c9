package services

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
)

type (
	captureKey         struct{}
	zeroTemperatureKey struct{}
)

// failureCapture receives the status and raw body of a failed upstream
// response. go-openai only keeps the decoded error message, so the raw body
// is copied here for diagnostics.
type failureCapture struct {
	status int
	body   []byte
}

func withCapture(ctx context.Context, c *failureCapture) context.Context {
	return context.WithValue(ctx, captureKey{}, c)
}

// withZeroTemperature marks a request whose temperature is an explicit 0.
// go-openai omits a zero temperature from the body, which upstream reads as
// "use the model default".
func withZeroTemperature(ctx context.Context) context.Context {
	return context.WithValue(ctx, zeroTemperatureKey{}, true)
}

// openRouterTransport stamps the app identification headers OpenRouter uses
// for attribution and records failed responses.
type openRouterTransport struct {
	base    http.RoundTripper
	referer string
	title   string
}

func newOpenRouterTransport(base http.RoundTripper, referer, title string) *openRouterTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &openRouterTransport{base: base, referer: referer, title: title}
}

func (t *openRouterTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if t.referer != "" {
		req.Header.Set("HTTP-Referer", t.referer)
	}
	if t.title != "" {
		req.Header.Set("X-Title", t.title)
	}
	if zero, _ := req.Context().Value(zeroTemperatureKey{}).(bool); zero {
		if err := setZeroTemperature(req); err != nil {
			return nil, err
		}
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if c, ok := req.Context().Value(captureKey{}).(*failureCapture); ok {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			c.status = resp.StatusCode
			c.body = body
			// Restore the body so the client can still decode its error
			resp.Body = io.NopCloser(bytes.NewReader(body))
		}
	}

	return resp, nil
}

// setZeroTemperature rewrites a JSON request body so it carries
// "temperature": 0. Bodies that are not JSON objects are left alone.
func setZeroTemperature(req *http.Request) error {
	if req.Body == nil || req.Body == http.NoBody {
		return nil
	}
	body, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return err
	}

	var fields map[string]json.RawMessage
	if json.Unmarshal(body, &fields) == nil && fields != nil {
		if _, ok := fields["temperature"]; !ok {
			fields["temperature"] = json.RawMessage("0")
			if rewritten, err := json.Marshal(fields); err == nil {
				body = rewritten
			}
		}
	}

	req.Body = io.NopCloser(bytes.NewReader(body))
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}
	req.ContentLength = int64(len(body))
	req.Header.Set("Content-Length", strconv.Itoa(len(body)))
	return nil
}
