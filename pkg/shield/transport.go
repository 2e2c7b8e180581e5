package shield

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
)

// RoundTripper guards outbound HTTP requests with the net scope. A request to
// a host the process may not reach is answered with a 403 response instead of
// failing inside the runtime's permission engine.
type RoundTripper struct {
	Base http.RoundTripper
}

// RoundTrip checks the request host and forwards to Base if permitted.
func (rt RoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("request is required")
	}
	if req.URL == nil {
		return nil, errors.New("request URL is required")
	}

	base := rt.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return Guard(req.Context(), ScopeNet, req.URL.Host, func(context.Context) (*http.Response, error) {
		return base.RoundTrip(req)
	}, deniedResponse(req))
}

func deniedResponse(req *http.Request) *http.Response {
	body := "cordon: network access to " + req.URL.Host + " is not granted\n"
	return &http.Response{
		Status:        "403 Forbidden",
		StatusCode:    http.StatusForbidden,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        http.Header{"Content-Type": []string{"text/plain; charset=utf-8"}},
		Body:          io.NopCloser(strings.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}
}
