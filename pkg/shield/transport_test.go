package shield

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neoclaw-ai/cordon/internal/grants"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func TestRoundTripper_ForwardsGrantedHost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	host := strings.TrimPrefix(server.URL, "http://")
	status := grantedFor(grants.Grant{Kind: grants.KindNet, Value: host})
	client := &http.Client{Transport: RoundTripper{}}

	req, err := http.NewRequestWithContext(WithStatus(context.Background(), status), http.MethodGet, server.URL, nil)
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
}

func TestRoundTripper_DeniedHostGets403WithoutDialing(t *testing.T) {
	status := grantedFor(grants.Grant{Kind: grants.KindNet, Value: "api.example.com"})
	called := false
	client := &http.Client{Transport: RoundTripper{Base: roundTripFunc(func(*http.Request) (*http.Response, error) {
		called = true
		return nil, errors.New("should not be called")
	})}}

	req, err := http.NewRequestWithContext(WithStatus(context.Background(), status), http.MethodGet, "https://external.com/data", nil)
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Contains(t, string(body), "external.com")
	assert.False(t, called)
}

func TestRoundTripper_PropagatesTransportError(t *testing.T) {
	failure := errors.New("dial failed")
	rt := RoundTripper{Base: roundTripFunc(func(*http.Request) (*http.Response, error) {
		return nil, failure
	})}

	req, err := http.NewRequestWithContext(WithStatus(context.Background(), Unrestricted), http.MethodGet, "https://api.example.com", nil)
	require.NoError(t, err)
	_, err = rt.RoundTrip(req)

	require.ErrorIs(t, err, failure)
}

func TestRoundTripper_RejectsNilRequest(t *testing.T) {
	_, err := RoundTripper{}.RoundTrip(nil)
	require.Error(t, err)
}
