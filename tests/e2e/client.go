package e2e

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type Response struct {
	Code   int
	Header http.Header
	Body   string
}

// Send request to test server. Token is sent as bearer one if not empty
func Do(t *testing.T, method string, url string, body string, token string) Response {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(t.Context(), method, url, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return send(t, req)
}

// Login with basic credentials and return the token from Authorization header
func Login(t *testing.T, srvURL string, username string, password string) string {
	t.Helper()

	req, err := http.NewRequestWithContext(t.Context(), http.MethodPost, srvURL+"/v1/auth/login", nil)
	require.NoError(t, err)
	req.SetBasicAuth(username, password)

	res := send(t, req)
	require.Equalf(t, http.StatusAccepted, res.Code, "login failed. Body: %s", res.Body)

	token, ok := strings.CutPrefix(res.Header.Get("Authorization"), "Bearer ")
	require.True(t, ok, "token should be sent as bearer one")
	return token
}

func send(t *testing.T, req *http.Request) Response {
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return Response{Code: resp.StatusCode, Header: resp.Header, Body: string(body)}
}
