package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func newRawPost(path, body string) *http.Request {
	req := httptest.NewRequest(fiber.MethodPost, path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return req
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded), "body: %s", raw)
	return decoded
}

func TestUnknownRouteEnvelope(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.do(t, testRequest{method: fiber.MethodGet, path: "/api/nope"})
	require.Equal(t, 404, resp.StatusCode)
	require.Equal(t, "NOT_FOUND", errorCode(t, body))
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.do(t, testRequest{method: fiber.MethodGet, path: "/api/tickets"})
	require.Equal(t, 401, resp.StatusCode)
	require.Equal(t, "UNAUTHORIZED", errorCode(t, body))
}

func TestInvalidTokenIsUnauthorized(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(fiber.MethodGet, "/api/tickets", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer not-a-token")
	resp, err := ts.app.Test(req, 5000)
	require.NoError(t, err)
	body := decodeBody(t, resp)
	require.Equal(t, 401, resp.StatusCode)
	require.Equal(t, "UNAUTHORIZED", errorCode(t, body))
}

func TestRateLimitExceeded(t *testing.T) {
	ts := newTestServerWithLimit(t, 3)

	for i := 0; i < 3; i++ {
		resp, _ := ts.do(t, testRequest{method: fiber.MethodGet, path: "/api/health"})
		require.Equal(t, 200, resp.StatusCode, "request %d", i+1)
	}

	resp, body := ts.do(t, testRequest{method: fiber.MethodGet, path: "/api/health"})
	require.Equal(t, 429, resp.StatusCode)
	require.Equal(t, "RATE_LIMIT", errorCode(t, body))
}

func TestErrorsAreCounted(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := ts.do(t, testRequest{method: fiber.MethodGet, path: "/api/tickets"})
	require.Equal(t, 401, resp.StatusCode)
	require.EqualValues(t, 1, ts.metrics.ErrorCount("/api/tickets", fiber.MethodGet, "UNAUTHORIZED"))
}
