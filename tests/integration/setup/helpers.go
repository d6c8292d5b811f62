package setup

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/ferdian3456/virdanengage/internal/delivery/http/middleware"
	"github.com/ferdian3456/virdanengage/internal/util"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// TruncateAllTables truncates all tables in correct order (children first, then parents)
func TruncateAllTables(t *testing.T, db *pgxpool.Pool, ctx context.Context) {
	t.Log("Truncating all database tables...")

	tables := []string{
		"likes",
		"engagement_counters",
		"comments",
		"posts",
	}

	for _, table := range tables {
		_, err := db.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		require.NoError(t, err, "failed to truncate table %s", table)
	}

	t.Log("All database tables truncated successfully")
}

// CreateJSONRequest creates a test request with JSON body
func CreateJSONRequest(method, url string, jsonBody []byte) *http.Request {
	var body io.Reader
	if jsonBody != nil {
		body = bytes.NewReader(jsonBody)
	}

	req := httptest.NewRequest(method, url, body)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// CreateAuthRequest creates a test request with JSON body and Authorization header
func CreateAuthRequest(method, url string, jsonBody []byte, token string) *http.Request {
	req := CreateJSONRequest(method, url, jsonBody)
	if token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}
	return req
}

// GenerateToken signs an access token for a fresh user id.
func GenerateToken(t *testing.T, username string) (uuid.UUID, string) {
	userId := uuid.New()
	token, err := util.GenerateAccessToken(userId, username, JWTSecret)
	require.NoError(t, err, "should sign access token")

	return userId, token
}

// Browser is one browsing session against the test app. It keeps the
// session cookie between requests the way a browser would.
type Browser struct {
	t      *testing.T
	app    *fiber.App
	token  string
	cookie string
}

func NewBrowser(t *testing.T, app *fiber.App, token string) *Browser {
	return &Browser{t: t, app: app, token: token}
}

func (browser *Browser) Do(method, url string, jsonBody []byte) *http.Response {
	req := CreateAuthRequest(method, url, jsonBody, browser.token)
	if browser.cookie != "" {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: browser.cookie})
	}

	resp, err := browser.app.Test(req, -1)
	require.NoError(browser.t, err, "%s %s should complete", method, url)

	for _, cookie := range resp.Cookies() {
		if cookie.Name == middleware.SessionCookieName && cookie.Value != "" {
			browser.cookie = cookie.Value
		}
	}

	return resp
}

// ParseJSONResponse helper to parse JSON response body
func ParseJSONResponse(t *testing.T, resp *http.Response) map[string]interface{} {
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")
	require.NotEmpty(t, body, "response body should not be empty")

	var result map[string]interface{}
	err = sonic.Unmarshal(body, &result)
	require.NoError(t, err, "failed to parse JSON response")

	return result
}

// ErrorResponse represents the standard error response structure
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Param     string `json:"param,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

// ParseErrorResponse parses error response into ErrorResponse struct
func ParseErrorResponse(t *testing.T, result map[string]interface{}) ErrorResponse {
	require.Contains(t, result, "error", "response should contain error field")

	errObj, ok := result["error"].(map[string]interface{})
	require.True(t, ok, "error field should be an object")

	errResp := ErrorResponse{}

	if code, ok := errObj["code"].(string); ok {
		errResp.Code = code
	}
	if message, ok := errObj["message"].(string); ok {
		errResp.Message = message
	}
	if param, ok := errObj["param"].(string); ok {
		errResp.Param = param
	}
	if retryable, ok := errObj["retryable"].(bool); ok {
		errResp.Retryable = retryable
	}

	return errResp
}
