// Package testutil holds helpers shared by the sync API tests.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewRequest builds a request with no body.
func NewRequest(t *testing.T, method, path string) *http.Request {
	t.Helper()
	return httptest.NewRequest(method, path, nil)
}

// SignToken returns an HS256 bearer token for subject valid for one hour.
func SignToken(t *testing.T, key, subject string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(key))
	require.NoError(t, err, "failed to sign token")
	return tok
}

// WithBearer sets the Authorization header.
func WithBearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

// DoRequest serves req and returns the recorded response.
func DoRequest(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// UnmarshalResponse decodes the response body into T.
func UnmarshalResponse[T any](t *testing.T, rr *httptest.ResponseRecorder) *T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), "failed to unmarshal response: %s", rr.Body.String())
	return &out
}

func AssertStatus(t *testing.T, rr *httptest.ResponseRecorder, expected int) {
	t.Helper()
	assert.Equal(t, expected, rr.Code, "unexpected status code, body: %s", rr.Body.String())
}

func AssertStatusOK(t *testing.T, rr *httptest.ResponseRecorder) {
	t.Helper()
	AssertStatus(t, rr, http.StatusOK)
}

// AssertStatusAndError checks the status and the "error" code of an error body.
func AssertStatusAndError(t *testing.T, rr *httptest.ResponseRecorder, expectedStatus int, expectedCode string) {
	t.Helper()
	AssertStatus(t, rr, expectedStatus)
	body := UnmarshalResponse[map[string]any](t, rr)
	assert.Equal(t, expectedCode, (*body)["error"], "unexpected error code")
}

// AssertJSONContains checks one top-level key of a JSON object body.
func AssertJSONContains(t *testing.T, rr *httptest.ResponseRecorder, key string, expectedValue any) {
	t.Helper()
	body := UnmarshalResponse[map[string]any](t, rr)
	assert.Equal(t, expectedValue, (*body)[key], "unexpected value for key %q", key)
}

// RunResult mirrors the JSON body of POST /api/sync/ad.
type RunResult struct {
	RunID         string   `json:"run_id"`
	Success       bool     `json:"success"`
	UpdatedCount  int      `json:"updated_count"`
	NotFoundCount int      `json:"not_found_count"`
	SkippedCount  int      `json:"skipped_count"`
	ErrorCount    int      `json:"error_count"`
	NoChangeCount int      `json:"no_change_count"`
	LogMessages   []string `json:"log_messages"`
	Error         *struct {
		Class   string `json:"class"`
		Message string `json:"message"`
	} `json:"error"`
	Diagnostics map[string]any `json:"diagnostics"`
}

// AssertRunResult checks that the response is a 200 run result and returns it.
// A failed run must carry a failure class; a successful one must not.
func AssertRunResult(t *testing.T, rr *httptest.ResponseRecorder, wantSuccess bool) *RunResult {
	t.Helper()
	AssertStatusOK(t, rr)
	res := UnmarshalResponse[RunResult](t, rr)
	assert.Equal(t, wantSuccess, res.Success, "unexpected run success")
	if wantSuccess {
		assert.Nil(t, res.Error, "successful run must not report a failure")
	} else if assert.NotNil(t, res.Error, "failed run must report a failure") {
		assert.NotEmpty(t, res.Error.Class, "failure class is required")
	}
	return res
}
