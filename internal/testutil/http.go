package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/system/auth"
	"github.com/google/uuid"
)

// TestCaller represents identity-provider claims for testing HTTP handlers.
type TestCaller struct {
	Subject   string
	Name      string
	Email     string
	AvatarURL string
}

// Caller returns a TestCaller with fresh subject and the given email.
func Caller(email string) TestCaller {
	return TestCaller{
		Subject: uuid.NewString(),
		Name:    "Test Caller",
		Email:   email,
	}
}

// WithCaller adds a caller to the request context for testing authenticated
// handlers. This bypasses the session middleware and injects the identity
// directly.
func WithCaller(r *http.Request, c TestCaller) *http.Request {
	return auth.WithTestCaller(r, &auth.Caller{
		Subject:   c.Subject,
		Name:      c.Name,
		Email:     c.Email,
		AvatarURL: c.AvatarURL,
	})
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

// NewJSONRequest creates an HTTP request with a JSON-encoded body.
func NewJSONRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()

	buf, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request body: %v", err)
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// NewAuthenticatedRequest creates an HTTP request with a caller in context.
func NewAuthenticatedRequest(method, target string, c TestCaller) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	return WithCaller(req, c)
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t interface{ Errorf(string, ...any) }, expected int) {
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d", r.Code, expected)
	}
}

// DecodeJSON unmarshals the response body into dest.
func (r *ResponseRecorder) DecodeJSON(t *testing.T, dest any) {
	t.Helper()
	if err := json.Unmarshal(r.Body.Bytes(), dest); err != nil {
		t.Fatalf("failed to decode response body %q: %v", r.Body.String(), err)
	}
}

// AssertContains checks if the response body contains the expected string.
func (r *ResponseRecorder) AssertContains(t interface{ Errorf(string, ...any) }, expected string) {
	if !bytes.Contains(r.Body.Bytes(), []byte(expected)) {
		t.Errorf("response body does not contain %q", expected)
	}
}
