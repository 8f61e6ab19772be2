package user

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/careregistry/careregistry/internal/platform/auth"
)

func newTestHandler() (*Handler, *echo.Echo) {
	return NewHandler(newTestService()), echo.New()
}

func postJSON(e *echo.Echo, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandler_Register(t *testing.T) {
	h, e := newTestHandler()
	c, rec := postJSON(e, "/api/auth/register",
		`{"username":"frontdesk","password":"correct-horse","role":"receptionist"}`)

	if err := h.Register(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	var session Session
	json.Unmarshal(rec.Body.Bytes(), &session)
	if session.Token == "" {
		t.Error("expected token in response")
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Error("response must not expose password material")
	}
}

func TestHandler_Register_Duplicate(t *testing.T) {
	h, e := newTestHandler()
	c, _ := postJSON(e, "/api/auth/register",
		`{"username":"frontdesk","password":"correct-horse","role":"receptionist"}`)
	if err := h.Register(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c, _ = postJSON(e, "/api/auth/register",
		`{"username":"frontdesk","password":"correct-horse","role":"nurse"}`)
	err := h.Register(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for duplicate username, got %v", err)
	}
}

func TestHandler_Login_BadCredentials(t *testing.T) {
	h, e := newTestHandler()
	c, _ := postJSON(e, "/api/auth/login", `{"username":"ghost","password":"whatever1"}`)

	err := h.Login(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

func TestHandler_Profile(t *testing.T) {
	h, e := newTestHandler()
	session, err := h.svc.Register(context.Background(), "drhouse", "correct-horse", "doctor")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil)
	ctx := context.WithValue(req.Context(), auth.UserIDKey, session.ID.String())
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Profile(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), session.Token) {
		t.Error("profile must not echo the token")
	}
	if !strings.Contains(rec.Body.String(), `"username":"drhouse"`) {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}
