package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/carelink/telemedicine/internal/core/domain"
	"github.com/carelink/telemedicine/internal/core/ports"
)

func httpStatus(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	return he.Code
}

func TestAuthHandler_Signup_Success(t *testing.T) {
	stub := &stubAuthService{
		signupFn: func(ctx context.Context, in ports.SignupInput) (*ports.AuthResult, error) {
			if in.Email != "pat@example.com" || in.Role != domain.RolePatient || in.Phone != "555" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &ports.AuthResult{
				Token: "tok",
				User:  domain.User{ID: "patient-1", Email: in.Email, Password: in.Password, Role: in.Role, Name: in.Name},
			}, nil
		},
	}
	h := NewAuthHandler(stub)

	c, rec := newContext(http.MethodPost, "/v1/auth/signup",
		`{"email":"pat@example.com","password":"pw","name":"Pat","role":"patient","phone":"555"}`, nil)
	if err := h.Signup(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("password leaked in response: %s", rec.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["token"] != "tok" {
		t.Fatalf("expected token, got %v", resp["token"])
	}
}

func TestAuthHandler_Signup_RejectsAdminRole(t *testing.T) {
	stub := &stubAuthService{
		signupFn: func(context.Context, ports.SignupInput) (*ports.AuthResult, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	h := NewAuthHandler(stub)

	c, _ := newContext(http.MethodPost, "/v1/auth/signup",
		`{"email":"x@example.com","password":"pw","name":"X","role":"admin"}`, nil)
	err := h.Signup(c)
	if code := httpStatus(t, err); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
	if !strings.Contains(err.Error(), "role must be one of") {
		t.Fatalf("expected role message, got %v", err)
	}
}

func TestAuthHandler_Signup_EmailExistsPropagates(t *testing.T) {
	stub := &stubAuthService{
		signupFn: func(context.Context, ports.SignupInput) (*ports.AuthResult, error) {
			return nil, domain.ErrEmailExists
		},
	}
	h := NewAuthHandler(stub)

	c, _ := newContext(http.MethodPost, "/v1/auth/signup",
		`{"email":"doctor@hospital.com","password":"pw","name":"D","role":"doctor"}`, nil)
	if err := h.Signup(c); !errors.Is(err, domain.ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, email, password string, role domain.Role) (*ports.AuthResult, error) {
			if email != "admin@hospital.com" || password != "admin123" || role != domain.RoleAdmin {
				t.Fatalf("unexpected args: %s %s %s", email, password, role)
			}
			return &ports.AuthResult{Token: "token123", User: domain.User{ID: domain.SeedAdminID, Role: role, Name: "Admin"}}, nil
		},
	}
	h := NewAuthHandler(stub)

	c, rec := newContext(http.MethodPost, "/v1/auth/login",
		`{"email":"admin@hospital.com","password":"admin123","role":"admin"}`, nil)
	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	user, ok := resp["user"].(map[string]any)
	if !ok || user["id"] != domain.SeedAdminID || user["role"] != "admin" {
		t.Fatalf("unexpected user payload: %+v", resp)
	}
}

func TestAuthHandler_Login_InvalidCredentialsPropagates(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(context.Context, string, string, domain.Role) (*ports.AuthResult, error) {
			return nil, domain.ErrInvalidCredentials
		},
	}
	h := NewAuthHandler(stub)

	c, _ := newContext(http.MethodPost, "/v1/auth/login",
		`{"email":"admin@hospital.com","password":"bad","role":"admin"}`, nil)
	if err := h.Login(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthHandler_Login_InvalidPayload(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(context.Context, string, string, domain.Role) (*ports.AuthResult, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	h := NewAuthHandler(stub)

	c, _ := newContext(http.MethodPost, "/v1/auth/login", "{", nil)
	if code := httpStatus(t, h.Login(c)); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
}

func TestAuthHandler_Session(t *testing.T) {
	var current *domain.User
	stub := &stubAuthService{
		currentFn: func(context.Context) (*domain.User, error) { return current, nil },
	}
	h := NewAuthHandler(stub)

	c, rec := newContext(http.MethodGet, "/v1/session", "", nil)
	if err := h.Session(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 with empty session, got %d", rec.Code)
	}

	current = &domain.User{ID: "patient-1", Password: "pw", Role: domain.RolePatient}
	c, rec = newContext(http.MethodGet, "/v1/session", "", nil)
	if err := h.Session(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	called := false
	stub := &stubAuthService{
		logoutFn: func(context.Context) error { called = true; return nil },
	}
	h := NewAuthHandler(stub)

	c, rec := newContext(http.MethodPost, "/v1/auth/logout", "", patient)
	if err := h.Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called || rec.Code != http.StatusNoContent {
		t.Fatalf("expected logout with 204, called=%v code=%d", called, rec.Code)
	}
}
