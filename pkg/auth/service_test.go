package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// mockJWKSClient is a mock implementation of JWKSClientInterface.
type mockJWKSClient struct {
	claims      *Claims
	validateErr error

	capturedToken string
}

func (m *mockJWKSClient) ValidateToken(tokenString string) (*Claims, error) {
	m.capturedToken = tokenString
	if m.validateErr != nil {
		return nil, m.validateErr
	}
	return m.claims, nil
}

func (m *mockJWKSClient) Close() {}

func newTestAuthService(client *mockJWKSClient) AuthService {
	return NewAuthService(client, zap.NewNop())
}

func TestAuthService_ValidateRequest_Cookie(t *testing.T) {
	client := &mockJWKSClient{claims: holderClaims()}
	service := newTestAuthService(client)

	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	req.AddCookie(&http.Cookie{Name: "skillvault_jwt", Value: "cookie-token"})

	claims, token, err := service.ValidateRequest(req)
	if err != nil {
		t.Fatalf("ValidateRequest failed: %v", err)
	}
	if claims == nil {
		t.Fatal("expected claims")
	}
	if token != "cookie-token" {
		t.Errorf("expected token 'cookie-token', got %q", token)
	}
	if client.capturedToken != "cookie-token" {
		t.Errorf("expected JWKS client to receive the cookie token, got %q", client.capturedToken)
	}
}

func TestAuthService_ValidateRequest_BearerHeader(t *testing.T) {
	client := &mockJWKSClient{claims: holderClaims()}
	service := newTestAuthService(client)

	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	req.Header.Set("Authorization", "Bearer header-token")

	_, token, err := service.ValidateRequest(req)
	if err != nil {
		t.Fatalf("ValidateRequest failed: %v", err)
	}
	if token != "header-token" {
		t.Errorf("expected token 'header-token', got %q", token)
	}
}

func TestAuthService_ValidateRequest_MissingAuthorization(t *testing.T) {
	service := newTestAuthService(&mockJWKSClient{})

	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)

	_, _, err := service.ValidateRequest(req)
	if !errors.Is(err, ErrMissingAuthorization) {
		t.Errorf("expected ErrMissingAuthorization, got: %v", err)
	}
}

func TestAuthService_ValidateRequest_BadHeaderFormat(t *testing.T) {
	service := newTestAuthService(&mockJWKSClient{})

	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")

	_, _, err := service.ValidateRequest(req)
	if !errors.Is(err, ErrInvalidAuthFormat) {
		t.Errorf("expected ErrInvalidAuthFormat, got: %v", err)
	}
}

func TestAuthService_ValidateRequest_InvalidToken(t *testing.T) {
	client := &mockJWKSClient{validateErr: errors.New("token validation failed")}
	service := newTestAuthService(client)

	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	req.Header.Set("Authorization", "Bearer bad-token")

	_, _, err := service.ValidateRequest(req)
	if err == nil {
		t.Fatal("expected error from JWKS client")
	}
}

func TestAuthService_RequireHolderID(t *testing.T) {
	service := newTestAuthService(&mockJWKSClient{})

	claims := &Claims{}
	claims.Subject = uuid.New().String()
	if err := service.RequireHolderID(claims); err != nil {
		t.Errorf("expected UUID subject to pass, got: %v", err)
	}

	claims.Subject = "service-account"
	if !errors.Is(service.RequireHolderID(claims), ErrInvalidSubject) {
		t.Error("expected ErrInvalidSubject for a non-UUID subject")
	}
}
