package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/stretchr/testify/assert"
)

func TestAuthMiddleware(t *testing.T) {
	server := &Server{
		oidcVerifiers: map[string]tokenVerifier{
			"google": func(ctx context.Context, token string) (*oidc.IDToken, error) {
				if token == "valid-token" {
					return &oidc.IDToken{Subject: "u1"}, nil
				}
				return nil, assert.AnError
			},
		},
	}

	var reached bool
	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	})

	call := func(header string) *httptest.ResponseRecorder {
		reached = false
		req := httptest.NewRequest("POST", "/api/commands/refresh", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		server.authMiddleware(testHandler).ServeHTTP(w, req)
		return w
	}

	t.Run("Missing Header", func(t *testing.T) {
		w := call("")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.False(t, reached)
	})

	t.Run("Not Bearer", func(t *testing.T) {
		w := call("Basic dXNlcjpwYXNz")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.False(t, reached)
	})

	t.Run("Invalid Token", func(t *testing.T) {
		w := call("Bearer nope")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"error":"invalid auth token"}`, w.Body.String())
		assert.False(t, reached)
	})

	t.Run("Valid Token", func(t *testing.T) {
		w := call("Bearer valid-token")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, reached)
	})

	t.Run("No Verifiers", func(t *testing.T) {
		open := &Server{}
		reached = false
		w := httptest.NewRecorder()
		open.authMiddleware(testHandler).ServeHTTP(w, httptest.NewRequest("POST", "/api/commands/refresh", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, reached)
	})
}

func TestAuthenticateToken(t *testing.T) {
	server := &Server{
		oidcVerifiers: map[string]tokenVerifier{
			"google": func(ctx context.Context, token string) (*oidc.IDToken, error) {
				return nil, assert.AnError
			},
			"apple": func(ctx context.Context, token string) (*oidc.IDToken, error) {
				if token == "apple-token" {
					return &oidc.IDToken{Subject: "a1"}, nil
				}
				return nil, assert.AnError
			},
		},
	}

	subject, err := server.authenticateToken(context.Background(), "apple-token")
	assert.NoError(t, err)
	assert.Equal(t, "a1", subject)

	_, err = server.authenticateToken(context.Background(), "other")
	assert.ErrorContains(t, err, "verifier failed")

	_, err = (&Server{}).authenticateToken(context.Background(), "x")
	assert.EqualError(t, err, "no valid audiences configured or token invalid")
}
