package auth

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("backend-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestInspect(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)

	t.Run("user_id claim", func(t *testing.T) {
		token := signToken(t, &Claims{
			UserID:           42,
			Email:            "learner@example.com",
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)},
		})
		claims, err := Inspect(token)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if claims.UserID != 42 || claims.Email != "learner@example.com" {
			t.Errorf("unexpected claims %+v", claims)
		}
		if claims.Expired(time.Now()) {
			t.Error("token should not be expired yet")
		}
		if !claims.Expired(exp.Add(time.Second)) {
			t.Error("token should be expired after exp")
		}
	})

	t.Run("subject fallback", func(t *testing.T) {
		token := signToken(t, jwt.RegisteredClaims{Subject: "7"})
		claims, err := Inspect(token)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if claims.UserID != 7 {
			t.Errorf("expected user 7, got %d", claims.UserID)
		}
		if claims.TTL(time.Now()) != 0 {
			t.Error("token without exp has no ttl")
		}
	})

	t.Run("no subject", func(t *testing.T) {
		token := signToken(t, jwt.RegisteredClaims{})
		if _, err := Inspect(token); !errors.Is(err, ErrNoSubject) {
			t.Errorf("expected ErrNoSubject, got %v", err)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := Inspect("not-a-token"); err == nil {
			t.Error("expected decode error")
		}
	})
}

func TestMemoryTokenStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryTokenStore()

	if _, err := s.Load(ctx, "sid"); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound, got %v", err)
	}
	s.Save(ctx, "sid", "tok")
	if got, _ := s.Load(ctx, "sid"); got != "tok" {
		t.Errorf("expected tok, got %q", got)
	}

	src := SessionTokens{Store: s, SessionID: "sid"}
	if got, _ := src.Token(ctx); got != "tok" {
		t.Errorf("session token source returned %q", got)
	}

	s.Delete(ctx, "sid")
	if _, err := s.Load(ctx, "sid"); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("expected token to be deleted, got %v", err)
	}
}

func TestFileTokenStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "tokens.json")

	s, err := NewFileTokenStore(path, "a-long-enough-secret-for-the-test")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := s.Save(ctx, "sid-1", "token-one"); err != nil {
		t.Fatalf("save: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("expected 0600 permissions, got %v", info.Mode().Perm())
	}

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "token-one") {
		t.Error("token must not be stored in plain text")
	}

	t.Run("reopen", func(t *testing.T) {
		again, err := NewFileTokenStore(path, "a-long-enough-secret-for-the-test")
		if err != nil {
			t.Fatalf("reopen: %v", err)
		}
		got, err := again.Load(ctx, "sid-1")
		if err != nil || got != "token-one" {
			t.Errorf("expected persisted token, got %q (%v)", got, err)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewFileTokenStore(path, "a-different-secret-of-some-length")
		if err != nil {
			t.Fatalf("reopen: %v", err)
		}
		if _, err := other.Load(ctx, "sid-1"); err == nil {
			t.Error("expected decrypt failure with the wrong secret")
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := s.Delete(ctx, "sid-1"); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, err := s.Load(ctx, "sid-1"); !errors.Is(err, ErrTokenNotFound) {
			t.Errorf("expected ErrTokenNotFound, got %v", err)
		}
	})

	if _, err := NewFileTokenStore(path, ""); err == nil {
		t.Error("expected an error without a secret")
	}
}
