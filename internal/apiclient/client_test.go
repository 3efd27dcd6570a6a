package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"english_edu_dashboard/internal/config"
)

func newTestClient(t *testing.T, h http.HandlerFunc, tokens TokenSource) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(config.BackendConfig{BaseURL: srv.URL + "/", Timeout: 2 * time.Second}, tokens)
}

func TestDoInjectsBearerToken(t *testing.T) {
	var gotAuth, gotType string
	var gotBody map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"mock_id":"m1"}`))
	}, StaticToken("abc"))

	var out struct {
		MockID string `json:"mock_id"`
	}
	if err := c.Post(context.Background(), "/exam/mock/start", map[string]string{"exam_type": "cet4"}, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer abc" {
		t.Errorf("expected bearer header, got %q", gotAuth)
	}
	if gotType != "application/json" {
		t.Errorf("expected json content type, got %q", gotType)
	}
	if gotBody["exam_type"] != "cet4" {
		t.Errorf("expected body to be forwarded, got %v", gotBody)
	}
	if out.MockID != "m1" {
		t.Errorf("expected decoded mock id, got %q", out.MockID)
	}
}

func TestDoWithoutTokenSendsNoHeader(t *testing.T) {
	var hasAuth bool
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, hasAuth = r.Header["Authorization"]
		w.WriteHeader(http.StatusNoContent)
	}, StaticToken(""))

	if err := c.Get(context.Background(), "/xp/summary", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hasAuth {
		t.Error("expected no Authorization header for an empty token")
	}
}

func TestDoNormalizesErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"detail field", http.StatusBadRequest, `{"detail":"exam type unknown"}`, "exam type unknown"},
		{"message field", http.StatusConflict, `{"message":"already submitted"}`, "already submitted"},
		{"plain body", http.StatusBadGateway, "upstream down\n", "upstream down"},
		{"empty body", http.StatusServiceUnavailable, "", "Service Unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}, nil)

			err := c.Get(context.Background(), "/exam/mock/history", nil)
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %v", err)
			}
			if apiErr.Status != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, apiErr.Status)
			}
			if apiErr.Message != tt.message {
				t.Errorf("expected message %q, got %q", tt.message, apiErr.Message)
			}
			if StatusOf(err) != tt.status {
				t.Errorf("StatusOf mismatch: %d", StatusOf(err))
			}
		})
	}
}

func TestDoTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := New(config.BackendConfig{BaseURL: url, Timeout: time.Second}, nil)
	err := c.Get(context.Background(), "/progress/overview", nil)

	var tErr *TransportError
	if !errors.As(err, &tErr) {
		t.Fatalf("expected *TransportError, got %v", err)
	}
	if MessageOf(err) != "network error, please try again" {
		t.Errorf("unexpected message %q", MessageOf(err))
	}
}

func TestDoTokenSourceError(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	}, TokenFunc(func(context.Context) (string, error) {
		return "", errors.New("session closed")
	}))

	if err := c.Get(context.Background(), "/quests", nil); err == nil {
		t.Fatal("expected token error")
	}
	if called {
		t.Error("request must not be sent without a token")
	}
}

func TestPathLabel(t *testing.T) {
	tests := map[string]string{
		"/grammar/topics/12/exercises":                        "/grammar/topics/:id/exercises",
		"/clinic/essays/3f2b8c1e-9a4d-4c1e-8f3a-1b2c3d4e5f60": "/clinic/essays/:id",
		"/exam/mock/history?page=2":                           "/exam/mock/history",
	}
	for in, want := range tests {
		if got := pathLabel(in); got != want {
			t.Errorf("pathLabel(%q) = %q, want %q", in, got, want)
		}
	}
}
