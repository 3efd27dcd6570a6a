package tracing

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestGinMiddlewareNamesSpansByRoute(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	otel.SetTracerProvider(tp)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware())
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/exam/mock/result/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/api/exam/mock/submit", func(c *gin.Context) { c.Status(http.StatusBadGateway) })

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/health", nil),
		httptest.NewRequest(http.MethodGet, "/api/exam/mock/result/m42", nil),
		httptest.NewRequest(http.MethodPost, "/api/exam/mock/submit", nil),
	} {
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	spans := sr.Ended()
	if len(spans) != 2 {
		t.Fatalf("got %d spans, want 2 (health is untraced)", len(spans))
	}
	if got := spans[0].Name(); got != "GET /api/exam/mock/result/:id" {
		t.Errorf("span name = %q", got)
	}
	if spans[0].Status().Code == codes.Error {
		t.Error("200 response marked as error")
	}
	if got := spans[1].Status().Code; got != codes.Error {
		t.Errorf("502 response status = %v, want error", got)
	}
}

func TestTraced(t *testing.T) {
	cases := map[string]bool{
		"/health":               false,
		"/api/health":           false,
		"/metrics":              false,
		"/swagger/index.html":   false,
		"/api/exam/mock":        true,
		"/exam":                 true,
		"/api/onboarding/check": true,
	}
	for path, want := range cases {
		if got := traced(path); got != want {
			t.Errorf("traced(%q) = %v, want %v", path, got, want)
		}
	}
}
