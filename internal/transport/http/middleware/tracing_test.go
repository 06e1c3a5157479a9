package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func TestTracingContinuesCallerTraceAndFeedsTraceID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	router := gin.New()
	router.Use(Tracing(provider, propagation.TraceContext{}))
	router.Use(EnrichContext())
	router.GET("/api/v1/consultations/:id", func(c *gin.Context) {
		c.String(http.StatusOK, GetTraceID(c))
	})
	router.GET("/boom", func(c *gin.Context) {
		c.Status(http.StatusBadGateway)
	})

	const callerTrace = "4bf92f3577b34da6a3ce929d0e0e4736"
	req := httptest.NewRequest(http.MethodGet, "/api/v1/consultations/42", nil)
	req.Header.Set("traceparent", "00-"+callerTrace+"-00f067aa0ba902b7-01")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Body.String() != callerTrace {
		t.Fatalf("expected request trace id %s, got %q", callerTrace, rr.Body.String())
	}
	if got := rr.Header().Get(TraceIDHeader); got != callerTrace {
		t.Fatalf("expected %s header %s, got %q", TraceIDHeader, callerTrace, got)
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/boom", nil))

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 server spans, got %d", len(spans))
	}
	if spans[0].Name() != "GET /api/v1/consultations/:id" || spans[0].SpanKind() != trace.SpanKindServer {
		t.Fatalf("unexpected span %q kind %v", spans[0].Name(), spans[0].SpanKind())
	}
	if spans[0].SpanContext().TraceID().String() != callerTrace {
		t.Fatalf("span did not continue the caller trace")
	}
	if spans[1].Status().Code != codes.Error {
		t.Fatalf("expected 5xx to mark the span as failed, got %v", spans[1].Status())
	}
}

func TestEnrichContextWithoutSpanUsesHeaderOrFreshID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(EnrichContext())
	router.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetTraceID(c)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(TraceIDHeader, "upstream-id")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Body.String() != "upstream-id" {
		t.Fatalf("expected header trace id, got %q", rr.Body.String())
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Body.String() == "" {
		t.Fatalf("expected a generated trace id")
	}
}
