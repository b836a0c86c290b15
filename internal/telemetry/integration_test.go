package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// TestHandlerSpansJoinRequestTrace checks that spans started inside a routed
// handler become children of the request span and keep an incoming trace id.
func TestHandlerSpansJoinRequestTrace(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	r := mux.NewRouter()
	r.Use(otelmux.Middleware("planner-test"))
	r.HandleFunc("/api/v1/plan/timeline", func(w http.ResponseWriter, r *http.Request) {
		_, span := StartSpan(r.Context(), "planner.timeline")
		EndSpan(span, nil)
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name        string
		traceParent string
		wantTraceID string
	}{
		{name: "new trace"},
		{
			name:        "incoming trace",
			traceParent: "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01",
			wantTraceID: "4bf92f3577b34da6a3ce929d0e0e4736",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exporter.Reset()

			req := httptest.NewRequest(http.MethodGet, "/api/v1/plan/timeline", nil)
			if tt.traceParent != "" {
				req.Header.Set("traceparent", tt.traceParent)
			}
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			if rr.Code != http.StatusOK {
				t.Errorf("Expected status OK, got %d", rr.Code)
			}
			if err := tp.ForceFlush(context.Background()); err != nil {
				t.Errorf("Failed to flush tracer provider: %v", err)
			}

			spans := exporter.GetSpans()
			if len(spans) != 2 {
				t.Fatalf("Expected handler and request spans, got %d", len(spans))
			}
			child, parent := spans[0], spans[1]
			if child.Parent.SpanID() != parent.SpanContext.SpanID() {
				t.Error("Expected handler span to be a child of the request span")
			}
			if tt.wantTraceID != "" && parent.SpanContext.TraceID().String() != tt.wantTraceID {
				t.Errorf("Expected trace id %s, got %s", tt.wantTraceID, parent.SpanContext.TraceID())
			}
		})
	}
}
