// AngelaMos | 2026
// tracing_test.go

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/carterperez-dev/mystery-message/internal/core"
)

func TestTracingNamesSpanByRoute(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	var traceID string
	r := chi.NewRouter()
	r.Use(Tracing(tp.Tracer("test")))
	r.Delete("/api/delete-message/{messageID}", func(w http.ResponseWriter, r *http.Request) {
		traceID = core.TraceIDFromContext(r.Context())
		w.WriteHeader(http.StatusNotFound)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/api/delete-message/abc", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "DELETE /api/delete-message/{messageID}", spans[0].Name())
	assert.Equal(t, spans[0].SpanContext().TraceID().String(), traceID)
	assert.Contains(t, spans[0].Attributes(), attribute.Int("http.response.status_code", 404))
	assert.NotEqual(t, codes.Error, spans[0].Status().Code)
}

func TestTracingMarksServerErrors(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	r := chi.NewRouter()
	r.Use(Tracing(tp.Tracer("test")))
	r.Get("/boom", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}
