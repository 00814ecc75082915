package middleware

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"blog/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func useRecordingTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := observability.Tracer
	observability.Tracer = tp.Tracer("test")
	t.Cleanup(func() {
		observability.Tracer = prev
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func TestTracingMiddleware_NamesSpanAfterRoute(t *testing.T) {
	recorder := useRecordingTracer(t)

	app := fiber.New()
	app.Use(TracingMiddleware())
	app.Get("/post/:slug", func(c *fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest("GET", "/post/hello-world", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Trace-ID"))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /post/:slug", spans[0].Name())
}

func TestTracingMiddleware_UnmatchedPathKeepsRequestPath(t *testing.T) {
	recorder := useRecordingTracer(t)

	app := fiber.New()
	app.Use(TracingMiddleware())

	resp, err := app.Test(httptest.NewRequest("GET", "/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /missing", spans[0].Name())
}

func TestTracingMiddleware_TraceIDInUserContext(t *testing.T) {
	useRecordingTracer(t)

	app := fiber.New()
	app.Use(TracingMiddleware())
	app.Use(ContextMiddleware())
	app.Get("/", func(c *fiber.Ctx) error {
		tid, _ := c.UserContext().Value(TraceIDKey).(string)
		return c.SendString(tid)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Len(t, string(body), 32)
	assert.Equal(t, resp.Header.Get("X-Trace-ID"), string(body))
}
