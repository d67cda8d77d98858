package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Ramsey-B/fern/pkg/context"
	"github.com/Ramsey-B/fern/pkg/logging"
	"github.com/Ramsey-B/fern/pkg/metrics"
)

func newTestEcho() *echo.Echo {
	logger := logging.Nop()
	e := echo.New()
	e.HTTPErrorHandler = Error(logger)
	e.Use(Context())
	e.Use(Logger(logger))
	e.Use(Metrics())
	return e
}

func do(e *echo.Echo, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestContext_RequestID(t *testing.T) {
	e := newTestEcho()
	e.GET("/echo", func(c echo.Context) error {
		return c.String(http.StatusOK, context.GetRequestID(c.Request().Context()))
	})

	rec := do(e, "/echo", map[string]string{echo.HeaderXRequestID: "req-42"})
	assert.Equal(t, "req-42", rec.Body.String())
	assert.Equal(t, "req-42", rec.Header().Get(echo.HeaderXRequestID))

	rec = do(e, "/echo", nil)
	assert.NotEmpty(t, rec.Body.String())
	assert.Equal(t, rec.Body.String(), rec.Header().Get(echo.HeaderXRequestID))
}

func TestError_HTTPError(t *testing.T) {
	e := newTestEcho()
	e.GET("/missing", func(echo.Context) error {
		return httperror.NewHTTPError(http.StatusNotFound, "Customer not found").AddMetaValue("customer_id", "c9")
	})

	rec := do(e, "/missing", map[string]string{echo.HeaderXRequestID: "req-1"})
	require.Equal(t, http.StatusNotFound, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Message, "Customer not found")
	assert.Equal(t, "req-1", body.RequestID)
	assert.Equal(t, "c9", body.Meta["customer_id"])
}

func TestError_OpaqueInternal(t *testing.T) {
	e := newTestEcho()
	e.GET("/boom", func(echo.Context) error {
		return errors.New("pq: password authentication failed")
	})

	rec := do(e, "/boom", nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestError_EchoNotFound(t *testing.T) {
	rec := do(newTestEcho(), "/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "request_id")
}

func TestMetrics_RecordsFinalStatus(t *testing.T) {
	e := newTestEcho()
	e.GET("/teapot/:id", func(echo.Context) error {
		return httperror.NewHTTPError(http.StatusTeapot, "short and stout")
	})

	counter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/teapot/:id", "418")
	before := testutil.ToFloat64(counter)
	do(e, "/teapot/1", nil)
	do(e, "/teapot/2", nil)
	assert.Equal(t, before+2, testutil.ToFloat64(counter))
}

func TestIsQuiet(t *testing.T) {
	assert.True(t, isQuiet("/metrics"))
	assert.True(t, isQuiet("/api/v1/health/live"))
	assert.False(t, isQuiet("/customers"))
}

func TestError_LogsRequestContext(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zapadapter.NewZapEctoLogger(zap.New(core), nil)

	e := echo.New()
	e.HTTPErrorHandler = Error(logger)
	e.Use(Context())
	e.GET("/customers/:customer_id", func(echo.Context) error {
		return httperror.NewHTTPError(http.StatusNotFound, "Customer not found")
	})

	rec := do(e, "/customers/c9", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	entries := logs.FilterMessage("api is returning an error").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, http.MethodGet, fields["method"])
	assert.Equal(t, "/customers/c9", fields["path"])
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
}
