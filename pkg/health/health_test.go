package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ok() PingFunc   { return func(context.Context) error { return nil } }
func down() PingFunc { return func(context.Context) error { return errors.New("connection refused") } }

func serve(t *testing.T, c *Checker, path string) (int, Response) {
	t.Helper()
	e := echo.New()
	c.RegisterRoutes(e)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestHealth_AllHealthy(t *testing.T) {
	c := NewChecker("test")
	c.AddCheck("database", ok(), true)
	c.AddCheck("redis", nil, false)

	code, body := serve(t, c, "/api/v1/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, StatusHealthy, body.Status)
	assert.Len(t, body.Checks, 1)
}

func TestHealth_OptionalDown(t *testing.T) {
	c := NewChecker("test")
	c.AddCheck("database", ok(), true)
	c.AddCheck("redis", down(), false)

	code, body := serve(t, c, "/api/v1/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, StatusDegraded, body.Status)
	assert.Equal(t, "connection refused", body.Checks["redis"].Message)
}

func TestHealth_CriticalDown(t *testing.T) {
	c := NewChecker("test")
	c.AddCheck("database", down(), true)
	c.AddCheck("redis", down(), false)

	code, body := serve(t, c, "/api/v1/health")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, StatusUnhealthy, body.Status)
}

func TestReadiness(t *testing.T) {
	c := NewChecker("test")
	c.AddCheck("database", ok(), true)

	code, body := serve(t, c, "/api/v1/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, body.Checks, "startup")

	c.SetReady(true)
	code, _ = serve(t, c, "/api/v1/health/ready")
	assert.Equal(t, http.StatusOK, code)
}

func TestLiveness(t *testing.T) {
	c := NewChecker("test")
	c.AddCheck("database", down(), true)

	code, body := serve(t, c, "/api/v1/health/live")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "test", body.Version)
}
