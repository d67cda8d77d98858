package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/config"
	"github.com/Ramsey-B/fern/pkg/health"
	"github.com/Ramsey-B/fern/pkg/logging"
	"github.com/Ramsey-B/fern/pkg/models"
)

type stubRepos struct{}

func (stubRepos) List(context.Context, int) ([]models.CustomerSummary, error) {
	return []models.CustomerSummary{}, nil
}

func (stubRepos) GetByID(context.Context, string) (*models.Customer, error) {
	return &models.Customer{CustomerID: "c1"}, nil
}

func (stubRepos) StatusCounts(context.Context) ([]models.OrderStatusCount, error) {
	return []models.OrderStatusCount{}, nil
}

type stubNotes struct{}

func (stubNotes) Create(_ context.Context, note string) (*models.Note, error) {
	return &models.Note{ID: 1, Note: note}, nil
}

func (stubNotes) List(context.Context, int) ([]models.Note, error) {
	return []models.Note{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		AppName:      "fern-api",
		Port:         0,
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost},
	}
}

func newTestServer(t *testing.T, checker *health.Checker) *Server {
	t.Helper()
	repos := Repositories{Customers: stubRepos{}, Orders: stubRepos{}, Notes: stubNotes{}}
	return New(testConfig(), logging.Nop(), repos, checker)
}

func serve(s *Server, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set(echo.HeaderOrigin, "http://localhost:3000")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestServer_Routes(t *testing.T) {
	checker := health.NewChecker("test")
	checker.SetReady(true)
	s := newTestServer(t, checker)

	for _, path := range []string{"/", "/customers", "/customers/c1", "/stats/order-status", "/notes",
		"/api/v1/health/live", "/api/v1/health/ready"} {
		rec := serve(s, http.MethodGet, path)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestServer_Middleware(t *testing.T) {
	s := newTestServer(t, nil)

	rec := serve(s, http.MethodGet, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
	assert.Equal(t, "*", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))

	rec = serve(s, http.MethodGet, "/api/v1/health/live")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_Metrics(t *testing.T) {
	s := newTestServer(t, nil)
	serve(s, http.MethodGet, "/customers")

	rec := serve(s, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "fern_http_requests_total")
}

func TestServer_Shutdown(t *testing.T) {
	s := newTestServer(t, nil)
	s.http.Addr = "127.0.0.1:0"

	errCh := make(chan error, 1)
	go func() { errCh <- s.Start() }()

	require.NoError(t, s.Shutdown(context.Background()))
	assert.NoError(t, <-errCh)
}
