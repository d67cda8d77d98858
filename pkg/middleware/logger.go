package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/pkg/context"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// quietPrefixes are polled by scrapers and health checks; their requests log at debug.
var quietPrefixes = []string{"/metrics", "/api/v1/health"}

// Logger writes one access log line per request once the error handler has
// set the final status. Server errors log at error, client errors at warn.
func Logger(logger ectologger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
			}

			req := c.Request()
			ctx := req.Context()
			res := c.Response()
			entry := logger.WithContext(ctx).WithFields(map[string]any{
				"request_id":    context.GetRequestID(ctx),
				"trace_id":      tracing.GetTraceID(ctx),
				"method":        req.Method,
				"route":         c.Path(),
				"uri":           req.RequestURI,
				"status":        res.Status,
				"remote_ip":     context.GetRemoteIP(ctx),
				"latency_ms":    time.Since(start).Milliseconds(),
				"response_size": res.Size,
			})

			switch {
			case res.Status >= http.StatusInternalServerError:
				entry.Errorf("%s %s -> %d", req.Method, c.Path(), res.Status)
			case res.Status >= http.StatusBadRequest:
				entry.Warnf("%s %s -> %d", req.Method, c.Path(), res.Status)
			case isQuiet(req.URL.Path):
				entry.Debug("Request")
			default:
				entry.Info("Request")
			}
			return nil
		}
	}
}

func isQuiet(path string) bool {
	for _, prefix := range quietPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
