package middleware

import (
	"time"

	applogger "SignalBatch/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RequestLogging emits one structured line per request. 5xx responses
// log at error level so they surface in aggregation.
func RequestLogging(l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			if l == nil {
				return err
			}

			fields := []applogger.Field{
				applogger.String("method", c.Request().Method),
				applogger.String("path", c.Path()),
				applogger.String("remote", c.RealIP()),
				applogger.Int("status", c.Response().Status),
				applogger.Duration("latency", time.Since(start)),
			}
			if c.Response().Status >= 500 {
				l.Error("http request", fields...)
			} else {
				l.Info("http request", fields...)
			}
			return err
		}
	}
}
