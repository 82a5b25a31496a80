package middleware

import (
	"net/http"
	"runtime/debug"

	applogger "SignalBatch/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Recover converts handler panics into a 500 response instead of tearing
// down the server. The stack is logged for the postmortem.
func Recover(l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			defer func() {
				if r := recover(); r != nil {
					if l != nil {
						l.Error("handler panic",
							applogger.String("path", c.Path()),
							applogger.Any("panic", r),
							applogger.String("stack", string(debug.Stack())))
					}
					_ = c.JSON(http.StatusInternalServerError, map[string]interface{}{
						"status":  http.StatusInternalServerError,
						"message": "Internal Server Error",
					})
				}
			}()
			return next(c)
		}
	}
}
