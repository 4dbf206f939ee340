package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// RequestLogger writes one access log entry per request.
// Status >= 500 logs at error, >= 400 at warn, everything else at info.
func RequestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				// render the error now so the logged status is the one the client sees
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()
			status := res.Status

			var evt *zerolog.Event
			switch {
			case status >= http.StatusInternalServerError:
				evt = log.Error()
			case status >= http.StatusBadRequest:
				evt = log.Warn()
			default:
				evt = log.Info()
			}

			evt.Str("method", req.Method).
				Str("path", req.URL.Path).
				Str("route", c.Path()).
				Int("status", status).
				Dur("latency", time.Since(start)).
				Str("ip", c.RealIP()).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Int64("bytes_out", res.Size)
			if p, ok := PrincipalFrom(c); ok {
				evt.Str("user_id", p.ID)
			}
			evt.Msg("http request")

			return nil
		}
	}
}
