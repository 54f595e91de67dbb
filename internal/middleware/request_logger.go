package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// RequestLogger возвращает echo middleware, логирующее запросы через zap.
func RequestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			req := c.Request()
			res := c.Response()

			fields := []zap.Field{
				zap.String("method", req.Method),
				zap.String("uri", req.RequestURI),
				zap.String("remote_ip", c.RealIP()),
			}
			if id := req.Header.Get(echo.HeaderXRequestID); id != "" {
				fields = append(fields, zap.String("request_id", id))
			}

			err := next(c)

			fields = append(fields,
				zap.Int("status", res.Status),
				zap.Duration("latency", time.Since(start)),
			)

			if err != nil {
				log.Error("Handler error", append(fields, zap.Error(err))...)
				return err
			}

			switch {
			case res.Status >= http.StatusInternalServerError:
				log.Error("Server error", fields...)
			case res.Status >= http.StatusBadRequest:
				log.Warn("Client error", fields...)
			default:
				log.Info("Request handled", fields...)
			}
			return nil
		}
	}
}
