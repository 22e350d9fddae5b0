package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/shinyyama/ctrl-alt-block/internal/reqctx"
	"go.uber.org/zap"
)

// RequestID assigns X-Request-Id (keeping a caller-supplied one) and puts
// it on the request context for service logs.
func RequestID() echo.MiddlewareFunc {
	return echomw.RequestIDWithConfig(echomw.RequestIDConfig{
		Generator: uuid.NewString,
		RequestIDHandler: func(c echo.Context, rid string) {
			req := c.Request()
			c.SetRequest(req.WithContext(reqctx.WithRID(req.Context(), rid)))
		},
	})
}

// RequestLogger logs each request with method, path, status, latency and
// remote IP. 5xx logs at error, 4xx at warn.
func RequestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("remote", v.RemoteIP),
				zap.String("rid", v.RequestID),
			}
			if uid, _ := c.Get("uid").(string); uid != "" {
				fields = append(fields, zap.String("uid", uid))
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			switch {
			case v.Status >= 500:
				logger.Error("request", fields...)
			case v.Status >= 400:
				logger.Warn("request", fields...)
			default:
				logger.Info("request", fields...)
			}
			return nil
		},
	})
}
