package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
)

// ContextLogger はリクエストIDを付けたロガーを request の context に入れる。
// usecase は zerolog.Ctx(ctx) で取り出す（RequestID ミドルウェアの後に置く）
func ContextLogger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			l := logger.With().
				Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Logger()
			c.SetRequest(req.WithContext(l.WithContext(req.Context())))
			return next(c)
		}
	}
}

// RequestLogger は1リクエスト1行のアクセスログ
func RequestLogger() echo.MiddlewareFunc {
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
			logger := zerolog.Ctx(c.Request().Context())
			ev := logger.Info()
			if v.Status >= http.StatusInternalServerError {
				ev = logger.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Msg("http request")
			return nil
		},
	})
}

// Recover は panic をログに残して 500 を返す
func Recover() echo.MiddlewareFunc {
	return echomw.RecoverWithConfig(echomw.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			zerolog.Ctx(c.Request().Context()).Error().
				Err(err).
				Bytes("stack", stack).
				Str("uri", c.Request().RequestURI).
				Msg("panic recovered")
			return err
		},
	})
}
