package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/config"
	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/middleware"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
)

// New は共通ミドルウェアとルートを載せた echo を作る
func New(cfg config.Config, logger zerolog.Logger, h Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	//順番: request id → ロガーを ctx へ → アクセスログ → recover
	e.Use(echomw.RequestID())
	e.Use(middleware.ContextLogger(logger))
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())

	RegisterRoutes(e, middleware.AuthJWT(cfg), h)
	return e
}

// Start は ctx が終わるまで待ち、終わったら graceful shutdown する
func Start(ctx context.Context, e *echo.Echo, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
