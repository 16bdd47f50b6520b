package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/clock"
	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/config"
	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/handler"
	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/infra/cache"
	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/infra/db"
	infraRepo "github.com/gulzar72441/FastEndpoints-Ecommerce/internal/infra/repository"
	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/server"
	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/usecase"
	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/validator"

	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := bootLogger(os.Stderr)
		boot.Fatal().Err(err).Msg("load config")
	}
	logger := config.NewLogger(cfg)
	ctx := logger.WithContext(context.Background())

	//DB接続
	gormDB, err := db.Connect(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	if err := db.Migrate(gormDB); err != nil {
		logger.Fatal().Err(err).Msg("migrate")
	}

	clk := clock.Real{}
	tx := infraRepo.NewTxManagerGorm(gormDB, clk)

	//REDIS_ADDR が無ければキャッシュなし
	var promoCache usecase.PromotionCache
	if cfg.RedisAddr != "" {
		client := cache.NewClient(cfg.RedisAddr)
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable, promotion cache disabled")
		} else {
			promoCache = cache.NewPromotionRedisCache(client, cfg.PromotionCacheTTL)
		}
	}

	//usecaseに渡す部品
	ids := usecase.UUIDGenerator{}
	numbers := usecase.RandomOrderNumbers{}
	issuer := usecase.JWTIssuer{Secret: []byte(cfg.JWTSecret), TTL: cfg.JWTTTL, Clock: clk}

	//Usecase生成
	authUC := usecase.NewAuthUsecase(tx, validator.NewAuthValidator(), issuer, cfg.BcryptCost)
	productUC := usecase.NewProductUsecase(tx)
	promotionUC := usecase.NewPromotionUsecase(tx, promoCache, clk)
	cartUC := usecase.NewCartUsecase(tx, promotionUC)
	checkoutUC := usecase.NewCheckoutUsecase(tx, clk, ids, numbers)
	orderUC := usecase.NewOrderUsecase(tx, clk, ids, numbers)
	adminOrderUC := usecase.NewAdminOrderUsecase(tx, clk)

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if err := authUC.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			logger.Fatal().Err(err).Msg("ensure admin")
		}
	}

	//Handler生成
	e := server.New(cfg, logger, server.Handlers{
		Auth:         handler.NewAuthHandler(authUC),
		Product:      handler.NewProductHandler(productUC, promotionUC),
		Cart:         handler.NewCartHandler(cartUC),
		Order:        handler.NewOrderHandler(orderUC, checkoutUC),
		Promotion:    handler.NewPromotionHandler(promotionUC),
		AdminOrder:   handler.NewAdminOrderHandler(adminOrderUC),
		AdminProduct: handler.NewAdminProductHandler(productUC),
	})

	//Server起動（SIGINT/SIGTERM で停止）
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info().Str("addr", cfg.Addr()).Msg("server starting")
	if err := server.Start(ctx, e, cfg.Addr()); err != nil {
		logger.Fatal().Err(err).Msg("server")
	}
	logger.Info().Msg("server stopped")
}

// 設定を読む前に使うロガー（レベルや出力先は設定に依らない）
func bootLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Str("phase", "boot").Logger()
}
