package db

import (
	"fmt"
	"time"

	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/config"
	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/domain/model"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Connect はDBに接続して *gorm.DB を返す。
func Connect(cfg config.Config, logger zerolog.Logger) (*gorm.DB, error) {
	return Open(cfg.DSN(), logger)
}

// Open はDSNを直接渡す版（テストコンテナ用）
func Open(dsn string, logger zerolog.Logger) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.New(&logger, gormlogger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return gdb, nil
}

// Migrate はテーブルを作る（親→子の順）
func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(
		&model.User{},
		&model.Category{},
		&model.Product{},
		&model.Cart{},
		&model.CartItem{},
		&model.Promotion{},
		&model.PromotionProduct{},
		&model.PromotionCategory{},
		&model.Order{},
		&model.OrderItem{},
		&model.Payment{},
		&model.InventoryAdjustment{},
		&model.AuditLog{},
	); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
