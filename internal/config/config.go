package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	DatabaseURL      string // あればPOSTGRES_*より優先
	PostgresUser     string // DBユーザー
	PostgresPassword string // DBパスワード
	PostgresDB       string // DB名
	PostgresHost     string // DBホスト（localhost）
	PostgresPort     int    // DBポート（5432）
	PostgresSSLMode  string

	JWTSecret  string        // JWT署名シークレット
	JWTTTL     time.Duration // アクセストークンの有効期限
	BcryptCost int

	GoEnv     string // dev/prod
	LogLevel  string // debug/info/warn/error
	LogFormat string // json/console

	RedisAddr         string // 空ならキャッシュなし
	PromotionCacheTTL time.Duration

	// 起動時に管理者を用意する（両方あるときだけ）
	AdminEmail    string
	AdminPassword string
}

// Loadは環境変数（.envがあればそれも）から読む
func Load() (Config, error) {
	// .env は無くてもよい
	_ = godotenv.Load()

	pgPort, err := getEnvAsInt("POSTGRES_PORT", 5432)
	if err != nil {
		return Config{}, err
	}
	ttlMin, err := getEnvAsInt("JWT_TTL_MINUTES", 60)
	if err != nil {
		return Config{}, err
	}
	cacheSec, err := getEnvAsInt("PROMOTION_CACHE_TTL_SECONDS", 60)
	if err != nil {
		return Config{}, err
	}
	cost, err := getEnvAsInt("BCRYPT_COST", 12)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port: getEnv("PORT", "8080"),

		DatabaseURL:      os.Getenv("DATABASE_URL"),
		PostgresUser:     getEnv("POSTGRES_USER", "postgres"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "postgres"),
		PostgresDB:       getEnv("POSTGRES_DB", "app"),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     pgPort,
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		JWTSecret:  os.Getenv("JWT_SECRET"),
		JWTTTL:     time.Duration(ttlMin) * time.Minute,
		BcryptCost: cost,

		GoEnv:     getEnv("GO_ENV", "dev"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		RedisAddr:         os.Getenv("REDIS_ADDR"),
		PromotionCacheTTL: time.Duration(cacheSec) * time.Second,

		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// 必須・範囲チェック
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL_MINUTES must be positive")
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("invalid POSTGRES_PORT: %d", c.PostgresPort)
	}
	// bcrypt.MinCost..bcrypt.MaxCost
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("invalid BCRYPT_COST: %d", c.BcryptCost)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid LOG_LEVEL: %s (must be debug, info, warn, or error)", c.LogLevel)
	}
	if c.LogFormat != "json" && c.LogFormat != "console" {
		return fmt.Errorf("invalid LOG_FORMAT: %s (must be json or console)", c.LogFormat)
	}
	return nil
}

// DSN はgormに渡す接続文字列
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode,
	)
}

// Addr は ":8080" 形式
func (c Config) Addr() string {
	if c.Port != "" && c.Port[0] == ':' {
		return c.Port
	}
	return ":" + c.Port
}

func (c Config) IsProd() bool {
	return c.GoEnv == "prod"
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvAsInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}
