package config

import (
	"fmt"
	"os"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	DatabaseURL string // DB接続文字列（あればこちらを優先）

	JWTSecret string // JWT署名シークレット

	RabbitMQURL string // 注文イベント用。空なら発行しない

	GoEnv string // development/production
}

// Loadは環境変数
func Load() (Config, error) {
	cfg := Config{
		Port: os.Getenv("PORT"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		RabbitMQURL: os.Getenv("RABBITMQ_URL"),

		GoEnv: os.Getenv("GO_ENV"),
	}

	//必須チェック
	if cfg.Port == "" {
		return Config{}, fmt.Errorf("PORT is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.GoEnv == "" {
		return Config{}, fmt.Errorf("GO_ENV is required")
	}

	//DATABASE_URLが無いときはPOSTGRES_*が必須
	if cfg.DatabaseURL == "" {
		for _, key := range []string{"POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB", "POSTGRES_HOST", "POSTGRES_PORT"} {
			if os.Getenv(key) == "" {
				return Config{}, fmt.Errorf("%s is required when DATABASE_URL is not set", key)
			}
		}
	}

	return cfg, nil
}
