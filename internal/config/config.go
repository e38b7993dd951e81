package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode     Mode   `env:"MODE" envDefault:"offline" validate:"oneof=offline online"`
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080" validate:"required"`

	DBDriver string `env:"DB_DRIVER" envDefault:"sqlite" validate:"oneof=sqlite postgres"`
	DBDSN    string `env:"DB_DSN"`

	// CacheDir holds downloaded answers and generated test files.
	CacheDir string `env:"CACHE_DIR" envDefault:"./submissions" validate:"required"`

	AuthSecret    string `env:"AUTH_HMAC_SECRET" envDefault:"supersecret-dev-key" validate:"min=8"`
	AdminUser     string `env:"ADMIN_USER" envDefault:"admin" validate:"required"`
	AdminPassHash string `env:"ADMIN_PASS_HASH" envDefault:"$2y$12$pyZAiWaTfVtM7UElIRStvOC3gNbnp70nmQU4eYopLGBfCJr1DOvji"` // bcrypt

	CORSOrigins []string `env:"CORS_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text" validate:"oneof=text json"`

	PythonBin   string        `env:"PYTHON_BIN" envDefault:"python3" validate:"required"`
	CodeTimeout time.Duration `env:"CODE_TIMEOUT" envDefault:"30s" validate:"gt=0"`
	Workers     int           `env:"WORKERS" envDefault:"4" validate:"gte=1"`

	YandexToken string  `env:"YANDEX_TOKEN"`
	FetchRPS    float64 `env:"FETCH_RPS" envDefault:"5" validate:"gte=0"`
}

// FromEnv loads and validates the process configuration.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
