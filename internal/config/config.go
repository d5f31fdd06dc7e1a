package config

import "github.com/caarlos0/env/v11"

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	App        AppConfig
	Auth       AuthConfig
	Slug       SlugConfig
	Clicks     ClicksConfig
	Cache      CacheConfig
	Validation ValidationConfig
	Pprof      PprofConfig
}

type ServerConfig struct {
	Host           string `env:"SERVER_HOST" envDefault:"localhost"`
	Port           int    `env:"SERVER_PORT" envDefault:"8080"`
	MaxConnections int    `env:"SERVER_MAX_CONNECTIONS" envDefault:"1024"`
}

type DatabaseConfig struct {
	Host     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	Port     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	User     string `env:"POSTGRES_USER" envDefault:"postgres"`
	Password string `env:"POSTGRES_PASSWORD" envDefault:"postgres"`
	DBName   string `env:"POSTGRES_DB" envDefault:"shortlink"`
	SSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`
}

type AppConfig struct {
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8080"`
}

type AuthConfig struct {
	JWTSecret string `env:"JWT_SECRET,required"`
}

type SlugConfig struct {
	Length      int `env:"SLUG_LENGTH" envDefault:"6"`
	MaxAttempts int `env:"SLUG_MAX_ATTEMPTS" envDefault:"5"`
}

type ClicksConfig struct {
	BufferSize     int `env:"CLICKS_BUFFER_SIZE" envDefault:"1024"`
	Workers        int `env:"CLICKS_WORKERS" envDefault:"4"`
	MaxAttempts    int `env:"CLICKS_MAX_ATTEMPTS" envDefault:"3"`
	RetryBackoffMs int `env:"CLICKS_RETRY_BACKOFF_MS" envDefault:"50"`
}

type CacheConfig struct {
	MaxSizePow2 int `env:"CACHE_MAX_SIZE_POW2" envDefault:"20"`
}

type ValidationConfig struct {
	MaxURLLength       int    `env:"MAX_URL_LENGTH" envDefault:"2048"`
	AllowPrivateIPs    bool   `env:"ALLOW_PRIVATE_IPS" envDefault:"false"`
	MaxRequestBodySize string `env:"MAX_REQUEST_BODY_SIZE" envDefault:"64K"`
}

type PprofConfig struct {
	Enabled bool   `env:"PPROF_ENABLED" envDefault:"false"`
	Secret  string `env:"PPROF_SECRET"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
