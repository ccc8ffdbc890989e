package config

import (
	"errors"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type HTTP struct {
	Addr            string   `yaml:"addr"`
	AllowedOrigins  []string `yaml:"allowedOrigins"`
	ShutdownTimeout string   `yaml:"shutdownTimeout"` // duration, default 10s
}

type Logging struct {
	Env       string `yaml:"env"`     // dev|prod
	Service   string `yaml:"service"` // poll-service
	Version   string `yaml:"version"` // v0.1.0
	Backend   string `yaml:"backend"` // std|zap
	AddSource bool   `yaml:"addSource"`
	Debug     bool   `yaml:"debug"`
}

type Postgres struct {
	DSN string `yaml:"dsn"`
}

type JWT struct {
	Secret string `yaml:"secret"` // переопределяется через JWT_SECRET
	Issuer string `yaml:"issuer"`
	TTL    string `yaml:"ttl"` // duration, default 720h
}

type Config struct {
	HTTP     HTTP     `yaml:"http"`
	Logging  Logging  `yaml:"logging"`
	Postgres Postgres `yaml:"postgres"`
	JWT      JWT      `yaml:"jwt"`
}

func LoadConfig() (*Config, error) {
	// .env опционален, переменные уже заданные в окружении не трогает
	_ = godotenv.Load()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config/config.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("http.addr is required")
	}
	if c.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	// секрет из окружения имеет приоритет над файлом
	if s := os.Getenv("JWT_SECRET"); s != "" {
		c.JWT.Secret = s
	}
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required (jwt.secret or JWT_SECRET)")
	}
	// установка дефолтов, если значения не указаны
	if c.Logging.Service == "" {
		c.Logging.Service = "poll-service"
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "dev"
	}
	if c.Logging.Version == "" {
		c.Logging.Version = "v0.1.0"
	}
	if c.Logging.Backend == "" {
		c.Logging.Backend = "std"
	}
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "poll-service"
	}
	if len(c.HTTP.AllowedOrigins) == 0 {
		c.HTTP.AllowedOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	}
	return nil
}

func (c *Config) JWTTTL() time.Duration {
	return parseDurationOr(720*time.Hour, c.JWT.TTL)
}

func (c *Config) ShutdownTimeout() time.Duration {
	return parseDurationOr(10*time.Second, c.HTTP.ShutdownTimeout)
}

// helper для парсинга timeout-ов
func parseDurationOr(def time.Duration, s string) time.Duration {
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return def
}
