package logger

import (
	"log/slog"
	"os"
	"strings"
)

type Env string

const (
	EnvDev  Env = "dev"
	EnvProd Env = "prod"
)

func DetectEnv() Env {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("APP_ENV"))) {
	case "prod", "production":
		return EnvProd
	default:
		return EnvDev
	}
}

type Backend string

const (
	BackendStd Backend = "std" // text на stdout, для dev
	BackendZap Backend = "zap" // JSON через slog-zap, для prod
)

type Config struct {
	// Метаданные сервиса
	Service    string
	Version    string
	InstanceID string

	// Управление выводом
	Level   slog.Level
	Env     Env
	Backend Backend // пусто: std в dev, zap в prod
	Debug   bool

	// Zap sampling
	SampleInitial    int
	SampleThereafter int

	AddSource bool
}
