package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

type Env string

const (
	EnvDev   Env = "dev"
	EnvStage Env = "stage"
	EnvProd  Env = "prod"
)

type Backend string

const (
	BackendStd Backend = "std" // slog text handler
	BackendZap Backend = "zap" // zap JSON core через slog-zap
)

type Config struct {
	Service    string
	Version    string
	InstanceID string

	Level     slog.Level
	Env       Env
	Backend   Backend // default: std for dev, zap otherwise
	Debug     bool
	AddSource bool

	// Zap sampling per second.
	SampleInitial    int
	SampleThereafter int

	// Output defaults to os.Stdout.
	Output io.Writer
}

// DetectEnv reads APP_ENV.
func DetectEnv() Env {
	return ParseEnv(os.Getenv("APP_ENV"))
}

func ParseEnv(raw string) Env {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "prod", "production":
		return EnvProd
	case "stage", "staging", "preprod", "pre-production":
		return EnvStage
	default:
		return EnvDev
	}
}

func (c Config) level() slog.Level {
	if c.Debug && c.Level == 0 {
		return slog.LevelDebug
	}
	return c.Level
}

func (c Config) output() io.Writer {
	if c.Output != nil {
		return c.Output
	}
	return os.Stdout
}
