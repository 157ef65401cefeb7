// Package baseserver bundles the shared daemon dependencies: parsed
// environment, configuration and the process logger.
package baseserver

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"

	"github.com/reifyhq/reify/internals/assert"
	"github.com/reifyhq/reify/internals/conf"
	"github.com/reifyhq/reify/internals/env"
)

type BaseServer struct {
	Config *conf.Config
	Env    *env.EnvStruct
	Logger *slog.Logger
}

func New() *BaseServer {
	envs := env.Get()
	config := conf.GetConfig()
	if envs.PLATFORM_URL != "" {
		config.Platform.BaseURL = envs.PLATFORM_URL
	}

	logger := initLogger(config)

	return &BaseServer{
		Config: config,
		Env:    envs,
		Logger: logger,
	}
}

func initLogger(config *conf.Config) *slog.Logger {
	logPath := filepath.Join(config.Server.DataDir, "log.txt")
	err := os.MkdirAll(filepath.Dir(logPath), 0o755)
	assert.Nil(err, "[SERVER] Failed to initialize log directory")
	logFile, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	assert.Nil(err, "[SERVER] Failed to open log file")

	writer := io.MultiWriter(os.Stdout, logFile)
	handler := tint.NewHandler(writer, &tint.Options{
		Level:   slog.LevelDebug,
		NoColor: !isatty.IsTerminal(os.Stdout.Fd()),
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
