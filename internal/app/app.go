package app

import (
	"go.uber.org/zap"

	"matrixchat/internal/logger"
)

// App is the shared context handed to every command.
type App struct {
	Config Config
	Log    *zap.Logger
	*Wire
}

// New builds the logger and the dependency graph from cfg.
func New(cfg Config) (*App, error) {
	if err := cfg.ResolveHome(); err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	logger.RedirectStdLog(log)
	return &App{Config: cfg, Log: log, Wire: NewWire(cfg, log)}, nil
}

// Close flushes buffered log entries.
func (a *App) Close() {
	_ = a.Log.Sync()
}
