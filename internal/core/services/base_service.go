package services

import (
	"context"
	"log/slog"
)

// BaseService provides the shared logging helpers for all services.
type BaseService struct {
	Logger *slog.Logger
}

// GetLogger returns the service logger, falling back to the default logger
// when none was injected.
func (s *BaseService) GetLogger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// LogError logs an error with consistent formatting.
func (s *BaseService) LogError(_ context.Context, err error, msg string, keyvals ...any) {
	args := make([]any, 0, len(keyvals)+1)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	s.GetLogger().Error(msg, args...)
}

// LogWarn logs a warning with consistent formatting.
func (s *BaseService) LogWarn(_ context.Context, msg string, keyvals ...any) {
	s.GetLogger().Warn(msg, keyvals...)
}

// LogInfo logs an info message with consistent formatting.
func (s *BaseService) LogInfo(_ context.Context, msg string, keyvals ...any) {
	s.GetLogger().Info(msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting.
func (s *BaseService) LogDebug(_ context.Context, msg string, keyvals ...any) {
	s.GetLogger().Debug(msg, keyvals...)
}
