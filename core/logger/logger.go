package logger

// Logger is the logging interface used across core packages. Implementations
// live under infra/logger so core stays free of logging dependencies.
type Logger interface {
	Debugf(format string, args ...any)
	Debugw(msg string, fields map[string]any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}
