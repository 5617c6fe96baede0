package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps the zap logger used across the engine, optimizer and CLI.
type Logger struct {
	*zap.Logger
}

// Options controls how NewLoggerWithOptions builds the underlying zap logger.
type Options struct {
	Level       zapcore.Level
	Development bool
	OutputPaths []string
}

// NewLogger creates a new logger instance with production configuration
func NewLogger() (*Logger, error) {
	return NewLoggerWithOptions(Options{
		Level:       zapcore.InfoLevel,
		OutputPaths: []string{"stdout"},
	})
}

// NewLoggerWithOptions builds a logger for the given level and outputs.
func NewLoggerWithOptions(opts Options) (*Logger, error) {
	config := zap.NewProductionConfig()
	if opts.Development {
		config = zap.NewDevelopmentConfig()
	}

	config.OutputPaths = opts.OutputPaths
	if len(config.OutputPaths) == 0 {
		config.OutputPaths = []string{"stdout"}
	}

	config.ErrorOutputPaths = []string{"stderr"}
	config.Level = zap.NewAtomicLevelAt(opts.Level)

	zapLogger, err := config.Build()
	if err != nil {
		return nil, err
	}

	return &Logger{
		Logger: zapLogger,
	}, nil
}

// NewNopLogger returns a logger that discards everything. Optimizer workers
// and tests use it to keep output quiet.
func NewNopLogger() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// Sync flushes any buffered log entries
func (l *Logger) Sync() error {
	if l.Logger != nil {
		return l.Logger.Sync()
	}

	return nil
}
