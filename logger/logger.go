package logger

import (
	"context"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ILogger interface {
	Debugf(ctx context.Context, msg string, args ...interface{})
	Infof(ctx context.Context, msg string, args ...interface{})
	Warnf(ctx context.Context, msg string, args ...interface{})
	Errorf(ctx context.Context, msg string, args ...interface{})
	DPanicf(ctx context.Context, msg string, args ...interface{})
	Panicf(ctx context.Context, msg string, args ...interface{})
}

type Logger struct {
	level         string
	name          string
	output        io.Writer
	DefaultLogger *zap.Logger
}

func (log *Logger) Debugf(ctx context.Context, msg string, args ...interface{}) {
	log.DefaultLogger.Sugar().Debugf(msg, args...)
}

func (log *Logger) Infof(ctx context.Context, msg string, args ...interface{}) {
	log.DefaultLogger.Sugar().Infof(msg, args...)
}

func (log *Logger) Warnf(ctx context.Context, msg string, args ...interface{}) {
	log.DefaultLogger.Sugar().Warnf(msg, args...)
}

func (log *Logger) Errorf(ctx context.Context, msg string, args ...interface{}) {
	log.DefaultLogger.Sugar().Errorf(msg, args...)
}

func (log *Logger) DPanicf(ctx context.Context, msg string, args ...interface{}) {
	log.DefaultLogger.Sugar().DPanicf(msg, args...)
}

func (log *Logger) Panicf(ctx context.Context, msg string, args ...interface{}) {
	log.DefaultLogger.Sugar().Panicf(msg, args...)
}

func (log *Logger) Fatalf(ctx context.Context, msg string, args ...interface{}) {
	log.DefaultLogger.Sugar().Fatalf(msg, args...)
}

func (log *Logger) Sync() error {
	return log.DefaultLogger.Sync()
}

func newDefaultLogger(level string, name string, output io.Writer) (*zap.Logger, error) {

	pe := zap.NewProductionEncoderConfig()
	pe.EncodeTime = zapcore.ISO8601TimeEncoder

	encoder := zapcore.NewJSONEncoder(pe)

	if output == nil {
		output = os.Stdout
	}
	syncer := zapcore.AddSync(output)

	zaplevel := zap.InfoLevel

	switch level {
	case "":
	case "dev":
		zaplevel = zap.DPanicLevel
	default:
		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, err
		}
		zaplevel = parsed
	}

	core := zapcore.NewCore(encoder, syncer, zap.NewAtomicLevelAt(zaplevel))

	logger := zap.New(core, zap.WithCaller(false))
	if name != "" {
		logger = logger.Named(name)
	}

	return logger, nil
}

type Option func(*Logger)

func WithLevel(level string) Option {
	return func(logger *Logger) {
		logger.level = level
	}
}

func WithName(name string) Option {
	return func(logger *Logger) {
		logger.name = name
	}
}

func WithOutput(output io.Writer) Option {
	return func(logger *Logger) {
		logger.output = output
	}
}

func NewLogger(opts ...Option) (*Logger, error) {
	logger := &Logger{}

	for _, opt := range opts {
		opt(logger)
	}

	defaultLogger, err := newDefaultLogger(logger.level, logger.name, logger.output)
	if err != nil {
		return nil, err
	}

	logger.DefaultLogger = defaultLogger
	return logger, nil
}

// NewNopLogger discards everything, used where no logger is configured.
func NewNopLogger() *Logger {
	return &Logger{DefaultLogger: zap.NewNop()}
}
