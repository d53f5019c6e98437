package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Loggers used across the application. They default to no-op loggers so that
// packages and tests can log without calling InitLoggers first.
var (
	ErrorLogger   = zap.NewNop()
	AuditLogger   = zap.NewNop()
	RequestLogger = zap.NewNop()
	SystemLogger  = zap.NewNop()
)

func encoderConfig() zapcore.EncoderConfig {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return encoderCfg
}

func newLogger(ws zapcore.WriteSyncer, level zapcore.Level, name string) *zap.Logger {
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig()),
		ws,
		level,
	)
	return zap.New(core).Named(name)
}

func fileSyncer(dir, file string) (zapcore.WriteSyncer, error) {
	f, err := os.OpenFile(filepath.Join(dir, file), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return zapcore.AddSync(f), nil
}

// InitLoggers builds the application loggers. With an empty dir every logger
// writes JSON lines to stdout, otherwise each one gets its own file in dir.
func InitLoggers(dir string) error {
	specs := []struct {
		target **zap.Logger
		file   string
		name   string
		level  zapcore.Level
	}{
		{&ErrorLogger, "errors.log", "error", zapcore.ErrorLevel},
		{&AuditLogger, "audit.log", "audit", zapcore.InfoLevel},
		{&RequestLogger, "request.log", "request", zapcore.InfoLevel},
		{&SystemLogger, "system.log", "system", zapcore.InfoLevel},
	}

	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create log dir: %w", err)
		}
	}

	for _, s := range specs {
		ws := zapcore.Lock(os.Stdout)
		if dir != "" {
			var err error
			ws, err = fileSyncer(dir, s.file)
			if err != nil {
				return fmt.Errorf("cannot create %s logger: %w", s.name, err)
			}
		}
		*s.target = newLogger(ws, s.level, s.name)
	}
	return nil
}

func SyncLoggers() {
	_ = ErrorLogger.Sync()
	_ = AuditLogger.Sync()
	_ = RequestLogger.Sync()
	_ = SystemLogger.Sync()
}
