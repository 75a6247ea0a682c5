package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log is the process-wide logger. It discards everything until Init is called.
var Log = zap.NewNop().Sugar()

var stderr zapcore.WriteSyncer = zapcore.Lock(os.Stderr)

var encCfg = zapcore.EncoderConfig{
	TimeKey:       "ts",
	LevelKey:      "level",
	NameKey:       "logger",
	CallerKey:     "caller",
	MessageKey:    "msg",
	StacktraceKey: "stack",
	LineEnding:    zapcore.DefaultLineEnding,
	EncodeLevel:   zapcore.CapitalLevelEncoder,
	EncodeTime:    zapcore.ISO8601TimeEncoder,
	EncodeCaller:  zapcore.ShortCallerEncoder,
}

// Init logs to stderr and, when filePath is set, to a rotating file. On error
// Log still writes to stderr at info level so the caller can report it.
func Init(filePath, level string) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		Log = build(zapcore.InfoLevel, stderr)
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	sinks := []zapcore.WriteSyncer{stderr}
	if filePath != "" {
		// 10MB per file, 3 backups, 7 days
		sinks = append(sinks, zapcore.AddSync(&lumberjack.Logger{
			Filename:   filePath,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     7,
		}))
	}

	Log = build(lvl, sinks...)
	return nil
}

func build(lvl zapcore.Level, sinks ...zapcore.WriteSyncer) *zap.SugaredLogger {
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.NewMultiWriteSyncer(sinks...), lvl)
	return zap.New(core, zap.AddCaller()).Sugar()
}

// Sync flushes buffered entries.
func Sync() {
	if Log != nil {
		_ = Log.Sync()
	}
}
