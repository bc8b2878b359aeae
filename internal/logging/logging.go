// Package logging собирает zap-логгер приложения.
package logging

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a SugaredLogger writing development-style lines to console
// and, when file is set, JSON lines to that file. The returned func
// flushes and closes the sinks.
func New(level, file string, console io.Writer) (*zap.SugaredLogger, func(), error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, nil, fmt.Errorf("log level %q: %w", level, err)
	}
	if console == nil {
		console = os.Stderr
	}

	consoleCfg := zap.NewDevelopmentEncoderConfig()
	consoleCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.AddSync(console), lvl),
	}

	closeFile := func() {}
	if file != "" {
		sink, closer, err := zap.Open(file)
		if err != nil {
			return nil, nil, fmt.Errorf("log file %q: %w", file, err)
		}
		closeFile = closer
		fileCfg := zap.NewProductionEncoderConfig()
		fileCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileCfg), sink, lvl))
	}

	logger := zap.New(zapcore.NewTee(cores...))
	cleanup := func() {
		_ = logger.Sync()
		closeFile()
	}
	return logger.Sugar(), cleanup, nil
}
