package main

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger returns the command's logger, building it on first use.
// Without the verbose flag only info and above reach stderr.
func (rcc *rootCmdConfig) Logger() *zap.SugaredLogger {
	if rcc.logger == nil {
		level := zapcore.InfoLevel
		if rcc.verbose {
			level = zapcore.DebugLevel
		}
		encoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		core := zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level)
		rcc.logger = zap.New(core).Sugar()
	}
	return rcc.logger
}
