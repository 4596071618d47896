// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging builds the shared zap logger: JSON to a rotating file,
// console output in development.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New returns a logger writing JSON to logFile (rotated at 10 MB, 5
// backups, 30 days) and to stdout. An empty logFile logs to stdout only.
// In production the console output is JSON as well; otherwise it uses the
// development console encoder.
func New(logFile string, production bool) *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	jsonEnc := zapcore.NewJSONEncoder(encCfg)

	var cores []zapcore.Core

	if logFile != "" {
		rotator := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    10, // megabytes
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(jsonEnc, zapcore.AddSync(rotator), zap.InfoLevel))
	}

	consoleEnc := jsonEnc
	if !production {
		consoleEnc = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	}
	cores = append(cores, zapcore.NewCore(consoleEnc, zapcore.Lock(os.Stdout), zap.InfoLevel))

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller())
}

// Nop returns a no-op logger for tests.
func Nop() *zap.Logger { return zap.NewNop() }
