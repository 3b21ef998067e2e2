// Copyright 2026 The picstash Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pslog

import (
	"fmt"
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func (lv Level) toZapLevel() zapcore.Level {
	switch lv {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelInfo:
		return zapcore.InfoLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	case LevelFatal:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

func newZapConfig(lv Level) zap.Config {
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(lv.toZapLevel())
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	return config
}

// NewZapLogger returns a Logger backed by a production zap logger.
// It is installed by the server entrypoint via SetLogger.
func NewZapLogger(lv Level) Logger {
	logger, err := newZapConfig(lv).Build()
	if err != nil {
		panic(fmt.Sprintf("failed to create logger: %v", err))
	}
	return &zapLogger{logger: logger.Sugar(), level: lv}
}

type zapLogger struct {
	logger *zap.SugaredLogger
	level  Level
}

func (l *zapLogger) Debugf(format string, v ...any) {
	l.logger.Debugf(format, v...)
}

func (l *zapLogger) Infof(format string, v ...any) {
	l.logger.Infof(format, v...)
}

func (l *zapLogger) Warnf(format string, v ...any) {
	l.logger.Warnf(format, v...)
}

func (l *zapLogger) Errorf(format string, v ...any) {
	l.logger.Errorf(format, v...)
}

func (l *zapLogger) Fatalf(format string, v ...any) {
	l.logger.Fatalf(format, v...)
}

func (l *zapLogger) Debug(v ...any) {
	l.logger.Debug(v...)
}

func (l *zapLogger) Info(v ...any) {
	l.logger.Info(v...)
}

func (l *zapLogger) Warn(v ...any) {
	l.logger.Warn(v...)
}

func (l *zapLogger) Error(v ...any) {
	l.logger.Error(v...)
}

func (l *zapLogger) Fatal(v ...any) {
	l.logger.Fatal(v...)
}

func (l *zapLogger) SetLevel(level Level) {
	// Zap levels are fixed at construction, so rebuild the logger.
	logger, err := newZapConfig(level).Build()
	if err != nil {
		panic(fmt.Sprintf("failed to create logger: %v", err))
	}
	l.logger = logger.Sugar()
	l.level = level
}

func (l *zapLogger) SetOutput(w io.Writer) {
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(newZapConfig(l.level).EncoderConfig),
		zapcore.AddSync(w),
		l.level.toZapLevel(),
	)
	l.logger = zap.New(core).Sugar()
}
