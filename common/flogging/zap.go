/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package flogging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewZapLogger creates a zap logger around a new zap.Core. The core will use
// the provided encoder and sinks and a level enabler that is associated with
// the provided logger name. The logger that is returned will be named the same
// as the logger.
func NewZapLogger(core zapcore.Core, options ...zap.Option) *zap.Logger {
	return zap.New(
		core,
		append([]zap.Option{
			zap.AddCaller(),
			zap.AddStacktrace(zapcore.ErrorLevel),
		}, options...)...,
	)
}

// NewLogger creates a logger that delegates to the zap.SugaredLogger.
func NewLogger(l *zap.Logger, options ...zap.Option) *Logger {
	return &Logger{
		s: l.WithOptions(append(options, zap.AddCallerSkip(1))...).Sugar(),
	}
}

// A Logger is an adapter around a zap.SugaredLogger.
//
// Methods without a formatting suffix (f or w) build the log entry message
// with fmt.Sprintln instead of fmt.Sprint so that arguments are separated
// by spaces.
type Logger struct{ s *zap.SugaredLogger }

func (f *Logger) Debug(args ...interface{})                   { f.s.Debugf(formatArgs(args)) }
func (f *Logger) Debugf(template string, args ...interface{}) { f.s.Debugf(template, args...) }
func (f *Logger) Debugw(msg string, kvPairs ...interface{})   { f.s.Debugw(msg, kvPairs...) }
func (f *Logger) Error(args ...interface{})                   { f.s.Errorf(formatArgs(args)) }
func (f *Logger) Errorf(template string, args ...interface{}) { f.s.Errorf(template, args...) }
func (f *Logger) Errorw(msg string, kvPairs ...interface{})   { f.s.Errorw(msg, kvPairs...) }
func (f *Logger) Fatal(args ...interface{})                   { f.s.Fatalf(formatArgs(args)) }
func (f *Logger) Fatalf(template string, args ...interface{}) { f.s.Fatalf(template, args...) }
func (f *Logger) Fatalw(msg string, kvPairs ...interface{})   { f.s.Fatalw(msg, kvPairs...) }
func (f *Logger) Info(args ...interface{})                    { f.s.Infof(formatArgs(args)) }
func (f *Logger) Infof(template string, args ...interface{})  { f.s.Infof(template, args...) }
func (f *Logger) Infow(msg string, kvPairs ...interface{})    { f.s.Infow(msg, kvPairs...) }
func (f *Logger) Panic(args ...interface{})                   { f.s.Panicf(formatArgs(args)) }
func (f *Logger) Panicf(template string, args ...interface{}) { f.s.Panicf(template, args...) }
func (f *Logger) Warn(args ...interface{})                    { f.s.Warnf(formatArgs(args)) }
func (f *Logger) Warnf(template string, args ...interface{})  { f.s.Warnf(template, args...) }
func (f *Logger) Warnw(msg string, kvPairs ...interface{})    { f.s.Warnw(msg, kvPairs...) }

func (f *Logger) Named(name string) *Logger { return &Logger{s: f.s.Named(name)} }
func (f *Logger) Sync() error               { return f.s.Sync() }
func (f *Logger) Zap() *zap.Logger          { return f.s.Desugar() }

func (f *Logger) IsEnabledFor(level zapcore.Level) bool {
	return f.s.Desugar().Core().Enabled(level)
}

func (f *Logger) With(args ...interface{}) *Logger {
	return &Logger{s: f.s.With(args...)}
}

func formatArgs(args []interface{}) string { return strings.TrimSuffix(fmt.Sprintln(args...), "\n") }
