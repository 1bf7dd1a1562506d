// Package vfslog provides the structured logging helpers used across
// fslib's backends.
//
// The calling convention — Debugf(subject, format, args...) — mirrors
// rclone's fs.Debugf/fs.Errorf family (seen throughout
// backend/union/union.go, e.g. `fs.Debugf(src, "Can't copy - not same
// remote type")`): the subject is whatever the log line is about (a
// path, a branch, a mount point), logged via its fmt.Stringer/%v form
// ahead of the formatted message.
package vfslog

import (
	"fmt"

	"go.uber.org/zap"
)

var base = newLogger()

func newLogger() *zap.SugaredLogger {
	l, err := zap.NewProduction()
	if err != nil {
		l = zap.NewNop()
	}
	return l.Sugar().Named("fslib")
}

// SetLogger replaces the package-level logger, e.g. with a development
// logger in cmd/fslib or in tests.
func SetLogger(l *zap.SugaredLogger) {
	if l == nil {
		return
	}
	base = l
}

// Debugf logs a debug-level line about subject.
func Debugf(subject interface{}, format string, args ...interface{}) {
	base.Debugf("%v: %s", subject, fmt.Sprintf(format, args...))
}

// Infof logs an info-level line about subject.
func Infof(subject interface{}, format string, args ...interface{}) {
	base.Infof("%v: %s", subject, fmt.Sprintf(format, args...))
}

// Errorf logs an error-level line about subject.
func Errorf(subject interface{}, format string, args ...interface{}) {
	base.Errorf("%v: %s", subject, fmt.Sprintf(format, args...))
}
