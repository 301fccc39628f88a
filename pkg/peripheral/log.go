// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Jun Wei Ho, Lumitag

package peripheral

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// Logger is the minimal logging surface the link engine needs
type Logger interface {
	Debugf(string, ...interface{})
	Infof(string, ...interface{})
	Warnf(string, ...interface{})
	Errorf(string, ...interface{})
}

var (
	logger   Logger
	loggerMu sync.Mutex
)

// SetLogger replaces the package logger
func SetLogger(l Logger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	logger = l
}

// GetLogger returns the package logger, building a logrus default on first use
func GetLogger() Logger {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	if logger == nil {
		logger = buildDefaultLogger()
	}
	return logger
}

// SetLogLevelDebug raises the default logger to debug level. Has no effect on
// a caller-supplied logger.
func SetLogLevelDebug() {
	l := GetLogger()
	if entry, ok := l.(*logrus.Entry); ok {
		entry.Logger.SetLevel(logrus.DebugLevel)
	}
}

func buildDefaultLogger() Logger {
	l := &logrus.Logger{
		Formatter: &logrus.TextFormatter{DisableTimestamp: true},
		Level:     logrus.InfoLevel,
		Out:       os.Stderr,
		Hooks:     make(logrus.LevelHooks),
	}
	return l.WithField("pkg", "peripheral")
}
