package logging

import (
	"context"
	"sync"
)

// LoggerFactory lets an embedding application route this module's logs into
// its own logger. When none is set, NewLogger falls back to logrus.
type LoggerFactory interface {
	CreateLogger(ctx context.Context) Logger
}

// LoggerFactoryFunc adapts a plain function to LoggerFactory.
type LoggerFactoryFunc func(ctx context.Context) Logger

func (f LoggerFactoryFunc) CreateLogger(ctx context.Context) Logger {
	return f(ctx)
}

var (
	loggerFactoryMu sync.RWMutex
	loggerFactory   LoggerFactory
)

// SetLoggerFactory installs factory and returns the one it replaced. Passing
// nil restores the logrus default.
func SetLoggerFactory(factory LoggerFactory) LoggerFactory {
	loggerFactoryMu.Lock()
	defer loggerFactoryMu.Unlock()

	previous := loggerFactory
	loggerFactory = factory
	return previous
}

func GetLoggerFactory() LoggerFactory {
	loggerFactoryMu.RLock()
	defer loggerFactoryMu.RUnlock()

	return loggerFactory
}
