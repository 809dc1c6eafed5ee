package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu      sync.Mutex
	fileOut *lumberjack.Logger
)

// Options controls Init
type Options struct {
	Debug   bool
	LogFile string
	Output  io.Writer
}

// Init configures the shared logrus logger. It may be called more than
// once; the latest call wins.
func Init(opts Options) error {
	mu.Lock()
	defer mu.Unlock()

	if opts.Debug {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339})
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
		logrus.SetLevel(logrus.InfoLevel)
	}

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	if fileOut != nil {
		_ = fileOut.Close()
		fileOut = nil
	}
	if opts.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(opts.LogFile), 0o755); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
		fileOut = &lumberjack.Logger{
			Filename:   opts.LogFile,
			MaxSize:    50, // MB
			MaxBackups: 5,
			MaxAge:     14,
			Compress:   true,
		}
		out = io.MultiWriter(out, fileOut)
	}
	logrus.SetOutput(out)
	return nil
}

// Close releases the rotating file sink, if any
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if fileOut == nil {
		return nil
	}
	err := fileOut.Close()
	fileOut = nil
	return err
}

// Debug prints debug messages if debug mode is enabled
func Debug(format string, v ...interface{}) {
	logrus.Debugf(format, v...)
}

func Info(format string, v ...interface{}) {
	logrus.Infof(format, v...)
}

func Warn(format string, v ...interface{}) {
	logrus.Warnf(format, v...)
}

func Error(format string, v ...interface{}) {
	logrus.Errorf(format, v...)
}

// WithFields returns an entry carrying structured fields
func WithFields(fields logrus.Fields) *logrus.Entry {
	return logrus.WithFields(fields)
}
