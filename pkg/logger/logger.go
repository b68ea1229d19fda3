// Package logger configures the process-wide logrus logger.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log is the application logger. Init must run before it is used.
var Log *logrus.Logger

// Init creates the logger. LOG_LEVEL selects the level (default info),
// LOG_FORMAT=json switches to JSON lines for log collectors.
func Init() {
	Log = New(os.Stdout, os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
}

// New builds a logger writing to out. An unknown level falls back to info.
func New(out io.Writer, levelName, format string) *logrus.Logger {
	l := logrus.New()

	if levelName == "" {
		levelName = "info"
	}
	level, err := logrus.ParseLevel(levelName)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	if strings.ToLower(format) == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	l.SetOutput(out)
	return l
}

// Component returns an entry tagged with the component name.
func Component(name string) *logrus.Entry {
	if Log == nil {
		Init()
	}
	return Log.WithField("component", name)
}
