package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New builds a configured logrus logger. Explicit construction, no package
// global: parallel test instances get independent loggers.
func New(level string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
		log.Warnf("invalid log level %q, defaulting to info", level)
	}
	log.SetLevel(parsed)

	return log
}

// NewNop returns a logger that discards everything; for tests.
func NewNop() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	log.SetLevel(logrus.PanicLevel)
	return log
}
