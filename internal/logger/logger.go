package logger

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

var log = newLogger("info", "text", os.Stdout)

// Init replaces the process logger. Unknown levels fall back to info and
// unknown formats to text.
func Init(level, format string) {
	log = newLogger(level, format, os.Stdout)
}

// SetOutput redirects the process logger, mostly for tests.
func SetOutput(w io.Writer) {
	log.SetOutput(w)
}

func newLogger(level, format string, out io.Writer) *logrus.Logger {
	l := logrus.New()

	lvl, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	switch format {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	l.SetOutput(out)
	return l
}

func L() *logrus.Logger {
	return log
}

// WithContext returns an entry tagged with the request id chi stored in ctx.
func WithContext(ctx context.Context) *logrus.Entry {
	entry := logrus.NewEntry(log)
	if id := middleware.GetReqID(ctx); id != "" {
		entry = entry.WithField("request_id", id)
	}
	return entry
}
