// internal/infra/logger/logger.go
package logger

import (
	"io"
	"os"
	"strings"

	"daily_revelation_bot/internal/infra/config"

	"github.com/sirupsen/logrus"
)

// Log is the process-wide logger; components take entries from it via For.
var Log = logrus.New()

// Init points the global logger at stdout with the configured level and format.
func Init(cfg *config.AppConfig) {
	Configure(Log, cfg.LogLevel, cfg.Environment, os.Stdout)
	Log.WithFields(logrus.Fields{
		"level":       Log.GetLevel().String(),
		"environment": cfg.Environment,
	}).Info("Logger initialized")
}

// Configure applies level and format to l. An unknown level falls back to info;
// production and staging log JSON.
func Configure(l *logrus.Logger, level, environment string, out io.Writer) {
	l.SetOutput(out)

	parsed, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		parsed = logrus.InfoLevel
	}
	l.SetLevel(parsed)

	switch strings.ToLower(environment) {
	case "production", "staging":
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	default:
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05"})
	}

	if err != nil {
		l.WithField("requested", level).Warn("Unknown log level, using info")
	}
}

// For returns an entry tagged with the component name.
func For(component string) *logrus.Entry {
	return Log.WithField("component", component)
}
