// Package logger wires logrus for the server and carries a per-request
// correlation id through context.
package logger

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type contextKey string

const correlationIDKey contextKey = "correlation_id"

const CorrelationIDField = "correlation_id"

// New builds a logger for the given level and environment. Production gets
// JSON lines; anything else gets the text formatter.
func New(level string, env string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	log.SetLevel(ParseLevel(level))
	if IsDevelopment(env) {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, PadLevelText: true})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return log
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func ParseLevel(level string) logrus.Level {
	parsed, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return logrus.InfoLevel
	}
	return parsed
}

func IsDevelopment(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "", "dev", "development", "local":
		return true
	default:
		return false
	}
}

// WithCorrelationID stores id in ctx, generating one when id is blank.
func WithCorrelationID(ctx context.Context, id string) (context.Context, string) {
	if strings.TrimSpace(id) == "" {
		id = uuid.NewString()
	}
	return context.WithValue(ctx, correlationIDKey, id), id
}

func CorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(correlationIDKey).(string)
	return id
}

// FromContext returns an entry tagged with the request's correlation id.
func FromContext(ctx context.Context, log logrus.FieldLogger) *logrus.Entry {
	entry := log.WithFields(logrus.Fields{})
	if id := CorrelationID(ctx); id != "" {
		entry = entry.WithField(CorrelationIDField, id)
	}
	return entry
}
