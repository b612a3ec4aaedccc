// Package logger configures logrus and the per-request access log.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"taskmanager/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	envLocal = "local"
	envDev   = "dev"
)

// New returns a logger for the environment: text for local and dev (colored for local),
// JSON everywhere else. level overrides the environment's default level.
func New(env, level string, out io.Writer) (*logrus.Logger, error) {
	if out == nil {
		out = os.Stdout
	}
	log := logrus.New()
	log.SetOutput(out)

	switch env {
	case envLocal, envDev:
		log.SetFormatter(&logrus.TextFormatter{
			ForceColors:   env == envLocal,
			FullTimestamp: true,
		})
		log.SetLevel(logrus.DebugLevel)
	default:
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
		log.SetLevel(logrus.InfoLevel)
	}

	if level = strings.TrimSpace(level); level != "" {
		lvl, err := logrus.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("LOG_LEVEL: %w", err)
		}
		log.SetLevel(lvl)
	}
	return log, nil
}

// Middleware logs one entry per request once the handler chain has finished.
func Middleware(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		status := c.Writer.Status()
		entry := log.WithFields(logrus.Fields{
			"method":     method,
			"path":       path,
			"status":     status,
			"latency_ms": time.Since(start).Milliseconds(),
			"client_ip":  c.ClientIP(),
		})
		if owner := auth.UserIDFromContext(c); owner != "" {
			entry = entry.WithField("owner", owner)
		}
		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			entry.Error("HTTP request")
		case status >= 400:
			entry.Warn("HTTP request")
		default:
			entry.Info("HTTP request")
		}
	}
}
