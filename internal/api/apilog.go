package api

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger is the package-level request logger. It is nil until InitAPILogger
// is called; all log functions are no-ops while it is nil. Entries are
// JSON lines with snake_case keys for easy grep/jq consumption.
var Logger *logrus.Logger

var loggerOnce sync.Once

// InitAPILogger opens (or creates) the dedicated API log file at logPath.
// Call once at startup before any requests. The directory is created with
// mode 0700 if it does not exist. A logging failure must never abort a
// query, so the logger itself swallows write errors.
func InitAPILogger(logPath string) error {
	var initErr error
	loggerOnce.Do(func() {
		if err := os.MkdirAll(filepath.Dir(logPath), 0700); err != nil {
			initErr = fmt.Errorf("api logger: mkdir %s: %w", filepath.Dir(logPath), err)
			return
		}
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			initErr = fmt.Errorf("api logger: open %s: %w", logPath, err)
			return
		}
		l := logrus.New()
		l.SetOutput(f)
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap:        logrus.FieldMap{logrus.FieldKeyTime: "ts", logrus.FieldKeyMsg: "event"},
		})
		l.SetLevel(logrus.InfoLevel)
		Logger = l
	})
	return initErr
}

// SetLogOutput redirects the logger, used by tests.
func SetLogOutput(w io.Writer) {
	if Logger != nil {
		Logger.SetOutput(w)
	}
}

// logRequest records a completed HTTP attempt (success or API-level error).
func logRequest(label string, statusCode int, duration time.Duration, attempt int, circState string, reqErr error) {
	if Logger == nil {
		return
	}
	fields := logrus.Fields{
		"label":         label,
		"status_code":   statusCode,
		"duration_ms":   duration.Milliseconds(),
		"attempt":       attempt,
		"circuit_state": circState,
	}
	if reqErr != nil {
		fields["error"] = reqErr.Error()
		Logger.WithFields(fields).Warn("request")
		return
	}
	Logger.WithFields(fields).Info("request")
}

// logRateLimitWait records time spent blocked on the rate limiter.
func logRateLimitWait(label string, waited time.Duration) {
	if Logger == nil {
		return
	}
	Logger.WithFields(logrus.Fields{
		"label":           label,
		"rate_limited_ms": waited.Milliseconds(),
	}).Info("rate_limit_wait")
}

// logCircuitRejected records a request rejected by the open circuit.
func logCircuitRejected(label string) {
	if Logger == nil {
		return
	}
	Logger.WithFields(logrus.Fields{"label": label}).Warn("circuit_rejected")
}

// logCircuitStateChange records an open/close transition.
func logCircuitStateChange(event, label, from, to string) {
	if Logger == nil {
		return
	}
	Logger.WithFields(logrus.Fields{
		"label": label,
		"from":  from,
		"to":    to,
	}).Warn(event)
}
