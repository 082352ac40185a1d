// Package logger provides structured logging infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Context key types for storing values in context
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
	// AdminIDKey is the context key for the authenticated admin subject
	AdminIDKey contextKey = "admin_id"
)

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// New creates a new logger based on environment
func New(env string) *Logger {
	return NewWithWriter(env, os.Stdout)
}

// NewWithWriter creates a logger that writes to w. Tests pass io.Discard.
func NewWithWriter(env string, w io.Writer) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithContext returns a logger with context values extracted.
// Supports request_id and admin_id from context.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	newLogger := l

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		newLogger = newLogger.WithRequestID(requestID)
	}

	if adminID, ok := ctx.Value(AdminIDKey).(string); ok && adminID != "" {
		newLogger = &Logger{
			Logger: newLogger.With(slog.String("admin_id", adminID)),
		}
	}

	return newLogger
}

// WithRequestID returns a logger with request ID
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("request_id", requestID)),
	}
}

// HTTPRequest logs an HTTP request
func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}

// HTTPError logs an HTTP error
func (l *Logger) HTTPError(method, path string, status int, err error, clientIP string) {
	l.Error("http_error",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.String("error", err.Error()),
		slog.String("client_ip", clientIP),
	)
}

// DatabaseError logs database errors
func (l *Logger) DatabaseError(operation string, err error) {
	l.Error("database_error",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// RateLimitExceeded logs per-IP throttle events
func (l *Logger) RateLimitExceeded(clientIP, path string) {
	l.Warn("rate_limit_exceeded",
		slog.String("client_ip", clientIP),
		slog.String("path", path),
	)
}

// SubmissionAccepted logs a form submission that reached its accepted state.
func (l *Logger) SubmissionAccepted(formType, email string, attrs ...any) {
	args := append([]any{
		slog.String("form_type", formType),
		slog.String("email", email),
	}, attrs...)
	l.Info("submission_accepted", args...)
}

// SubmissionRejected logs a modeled rejection (invalid, rate_limited, duplicate).
// These are normal outcomes and never logged at error level.
func (l *Logger) SubmissionRejected(formType, email, outcome, stage string) {
	l.Info("submission_rejected",
		slog.String("form_type", formType),
		slog.String("email", email),
		slog.String("outcome", outcome),
		slog.String("stage", stage),
	)
}

// SubmissionFailed logs an unexpected failure inside the submission pipeline.
func (l *Logger) SubmissionFailed(formType, email, stage string, err error) {
	l.Error("submission_failed",
		slog.String("form_type", formType),
		slog.String("email", email),
		slog.String("stage", stage),
		slog.String("error", err.Error()),
	)
}
