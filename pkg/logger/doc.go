// Package logger builds the application slog.Logger: text output in
// development, JSON in production, tagged with the service and environment.
package logger
