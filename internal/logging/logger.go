// Package logging defines a minimal structured-logging interface used across
// cinepos. The default implementation wraps log/slog.
package logging

import "context"

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key–value pairs, e.g.:
//
//	log.Info(ctx, "sale committed", "sale", sale.ID, "seat", sale.Seat.ID)
type Logger interface {
	// Debug is for draft bookkeeping and lock traffic.
	Debug(ctx context.Context, msg string, args ...any)

	// Info records state changes an operator cares about.
	Info(ctx context.Context, msg string, args ...any)

	// Warn covers skipped feed records, skipped cancellation steps and
	// failed receipt exports.
	Warn(ctx context.Context, msg string, args ...any)

	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given pairs.
	With(args ...any) Logger
}
