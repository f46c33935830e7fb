package testutil

import "log/slog"

// DiscardLogger returns a logger that drops everything. Use in tests where
// log output is noise.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
