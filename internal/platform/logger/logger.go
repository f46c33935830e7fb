package logger

import (
	"log/slog"
	"os"
)

// New returns the process logger. Services receive it through functional
// options rather than importing this package.
func New() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
