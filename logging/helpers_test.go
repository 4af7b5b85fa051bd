package logging

import (
	"log/slog"
	"testing"
)

// resetForTest installs a fresh global logger writing into opts.Dir and
// restores the previous one when the test ends
func resetForTest(t *testing.T, opts Options) {
	t.Helper()

	savedService := DefaultLoggingService
	savedDefault := slog.Default()

	InitLogger(opts)

	t.Cleanup(func() {
		_ = Close()
		DefaultLoggingService = savedService
		slog.SetDefault(savedDefault)
	})
}
