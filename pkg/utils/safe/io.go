package safe

import (
	"context"
	"io"

	"github.com/secmon-lab/mnemos/pkg/utils/logging"
)

// Close closes c and logs a failure instead of returning it. Use it only where
// a close error cannot change the outcome, such as after a read or on an
// already failed write. A nil closer is ignored.
func Close(ctx context.Context, c io.Closer, attrs ...any) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		args := append([]any{"error", err.Error()}, attrs...)
		logging.From(ctx).Warn("failed to close", args...)
	}
}
