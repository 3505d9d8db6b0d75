package logging

import "log/slog"

// NewNop creates a slog-based logger that discards every record.
//
// Returns:
//   - *SlogLogger: Logger backed by slog.DiscardHandler
func NewNop() *SlogLogger {
	return &SlogLogger{logger: slog.New(slog.DiscardHandler)}
}
