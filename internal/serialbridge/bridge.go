package serialbridge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/arloliu/guidance/internal/logging"
	"github.com/arloliu/guidance/types"
)

// MaxLineLength bounds a buffered partial line; longer input is discarded.
const MaxLineLength = 1024

// Publisher stores telemetry samples. *link.TelemetryPublisher satisfies it.
type Publisher interface {
	Publish(ctx context.Context, sample types.TelemetrySample) error
}

// Stats is a snapshot of bridge counters.
type Stats struct {
	Lines     int64 // Non-empty lines read
	Published int64 // Samples published
	Malformed int64 // Lines that failed to parse
	Failed    int64 // Publish failures
}

// Bridge reads telemetry lines and publishes them as samples.
type Bridge struct {
	r      io.Reader
	pub    Publisher
	logger types.Logger
	now    func() time.Time

	lines     *xsync.Counter
	published *xsync.Counter
	malformed *xsync.Counter
	failed    *xsync.Counter
}

// New creates a bridge.
//
// Parameters:
//   - r: Line source, usually a serial.Port from OpenPort
//   - pub: Destination of decoded samples
//   - logger: Logger (nil uses a no-op logger)
//
// Returns:
//   - *Bridge: Bridge ready to Run
//   - error: Wraps types.ErrLink if r or pub is nil
func New(r io.Reader, pub Publisher, logger types.Logger) (*Bridge, error) {
	if r == nil || pub == nil {
		return nil, fmt.Errorf("%w: reader and publisher are required", types.ErrLink)
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	return &Bridge{
		r:         r,
		pub:       pub,
		logger:    logger,
		now:       time.Now,
		lines:     xsync.NewCounter(),
		published: xsync.NewCounter(),
		malformed: xsync.NewCounter(),
		failed:    xsync.NewCounter(),
	}, nil
}

// Stats returns a snapshot of the bridge counters.
func (b *Bridge) Stats() Stats {
	return Stats{
		Lines:     b.lines.Value(),
		Published: b.published.Value(),
		Malformed: b.malformed.Value(),
		Failed:    b.failed.Value(),
	}
}

// Run forwards lines until ctx is done or the reader fails.
//
// Returns:
//   - error: nil on ctx cancellation or EOF, an error wrapping
//     types.ErrChannelClosed when the reader or the publisher closed
func (b *Bridge) Run(ctx context.Context) error {
	buf := make([]byte, 256)
	var pending []byte

	for ctx.Err() == nil {
		n, err := b.r.Read(buf)
		if n > 0 {
			pending = append(pending, buf[:n]...)
			pending, err = b.drain(ctx, pending, err)
		}

		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			if len(bytes.TrimSpace(pending)) > 0 {
				if perr := b.handleLine(ctx, string(pending)); perr != nil {
					return perr
				}
			}
			return nil
		case errors.Is(err, types.ErrChannelClosed):
			return err
		default:
			return fmt.Errorf("read telemetry line: %w: %w", types.ErrChannelClosed, err)
		}
	}

	return nil
}

// drain handles every complete line in pending and returns the remainder.
// readErr is passed through unless a line fails fatally.
func (b *Bridge) drain(ctx context.Context, pending []byte, readErr error) ([]byte, error) {
	for {
		idx := bytes.IndexByte(pending, '\n')
		if idx < 0 {
			break
		}

		line := string(pending[:idx])
		pending = pending[idx+1:]
		if err := b.handleLine(ctx, line); err != nil {
			return pending, err
		}
	}

	if len(pending) > MaxLineLength {
		b.logger.Warn("discarding oversized telemetry line", "bytes", len(pending))
		b.malformed.Inc()
		pending = pending[:0]
	}

	return pending, readErr
}

func (b *Bridge) handleLine(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}
	b.lines.Inc()

	sample, err := ParseLine(line)
	if err != nil {
		b.malformed.Inc()
		b.logger.Warn("malformed telemetry line", "line", line, "error", err)
		return nil
	}
	sample.Timestamp = b.now()

	if err := b.pub.Publish(ctx, sample); err != nil {
		b.failed.Inc()
		if errors.Is(err, types.ErrChannelClosed) {
			return err
		}
		b.logger.Warn("telemetry publish failed", "error", err)

		return nil
	}
	b.published.Inc()

	return nil
}
