package link

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/arloliu/guidance/internal/hash"
	"github.com/arloliu/guidance/internal/natsutil"
	"github.com/arloliu/guidance/types"
)

// DefaultPublishTimeout bounds one status publish attempt.
const DefaultPublishTimeout = 2 * time.Second

// StatusPublisher stores status lines in the status stream.
//
// Each message carries a Nats-Msg-Id derived from the vehicle, a local
// sequence number and the payload. A publish that fails with a transport
// error is retried once under the same ID, so the stream's duplicate window
// keeps the retry from producing a second copy.
type StatusPublisher struct {
	js        jetstream.JetStream
	subject   string
	vehicleID string
	timeout   time.Duration
	seq       atomic.Uint64
}

// Compile-time assertion that StatusPublisher implements MessageSink.
var _ types.MessageSink = (*StatusPublisher)(nil)

// NewStatusPublisher creates a status sink publishing on subject.
//
// Parameters:
//   - js: JetStream handle
//   - subject: Status subject (e.g., "guidance.status.uav-1")
//   - vehicleID: Vehicle the status lines refer to
//
// Returns:
//   - *StatusPublisher: Message sink
func NewStatusPublisher(js jetstream.JetStream, subject, vehicleID string) *StatusPublisher {
	return &StatusPublisher{
		js:        js,
		subject:   subject,
		vehicleID: vehicleID,
		timeout:   DefaultPublishTimeout,
	}
}

// Send publishes one status line.
//
// Returns:
//   - error: nil on ack, an error wrapping types.ErrChannelClosed when the
//     connection or stream is gone, types.ErrTransientIO otherwise
func (p *StatusPublisher) Send(ctx context.Context, msg string) error {
	seq := p.seq.Add(1)
	data, err := json.Marshal(StatusMessage{
		VehicleID: p.vehicleID,
		Sequence:  seq,
		Message:   msg,
		At:        time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode status: %w", err)
	}

	id := hash.MessageID(p.vehicleID, seq, []byte(msg))

	err = p.publish(ctx, data, id)
	if err != nil && natsutil.IsConnectivityError(err) && !natsutil.IsClosed(err) && ctx.Err() == nil {
		err = p.publish(ctx, data, id)
	}
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("publish status: %w: %w", types.ErrTransientIO, err)
		}

		return classify("publish status", err)
	}

	return nil
}

func (p *StatusPublisher) publish(ctx context.Context, data []byte, id string) error {
	pubCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	_, err := p.js.Publish(pubCtx, p.subject, data, jetstream.WithMsgID(id))

	return err
}
