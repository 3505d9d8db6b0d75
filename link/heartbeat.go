package link

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/arloliu/guidance/types"
)

// DefaultHeartbeatBuffer is the number of heartbeats buffered between polls.
const DefaultHeartbeatBuffer = 64

// HeartbeatSubscriber polls heartbeats received on a core NATS subject.
//
// Messages are buffered by a channel subscription; TryReceiveHeartbeat never
// blocks. Every poll drains the buffer so one poll answers "did any heartbeat
// arrive since the previous poll".
type HeartbeatSubscriber struct {
	nc        *nats.Conn
	subject   string
	vehicleID string
	msgs      chan *nats.Msg

	mu   sync.Mutex
	sub  *nats.Subscription
	last types.Heartbeat
}

// Compile-time assertion that HeartbeatSubscriber implements LivenessChannel.
var _ types.LivenessChannel = (*HeartbeatSubscriber)(nil)

// NewHeartbeatSubscriber subscribes to heartbeats on subject.
//
// Parameters:
//   - nc: NATS connection
//   - subject: Heartbeat subject (e.g., "guidance.heartbeat.uav-1")
//   - vehicleID: Only heartbeats from this vehicle count; empty accepts any
//
// Returns:
//   - *HeartbeatSubscriber: Subscribed liveness channel
//   - error: Subscription failure
func NewHeartbeatSubscriber(nc *nats.Conn, subject, vehicleID string) (*HeartbeatSubscriber, error) {
	if nc == nil {
		return nil, types.ErrNATSConnectionRequired
	}

	h := &HeartbeatSubscriber{
		nc:        nc,
		subject:   subject,
		vehicleID: vehicleID,
		msgs:      make(chan *nats.Msg, DefaultHeartbeatBuffer),
	}

	sub, err := nc.ChanSubscribe(subject, h.msgs)
	if err != nil {
		return nil, fmt.Errorf("subscribe heartbeat %s: %w", subject, err)
	}
	h.sub = sub

	return h, nil
}

// Validate checks that the subscription is still active.
func (h *HeartbeatSubscriber) Validate() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.sub == nil || !h.sub.IsValid() {
		return nats.ErrBadSubscription
	}

	return nil
}

// TryReceiveHeartbeat reports whether a heartbeat arrived since the last call.
//
// Payloads that fail to decode or come from another vehicle are ignored.
//
// Returns:
//   - bool: true if at least one matching heartbeat was buffered
//   - error: Wraps types.ErrChannelClosed once the subscription is gone
func (h *HeartbeatSubscriber) TryReceiveHeartbeat() (bool, error) {
	received := false

	for {
		select {
		case msg := <-h.msgs:
			if h.accept(msg) {
				received = true
			}
		default:
			if !received {
				if err := h.Validate(); err != nil {
					return false, classify("heartbeat", err)
				}
			}

			return received, nil
		}
	}
}

// Last returns the most recent accepted heartbeat.
func (h *HeartbeatSubscriber) Last() types.Heartbeat {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.last
}

// Close unsubscribes. Subsequent polls report a closed channel.
func (h *HeartbeatSubscriber) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.sub == nil {
		return nil
	}

	err := h.sub.Unsubscribe()
	if errors.Is(err, nats.ErrConnectionClosed) || errors.Is(err, nats.ErrBadSubscription) {
		err = nil
	}

	return err
}

func (h *HeartbeatSubscriber) accept(msg *nats.Msg) bool {
	var hb types.Heartbeat
	if err := json.Unmarshal(msg.Data, &hb); err != nil {
		return false
	}
	if h.vehicleID != "" && hb.VehicleID != h.vehicleID {
		return false
	}

	h.mu.Lock()
	h.last = hb
	h.mu.Unlock()

	return true
}
