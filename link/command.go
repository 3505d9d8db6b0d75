package link

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/arloliu/guidance/types"
)

// Command publisher defaults.
const (
	DefaultTargetSystem    uint8 = 1
	DefaultTargetComponent uint8 = 0
	DefaultFlushTimeout          = 2 * time.Second
)

// CommandOption configures a CommandPublisher.
type CommandOption func(*CommandPublisher)

// WithTarget sets the target system and component ids carried by every command.
func WithTarget(system, component uint8) CommandOption {
	return func(p *CommandPublisher) {
		p.targetSystem = system
		p.targetComponent = component
	}
}

// WithFlushTimeout bounds the server round trip confirming each command
// reached the server (default: 2s). Zero publishes without flushing.
func WithFlushTimeout(d time.Duration) CommandOption {
	return func(p *CommandPublisher) {
		p.flushTimeout = d
	}
}

// CommandPublisher sends vehicle commands on a core NATS subject.
type CommandPublisher struct {
	nc              *nats.Conn
	subject         string
	targetSystem    uint8
	targetComponent uint8
	flushTimeout    time.Duration
}

// Compile-time assertion that CommandPublisher implements CommandChannel.
var _ types.CommandChannel = (*CommandPublisher)(nil)

// NewCommandPublisher creates a command channel publishing on subject.
//
// Parameters:
//   - nc: NATS connection
//   - subject: Command subject (e.g., "guidance.command.uav-1")
//   - opts: Optional target ids and flush timeout
//
// Returns:
//   - *CommandPublisher: Command channel; call Validate before use
func NewCommandPublisher(nc *nats.Conn, subject string, opts ...CommandOption) *CommandPublisher {
	p := &CommandPublisher{
		nc:              nc,
		subject:         subject,
		targetSystem:    DefaultTargetSystem,
		targetComponent: DefaultTargetComponent,
		flushTimeout:    DefaultFlushTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Validate checks that the publisher has a usable connection and subject.
func (p *CommandPublisher) Validate() error {
	if p.nc == nil {
		return types.ErrNATSConnectionRequired
	}
	if p.nc.IsClosed() {
		return nats.ErrConnectionClosed
	}
	if p.subject == "" {
		return errors.New("command subject is empty")
	}

	return nil
}

// SendAltitudeChange commands a climb or descent to targetAltitude meters.
func (p *CommandPublisher) SendAltitudeChange(targetAltitude float64) error {
	return p.send(altitudeCommand(p.targetSystem, p.targetComponent, targetAltitude))
}

// SendYawChange commands a heading change.
func (p *CommandPublisher) SendYawChange(cmd types.YawChange) error {
	return p.send(yawCommand(p.targetSystem, p.targetComponent, cmd))
}

func (p *CommandPublisher) send(cmd CommandLong) error {
	data, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("encode command %d: %w", cmd.Command, err)
	}

	if err := p.nc.Publish(p.subject, data); err != nil {
		return classify("publish command", err)
	}

	if p.flushTimeout > 0 {
		if err := p.nc.FlushTimeout(p.flushTimeout); err != nil {
			return classify("flush command", err)
		}
	}

	return nil
}
