package link

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/arloliu/guidance/internal/logging"
	"github.com/arloliu/guidance/types"
)

// Telemetry consumer defaults.
const (
	DefaultAckWait           = 30 * time.Second
	DefaultInactiveThreshold = 24 * time.Hour
)

// TelemetryConfig configures a TelemetryConsumer.
type TelemetryConfig struct {
	// Stream is the JetStream stream holding telemetry. Required.
	Stream string

	// Subject filters the stream to one vehicle's telemetry. Required.
	Subject string

	// Durable is the durable consumer name. Invalid characters are replaced.
	// Optional: defaults to "guidance-" + Subject.
	Durable string

	// DeliverNew skips telemetry published before the consumer was created.
	DeliverNew bool

	// Logger for diagnostic messages. Optional.
	Logger types.Logger
}

// TelemetryConsumer receives telemetry samples from a JetStream durable pull consumer.
type TelemetryConsumer struct {
	consumer jetstream.Consumer
	logger   types.Logger
}

// Compile-time assertion that TelemetryConsumer implements TelemetrySource.
var _ types.TelemetrySource = (*TelemetryConsumer)(nil)

// NewTelemetryConsumer binds to (or creates) the durable telemetry consumer.
//
// Parameters:
//   - ctx: Context for stream and consumer lookups
//   - js: JetStream handle
//   - cfg: Stream, subject and consumer settings
//
// Returns:
//   - *TelemetryConsumer: Telemetry source
//   - error: Wraps types.ErrLink if the stream is missing or the consumer cannot be created
func NewTelemetryConsumer(ctx context.Context, js jetstream.JetStream, cfg TelemetryConfig) (*TelemetryConsumer, error) {
	if js == nil {
		return nil, fmt.Errorf("%w: jetstream handle is nil", types.ErrLink)
	}
	if cfg.Stream == "" || cfg.Subject == "" {
		return nil, fmt.Errorf("%w: telemetry stream and subject are required", types.ErrLink)
	}
	if cfg.Durable == "" {
		cfg.Durable = "guidance-" + cfg.Subject
	}
	cfg.Durable = sanitizeConsumerName(cfg.Durable)
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}

	stream, err := js.Stream(ctx, cfg.Stream)
	if err != nil {
		return nil, fmt.Errorf("%w: telemetry stream %s: %w", types.ErrLink, cfg.Stream, err)
	}

	consumer, err := getOrCreateConsumer(ctx, stream, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrLink, err)
	}

	return &TelemetryConsumer{consumer: consumer, logger: cfg.Logger}, nil
}

// Receive waits up to timeout for the next telemetry sample.
//
// Parameters:
//   - ctx: Context; a done context returns immediately
//   - timeout: Upper bound on the wait
//
// Returns:
//   - types.TelemetrySample: Next sample
//   - error: types.ErrReceiveTimeout when nothing arrived, an error wrapping
//     types.ErrChannelClosed when the consumer is gone, or one wrapping
//     types.ErrTransientIO (and types.ErrMalformedMessage for bad payloads)
func (c *TelemetryConsumer) Receive(ctx context.Context, timeout time.Duration) (types.TelemetrySample, error) {
	if err := ctx.Err(); err != nil {
		return types.TelemetrySample{}, err
	}

	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return types.TelemetrySample{}, types.ErrReceiveTimeout
	}

	batch, err := c.consumer.Fetch(1, jetstream.FetchMaxWait(timeout))
	if err != nil {
		if errors.Is(err, nats.ErrTimeout) {
			return types.TelemetrySample{}, types.ErrReceiveTimeout
		}

		return types.TelemetrySample{}, classify("fetch telemetry", err)
	}

	var msg jetstream.Msg
	for m := range batch.Messages() {
		msg = m
	}

	if msg == nil {
		if err := batch.Error(); err != nil && !errors.Is(err, nats.ErrTimeout) {
			return types.TelemetrySample{}, classify("fetch telemetry", err)
		}

		return types.TelemetrySample{}, types.ErrReceiveTimeout
	}

	sample, err := DecodeTelemetry(msg.Data())
	if err != nil {
		c.logger.Warn("dropping malformed telemetry", "subject", msg.Subject(), "error", err)
		_ = msg.Term()

		return types.TelemetrySample{}, fmt.Errorf("%w: %w", types.ErrTransientIO, err)
	}

	if err := msg.Ack(); err != nil {
		c.logger.Debug("telemetry ack failed", "error", err)
	}

	return sample, nil
}

// TelemetryPublisher publishes telemetry samples into the telemetry stream.
type TelemetryPublisher struct {
	js      jetstream.JetStream
	subject string
}

// NewTelemetryPublisher creates a telemetry producer for subject.
func NewTelemetryPublisher(js jetstream.JetStream, subject string) *TelemetryPublisher {
	return &TelemetryPublisher{js: js, subject: subject}
}

// Publish stores one sample in the stream.
func (p *TelemetryPublisher) Publish(ctx context.Context, sample types.TelemetrySample) error {
	data, err := json.Marshal(sample)
	if err != nil {
		return fmt.Errorf("encode telemetry: %w", err)
	}

	if _, err := p.js.Publish(ctx, p.subject, data); err != nil {
		return classify("publish telemetry", err)
	}

	return nil
}

// getOrCreateConsumer returns the durable consumer, creating it when missing.
func getOrCreateConsumer(ctx context.Context, stream jetstream.Stream, cfg TelemetryConfig) (jetstream.Consumer, error) {
	consumer, err := stream.Consumer(ctx, cfg.Durable)
	if err == nil {
		cfg.Logger.Debug("using existing consumer", "consumer", cfg.Durable)
		return consumer, nil
	}

	if !errors.Is(err, jetstream.ErrConsumerNotFound) {
		return nil, fmt.Errorf("failed to access consumer: %w", err)
	}

	deliver := jetstream.DeliverAllPolicy
	if cfg.DeliverNew {
		deliver = jetstream.DeliverNewPolicy
	}

	consumer, err = stream.CreateConsumer(ctx, jetstream.ConsumerConfig{
		Name:              cfg.Durable,
		Durable:           cfg.Durable,
		FilterSubject:     cfg.Subject,
		AckPolicy:         jetstream.AckExplicitPolicy,
		AckWait:           DefaultAckWait,
		DeliverPolicy:     deliver,
		InactiveThreshold: DefaultInactiveThreshold,
	})
	if err == nil {
		cfg.Logger.Info("telemetry consumer created", "consumer", cfg.Durable, "subject", cfg.Subject)
		return consumer, nil
	}

	// Another process created it first.
	if !errors.Is(err, jetstream.ErrConsumerNameAlreadyInUse) && !errors.Is(err, jetstream.ErrConsumerExists) {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	consumer, err = stream.Consumer(ctx, cfg.Durable)
	if err != nil {
		return nil, fmt.Errorf("failed to get consumer after race: %w", err)
	}

	return consumer, nil
}

// sanitizeConsumerName replaces characters NATS rejects in consumer names.
func sanitizeConsumerName(name string) string {
	var result strings.Builder
	result.Grow(len(name))

	for _, r := range name {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' ||
			r == '.' || r == '*' || r == '>' ||
			r == '/' || r == '\\' ||
			r < 32 || r == 127 {
			result.WriteRune('_')
		} else {
			result.WriteRune(r)
		}
	}

	return result.String()
}
