package serialbridge

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/guidance/internal/logger"
	"github.com/arloliu/guidance/link"
	guidancetest "github.com/arloliu/guidance/testing"
	"github.com/arloliu/guidance/types"
)

type recordingPublisher struct {
	mu      sync.Mutex
	samples []types.TelemetrySample
	err     error
}

func (p *recordingPublisher) Publish(_ context.Context, sample types.TelemetrySample) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return p.err
	}
	p.samples = append(p.samples, sample)

	return nil
}

func (p *recordingPublisher) Samples() []types.TelemetrySample {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]types.TelemetrySample(nil), p.samples...)
}

// chunkReader returns its chunks one Read at a time, then an empty read per
// timeout until ctx is done.
type chunkReader struct {
	ctx    context.Context
	chunks []string
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		if r.ctx.Err() != nil {
			return 0, io.EOF
		}
		time.Sleep(time.Millisecond)

		return 0, nil
	}

	n := copy(p, r.chunks[0])
	r.chunks[0] = r.chunks[0][n:]
	if r.chunks[0] == "" {
		r.chunks = r.chunks[1:]
	}

	return n, nil
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, &recordingPublisher{}, nil)
	require.ErrorIs(t, err, types.ErrLink)

	_, err = New(strings.NewReader(""), nil, nil)
	require.ErrorIs(t, err, types.ErrLink)
}

func TestBridge_Run(t *testing.T) {
	input := strings.Join([]string{
		"# telemetry radio v2",
		"0,0,0,0",
		"",
		"3,4,0,0.5",
		"garbage",
		"10,0,5", // missing yaw
		"1,2,3,4",
	}, "\n")

	pub := &recordingPublisher{}
	log := logger.NewTest(t)
	b, err := New(strings.NewReader(input), pub, log)
	require.NoError(t, err)

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return at }

	require.NoError(t, b.Run(t.Context()))

	samples := pub.Samples()
	require.Len(t, samples, 3)
	require.Equal(t, types.TelemetrySample{X: 3, Y: 4, Yaw: 0.5, Timestamp: at}, samples[1])
	require.Equal(t, types.TelemetrySample{X: 1, Y: 2, Z: 3, Yaw: 4, Timestamp: at}, samples[2])

	require.Equal(t, Stats{Lines: 5, Published: 3, Malformed: 2}, b.Stats())
	require.Equal(t, 2, log.Count("WARN", "malformed telemetry line"))
}

func TestBridge_SplitReads(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	pub := &recordingPublisher{}
	r := &chunkReader{ctx: ctx, chunks: []string{"1.5,2", ",3,0\n4,5", ",6,0.25\n"}}
	b, err := New(r, pub, nil)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	require.Eventually(t, func() bool { return len(pub.Samples()) == 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("bridge did not stop after cancel")
	}

	samples := pub.Samples()
	require.InDelta(t, 1.5, samples[0].X, 1e-9)
	require.InDelta(t, 6.0, samples[1].Z, 1e-9)
}

func TestBridge_OversizedLine(t *testing.T) {
	pub := &recordingPublisher{}
	b, err := New(strings.NewReader(strings.Repeat("9", MaxLineLength+10)+"\n0,0,1,0\n"), pub, nil)
	require.NoError(t, err)

	require.NoError(t, b.Run(t.Context()))
	require.GreaterOrEqual(t, b.Stats().Malformed, int64(1))
	require.NotEmpty(t, pub.Samples())
}

func TestBridge_PublisherClosed(t *testing.T) {
	pub := &recordingPublisher{err: types.ErrChannelClosed}
	b, err := New(strings.NewReader("0,0,0,0\n1,1,1,1\n"), pub, nil)
	require.NoError(t, err)

	err = b.Run(t.Context())
	require.ErrorIs(t, err, types.ErrChannelClosed)
	require.Equal(t, int64(1), b.Stats().Failed)
}

func TestBridge_TransientPublishFailure(t *testing.T) {
	pub := &recordingPublisher{err: types.ErrTransientIO}
	b, err := New(strings.NewReader("0,0,0,0\n1,1,1,1\n"), pub, nil)
	require.NoError(t, err)

	require.NoError(t, b.Run(t.Context()))
	require.Equal(t, int64(2), b.Stats().Failed)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("device unplugged") }

func TestBridge_ReadError(t *testing.T) {
	b, err := New(failingReader{}, &recordingPublisher{}, nil)
	require.NoError(t, err)

	err = b.Run(t.Context())
	require.ErrorIs(t, err, types.ErrChannelClosed)
}

func TestBridge_PublishesToStream(t *testing.T) {
	_, nc := guidancetest.StartEmbeddedNATS(t)
	guidancetest.CreateStream(t, nc, "GUIDANCE_TELEMETRY", "guidance.telemetry.>")
	js := guidancetest.NewJetStream(t, nc)

	b, err := New(strings.NewReader("0,0,0,0\n3,4,0,0\n"), link.NewTelemetryPublisher(js, "guidance.telemetry.uav-1"), nil)
	require.NoError(t, err)
	require.NoError(t, b.Run(t.Context()))

	consumer, err := link.NewTelemetryConsumer(t.Context(), js, link.TelemetryConfig{
		Stream:  "GUIDANCE_TELEMETRY",
		Subject: "guidance.telemetry.uav-1",
	})
	require.NoError(t, err)

	first, err := consumer.Receive(t.Context(), time.Second)
	require.NoError(t, err)
	require.Equal(t, 0.0, first.X)

	second, err := consumer.Receive(t.Context(), time.Second)
	require.NoError(t, err)
	require.Equal(t, 4.0, second.Y)
	require.False(t, second.Timestamp.IsZero())
}
