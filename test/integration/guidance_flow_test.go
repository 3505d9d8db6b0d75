//go:build integration
// +build integration

package integration_test

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/guidance"
	"github.com/arloliu/guidance/internal/heartbeat"
	"github.com/arloliu/guidance/internal/logger"
	"github.com/arloliu/guidance/link"
	guidancetest "github.com/arloliu/guidance/testing"
	"github.com/arloliu/guidance/types"
)

// TestGuidance_ApproachSequence feeds a short flight and checks the command
// and status streams line up: altitude first, then heading, then nothing.
func TestGuidance_ApproachSequence(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	_, nc := guidancetest.StartEmbeddedNATS(t)

	cfg := guidance.TestConfig()
	cfg.Target = guidance.TargetConfig{X: 10, Y: 0, Z: 5}

	ctrl, err := guidance.NewController(&cfg, nc, guidance.WithLogger(logger.NewTest(t)))
	require.NoError(t, err)

	commands, err := nc.SubscribeSync(cfg.Subjects.Command)
	require.NoError(t, err)

	require.NoError(t, ctrl.Start(t.Context()))
	defer func() { require.NoError(t, ctrl.Stop(t.Context())) }()

	js := guidancetest.NewJetStream(t, nc)
	pub := link.NewTelemetryPublisher(js, cfg.Subjects.Telemetry)

	samples := []types.TelemetrySample{
		{X: 0, Y: 0, Z: 0, Yaw: 0},           // altitude error 5 m
		{X: 0, Y: 0, Z: 5, Yaw: math.Pi / 2}, // heading error -90 deg
		{X: 1, Y: 0, Z: 5, Yaw: 0},           // on course
	}
	for _, s := range samples {
		require.NoError(t, pub.Publish(t.Context(), s))
	}

	require.Eventually(t, func() bool { return ctrl.Stats().Samples == 3 }, 5*time.Second, 10*time.Millisecond)

	var first, second link.CommandLong
	msg, err := commands.NextMsg(time.Second)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(msg.Data, &first))
	msg, err = commands.NextMsg(time.Second)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(msg.Data, &second))

	require.Equal(t, link.CmdConditionChangeAlt, first.Command)
	require.InDelta(t, 5.0, first.Param7, 1e-9)
	require.Equal(t, link.CmdConditionYaw, second.Command)
	require.InDelta(t, -90.0, second.Param1, 1e-9)
	require.InDelta(t, 1.0, second.Param3, 0) // clockwise by default

	_, err = commands.NextMsg(200 * time.Millisecond)
	require.ErrorIs(t, err, nats.ErrTimeout)

	stream, err := js.Stream(t.Context(), cfg.Streams.Status)
	require.NoError(t, err)
	info, err := stream.Info(t.Context())
	require.NoError(t, err)
	require.Equal(t, uint64(2), info.State.Msgs)

	want := []string{"Change in Alt.: 5.00", "Change in Yaw: -90.00"}
	for i, line := range want {
		raw, err := stream.GetMsg(t.Context(), uint64(i+1))
		require.NoError(t, err)

		var status link.StatusMessage
		require.NoError(t, json.Unmarshal(raw.Data, &status))
		require.Equal(t, line, status.Message)
	}
}

// TestGuidance_LinkHysteresis drops and restores heartbeats and checks each
// edge is reported exactly once.
func TestGuidance_LinkHysteresis(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	_, nc := guidancetest.StartEmbeddedNATS(t)

	cfg := guidance.TestConfig()
	cfg.Target = guidance.TargetConfig{X: 10, Z: 5}
	cfg.HeartbeatPollInterval = 10 * time.Millisecond
	cfg.HeartbeatMissThreshold = 5

	log := logger.NewTest(t)
	ctrl, err := guidance.NewController(&cfg, nc, guidance.WithLogger(log))
	require.NoError(t, err)

	statusCh, unsubscribe := ctrl.SubscribeLinkStatus()
	defer unsubscribe()
	require.Equal(t, guidance.LinkDisconnected, <-statusCh)

	require.NoError(t, ctrl.Start(t.Context()))
	defer func() { require.NoError(t, ctrl.Stop(t.Context())) }()

	pub := heartbeat.New(nc, cfg.Subjects.Heartbeat, 5*time.Millisecond)
	pub.SetVehicleID(cfg.VehicleID)

	expect := func(want guidance.LinkStatus) {
		t.Helper()
		select {
		case got := <-statusCh:
			require.Equal(t, want, got)
		case <-time.After(5 * time.Second):
			t.Fatalf("no %s edge", want)
		}
	}

	for range 2 {
		require.NoError(t, pub.Start(t.Context()))
		expect(guidance.LinkConnected)

		require.NoError(t, pub.Stop())
		expect(guidance.LinkDisconnected)
	}

	require.Equal(t, 2, log.Count("WARN", "lost connection"))
	require.Equal(t, 2, log.Count("INFO", "reconnected"))
}

// TestGuidance_ConnectionClosed checks that a closed NATS connection ends the
// worker loop with a closed-channel error.
func TestGuidance_ConnectionClosed(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	srv, _ := guidancetest.StartEmbeddedNATS(t)

	nc, err := nats.Connect(srv.ClientURL())
	require.NoError(t, err)

	cfg := guidance.TestConfig()
	cfg.Target = guidance.TargetConfig{X: 10, Z: 5}

	ctrl, err := guidance.NewController(&cfg, nc)
	require.NoError(t, err)
	require.NoError(t, ctrl.Start(t.Context()))

	nc.Close()

	select {
	case <-ctrl.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("controller did not stop after the connection closed")
	}

	require.ErrorIs(t, ctrl.Err(), guidance.ErrChannelClosed)
	require.NoError(t, ctrl.Stop(t.Context()))
}
