package link

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/require"

	guidancetest "github.com/arloliu/guidance/testing"
	"github.com/arloliu/guidance/types"
)

func TestStatusPublisher_Send(t *testing.T) {
	_, nc := guidancetest.StartEmbeddedNATS(t)
	stream := guidancetest.CreateStream(t, nc, "GUIDANCE_STATUS", "guidance.status.>")
	js := guidancetest.NewJetStream(t, nc)

	p := NewStatusPublisher(js, "guidance.status.uav-1", "uav-1")
	require.NoError(t, p.Send(t.Context(), "Change in Alt.: 5.00"))
	require.NoError(t, p.Send(t.Context(), "Change in Yaw: 90.00"))

	info, err := stream.Info(t.Context())
	require.NoError(t, err)
	require.Equal(t, uint64(2), info.State.Msgs)

	raw, err := stream.GetMsg(t.Context(), 1)
	require.NoError(t, err)

	var msg StatusMessage
	require.NoError(t, json.Unmarshal(raw.Data, &msg))
	require.Equal(t, "uav-1", msg.VehicleID)
	require.Equal(t, uint64(1), msg.Sequence)
	require.Equal(t, "Change in Alt.: 5.00", msg.Message)
	require.NotEmpty(t, raw.Header.Get(jetstream.MsgIDHeader))
}

func TestStatusPublisher_NoStream(t *testing.T) {
	_, nc := guidancetest.StartEmbeddedNATS(t)
	js := guidancetest.NewJetStream(t, nc)

	p := NewStatusPublisher(js, "guidance.status.uav-1", "uav-1")
	p.timeout = 200 * time.Millisecond

	err := p.Send(t.Context(), "Change in Alt.: 5.00")
	require.Error(t, err)
	require.NotErrorIs(t, err, types.ErrChannelClosed)
}

func TestStatusPublisher_ClosedConnection(t *testing.T) {
	_, nc := guidancetest.StartEmbeddedNATS(t)
	guidancetest.CreateStream(t, nc, "GUIDANCE_STATUS", "guidance.status.>")
	js := guidancetest.NewJetStream(t, nc)
	p := NewStatusPublisher(js, "guidance.status.uav-1", "uav-1")

	nc.Close()

	err := p.Send(context.Background(), "Change in Alt.: 5.00")
	require.ErrorIs(t, err, types.ErrChannelClosed)
}

func TestEnsureStreams(t *testing.T) {
	_, nc := guidancetest.StartEmbeddedNATS(t)
	js := guidancetest.NewJetStream(t, nc)

	specs := []StreamSpec{
		{Name: "GUIDANCE_TELEMETRY", Subjects: []string{"guidance.telemetry.>"}, MaxAge: time.Hour},
		{Name: "GUIDANCE_STATUS", Subjects: []string{"guidance.status.>"}, MaxAge: time.Minute},
	}
	require.NoError(t, EnsureStreams(t.Context(), js, specs...))
	// Idempotent.
	require.NoError(t, EnsureStreams(t.Context(), js, specs...))

	stream, err := js.Stream(t.Context(), "GUIDANCE_STATUS")
	require.NoError(t, err)
	info, err := stream.Info(t.Context())
	require.NoError(t, err)
	require.Equal(t, time.Minute, info.Config.Duplicates)
}
