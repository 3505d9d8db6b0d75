package link

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	guidancetest "github.com/arloliu/guidance/testing"
	"github.com/arloliu/guidance/types"
)

func TestCommandPublisher_Validate(t *testing.T) {
	t.Run("nil connection", func(t *testing.T) {
		p := NewCommandPublisher(nil, "guidance.command.uav-1")
		require.ErrorIs(t, p.Validate(), types.ErrNATSConnectionRequired)
	})

	t.Run("empty subject", func(t *testing.T) {
		_, nc := guidancetest.StartEmbeddedNATS(t)
		p := NewCommandPublisher(nc, "")
		require.Error(t, p.Validate())
	})

	t.Run("closed connection", func(t *testing.T) {
		_, nc := guidancetest.StartEmbeddedNATS(t)
		p := NewCommandPublisher(nc, "guidance.command.uav-1")
		require.NoError(t, p.Validate())

		nc.Close()
		require.Error(t, p.Validate())
	})
}

func TestCommandPublisher_SendAltitudeChange(t *testing.T) {
	_, nc := guidancetest.StartEmbeddedNATS(t)
	sub, err := nc.SubscribeSync("guidance.command.uav-1")
	require.NoError(t, err)

	p := NewCommandPublisher(nc, "guidance.command.uav-1", WithTarget(3, 1))
	require.NoError(t, p.SendAltitudeChange(12.5))

	msg, err := sub.NextMsg(2 * time.Second)
	require.NoError(t, err)

	var cmd CommandLong
	require.NoError(t, json.Unmarshal(msg.Data, &cmd))
	require.Equal(t, CmdConditionChangeAlt, cmd.Command)
	require.Equal(t, uint8(3), cmd.TargetSystem)
	require.Equal(t, uint8(1), cmd.TargetComponent)
	require.InDelta(t, 1.0, cmd.Param1, 1e-9)
	require.InDelta(t, 12.5, cmd.Param7, 1e-9)
}

func TestCommandPublisher_SendYawChange(t *testing.T) {
	_, nc := guidancetest.StartEmbeddedNATS(t)
	sub, err := nc.SubscribeSync("guidance.command.uav-1")
	require.NoError(t, err)

	p := NewCommandPublisher(nc, "guidance.command.uav-1")
	require.NoError(t, p.SendYawChange(types.YawChange{
		AngleDeg:      -42,
		RateDegPerSec: 5,
		Direction:     types.Clockwise,
		Relative:      true,
	}))

	msg, err := sub.NextMsg(2 * time.Second)
	require.NoError(t, err)

	var cmd CommandLong
	require.NoError(t, json.Unmarshal(msg.Data, &cmd))
	require.Equal(t, CmdConditionYaw, cmd.Command)
	require.Equal(t, DefaultTargetSystem, cmd.TargetSystem)
	require.InDelta(t, -42.0, cmd.Param1, 1e-9)
	require.InDelta(t, 5.0, cmd.Param2, 1e-9)
	require.InDelta(t, 1.0, cmd.Param3, 1e-9)
	require.InDelta(t, 1.0, cmd.Param4, 1e-9)
}

func TestCommandPublisher_ClosedConnection(t *testing.T) {
	_, nc := guidancetest.StartEmbeddedNATS(t)
	p := NewCommandPublisher(nc, "guidance.command.uav-1")

	nc.Close()

	err := p.SendAltitudeChange(5)
	require.ErrorIs(t, err, types.ErrChannelClosed)
}
