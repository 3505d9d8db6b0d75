package link

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/arloliu/guidance/types"
)

// Command identifiers carried in CommandLong.Command.
const (
	CmdConditionChangeAlt uint16 = 113 // MAV_CMD_CONDITION_CHANGE_ALT
	CmdConditionYaw       uint16 = 115 // MAV_CMD_CONDITION_YAW
)

// CommandLong is the JSON wire form of a vehicle command.
//
// The layout mirrors MAVLink COMMAND_LONG so a vehicle-side gateway can map
// it onto the autopilot link one to one.
type CommandLong struct {
	TargetSystem    uint8   `json:"target_system"`
	TargetComponent uint8   `json:"target_component"`
	Command         uint16  `json:"command"`
	Confirmation    uint8   `json:"confirmation"`
	Param1          float64 `json:"param1"`
	Param2          float64 `json:"param2"`
	Param3          float64 `json:"param3"`
	Param4          float64 `json:"param4"`
	Param5          float64 `json:"param5"`
	Param6          float64 `json:"param6"`
	Param7          float64 `json:"param7"`
}

// altitudeCommand builds CONDITION_CHANGE_ALT: param1 is the climb rate
// selector (1), param7 the target altitude.
func altitudeCommand(sys, comp uint8, targetZ float64) CommandLong {
	return CommandLong{
		TargetSystem:    sys,
		TargetComponent: comp,
		Command:         CmdConditionChangeAlt,
		Param1:          1,
		Param7:          targetZ,
	}
}

// yawCommand builds CONDITION_YAW: param1 angle, param2 rate, param3
// direction (1 cw, -1 ccw), param4 relative (1) or absolute (0).
func yawCommand(sys, comp uint8, cmd types.YawChange) CommandLong {
	relative := 0.0
	if cmd.Relative {
		relative = 1
	}

	return CommandLong{
		TargetSystem:    sys,
		TargetComponent: comp,
		Command:         CmdConditionYaw,
		Param1:          cmd.AngleDeg,
		Param2:          cmd.RateDegPerSec,
		Param3:          float64(cmd.Direction),
		Param4:          relative,
	}
}

// StatusMessage is the JSON wire form of a status line on the status stream.
type StatusMessage struct {
	VehicleID string    `json:"vehicle_id"`
	Sequence  uint64    `json:"seq"`
	Message   string    `json:"message"`
	At        time.Time `json:"at"`
}

// DecodeTelemetry parses a JSON telemetry payload.
//
// Returns:
//   - types.TelemetrySample: Decoded sample
//   - error: Wraps types.ErrMalformedMessage if the payload is not valid telemetry
func DecodeTelemetry(data []byte) (types.TelemetrySample, error) {
	var raw struct {
		X         *float64  `json:"x"`
		Y         *float64  `json:"y"`
		Z         *float64  `json:"z"`
		Yaw       *float64  `json:"yaw"`
		Timestamp time.Time `json:"timestamp"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return types.TelemetrySample{}, fmt.Errorf("%w: %w", types.ErrMalformedMessage, err)
	}
	if raw.X == nil || raw.Y == nil || raw.Z == nil || raw.Yaw == nil {
		return types.TelemetrySample{}, fmt.Errorf("%w: telemetry requires x, y, z and yaw", types.ErrMalformedMessage)
	}

	return types.TelemetrySample{
		X:         *raw.X,
		Y:         *raw.Y,
		Z:         *raw.Z,
		Yaw:       *raw.Yaw,
		Timestamp: raw.Timestamp,
	}, nil
}
