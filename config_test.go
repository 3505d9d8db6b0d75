package guidance

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/arloliu/guidance/internal/logger"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.Equal(t, "uav-1", cfg.VehicleID)
	require.Equal(t, 0.5, cfg.AltitudeTolerance)
	require.Equal(t, 5.0, cfg.YawToleranceDeg)
	require.Equal(t, 5.0, cfg.YawRateDegPerSec)
	require.Equal(t, "clockwise", cfg.YawDirection)
	require.False(t, cfg.SignedYawDirection)
	require.Equal(t, 1*time.Second, cfg.ReceiveTimeout)
	require.Equal(t, 1*time.Second, cfg.HeartbeatPollInterval)
	require.Equal(t, 5, cfg.HeartbeatMissThreshold)
	require.Equal(t, 5*time.Second, cfg.OperationTimeout)
	require.Equal(t, uint8(1), cfg.Command.TargetSystem)
	require.Equal(t, uint8(0), cfg.Command.TargetComponent)
	require.Equal(t, "GUIDANCE_TELEMETRY", cfg.Streams.Telemetry)
	require.Equal(t, "GUIDANCE_STATUS", cfg.Streams.Status)
	require.Empty(t, cfg.Journal.Path)
	require.Empty(t, cfg.Metrics.Addr)
}

func TestSetDefaults(t *testing.T) {
	t.Run("applies defaults to empty config", func(t *testing.T) {
		cfg := Config{}
		SetDefaults(&cfg)

		require.Equal(t, "uav-1", cfg.VehicleID)
		require.Equal(t, 0.5, cfg.AltitudeTolerance)
		require.Equal(t, "guidance.telemetry.uav-1", cfg.Subjects.Telemetry)
		require.Equal(t, "guidance.command.uav-1", cfg.Subjects.Command)
		require.Equal(t, "guidance.heartbeat.uav-1", cfg.Subjects.Heartbeat)
		require.Equal(t, "guidance.status.uav-1", cfg.Subjects.Status)
		require.Equal(t, "guidance-uav-1", cfg.Streams.TelemetryDurable)
		require.Equal(t, "GUIDANCE_LEASES", cfg.Lease.Bucket)
		require.Equal(t, 10*time.Second, cfg.Lease.TTL)
		require.NotEmpty(t, cfg.Lease.Holder)
		require.NoError(t, cfg.Validate())
	})

	t.Run("derives subjects from prefix and vehicle", func(t *testing.T) {
		cfg := Config{
			VehicleID: "rover7",
			Subjects:  SubjectConfig{Prefix: "fleet", Command: "custom.cmd"},
		}
		SetDefaults(&cfg)

		require.Equal(t, "fleet.telemetry.rover7", cfg.Subjects.Telemetry)
		require.Equal(t, "custom.cmd", cfg.Subjects.Command)
		require.Equal(t, "guidance-rover7", cfg.Streams.TelemetryDurable)

		telemetry, status := cfg.StreamSubjects()
		require.Equal(t, "fleet.telemetry.>", telemetry)
		require.Equal(t, "fleet.status.>", status)
	})

	t.Run("preserves custom values", func(t *testing.T) {
		cfg := Config{
			VehicleID:              "uav-9",
			AltitudeTolerance:      2,
			YawToleranceDeg:        10,
			YawRateDegPerSec:       15,
			YawDirection:           "ccw",
			ReceiveTimeout:         250 * time.Millisecond,
			HeartbeatPollInterval:  500 * time.Millisecond,
			HeartbeatMissThreshold: 3,
		}
		SetDefaults(&cfg)

		require.Equal(t, 2.0, cfg.AltitudeTolerance)
		require.Equal(t, 10.0, cfg.YawToleranceDeg)
		require.Equal(t, 15.0, cfg.YawRateDegPerSec)
		require.Equal(t, "ccw", cfg.YawDirection)
		require.Equal(t, 250*time.Millisecond, cfg.ReceiveTimeout)
		require.Equal(t, 500*time.Millisecond, cfg.HeartbeatPollInterval)
		require.Equal(t, 3, cfg.HeartbeatMissThreshold)
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *Config)
	}{
		{"vehicle id with dot", func(cfg *Config) { cfg.VehicleID = "uav.1" }},
		{"vehicle id with wildcard", func(cfg *Config) { cfg.VehicleID = "uav-*" }},
		{"negative altitude tolerance", func(cfg *Config) { cfg.AltitudeTolerance = -1 }},
		{"negative yaw rate", func(cfg *Config) { cfg.YawRateDegPerSec = -5 }},
		{"unknown yaw direction", func(cfg *Config) { cfg.YawDirection = "sideways" }},
		{"zero receive timeout", func(cfg *Config) { cfg.ReceiveTimeout = 0 }},
		{"negative poll interval", func(cfg *Config) { cfg.HeartbeatPollInterval = -time.Second }},
		{"zero miss threshold", func(cfg *Config) { cfg.HeartbeatMissThreshold = 0 }},
		{"missing status subject", func(cfg *Config) { cfg.Subjects.Status = "" }},
		{"missing telemetry stream", func(cfg *Config) { cfg.Streams.Telemetry = "" }},
		{"lease with short ttl", func(cfg *Config) { cfg.Lease.Enabled = true; cfg.Lease.TTL = 100 * time.Millisecond }},
		{"lease without bucket", func(cfg *Config) { cfg.Lease.Enabled = true; cfg.Lease.Bucket = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := TestConfig()
			SetDefaults(&cfg)
			tt.mutate(&cfg)

			require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}

	t.Run("test config is valid", func(t *testing.T) {
		cfg := TestConfig()
		SetDefaults(&cfg)
		require.NoError(t, cfg.Validate())
	})
}

func TestConfig_ValidateWithWarnings(t *testing.T) {
	t.Run("no warnings for a typical config", func(t *testing.T) {
		log := logger.NewTest(t)
		cfg := DefaultConfig()
		cfg.Target = TargetConfig{X: 100, Y: 20, Z: 30}

		cfg.ValidateWithWarnings(log)
		require.Empty(t, log.Entries())
	})

	t.Run("long receive timeout", func(t *testing.T) {
		log := logger.NewTest(t)
		cfg := DefaultConfig()
		cfg.Target = TargetConfig{X: 1}
		cfg.ReceiveTimeout = 30 * time.Second

		cfg.ValidateWithWarnings(log)
		entry, ok := log.Find("ReceiveTimeout is long, shutdown may be slow")
		require.True(t, ok)
		require.Equal(t, "WARN", entry.Level)
	})

	t.Run("signed yaw direction", func(t *testing.T) {
		log := logger.NewTest(t)
		cfg := DefaultConfig()
		cfg.Target = TargetConfig{X: 1}
		cfg.SignedYawDirection = true

		cfg.ValidateWithWarnings(log)
		require.Equal(t, 1, log.Count("WARN", "signed yaw direction enabled, yaw commands no longer use a fixed direction"))
	})
}

// TestConfig_YAML demonstrates that time.Duration works directly with YAML unmarshaling
func TestConfig_YAML(t *testing.T) {
	yamlConfig := `
vehicleId: "uav-7"
target:
  x: 120
  y: -40
  z: 30
altitudeTolerance: 1.5
yawToleranceDeg: 8
yawDirection: counter-clockwise
signedYawDirection: true
receiveTimeout: 750ms
heartbeatPollInterval: 2s
heartbeatMissThreshold: 4
subjects:
  prefix: fleet
streams:
  maxAge: 1h
command:
  targetSystem: 2
  targetComponent: 1
journal:
  path: /var/lib/guidance/journal.db
metrics:
  addr: ":9090"
`

	var cfg Config
	err := yaml.Unmarshal([]byte(yamlConfig), &cfg)
	require.NoError(t, err)

	require.Equal(t, "uav-7", cfg.VehicleID)
	require.Equal(t, TargetConfig{X: 120, Y: -40, Z: 30}, cfg.Target)
	require.Equal(t, 1.5, cfg.AltitudeTolerance)
	require.Equal(t, 8.0, cfg.YawToleranceDeg)
	require.Equal(t, "counter-clockwise", cfg.YawDirection)
	require.True(t, cfg.SignedYawDirection)
	require.Equal(t, 750*time.Millisecond, cfg.ReceiveTimeout)
	require.Equal(t, 2*time.Second, cfg.HeartbeatPollInterval)
	require.Equal(t, 4, cfg.HeartbeatMissThreshold)
	require.Equal(t, "fleet", cfg.Subjects.Prefix)
	require.Equal(t, time.Hour, cfg.Streams.MaxAge)
	require.Equal(t, uint8(2), cfg.Command.TargetSystem)
	require.Equal(t, uint8(1), cfg.Command.TargetComponent)
	require.Equal(t, "/var/lib/guidance/journal.db", cfg.Journal.Path)
	require.Equal(t, ":9090", cfg.Metrics.Addr)
}

func TestLoadConfig(t *testing.T) {
	t.Run("partial file gets defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "guidance.yaml")
		require.NoError(t, os.WriteFile(path, []byte("vehicleId: uav-3\ntarget: {x: 10, z: 5}\n"), 0o600))

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		require.Equal(t, "uav-3", cfg.VehicleID)
		require.Equal(t, 5.0, cfg.Target.Position().Z())
		require.Equal(t, "guidance.command.uav-3", cfg.Subjects.Command)
		require.Equal(t, 0.5, cfg.AltitudeTolerance)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		require.Error(t, err)
	})

	t.Run("invalid values", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "guidance.yaml")
		require.NoError(t, os.WriteFile(path, []byte("yawDirection: sideways\n"), 0o600))

		_, err := LoadConfig(path)
		require.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "guidance.yaml")
		require.NoError(t, os.WriteFile(path, []byte("target: [1, 2\n"), 0o600))

		_, err := LoadConfig(path)
		require.Error(t, err)
		require.NotErrorIs(t, err, ErrInvalidConfig)
	})
}
