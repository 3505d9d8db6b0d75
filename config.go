package guidance

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/arloliu/guidance/types"
)

// TargetConfig is the fixed waypoint the vehicle steers towards, in meters.
type TargetConfig struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

// Position returns the target as a types.Position.
func (t TargetConfig) Position() types.Position {
	return types.NewPosition(t.X, t.Y, t.Z)
}

// SubjectConfig configures NATS subjects.
//
// Empty subjects are derived from Prefix and the vehicle ID:
// "<prefix>.telemetry.<vehicle>", "<prefix>.command.<vehicle>", and so on.
type SubjectConfig struct {
	Prefix    string `yaml:"prefix"`
	Telemetry string `yaml:"telemetry"`
	Command   string `yaml:"command"`
	Heartbeat string `yaml:"heartbeat"`
	Status    string `yaml:"status"`
}

// StreamConfig configures the JetStream streams used by the controller.
type StreamConfig struct {
	// Telemetry is the stream capturing telemetry subjects.
	Telemetry string `yaml:"telemetry"`

	// Status is the stream capturing status subjects.
	Status string `yaml:"status"`

	// TelemetryDurable is the durable consumer name for this vehicle.
	// Default: "guidance-<vehicle>".
	TelemetryDurable string `yaml:"telemetryDurable"`

	// MaxAge bounds how long stream messages are retained (0 = unlimited).
	MaxAge time.Duration `yaml:"maxAge"`

	// Create makes the controller create or update both streams on Start.
	Create bool `yaml:"create"`
}

// CommandConfig configures the command wire format.
type CommandConfig struct {
	TargetSystem    uint8 `yaml:"targetSystem"`
	TargetComponent uint8 `yaml:"targetComponent"`
}

// JournalConfig configures the durable log journal.
type JournalConfig struct {
	// Path is the SQLite database file. Empty disables the journal.
	Path string `yaml:"path"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Addr is the listen address for /metrics. Empty disables the endpoint.
	Addr string `yaml:"addr"`

	// Namespace prefixes every metric name.
	Namespace string `yaml:"namespace"`
}

// LeaseConfig configures the per-vehicle command authority lease.
type LeaseConfig struct {
	// Enabled makes Start fail with ErrLeaseHeld while another controller steers the vehicle.
	Enabled bool `yaml:"enabled"`

	// Bucket is the JetStream KV bucket holding the leases.
	Bucket string `yaml:"bucket"`

	// TTL is how long a lease survives without renewal. Renewal runs every TTL/3.
	TTL time.Duration `yaml:"ttl"`

	// Holder names this controller in the lease. Defaults to the host name.
	Holder string `yaml:"holder"`
}

// SerialConfig configures the serial telemetry bridge.
type SerialConfig struct {
	Port        string        `yaml:"port"`
	BaudRate    int           `yaml:"baudRate"`
	ReadTimeout time.Duration `yaml:"readTimeout"`
}

// Config is the configuration for the Controller.
//
// All duration fields accept standard Go duration strings like "500ms", "1s", "1m".
type Config struct {
	// NATSURL is the NATS server URL used by the command-line programs.
	NATSURL string `yaml:"natsUrl"`

	// VehicleID identifies the vehicle; it scopes subjects and consumers.
	VehicleID string `yaml:"vehicleId"`

	// Target is the fixed waypoint.
	Target TargetConfig `yaml:"target"`

	// AltitudeTolerance is the altitude error (meters) above which an altitude command is issued.
	AltitudeTolerance float64 `yaml:"altitudeTolerance"`

	// YawToleranceDeg is the heading error (degrees) above which a yaw command is issued.
	YawToleranceDeg float64 `yaml:"yawToleranceDeg"`

	// YawRateDegPerSec is the rotation rate carried by yaw commands.
	YawRateDegPerSec float64 `yaml:"yawRateDegPerSec"`

	// YawDirection is the fixed rotation direction: "clockwise" or "counter-clockwise".
	YawDirection string `yaml:"yawDirection"`

	// SignedYawDirection derives the direction from the sign of the heading error
	// instead of using YawDirection.
	SignedYawDirection bool `yaml:"signedYawDirection"`

	// ReceiveTimeout bounds each telemetry receive and therefore shutdown latency.
	ReceiveTimeout time.Duration `yaml:"receiveTimeout"`

	// HeartbeatPollInterval is the pause between heartbeat polls.
	HeartbeatPollInterval time.Duration `yaml:"heartbeatPollInterval"`

	// HeartbeatMissThreshold is the number of consecutive misses that declares the link lost.
	HeartbeatMissThreshold int `yaml:"heartbeatMissThreshold"`

	// OperationTimeout bounds NATS setup calls during Start.
	OperationTimeout time.Duration `yaml:"operationTimeout"`

	// ShutdownTimeout bounds how long Stop waits for the loops to exit.
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`

	Subjects SubjectConfig `yaml:"subjects"`
	Streams  StreamConfig  `yaml:"streams"`
	Command  CommandConfig `yaml:"command"`
	Journal  JournalConfig `yaml:"journal"`
	Metrics  MetricsConfig `yaml:"metrics"`
	Serial   SerialConfig  `yaml:"serial"`
	Lease    LeaseConfig   `yaml:"lease"`
}

// DefaultConfig returns a Config with sensible defaults.
//
// Returns:
//   - Config: Configuration with default values
func DefaultConfig() Config {
	return Config{
		NATSURL:                "nats://127.0.0.1:4222",
		VehicleID:              "uav-1",
		AltitudeTolerance:      0.5,
		YawToleranceDeg:        5,
		YawRateDegPerSec:       5,
		YawDirection:           types.Clockwise.String(),
		ReceiveTimeout:         1 * time.Second,
		HeartbeatPollInterval:  1 * time.Second,
		HeartbeatMissThreshold: 5,
		OperationTimeout:       5 * time.Second,
		ShutdownTimeout:        10 * time.Second,
		Subjects: SubjectConfig{
			Prefix: "guidance",
		},
		Streams: StreamConfig{
			Telemetry: "GUIDANCE_TELEMETRY",
			Status:    "GUIDANCE_STATUS",
			MaxAge:    24 * time.Hour,
			Create:    true,
		},
		Command: CommandConfig{
			TargetSystem:    1,
			TargetComponent: 0,
		},
		Metrics: MetricsConfig{
			Namespace: "guidance",
		},
		Serial: SerialConfig{
			BaudRate:    57600,
			ReadTimeout: 1 * time.Second,
		},
		Lease: LeaseConfig{
			Bucket: "GUIDANCE_LEASES",
			TTL:    10 * time.Second,
		},
	}
}

// SetDefaults fills in missing configuration values with production defaults.
//
// Target, Journal.Path, Metrics.Addr, Serial.Port and the boolean switches
// have no default: their zero values are meaningful.
//
// Parameters:
//   - cfg: Config to apply defaults to (modified in place)
func SetDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.NATSURL == "" {
		cfg.NATSURL = defaults.NATSURL
	}
	if cfg.VehicleID == "" {
		cfg.VehicleID = defaults.VehicleID
	}
	if cfg.AltitudeTolerance == 0 {
		cfg.AltitudeTolerance = defaults.AltitudeTolerance
	}
	if cfg.YawToleranceDeg == 0 {
		cfg.YawToleranceDeg = defaults.YawToleranceDeg
	}
	if cfg.YawRateDegPerSec == 0 {
		cfg.YawRateDegPerSec = defaults.YawRateDegPerSec
	}
	if cfg.YawDirection == "" {
		cfg.YawDirection = defaults.YawDirection
	}
	if cfg.ReceiveTimeout == 0 {
		cfg.ReceiveTimeout = defaults.ReceiveTimeout
	}
	if cfg.HeartbeatPollInterval == 0 {
		cfg.HeartbeatPollInterval = defaults.HeartbeatPollInterval
	}
	if cfg.HeartbeatMissThreshold == 0 {
		cfg.HeartbeatMissThreshold = defaults.HeartbeatMissThreshold
	}
	if cfg.OperationTimeout == 0 {
		cfg.OperationTimeout = defaults.OperationTimeout
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = defaults.ShutdownTimeout
	}
	if cfg.Subjects.Prefix == "" {
		cfg.Subjects.Prefix = defaults.Subjects.Prefix
	}
	if cfg.Subjects.Telemetry == "" {
		cfg.Subjects.Telemetry = cfg.subjectFor("telemetry")
	}
	if cfg.Subjects.Command == "" {
		cfg.Subjects.Command = cfg.subjectFor("command")
	}
	if cfg.Subjects.Heartbeat == "" {
		cfg.Subjects.Heartbeat = cfg.subjectFor("heartbeat")
	}
	if cfg.Subjects.Status == "" {
		cfg.Subjects.Status = cfg.subjectFor("status")
	}
	if cfg.Streams.Telemetry == "" {
		cfg.Streams.Telemetry = defaults.Streams.Telemetry
	}
	if cfg.Streams.Status == "" {
		cfg.Streams.Status = defaults.Streams.Status
	}
	if cfg.Streams.TelemetryDurable == "" {
		cfg.Streams.TelemetryDurable = "guidance-" + cfg.VehicleID
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = defaults.Metrics.Namespace
	}
	if cfg.Serial.BaudRate == 0 {
		cfg.Serial.BaudRate = defaults.Serial.BaudRate
	}
	if cfg.Serial.ReadTimeout == 0 {
		cfg.Serial.ReadTimeout = defaults.Serial.ReadTimeout
	}
	if cfg.Lease.Bucket == "" {
		cfg.Lease.Bucket = defaults.Lease.Bucket
	}
	if cfg.Lease.TTL == 0 {
		cfg.Lease.TTL = defaults.Lease.TTL
	}
	if cfg.Lease.Holder == "" {
		cfg.Lease.Holder = defaultHolder()
	}
	// Note: TargetSystem/TargetComponent of 0 are valid MAVLink ids, so no default is applied.
}

func defaultHolder() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "guidance"
	}

	return host
}

func (cfg *Config) subjectFor(kind string) string {
	return fmt.Sprintf("%s.%s.%s", cfg.Subjects.Prefix, kind, cfg.VehicleID)
}

// StreamSubjects returns the wildcard subjects captured by the telemetry and status streams.
func (cfg *Config) StreamSubjects() (telemetry, status string) {
	return cfg.Subjects.Prefix + ".telemetry.>", cfg.Subjects.Prefix + ".status.>"
}

// Validate checks configuration constraints and returns error for invalid values.
//
// Hard Validation Rules:
//   - VehicleID is a single NATS subject token
//   - AltitudeTolerance, YawToleranceDeg, YawRateDegPerSec >= 0
//   - YawDirection parses as clockwise or counter-clockwise
//   - ReceiveTimeout, HeartbeatPollInterval, OperationTimeout > 0
//   - HeartbeatMissThreshold >= 1
//   - All subjects and stream names are set
//
// Returns:
//   - error: Error wrapping types.ErrInvalidConfig, nil if valid
func (cfg *Config) Validate() error {
	if cfg.VehicleID == "" || strings.ContainsAny(cfg.VehicleID, " .*>") {
		return fmt.Errorf("%w: VehicleID %q must be a non-empty subject token", types.ErrInvalidConfig, cfg.VehicleID)
	}

	if cfg.AltitudeTolerance < 0 || cfg.YawToleranceDeg < 0 || cfg.YawRateDegPerSec < 0 {
		return fmt.Errorf(
			"%w: AltitudeTolerance (%v), YawToleranceDeg (%v) and YawRateDegPerSec (%v) must be >= 0",
			types.ErrInvalidConfig, cfg.AltitudeTolerance, cfg.YawToleranceDeg, cfg.YawRateDegPerSec,
		)
	}

	if _, ok := types.ParseYawDirection(cfg.YawDirection); !ok {
		return fmt.Errorf("%w: YawDirection %q must be clockwise or counter-clockwise", types.ErrInvalidConfig, cfg.YawDirection)
	}

	if cfg.ReceiveTimeout <= 0 || cfg.HeartbeatPollInterval <= 0 || cfg.OperationTimeout <= 0 {
		return fmt.Errorf(
			"%w: ReceiveTimeout (%v), HeartbeatPollInterval (%v) and OperationTimeout (%v) must be > 0",
			types.ErrInvalidConfig, cfg.ReceiveTimeout, cfg.HeartbeatPollInterval, cfg.OperationTimeout,
		)
	}

	if cfg.HeartbeatMissThreshold < 1 {
		return fmt.Errorf("%w: HeartbeatMissThreshold must be >= 1, got %d", types.ErrInvalidConfig, cfg.HeartbeatMissThreshold)
	}

	if cfg.Subjects.Telemetry == "" || cfg.Subjects.Command == "" || cfg.Subjects.Heartbeat == "" || cfg.Subjects.Status == "" {
		return fmt.Errorf("%w: telemetry, command, heartbeat and status subjects are required", types.ErrInvalidConfig)
	}

	if cfg.Streams.Telemetry == "" || cfg.Streams.Status == "" {
		return fmt.Errorf("%w: telemetry and status stream names are required", types.ErrInvalidConfig)
	}

	if cfg.Lease.Enabled && (cfg.Lease.Bucket == "" || cfg.Lease.TTL < time.Second) {
		return fmt.Errorf("%w: lease requires a bucket and TTL >= 1s, got %q/%v", types.ErrInvalidConfig, cfg.Lease.Bucket, cfg.Lease.TTL)
	}

	return nil
}

// ValidateWithWarnings logs warnings for valid but unusual values.
//
// This is called after Validate() in NewController() to provide operator guidance.
//
// Parameters:
//   - logger: Logger instance for warning output
func (cfg *Config) ValidateWithWarnings(logger Logger) {
	if cfg.ReceiveTimeout > 5*time.Second {
		logger.Warn(
			"ReceiveTimeout is long, shutdown may be slow",
			"receiveTimeout", cfg.ReceiveTimeout,
			"recommended", "1s",
		)
	}

	if cfg.HeartbeatMissThreshold == 1 {
		logger.Warn(
			"HeartbeatMissThreshold of 1 disables hysteresis, a single dropped heartbeat flips the link",
			"recommended", 5,
		)
	}

	if cfg.Target == (TargetConfig{}) {
		logger.Warn("target waypoint is the origin, check the configuration")
	}

	if cfg.SignedYawDirection {
		logger.Warn("signed yaw direction enabled, yaw commands no longer use a fixed direction")
	}
}

// TestConfig returns a configuration optimized for fast test execution.
//
// Returns:
//   - Config: Configuration with fast timings for tests
//
// Example:
//
//	cfg := guidance.TestConfig()
//	cfg.Target = guidance.TargetConfig{X: 10, Z: 5}
//	ctrl, err := guidance.NewController(&cfg, nc)
func TestConfig() Config {
	cfg := DefaultConfig()

	cfg.ReceiveTimeout = 200 * time.Millisecond
	cfg.HeartbeatPollInterval = 20 * time.Millisecond
	cfg.OperationTimeout = 2 * time.Second
	cfg.ShutdownTimeout = 2 * time.Second
	cfg.Streams.MaxAge = time.Hour

	return cfg
}

// LoadConfig loads configuration from a YAML file.
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded configuration with defaults applied
//   - error: Error if file cannot be read, parsed or validated
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	SetDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
