package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// FileName is the configuration file looked up in the config directory.
const FileName = "autopilot.cfg.json"

// PipelineConfig holds channel and cadence settings for the pipeline tasks.
type PipelineConfig struct {
	ChannelCapacity int           `json:"channelCapacity" mapstructure:"channelCapacity"`
	ChannelTimeout  time.Duration `json:"channelTimeout" mapstructure:"channelTimeout"`
	SenderInterval  time.Duration `json:"senderInterval" mapstructure:"senderInterval"`
	MonitorInterval time.Duration `json:"monitorInterval" mapstructure:"monitorInterval"`
	StopOnExit      bool          `json:"stopOnExit" mapstructure:"stopOnExit"`
}

// BoundaryConfig holds the ray-cast sensor tunables.
type BoundaryConfig struct {
	BlackThreshold   int `json:"blackThreshold" mapstructure:"blackThreshold"`
	SkipDistance     int `json:"skipDistance" mapstructure:"skipDistance"`
	RayMaxLength     int `json:"rayMaxLength" mapstructure:"rayMaxLength"`
	EvasiveThreshold int `json:"evasiveThreshold" mapstructure:"evasiveThreshold"`
}

// NavigationConfig holds the heading-decision tunables.
type NavigationConfig struct {
	DecisionThreshold int            `json:"decisionThreshold" mapstructure:"decisionThreshold"`
	BaseSpeed         int            `json:"baseSpeed" mapstructure:"baseSpeed"`
	MaxTurnAngle      int            `json:"maxTurnAngle" mapstructure:"maxTurnAngle"`
	Boundary          BoundaryConfig `json:"boundary" mapstructure:"boundary"`
}

// ControlConfig selects the control mode and the per-mode ceilings.
type ControlConfig struct {
	Mode          string `json:"mode" mapstructure:"mode"`
	ManualCeiling int    `json:"manualCeiling" mapstructure:"manualCeiling"`
	VisionCeiling int    `json:"visionCeiling" mapstructure:"visionCeiling"`
}

// ProtocolConfig holds the constant framing of the wire command.
type ProtocolConfig struct {
	Identifier string `json:"identifier" mapstructure:"identifier"`
	Checksum   string `json:"checksum" mapstructure:"checksum"`
}

// SerialConfig holds serial bridge settings.
type SerialConfig struct {
	Port     string `json:"port" mapstructure:"port"`
	BaudRate int    `json:"baudRate" mapstructure:"baudRate"`
	DataBits int    `json:"dataBits" mapstructure:"dataBits"`
	StopBits int    `json:"stopBits" mapstructure:"stopBits"`
	Parity   string `json:"parity" mapstructure:"parity"`
}

// WebSocketConfig holds network bridge settings.
type WebSocketConfig struct {
	URL    string `json:"url" mapstructure:"url"`
	Secret string `json:"secret" mapstructure:"secret"`
}

// TransportConfig selects and configures the link to the car.
type TransportConfig struct {
	Type           string          `json:"type" mapstructure:"type"`
	Device         string          `json:"device" mapstructure:"device"`
	Characteristic string          `json:"characteristic" mapstructure:"characteristic"`
	AckTimeout     time.Duration   `json:"ackTimeout" mapstructure:"ackTimeout"`
	Serial         SerialConfig    `json:"serial" mapstructure:"serial"`
	WebSocket      WebSocketConfig `json:"websocket" mapstructure:"websocket"`
}

// SourceConfig selects the tracking source.
type SourceConfig struct {
	Type          string        `json:"type" mapstructure:"type"`
	Track         string        `json:"track" mapstructure:"track"`
	Recording     string        `json:"recording" mapstructure:"recording"`
	FrameInterval time.Duration `json:"frameInterval" mapstructure:"frameInterval"`
	StartX        float64       `json:"startX" mapstructure:"startX"`
	StartY        float64       `json:"startY" mapstructure:"startY"`
	MaxTicks      int           `json:"maxTicks" mapstructure:"maxTicks"`
}

// MemoryConfig holds in-memory/JSON storage backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds SQLite storage backend settings
type SQLiteConfig struct {
	DumpInterval time.Duration `json:"dumpInterval" mapstructure:"dumpInterval"`
	OutputDir    string        `json:"outputDir" mapstructure:"outputDir"`
}

// PostgresConfig holds connection settings for the postgres backend.
type PostgresConfig struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
}

// InfluxConfig holds connection settings for the influx backend.
type InfluxConfig struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Protocol string `json:"protocol" mapstructure:"protocol"`
	Token    string `json:"token" mapstructure:"token"`
	Org      string `json:"org" mapstructure:"org"`
	Bucket   string `json:"bucket" mapstructure:"bucket"`
}

// StorageConfig holds run recorder storage settings.
type StorageConfig struct {
	Type          string         `json:"type" mapstructure:"type"`
	FlushInterval time.Duration  `json:"flushInterval" mapstructure:"flushInterval"`
	BatchSize     int            `json:"batchSize" mapstructure:"batchSize"`
	Memory        MemoryConfig   `json:"memory" mapstructure:"memory"`
	SQLite        SQLiteConfig   `json:"sqlite" mapstructure:"sqlite"`
	Postgres      PostgresConfig `json:"postgres" mapstructure:"postgres"`
	Influx        InfluxConfig   `json:"influx" mapstructure:"influx"`
}

// OTelConfig holds OpenTelemetry settings.
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure     bool          `json:"insecure" mapstructure:"insecure"`
}

// APIConfig holds the upload server settings.
type APIConfig struct {
	ServerURL string `json:"serverUrl" mapstructure:"serverUrl"`
	APIKey    string `json:"apiKey" mapstructure:"apiKey"`
}

// GraylogConfig holds GELF log shipping settings.
type GraylogConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Address string `json:"address" mapstructure:"address"`
}

// SetDefaults registers every default value with viper.
func SetDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("defaultTag", "TrackDay")
	viper.SetDefault("logsDir", "./autopilot-logs")
	viper.SetDefault("statusFile", "")

	viper.SetDefault("pipeline.channelCapacity", 20)
	viper.SetDefault("pipeline.channelTimeout", "100ms")
	viper.SetDefault("pipeline.senderInterval", "5ms")
	viper.SetDefault("pipeline.monitorInterval", "10s")
	viper.SetDefault("pipeline.stopOnExit", true)

	viper.SetDefault("boundary.blackThreshold", 50)
	viper.SetDefault("boundary.skipDistance", 20)
	viper.SetDefault("boundary.rayMaxLength", 200)
	viper.SetDefault("boundary.evasiveThreshold", 80)

	viper.SetDefault("navigation.decisionThreshold", 10)
	viper.SetDefault("navigation.baseSpeed", 10)
	viper.SetDefault("navigation.maxTurnAngle", 8)

	viper.SetDefault("control.mode", "vision")
	viper.SetDefault("control.ceiling.manual", 100)
	viper.SetDefault("control.ceiling.vision", 30)

	viper.SetDefault("protocol.identifier", "bf0a00082800")
	viper.SetDefault("protocol.checksum", "00")

	viper.SetDefault("transport.type", "dryrun")
	viper.SetDefault("transport.device", "f9:af:3c:e2:d2:f5")
	viper.SetDefault("transport.characteristic", "6e400002-b5a3-f393-e0a9-e50e24dcca9e")
	viper.SetDefault("transport.ackTimeout", "50ms")
	viper.SetDefault("transport.serial.port", "/dev/ttyUSB0")
	viper.SetDefault("transport.serial.baudRate", 115200)
	viper.SetDefault("transport.serial.dataBits", 8)
	viper.SetDefault("transport.serial.stopBits", 1)
	viper.SetDefault("transport.serial.parity", "N")
	viper.SetDefault("transport.websocket.url", "ws://localhost:8765/bridge")
	viper.SetDefault("transport.websocket.secret", "")

	viper.SetDefault("source.type", "simulator")
	viper.SetDefault("source.track", "")
	viper.SetDefault("source.recording", "")
	viper.SetDefault("source.frameInterval", "33ms")
	viper.SetDefault("source.startX", 0.0)
	viper.SetDefault("source.startY", 0.0)
	viper.SetDefault("source.maxTicks", 0)

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.flushInterval", "1s")
	viper.SetDefault("storage.batchSize", 500)
	viper.SetDefault("storage.memory.outputDir", "./runs")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.sqlite.dumpInterval", "3m")
	viper.SetDefault("storage.sqlite.outputDir", "./runs")
	viper.SetDefault("storage.postgres.host", "localhost")
	viper.SetDefault("storage.postgres.port", "5432")
	viper.SetDefault("storage.postgres.username", "postgres")
	viper.SetDefault("storage.postgres.password", "postgres")
	viper.SetDefault("storage.postgres.database", "autopilot")
	viper.SetDefault("storage.influx.host", "localhost")
	viper.SetDefault("storage.influx.port", "8086")
	viper.SetDefault("storage.influx.protocol", "http")
	viper.SetDefault("storage.influx.token", "supersecrettoken")
	viper.SetDefault("storage.influx.org", "driftcars")
	viper.SetDefault("storage.influx.bucket", "autopilot")

	viper.SetDefault("api.serverUrl", "")
	viper.SetDefault("api.apiKey", "")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "autopilot")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	SetDefaults()

	viper.SetEnvPrefix("AUTOPILOT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetPipelineConfig returns the pipeline settings.
func GetPipelineConfig() PipelineConfig {
	return PipelineConfig{
		ChannelCapacity: viper.GetInt("pipeline.channelCapacity"),
		ChannelTimeout:  viper.GetDuration("pipeline.channelTimeout"),
		SenderInterval:  viper.GetDuration("pipeline.senderInterval"),
		MonitorInterval: viper.GetDuration("pipeline.monitorInterval"),
		StopOnExit:      viper.GetBool("pipeline.stopOnExit"),
	}
}

// GetNavigationConfig returns the guidance and boundary sensor settings.
func GetNavigationConfig() NavigationConfig {
	return NavigationConfig{
		DecisionThreshold: viper.GetInt("navigation.decisionThreshold"),
		BaseSpeed:         viper.GetInt("navigation.baseSpeed"),
		MaxTurnAngle:      viper.GetInt("navigation.maxTurnAngle"),
		Boundary: BoundaryConfig{
			BlackThreshold:   viper.GetInt("boundary.blackThreshold"),
			SkipDistance:     viper.GetInt("boundary.skipDistance"),
			RayMaxLength:     viper.GetInt("boundary.rayMaxLength"),
			EvasiveThreshold: viper.GetInt("boundary.evasiveThreshold"),
		},
	}
}

// GetControlConfig returns the control mode and ceilings.
func GetControlConfig() ControlConfig {
	return ControlConfig{
		Mode:          viper.GetString("control.mode"),
		ManualCeiling: viper.GetInt("control.ceiling.manual"),
		VisionCeiling: viper.GetInt("control.ceiling.vision"),
	}
}

// GetProtocolConfig returns the wire command framing.
func GetProtocolConfig() ProtocolConfig {
	return ProtocolConfig{
		Identifier: viper.GetString("protocol.identifier"),
		Checksum:   viper.GetString("protocol.checksum"),
	}
}

// GetTransportConfig returns the transport settings.
func GetTransportConfig() TransportConfig {
	return TransportConfig{
		Type:           viper.GetString("transport.type"),
		Device:         viper.GetString("transport.device"),
		Characteristic: viper.GetString("transport.characteristic"),
		AckTimeout:     viper.GetDuration("transport.ackTimeout"),
		Serial: SerialConfig{
			Port:     viper.GetString("transport.serial.port"),
			BaudRate: viper.GetInt("transport.serial.baudRate"),
			DataBits: viper.GetInt("transport.serial.dataBits"),
			StopBits: viper.GetInt("transport.serial.stopBits"),
			Parity:   viper.GetString("transport.serial.parity"),
		},
		WebSocket: WebSocketConfig{
			URL:    viper.GetString("transport.websocket.url"),
			Secret: viper.GetString("transport.websocket.secret"),
		},
	}
}

// GetSourceConfig returns the tracking source settings.
func GetSourceConfig() SourceConfig {
	return SourceConfig{
		Type:          viper.GetString("source.type"),
		Track:         viper.GetString("source.track"),
		Recording:     viper.GetString("source.recording"),
		FrameInterval: viper.GetDuration("source.frameInterval"),
		StartX:        viper.GetFloat64("source.startX"),
		StartY:        viper.GetFloat64("source.startY"),
		MaxTicks:      viper.GetInt("source.maxTicks"),
	}
}

// GetStorageConfig returns the run recorder storage settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type:          viper.GetString("storage.type"),
		FlushInterval: viper.GetDuration("storage.flushInterval"),
		BatchSize:     viper.GetInt("storage.batchSize"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
			OutputDir:    viper.GetString("storage.sqlite.outputDir"),
		},
		Postgres: PostgresConfig{
			Host:     viper.GetString("storage.postgres.host"),
			Port:     viper.GetString("storage.postgres.port"),
			Username: viper.GetString("storage.postgres.username"),
			Password: viper.GetString("storage.postgres.password"),
			Database: viper.GetString("storage.postgres.database"),
		},
		Influx: InfluxConfig{
			Host:     viper.GetString("storage.influx.host"),
			Port:     viper.GetString("storage.influx.port"),
			Protocol: viper.GetString("storage.influx.protocol"),
			Token:    viper.GetString("storage.influx.token"),
			Org:      viper.GetString("storage.influx.org"),
			Bucket:   viper.GetString("storage.influx.bucket"),
		},
	}
}

// GetOTelConfig returns the OpenTelemetry settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// GetAPIConfig returns the upload server settings.
func GetAPIConfig() APIConfig {
	return APIConfig{
		ServerURL: viper.GetString("api.serverUrl"),
		APIKey:    viper.GetString("api.apiKey"),
	}
}

// GetGraylogConfig returns the GELF log shipping settings.
func GetGraylogConfig() GraylogConfig {
	return GraylogConfig{
		Enabled: viper.GetBool("graylog.enabled"),
		Address: viper.GetString("graylog.address"),
	}
}
