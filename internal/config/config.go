package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"stflow/internal/dataset"
	"stflow/internal/evaluation"
)

// EnvPrefix namespaces every environment variable, e.g. STFLOW_DATASET_ROOT
const EnvPrefix = "STFLOW"

// EnvConfigFile names the variable that points at a YAML config file
const EnvConfigFile = EnvPrefix + "_CONFIG"

// Config represents the complete application configuration
type Config struct {
	Dataset    DatasetConfig    `yaml:"dataset" envconfig:"DATASET"`
	Evaluation EvaluationConfig `yaml:"evaluation" envconfig:"EVALUATION"`
	Server     ServerConfig     `yaml:"server" envconfig:"SERVER"`
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Telemetry  TelemetryConfig  `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// DatasetConfig contains the dataset location, window layout and initial sample mode
type DatasetConfig struct {
	Root         string `yaml:"root" envconfig:"ROOT" validate:"required"`
	Download     bool   `yaml:"download" envconfig:"DOWNLOAD"`
	LenCloseness int    `yaml:"len_closeness" envconfig:"LEN_CLOSENESS" validate:"min=0"`
	LenPeriod    int    `yaml:"len_period" envconfig:"LEN_PERIOD" validate:"min=0"`
	LenTrend     int    `yaml:"len_trend" envconfig:"LEN_TREND" validate:"min=0"`
	TCloseness   int    `yaml:"t_closeness" envconfig:"T_CLOSENESS" validate:"min=1"`
	TPeriod      int    `yaml:"t_period" envconfig:"T_PERIOD" validate:"min=1,max=24"`
	TTrend       int    `yaml:"t_trend" envconfig:"T_TREND" validate:"min=1"`
	Normalize    bool   `yaml:"normalize" envconfig:"NORMALIZE"`

	Mode             string `yaml:"mode" envconfig:"MODE" validate:"oneof=periodical sequential lead_time"`
	HistoryLength    int    `yaml:"history_length" envconfig:"HISTORY_LENGTH" validate:"required_if=Mode sequential,min=0"`
	PredictionLength int    `yaml:"prediction_length" envconfig:"PREDICTION_LENGTH" validate:"required_if=Mode sequential,min=0"`
	LeadTime         int    `yaml:"lead_time" envconfig:"LEAD_TIME" validate:"min=1"`
}

// EvaluationConfig contains the baseline evaluation settings
type EvaluationConfig struct {
	ValidationRatio float64 `yaml:"validation_ratio" envconfig:"VALIDATION_RATIO" validate:"min=0,max=1"`
	TestRatio       float64 `yaml:"test_ratio" envconfig:"TEST_RATIO" validate:"gt=0,max=1"`
	BatchSize       int     `yaml:"batch_size" envconfig:"BATCH_SIZE" validate:"min=1"`
	Workers         int     `yaml:"workers" envconfig:"WORKERS" validate:"min=1"`
	Iterations      int     `yaml:"iterations" envconfig:"ITERATIONS" validate:"min=1"`
	Seed            uint64  `yaml:"seed" envconfig:"SEED"`
	ReportDir       string  `yaml:"report_dir" envconfig:"REPORT_DIR" validate:"required"`
	BatchLog        bool    `yaml:"batch_log" envconfig:"BATCH_LOG"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int             `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	RequestTimeout  time.Duration   `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" validate:"gt=0"`
	MaxHeaderBytes  int             `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
	AllowedOrigins  []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
	WebSocket       WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"required_if=Enabled true,min=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"required_if=Enabled true,min=0"`
}

// WebSocketConfig contains settings of the sample stream
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE" validate:"min=0"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE" validate:"min=0"`
	WriteWait       time.Duration `yaml:"write_wait" envconfig:"WRITE_WAIT" validate:"gt=0"`
	MaxBatchSize    int           `yaml:"max_batch_size" envconfig:"MAX_BATCH_SIZE" validate:"min=1"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=stdout file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" validate:"required_unless=Output stdout"`
}

// TelemetryConfig contains OpenTelemetry configuration
type TelemetryConfig struct {
	ServiceName    string `yaml:"service_name" envconfig:"SERVICE_NAME" validate:"required"`
	MetricsEnabled bool   `yaml:"metrics_enabled" envconfig:"METRICS_ENABLED"`
	TracingEnabled bool   `yaml:"tracing_enabled" envconfig:"TRACING_ENABLED"`
	TraceExporter  string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=none stdout"`
}

// Default returns default configuration
func Default() *Config {
	eval := evaluation.DefaultConfig()
	return &Config{
		Dataset: DatasetConfig{
			Root:         filepath.Join("data", "deepstn"),
			LenCloseness: dataset.DefaultLenCloseness,
			LenPeriod:    dataset.DefaultLenPeriod,
			LenTrend:     dataset.DefaultLenTrend,
			TCloseness:   dataset.DefaultTCloseness,
			TPeriod:      dataset.DefaultTPeriod,
			TTrend:       dataset.DefaultTTrend,
			Normalize:    true,
			Mode:         dataset.ModePeriodical.String(),
			LeadTime:     dataset.DefaultLeadTime,
		},
		Evaluation: EvaluationConfig{
			ValidationRatio: eval.ValidationRatio,
			TestRatio:       eval.TestRatio,
			BatchSize:       eval.BatchSize,
			Workers:         eval.Workers,
			Iterations:      eval.Iterations,
			Seed:            eval.Seed,
			ReportDir:       "reports",
		},
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			RequestTimeout:  30 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			AllowedOrigins:  []string{"http://localhost:8080"},
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
			WebSocket: WebSocketConfig{
				ReadBufferSize:  1024,
				WriteBufferSize: 64 * 1024,
				WriteWait:       10 * time.Second,
				MaxBatchSize:    256,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "stdout",
			FilePath: filepath.Join("logs", "stflow.log"),
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "stflow",
			MetricsEnabled: true,
			TraceExporter:  "none",
		},
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (or $STFLOW_CONFIG, or a config.yaml found in a common location), then
// STFLOW_* environment variables, and validates the result
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = getConfigFilePath()
	}
	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg. Keys missing from the file keep their value.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.UnmarshalStrict(data, cfg)
}

// getConfigFilePath returns $STFLOW_CONFIG or the first config file found
func getConfigFilePath() string {
	if path := os.Getenv(EnvConfigFile); path != "" {
		return path
	}

	locations := []string{
		"config.yaml",
		filepath.Join("configs", "config.yaml"),
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the struct tags and the window layout of the dataset section
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if _, err := c.Dataset.Options().Windows().Validate(); err != nil {
		return err
	}
	if c.Evaluation.ValidationRatio+c.Evaluation.TestRatio >= 1 {
		return fmt.Errorf("validation_ratio + test_ratio must be < 1, got %g",
			c.Evaluation.ValidationRatio+c.Evaluation.TestRatio)
	}
	return nil
}

// Options converts the dataset section into dataset construction options
func (d DatasetConfig) Options() dataset.Options {
	return dataset.Options{
		Root:         d.Root,
		Download:     d.Download,
		LenCloseness: d.LenCloseness,
		LenPeriod:    d.LenPeriod,
		LenTrend:     d.LenTrend,
		TCloseness:   d.TCloseness,
		TPeriod:      d.TPeriod,
		TTrend:       d.TTrend,
		Normalize:    d.Normalize,
	}
}

// ApplyMode switches ds to the configured sample mode
func (d DatasetConfig) ApplyMode(ds *dataset.Dataset) error {
	mode, err := dataset.ParseMode(d.Mode)
	if err != nil {
		return err
	}
	switch mode {
	case dataset.ModeSequential:
		return ds.SetSequentialRepresentation(d.HistoryLength, d.PredictionLength)
	case dataset.ModeLeadTime:
		return ds.MergeClosenessPeriodTrend(d.LeadTime)
	}
	ds.UsePeriodicalRepresentation()
	return nil
}

// Runner converts the evaluation section into runner settings
func (e EvaluationConfig) Runner() evaluation.Config {
	return evaluation.Config{
		ValidationRatio: e.ValidationRatio,
		TestRatio:       e.TestRatio,
		BatchSize:       e.BatchSize,
		Workers:         e.Workers,
		Iterations:      e.Iterations,
		Seed:            e.Seed,
	}
}
