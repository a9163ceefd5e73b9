package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

var (
	ErrMissingRequired    = errors.New("missing required configuration")
	ErrMissingCredentials = errors.New("missing AWS credentials")
)

const (
	EnvSettingsFile     = "ENCODER_SETTINGS_FILE"
	DefaultEndpointPath = "/elastic-transcoder/endpoint"
	DefaultServerPort   = "8080"
	DefaultStaleAfter   = time.Hour
)

// Config holds the application configuration. It is built once and passed
// explicitly to the server, the CLI commands and the AWS client.
type Config struct {
	// Database
	DatabaseURL string `yaml:"database_url" envconfig:"DATABASE_URL"`

	// Server
	ServerPort string `yaml:"server_port" envconfig:"SERVER_PORT"`

	AWS        AWSConfig        `yaml:"aws"`
	Transcoder TranscoderConfig `yaml:"transcoder"`
	Admin      AdminConfig      `yaml:"admin"`
	Monitor    MonitorConfig    `yaml:"monitor"`
}

// AWSConfig holds the credentials and default region shared by every
// provisioning operation.
type AWSConfig struct {
	AccessKeyID     string `yaml:"access_key_id" envconfig:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key" envconfig:"AWS_SECRET_ACCESS_KEY"`
	Region          string `yaml:"region" envconfig:"AWS_REGION"`
}

// TranscoderConfig holds the default resource names used when a command is
// not given them explicitly.
type TranscoderConfig struct {
	InputBucket  string `yaml:"input_bucket" envconfig:"ELASTIC_TRANSCODER_INPUT_BUCKET"`
	OutputBucket string `yaml:"output_bucket" envconfig:"ELASTIC_TRANSCODER_OUTPUT_BUCKET"`
	TopicARN     string `yaml:"topic_arn" envconfig:"ELASTIC_TRANSCODER_TOPIC_ARN"`
	IAMRole      string `yaml:"iam_role" envconfig:"ELASTIC_TRANSCODER_IAM_ROLE"`
	Pipeline     string `yaml:"pipeline,omitempty" envconfig:"ELASTIC_TRANSCODER_PIPELINE"`
	EndpointPath string `yaml:"endpoint_path,omitempty" envconfig:"ELASTIC_TRANSCODER_ENDPOINT_PATH"`
}

// AdminConfig describes where operator notices are sent.
type AdminConfig struct {
	Emails       []string `yaml:"emails" envconfig:"ADMIN_EMAILS"`
	From         string   `yaml:"from" envconfig:"SERVER_EMAIL"`
	SMTPAddr     string   `yaml:"smtp_addr" envconfig:"SMTP_ADDR"`
	SMTPUser     string   `yaml:"smtp_user" envconfig:"SMTP_USER"`
	SMTPPassword string   `yaml:"smtp_password" envconfig:"SMTP_PASSWORD"`
}

type MonitorConfig struct {
	StaleAfter time.Duration `yaml:"stale_after" envconfig:"MONITOR_STALE_AFTER"`
}

// Load builds the configuration from, in increasing priority: an optional
// YAML settings file, a .env file and the process environment.
func Load(settingsPath string) (*Config, error) {
	// Ignore errors, the environment may already be populated
	_ = godotenv.Load(".env")

	if settingsPath == "" {
		settingsPath = os.Getenv(EnvSettingsFile)
	}

	var cfg Config
	if settingsPath != "" {
		if err := loadSettingsFile(settingsPath, &cfg); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func loadSettingsFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read settings file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse settings file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.ServerPort == "" {
		c.ServerPort = DefaultServerPort
	}
	if c.Transcoder.EndpointPath == "" {
		c.Transcoder.EndpointPath = DefaultEndpointPath
	}
	if c.Monitor.StaleAfter == 0 {
		c.Monitor.StaleAfter = DefaultStaleAfter
	}
}

// ValidateServer checks the settings the webhook server cannot run without.
func (c *Config) ValidateServer() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("%w: DATABASE_URL", ErrMissingRequired)
	}
	return nil
}

// Validate reports missing credentials before any AWS call is attempted.
func (a AWSConfig) Validate() error {
	if a.AccessKeyID == "" {
		return fmt.Errorf("%w: please provide AWS_ACCESS_KEY_ID", ErrMissingCredentials)
	}
	if a.SecretAccessKey == "" {
		return fmt.Errorf("%w: please provide AWS_SECRET_ACCESS_KEY", ErrMissingCredentials)
	}
	return nil
}

// SaveSettings writes the transcoder defaults to a YAML settings file so
// later commands can pick them up. Existing non-transcoder settings in the
// file are preserved.
func SaveSettings(path string, t TranscoderConfig) error {
	var cfg Config
	if err := loadSettingsFile(path, &cfg); err != nil {
		return err
	}
	cfg.Transcoder = t

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	return nil
}
