package config

import (
	"crypto/rand"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the sHome bridge.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	SHome        SHomeConfig        `yaml:"shome"`
	Coordinators CoordinatorsConfig `yaml:"coordinators"`
	MQTT         MQTTConfig         `yaml:"mqtt"`
	InfluxDB     InfluxDBConfig     `yaml:"influxdb"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// SHomeConfig contains cloud API connection settings and the account credential.
type SHomeConfig struct {
	BaseURL    string           `yaml:"base_url"`
	Credential CredentialConfig `yaml:"credential"`

	// Timeout is the per-request HTTP timeout in seconds.
	Timeout int `yaml:"timeout"`
}

// CredentialConfig identifies one sHome account.
//
// Either Password (plaintext, hashed once at load) or PasswordHash
// (SHA-512 hex of the plaintext) must be set. The API only ever sees
// the hash. DeviceID is the mobile device identifier presented at
// login; a random one is generated when left empty.
type CredentialConfig struct {
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	PasswordHash string `yaml:"password_hash"`
	DeviceID     string `yaml:"device_id"`
}

// CoordinatorsConfig contains polling and refresh behaviour per device category.
type CoordinatorsConfig struct {
	// SensorInterval is the sensor polling interval in seconds.
	// Lights, climate and ventilation are refreshed on demand only.
	SensorInterval int `yaml:"sensor_interval"`

	// RefreshCooldown is the debounce window for manual refresh requests,
	// in milliseconds.
	RefreshCooldown int `yaml:"refresh_cooldown"`

	// ConfirmDelay is the delay before the post-command confirmation poll
	// for lights and climate, in milliseconds.
	ConfirmDelay int `yaml:"confirm_delay"`

	// VentilationConfirmDelay is the post-command confirmation delay for
	// ventilation, in milliseconds.
	VentilationConfirmDelay int `yaml:"ventilation_confirm_delay"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// InfluxDBConfig contains InfluxDB connection settings for telemetry.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: SHOMEBRIDGE_SECTION_KEY
// For example: SHOMEBRIDGE_SHOME_USERNAME, SHOMEBRIDGE_MQTT_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	// Normalise the credential (hash plaintext password, generate device ID)
	cfg.normaliseCredential()

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		SHome: SHomeConfig{
			BaseURL: "https://shome-api.samsung-ihp.com",
			Timeout: 15,
		},
		Coordinators: CoordinatorsConfig{
			SensorInterval:          60,
			RefreshCooldown:         1000,
			ConfirmDelay:            2000,
			VentilationConfirmDelay: 1000,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "shome-bridge",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: SHOMEBRIDGE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// sHome account
	if v := os.Getenv("SHOMEBRIDGE_SHOME_USERNAME"); v != "" {
		cfg.SHome.Credential.Username = v
	}
	if v := os.Getenv("SHOMEBRIDGE_SHOME_PASSWORD"); v != "" {
		cfg.SHome.Credential.Password = v
	}
	if v := os.Getenv("SHOMEBRIDGE_SHOME_BASE_URL"); v != "" {
		cfg.SHome.BaseURL = v
	}

	// MQTT
	if v := os.Getenv("SHOMEBRIDGE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("SHOMEBRIDGE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("SHOMEBRIDGE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("SHOMEBRIDGE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Credential validation
	if c.SHome.Credential.Username == "" {
		errs = append(errs, "shome.credential.username is required")
	}
	if c.SHome.Credential.Password == "" && c.SHome.Credential.PasswordHash == "" {
		errs = append(errs, "one of shome.credential.password or shome.credential.password_hash is required")
	}

	// API validation
	if c.SHome.BaseURL == "" {
		errs = append(errs, "shome.base_url is required")
	}
	if c.SHome.Timeout <= 0 {
		errs = append(errs, "shome.timeout must be positive")
	}

	// Coordinator validation
	if c.Coordinators.SensorInterval <= 0 {
		errs = append(errs, "coordinators.sensor_interval must be positive")
	}
	if c.Coordinators.RefreshCooldown <= 0 {
		errs = append(errs, "coordinators.refresh_cooldown must be positive")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}

	// InfluxDB validation (only when enabled)
	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.bucket is required when influxdb is enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// normaliseCredential derives the stored credential form: the plaintext
// password is replaced by its SHA-512 hex digest and a random device ID
// is generated when none is configured.
func (c *Config) normaliseCredential() {
	cred := &c.SHome.Credential

	if cred.PasswordHash == "" && cred.Password != "" {
		sum := sha512.Sum512([]byte(cred.Password))
		cred.PasswordHash = hex.EncodeToString(sum[:])
	}
	cred.Password = ""

	if cred.DeviceID == "" {
		buf := make([]byte, 8)
		_, _ = rand.Read(buf)
		cred.DeviceID = hex.EncodeToString(buf)
	}
}

// GetHTTPTimeout returns the sHome API request timeout as a Duration.
func (c *Config) GetHTTPTimeout() time.Duration {
	return time.Duration(c.SHome.Timeout) * time.Second
}

// GetSensorInterval returns the sensor polling interval as a Duration.
func (c *Config) GetSensorInterval() time.Duration {
	return time.Duration(c.Coordinators.SensorInterval) * time.Second
}

// GetRefreshCooldown returns the refresh debounce window as a Duration.
func (c *Config) GetRefreshCooldown() time.Duration {
	return time.Duration(c.Coordinators.RefreshCooldown) * time.Millisecond
}

// GetConfirmDelay returns the post-command confirmation delay as a Duration.
func (c *Config) GetConfirmDelay() time.Duration {
	return time.Duration(c.Coordinators.ConfirmDelay) * time.Millisecond
}

// GetVentilationConfirmDelay returns the ventilation confirmation delay as a Duration.
func (c *Config) GetVentilationConfirmDelay() time.Duration {
	return time.Duration(c.Coordinators.VentilationConfirmDelay) * time.Millisecond
}
