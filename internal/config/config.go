package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the main configuration for dose.
type Config struct {
	BaseDir       string              `toml:"base_dir"`
	LogDir        string              `toml:"log_dir"`
	LogLevel      string              `toml:"log_level"` // "debug", "info" (default), "warn" or "error"
	Store         StoreConfig         `toml:"store"`
	Encryption    EncryptionConfig    `toml:"encryption"`
	Notifications NotificationsConfig `toml:"notifications"`
	Scheduler     SchedulerConfig     `toml:"scheduler"`
	Assistant     AssistantConfig     `toml:"assistant"`
	Archive       ArchiveConfig       `toml:"archive"`
	Server        ServerConfig        `toml:"server"`
}

// StoreConfig represents configuration for the record store.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type StoreConfig struct {
	Type string `toml:"type"` // "memory", "filesystem", "sqlite" or "s3"

	// Dir holds the store files (only used when Type is "filesystem" or "sqlite")
	Dir string `toml:"dir,omitempty"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket    string `toml:"s3_bucket,omitempty"`
	S3Prefix    string `toml:"s3_prefix,omitempty"`
	S3Region    string `toml:"s3_region,omitempty"`
	S3Endpoint  string `toml:"s3_endpoint,omitempty"` // S3-compatible endpoint, e.g. MinIO
	S3AccessKey string `toml:"s3_access_key,omitempty"`
	S3SecretKey string `toml:"s3_secret_key,omitempty"`
}

// EncryptionConfig holds paths to the age key pair used to encrypt stored records.
type EncryptionConfig struct {
	Type           string `toml:"type"` // "none" (default), "age" or "test"
	PublicKeyPath  string `toml:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path"`
}

// NotificationsConfig selects the host notification capability.
type NotificationsConfig struct {
	Type           string `toml:"type"`                      // "console" (default), "push", "memory" or "none"
	PermissionFile string `toml:"permission_file,omitempty"` // where the granted/denied decision is kept
	PushURL        string `toml:"push_url,omitempty"`        // only used for type=push
	PushToken      string `toml:"push_token,omitempty"`
}

// SchedulerConfig holds the reminder poll periods.
type SchedulerConfig struct {
	MedicationPoll    Duration `toml:"medication_poll"`
	AppointmentPoll   Duration `toml:"appointment_poll"`
	AppointmentWindow Duration `toml:"appointment_window"`
	ResetGrace        Duration `toml:"reset_grace"`
	PermissionCheck   Duration `toml:"permission_check"`
}

// AssistantConfig configures the generative-text service.
type AssistantConfig struct {
	Endpoint string   `toml:"endpoint"`
	Model    string   `toml:"model"`
	APIKey   string   `toml:"api_key"`
	Timeout  Duration `toml:"timeout"`
}

// ArchiveConfig limits document uploads.
type ArchiveConfig struct {
	MaxFileSize int64 `toml:"max_file_size"` // bytes; defaults to 5MB
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Listen string `toml:"listen"`
}

// Duration is a time.Duration written as a string such as "30s" or "5m".
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

// NewConfig creates a new Config rooted at baseDir with default settings.
func NewConfig(baseDir string) *Config {
	return &Config{
		BaseDir:  baseDir,
		LogDir:   filepath.Join(baseDir, "log"),
		LogLevel: "info",
		Store: StoreConfig{
			Type: "sqlite",
			Dir:  filepath.Join(baseDir, "data"),
		},
		Encryption: EncryptionConfig{
			Type:           "none",
			PublicKeyPath:  filepath.Join(baseDir, "keys", "dose.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "dose.key"),
		},
		Notifications: NotificationsConfig{
			Type:           "console",
			PermissionFile: filepath.Join(baseDir, "notification-permission"),
		},
		Scheduler: SchedulerConfig{
			MedicationPoll:    Duration{30 * time.Second},
			AppointmentPoll:   Duration{5 * time.Minute},
			AppointmentWindow: Duration{24 * time.Hour},
			ResetGrace:        Duration{5 * time.Second},
			PermissionCheck:   Duration{30 * time.Second},
		},
		Assistant: AssistantConfig{
			Endpoint: "https://generativelanguage.googleapis.com",
			Model:    "gemini-1.5-flash",
			Timeout:  Duration{30 * time.Second},
		},
		Archive: ArchiveConfig{MaxFileSize: 5 << 20},
		Server:  ServerConfig{Listen: "127.0.0.1:8080"},
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// The file may hold an API key and store credentials.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
