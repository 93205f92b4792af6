package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
)

// Env holds the DOSE_* environment variables.
type Env struct {
	ConfigPath string `split_words:"true"` // DOSE_CONFIG_PATH
	Home       string // DOSE_HOME
	Passphrase string // DOSE_PASSPHRASE
}

// Defaults are the application's default paths.
type Defaults struct {
	ConfigPath string
	BaseDir    string
	LogDir     string
	Passphrase string
}

// GetDefaults returns application defaults, checking DOSE_* environment
// variables first and falling back to ~/.config/dose.toml and
// ~/.local/share/dose.
func GetDefaults() (Defaults, error) {
	var env Env
	if err := envconfig.Process("dose", &env); err != nil {
		return Defaults{}, fmt.Errorf("reading environment: %w", err)
	}

	d := Defaults{ConfigPath: env.ConfigPath, BaseDir: env.Home, Passphrase: env.Passphrase}
	if d.ConfigPath == "" || d.BaseDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return Defaults{}, fmt.Errorf("cannot determine home directory: %w", err)
		}
		if d.ConfigPath == "" {
			d.ConfigPath = filepath.Join(homeDir, ".config", "dose.toml")
		}
		if d.BaseDir == "" {
			d.BaseDir = filepath.Join(homeDir, ".local", "share", "dose")
		}
	}
	d.LogDir = filepath.Join(d.BaseDir, "log")
	return d, nil
}
