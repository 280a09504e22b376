package options

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/viper"
)

// FileConfig mirrors the on-disk JSON config: top-level defaults plus preset
// and environment tables that overlay the built-ins.
type FileConfig struct {
	Overrides    `mapstructure:",squash"`
	Preset       string                 `mapstructure:"preset" json:"preset,omitempty"`
	Environment  string                 `mapstructure:"environment" json:"environment,omitempty"`
	Concurrency  *int                   `mapstructure:"concurrency" json:"concurrency,omitempty"`
	Presets      map[string]Preset      `mapstructure:"presets" json:"presets,omitempty"`
	Environments map[string]Environment `mapstructure:"environments" json:"environments,omitempty"`
}

// LoadFile reads the JSON config at path. A missing file is not an error and
// yields an empty FileConfig.
func LoadFile(path string) (FileConfig, error) {
	var fc FileConfig

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fc, nil
		}
		return fc, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return fc, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := v.Unmarshal(&fc); err != nil {
		return fc, fmt.Errorf("decoding config %s: %w", path, err)
	}
	return fc, nil
}

// DefaultFileConfig is what `imgconvert config` writes: every default plus
// the built-in presets and environments, ready to be edited.
func DefaultFileConfig() FileConfig {
	return FileConfig{
		Overrides: Overrides{
			Format:     string(FormatNone),
			Quality:    intPtr(DefaultQuality),
			Background: DefaultBackground,
			Replace:    boolPtr(false),
		},
		Environment:  DefaultEnvironment,
		Presets:      BuiltinPresets(),
		Environments: BuiltinEnvironments(),
	}
}

// WriteDefault writes DefaultFileConfig to path as indented JSON. An
// existing file is only replaced when force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s: %w (use --force to overwrite)", path, ErrConfigExists)
		}
	}

	data, err := json.MarshalIndent(DefaultFileConfig(), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
