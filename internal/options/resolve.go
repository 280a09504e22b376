package options

import (
	"strconv"
	"strings"
	"time"
)

// CLIValues carries raw flag values. Only flags listed in Set were supplied
// by the user; the rest are ignored so lower layers can show through.
type CLIValues struct {
	Format      string
	Quality     string
	Background  string
	Replace     string
	Width       string
	Height      string
	Output      string
	Preset      string
	Environment string
	Density     string
	Concurrency string
	Debug       bool
	Timeout     time.Duration

	Set map[string]bool
}

func (v CLIValues) set(name string) bool {
	return v.Set[name]
}

// Resolve merges, lowest to highest: built-in defaults, config-file values,
// the selected preset, the selected environment, and user-supplied flags.
// A layer overrides only the fields it defines. Unknown preset or
// environment names are fatal.
func Resolve(cli CLIValues, file FileConfig) (Config, error) {
	cfg := DefaultConfig()

	if err := file.Overrides.validate("config file"); err != nil {
		return Config{}, err
	}
	cfg.apply(file.Overrides)

	if file.Concurrency != nil {
		cfg.Concurrency = *file.Concurrency
	}
	if file.Preset != "" {
		cfg.Preset = file.Preset
	}
	if file.Environment != "" {
		cfg.Environment = file.Environment
	}
	if cli.set("preset") {
		cfg.Preset = cli.Preset
	}
	if cli.set("environment") {
		cfg.Environment = cli.Environment
	}
	cfg.Preset = strings.ToLower(strings.TrimSpace(cfg.Preset))
	cfg.Environment = strings.ToLower(strings.TrimSpace(cfg.Environment))

	if cfg.Preset != "" {
		presets := mergePresets(file.Presets)
		preset, ok := presets[cfg.Preset]
		if !ok {
			return Config{}, &NotFoundError{Kind: "preset", Name: cfg.Preset, Available: sortedKeys(presets)}
		}
		source := "preset " + cfg.Preset
		if err := preset.Overrides.validate(source); err != nil {
			return Config{}, err
		}
		cfg.apply(preset.Overrides)
		if preset.Alloy != nil {
			if err := preset.Alloy.validate(source); err != nil {
				return Config{}, err
			}
			cfg.Alloy = preset.Alloy.withDefaults()
		}
	}

	if cfg.Environment != "" {
		envs := mergeEnvironments(file.Environments)
		env, ok := envs[cfg.Environment]
		if !ok {
			return Config{}, &NotFoundError{Kind: "environment", Name: cfg.Environment, Available: sortedKeys(envs)}
		}
		if err := env.Overrides.validate("environment " + cfg.Environment); err != nil {
			return Config{}, err
		}
		cfg.apply(env.Overrides)
	}

	flags, err := cli.overrides()
	if err != nil {
		return Config{}, err
	}
	cfg.apply(flags)

	if cli.set("concurrency") {
		n, err := parsePositive("concurrency", cli.Concurrency)
		if err != nil {
			return Config{}, err
		}
		cfg.Concurrency = n
	}
	if cfg.Concurrency < 1 {
		return Config{}, &ValidationError{Flag: "concurrency", Value: strconv.Itoa(cfg.Concurrency), Reason: "must be a positive integer"}
	}
	if cli.set("timeout") {
		if cli.Timeout < 0 {
			return Config{}, &ValidationError{Flag: "timeout", Value: cli.Timeout.String(), Reason: "must not be negative"}
		}
		cfg.Timeout = cli.Timeout
	}

	return cfg, nil
}

// overrides parses the user-supplied flags into a layer.
func (v CLIValues) overrides() (Overrides, error) {
	var o Overrides

	if v.set("format") {
		o.Format = v.Format
	}
	if v.set("quality") {
		q, err := parseInt("quality", v.Quality)
		if err != nil {
			return o, err
		}
		o.Quality = &q
	}
	if v.set("background") {
		o.Background = v.Background
	}
	if v.set("replace") {
		b, err := strconv.ParseBool(strings.TrimSpace(v.Replace))
		if err != nil {
			return o, &ValidationError{Flag: "replace", Value: v.Replace, Reason: "must be true or false"}
		}
		o.Replace = &b
	}
	if v.set("width") {
		w, err := parsePositive("width", v.Width)
		if err != nil {
			return o, err
		}
		o.Width = &w
	}
	if v.set("height") {
		h, err := parsePositive("height", v.Height)
		if err != nil {
			return o, err
		}
		o.Height = &h
	}
	if v.set("output") {
		o.Output = v.Output
	}
	if v.set("density") {
		d, err := parsePositive("density", v.Density)
		if err != nil {
			return o, err
		}
		o.Density = &d
	}
	if v.set("debug") {
		o.Debug = &v.Debug
	}

	if o.Background == "" && v.set("background") {
		return o, &ValidationError{Flag: "background", Value: "", Reason: "must be a hex colour such as #ffffff"}
	}
	return o, o.validate("")
}

func parseInt(flag, raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, &ValidationError{Flag: flag, Value: raw, Reason: "must be an integer"}
	}
	return n, nil
}

func parsePositive(flag, raw string) (int, error) {
	n, err := parseInt(flag, raw)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, &ValidationError{Flag: flag, Value: raw, Reason: "must be a positive integer"}
	}
	return n, nil
}
