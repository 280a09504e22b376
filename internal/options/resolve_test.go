package options

import (
	"errors"
	"strconv"
	"testing"
	"time"
)

func cli(values map[string]string) CLIValues {
	v := CLIValues{Set: map[string]bool{}}
	for name, val := range values {
		v.Set[name] = true
		switch name {
		case "format":
			v.Format = val
		case "quality":
			v.Quality = val
		case "background":
			v.Background = val
		case "replace":
			v.Replace = val
		case "width":
			v.Width = val
		case "height":
			v.Height = val
		case "output":
			v.Output = val
		case "preset":
			v.Preset = val
		case "environment":
			v.Environment = val
		case "density":
			v.Density = val
		case "concurrency":
			v.Concurrency = val
		}
	}
	return v
}

func TestResolve_Defaults(t *testing.T) {
	cfg, err := Resolve(cli(nil), FileConfig{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cfg.Format != FormatNone {
		t.Errorf("Format = %q, want none", cfg.Format)
	}
	if cfg.Quality != 85 {
		t.Errorf("Quality = %d, want 85", cfg.Quality)
	}
	if cfg.Background != "#ffffff" {
		t.Errorf("Background = %q", cfg.Background)
	}
	if cfg.Replace {
		t.Error("Replace should default to false")
	}
	if cfg.Width != 0 || cfg.Height != 0 {
		t.Errorf("dimensions should be unset, got %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.Environment != "dev" {
		t.Errorf("Environment = %q, want dev", cfg.Environment)
	}
	if cfg.Concurrency < 1 {
		t.Errorf("Concurrency = %d", cfg.Concurrency)
	}
	if cfg.Alloy != nil {
		t.Error("Alloy should be nil without a preset")
	}
}

func TestResolve_QualityBounds(t *testing.T) {
	tests := []struct {
		quality string
		wantErr bool
	}{
		{"0", true},
		{"101", true},
		{"-5", true},
		{"abc", true},
		{"1", false},
		{"100", false},
		{"50", false},
	}
	for _, tt := range tests {
		t.Run(tt.quality, func(t *testing.T) {
			cfg, err := Resolve(cli(map[string]string{"quality": tt.quality}), FileConfig{})
			if tt.wantErr {
				var verr *ValidationError
				if !errors.As(err, &verr) {
					t.Fatalf("expected ValidationError, got %v", err)
				}
				if verr.Flag != "quality" {
					t.Errorf("Flag = %q, want quality", verr.Flag)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if got := strconv.Itoa(cfg.Quality); got != tt.quality {
				t.Errorf("Quality = %s, want %s", got, tt.quality)
			}
		})
	}
}

func TestResolve_DimensionsMustBePositive(t *testing.T) {
	for _, flag := range []string{"width", "height"} {
		for _, val := range []string{"0", "-10", "12px"} {
			_, err := Resolve(cli(map[string]string{flag: val}), FileConfig{})
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Flag != flag {
				t.Errorf("--%s=%s: expected ValidationError naming %s, got %v", flag, val, flag, err)
			}
		}
	}

	cfg, err := Resolve(cli(map[string]string{"width": "640", "height": "480"}), FileConfig{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cfg.Width != 640 || cfg.Height != 480 {
		t.Errorf("got %dx%d, want 640x480", cfg.Width, cfg.Height)
	}
}

func TestResolve_ReplaceAndBackground(t *testing.T) {
	cfg, err := Resolve(cli(map[string]string{"replace": "true", "background": "#000"}), FileConfig{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !cfg.Replace {
		t.Error("Replace should be true")
	}
	r, g, b, a := cfg.BackgroundColor().RGBA()
	if r != 0 || g != 0 || b != 0 || a != 0xffff {
		t.Errorf("BackgroundColor = %v %v %v %v, want opaque black", r, g, b, a)
	}

	if _, err := Resolve(cli(map[string]string{"replace": "maybe"}), FileConfig{}); err == nil {
		t.Error("expected error for --replace=maybe")
	}
	if _, err := Resolve(cli(map[string]string{"background": "white-ish"}), FileConfig{}); err == nil {
		t.Error("expected error for a non-hex background")
	}
}

func TestResolve_UnknownFormatIsDeferred(t *testing.T) {
	cfg, err := Resolve(cli(map[string]string{"format": "BMP"}), FileConfig{})
	if err != nil {
		t.Fatalf("unknown formats must not fail resolution: %v", err)
	}
	if cfg.Format != "bmp" {
		t.Errorf("Format = %q, want bmp", cfg.Format)
	}
}

func TestResolve_Precedence(t *testing.T) {
	file := FileConfig{
		Overrides: Overrides{Quality: intPtr(70), Format: "png"},
		Presets: map[string]Preset{
			"shrink": {Overrides: Overrides{Quality: intPtr(40), Replace: boolPtr(true), Format: "webp"}},
		},
		Environments: map[string]Environment{
			"staging": {Overrides: Overrides{Replace: boolPtr(false), Quality: intPtr(55)}},
		},
	}

	tests := []struct {
		name        string
		flags       map[string]string
		wantQuality int
		wantReplace bool
		wantFormat  FormatSelector
	}{
		{
			name:        "config file over defaults",
			flags:       nil,
			wantQuality: 70,
			wantReplace: false,
			wantFormat:  "png",
		},
		{
			name:        "preset over config file",
			flags:       map[string]string{"preset": "shrink"},
			wantQuality: 40,
			wantReplace: true,
			wantFormat:  "webp",
		},
		{
			name:        "dev environment keeps preset replace",
			flags:       map[string]string{"preset": "shrink", "environment": "dev"},
			wantQuality: 40,
			wantReplace: true,
			wantFormat:  "webp",
		},
		{
			name:        "environment over preset",
			flags:       map[string]string{"preset": "shrink", "environment": "staging"},
			wantQuality: 55,
			wantReplace: false,
			wantFormat:  "webp",
		},
		{
			name:        "cli over environment",
			flags:       map[string]string{"preset": "shrink", "environment": "staging", "quality": "90", "replace": "true"},
			wantQuality: 90,
			wantReplace: true,
			wantFormat:  "webp",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Resolve(cli(tt.flags), file)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if cfg.Quality != tt.wantQuality {
				t.Errorf("Quality = %d, want %d", cfg.Quality, tt.wantQuality)
			}
			if cfg.Replace != tt.wantReplace {
				t.Errorf("Replace = %v, want %v", cfg.Replace, tt.wantReplace)
			}
			if cfg.Format != tt.wantFormat {
				t.Errorf("Format = %q, want %q", cfg.Format, tt.wantFormat)
			}
		})
	}
}

func TestResolve_ProdEnvironmentReplacesOverPreset(t *testing.T) {
	file := FileConfig{
		Presets: map[string]Preset{
			"keep": {Overrides: Overrides{Replace: boolPtr(false)}},
		},
	}
	cfg, err := Resolve(cli(map[string]string{"preset": "keep", "environment": "prod"}), file)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !cfg.Replace {
		t.Error("prod environment should win over the preset's replace=false")
	}
}

func TestResolve_UnknownPresetAndEnvironment(t *testing.T) {
	_, err := Resolve(cli(map[string]string{"preset": "nope"}), FileConfig{})
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.Kind != "preset" || nf.Name != "nope" {
		t.Fatalf("expected preset NotFoundError, got %v", err)
	}

	_, err = Resolve(cli(map[string]string{"environment": "qa"}), FileConfig{})
	if !errors.As(err, &nf) || nf.Kind != "environment" {
		t.Fatalf("expected environment NotFoundError, got %v", err)
	}
}

func TestNotFoundError_Message(t *testing.T) {
	tests := []struct {
		err  *NotFoundError
		want string
	}{
		{&NotFoundError{Kind: "preset", Name: "x", Available: []string{"alloy", "thumbnail", "web"}},
			`unknown preset "x" (available: alloy, thumbnail, web)`},
		{&NotFoundError{Kind: "environment", Name: "qa"},
			`unknown environment "qa" (available: none)`},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestResolve_PresetNamesFromConfigFile(t *testing.T) {
	cfg, err := Resolve(cli(nil), FileConfig{Preset: "Thumbnail"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cfg.Preset != "thumbnail" || cfg.Width != 300 || cfg.Height != 300 || cfg.Quality != 60 {
		t.Errorf("thumbnail preset not applied: %+v", cfg)
	}
}

func TestResolve_AlloyPreset(t *testing.T) {
	cfg, err := Resolve(cli(map[string]string{"preset": "alloy"}), FileConfig{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cfg.Alloy == nil {
		t.Fatal("alloy preset should set a scale set")
	}
	if cfg.Alloy.Divisor != 4 {
		t.Errorf("Divisor = %v, want 4", cfg.Alloy.Divisor)
	}
	if len(cfg.Alloy.Families) != 2 {
		t.Fatalf("got %d families, want 2", len(cfg.Alloy.Families))
	}

	clone := cfg.Clone()
	clone.Alloy.Families[0].Scales[0].Factor = 99
	if cfg.Alloy.Families[0].Scales[0].Factor == 99 {
		t.Error("Clone must not share scale slices")
	}
}

func TestResolve_FileOverlayReplacesBuiltinPreset(t *testing.T) {
	file := FileConfig{Presets: map[string]Preset{
		"alloy": {Alloy: &ScaleSet{Families: []Family{{
			Name:   "ios",
			Dir:    "ios",
			Layout: LayoutSuffix,
			Scales: []Scale{{Name: "1x", Factor: 1}, {Name: "2x", Factor: 2}},
		}}}},
	}}
	cfg, err := Resolve(cli(map[string]string{"preset": "alloy"}), file)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(cfg.Alloy.Families) != 1 || cfg.Alloy.Families[0].Name != "ios" {
		t.Errorf("file preset should replace built-in alloy, got %+v", cfg.Alloy)
	}
	if cfg.Alloy.Output != DefaultAssetOutput || cfg.Alloy.Divisor != DefaultDivisor {
		t.Errorf("scale-set defaults not filled: %+v", cfg.Alloy)
	}
}

func TestResolve_BadConfigFileValues(t *testing.T) {
	_, err := Resolve(cli(nil), FileConfig{Overrides: Overrides{Quality: intPtr(0)}})
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Source != "config file" {
		t.Fatalf("expected config-file ValidationError, got %v", err)
	}

	bad := FileConfig{Presets: map[string]Preset{
		"odd": {Alloy: &ScaleSet{Families: []Family{{Name: "x", Layout: "grid"}}}},
	}}
	if _, err := Resolve(cli(map[string]string{"preset": "odd"}), bad); err == nil {
		t.Error("expected error for unknown family layout")
	}
}

func TestResolve_ConcurrencyAndTimeout(t *testing.T) {
	v := cli(map[string]string{"concurrency": "3"})
	v.Set["timeout"] = true
	v.Timeout = 2 * time.Second
	cfg, err := Resolve(v, FileConfig{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cfg.Concurrency != 3 || cfg.Timeout != 2*time.Second {
		t.Errorf("got concurrency %d timeout %v", cfg.Concurrency, cfg.Timeout)
	}

	if _, err := Resolve(cli(map[string]string{"concurrency": "0"}), FileConfig{}); err == nil {
		t.Error("expected error for --concurrency=0")
	}
}

func TestResolve_UnsetFlagsAreIgnored(t *testing.T) {
	v := CLIValues{Quality: "0", Width: "nope", Set: map[string]bool{}}
	cfg, err := Resolve(v, FileConfig{})
	if err != nil {
		t.Fatalf("values not marked as set must be ignored: %v", err)
	}
	if cfg.Quality != DefaultQuality {
		t.Errorf("Quality = %d, want default", cfg.Quality)
	}
}
