package options

import (
	"sort"
	"strings"
)

// Family layouts for scaled assets.
const (
	LayoutDirectory = "directory" // <dir>/<scale>/<name>.<ext>
	LayoutSuffix    = "suffix"    // <dir>/<name>@<scale>.<ext>; "1x" keeps the bare name.
)

// Scale-set defaults.
const (
	DefaultDivisor     = 4.0
	DefaultAssetOutput = "assets"
)

// Preset is a named bundle of overrides. Presets carrying a scale set
// expand every source into one output per device scale instead of one per
// format.
type Preset struct {
	Overrides `mapstructure:",squash"`
	Alloy     *ScaleSet `mapstructure:"alloy" json:"alloy,omitempty"`
}

// Environment is a named bundle of overrides describing the deployment
// context, chiefly whether originals are replaced.
type Environment struct {
	Overrides `mapstructure:",squash"`
}

// ScaleSet describes multi-scale asset generation. Target dimensions are
// round(source / Divisor * Factor).
type ScaleSet struct {
	Output   string   `mapstructure:"output" json:"output,omitempty"`
	Divisor  float64  `mapstructure:"divisor" json:"divisor,omitempty"`
	Families []Family `mapstructure:"families" json:"families"`
}

// Family is one platform's asset tree.
type Family struct {
	Name   string  `mapstructure:"name" json:"name"`
	Dir    string  `mapstructure:"dir" json:"dir"`
	Layout string  `mapstructure:"layout" json:"layout"`
	Scales []Scale `mapstructure:"scales" json:"scales"`
}

// Scale is a named density bucket.
type Scale struct {
	Name   string  `mapstructure:"name" json:"name"`
	Factor float64 `mapstructure:"factor" json:"factor"`
}

// Clone returns a deep copy of s; a nil set stays nil.
func (s *ScaleSet) Clone() *ScaleSet {
	if s == nil {
		return nil
	}
	out := &ScaleSet{Output: s.Output, Divisor: s.Divisor}
	out.Families = make([]Family, len(s.Families))
	for i, f := range s.Families {
		f.Scales = append([]Scale(nil), f.Scales...)
		out.Families[i] = f
	}
	return out
}

// withDefaults fills the divisor, output root and layouts.
func (s *ScaleSet) withDefaults() *ScaleSet {
	out := s.Clone()
	if out.Divisor <= 0 {
		out.Divisor = DefaultDivisor
	}
	if out.Output == "" {
		out.Output = DefaultAssetOutput
	}
	for i := range out.Families {
		if out.Families[i].Layout == "" {
			out.Families[i].Layout = LayoutDirectory
		}
	}
	return out
}

func (s *ScaleSet) validate(source string) error {
	for _, f := range s.Families {
		switch f.Layout {
		case "", LayoutDirectory, LayoutSuffix:
		default:
			return &ValidationError{Flag: "preset", Value: f.Layout, Source: source,
				Reason: "family layout must be \"directory\" or \"suffix\""}
		}
		for _, sc := range f.Scales {
			if sc.Name == "" || sc.Factor <= 0 {
				return &ValidationError{Flag: "preset", Value: sc.Name, Source: source,
					Reason: "every scale needs a name and a positive factor"}
			}
		}
	}
	return nil
}

// AlloyScaleSet is the built-in Android + iPhone asset layout, with 4x
// source art as the baseline.
func AlloyScaleSet() *ScaleSet {
	return &ScaleSet{
		Output:  DefaultAssetOutput,
		Divisor: DefaultDivisor,
		Families: []Family{
			{
				Name:   "android",
				Dir:    "android/images",
				Layout: LayoutDirectory,
				Scales: []Scale{
					{Name: "res-mdpi", Factor: 1},
					{Name: "res-hdpi", Factor: 1.5},
					{Name: "res-xhdpi", Factor: 2},
					{Name: "res-xxhdpi", Factor: 3},
					{Name: "res-xxxhdpi", Factor: 4},
				},
			},
			{
				Name:   "iphone",
				Dir:    "iphone/images",
				Layout: LayoutSuffix,
				Scales: []Scale{
					{Name: "1x", Factor: 1},
					{Name: "2x", Factor: 2},
					{Name: "3x", Factor: 3},
				},
			},
		},
	}
}

// BuiltinPresets returns a fresh copy of the presets shipped with the tool.
func BuiltinPresets() map[string]Preset {
	return map[string]Preset{
		"web": {Overrides: Overrides{
			Format:  "webp",
			Quality: intPtr(75),
			Width:   intPtr(1920),
		}},
		"thumbnail": {Overrides: Overrides{
			Format:  "webp",
			Quality: intPtr(60),
			Width:   intPtr(300),
			Height:  intPtr(300),
		}},
		"alloy": {Alloy: AlloyScaleSet()},
	}
}

// BuiltinEnvironments returns a fresh copy of the shipped environments. dev
// is empty so it never masks a preset's replace setting.
func BuiltinEnvironments() map[string]Environment {
	return map[string]Environment{
		"dev":  {},
		"prod": {Overrides: Overrides{Replace: boolPtr(true)}},
	}
}

// mergePresets overlays file presets onto the built-ins by name. Names are
// case-insensitive because the config loader folds keys.
func mergePresets(file map[string]Preset) map[string]Preset {
	out := BuiltinPresets()
	for name, p := range file {
		out[strings.ToLower(name)] = p
	}
	return out
}

func mergeEnvironments(file map[string]Environment) map[string]Environment {
	out := BuiltinEnvironments()
	for name, e := range file {
		out[strings.ToLower(name)] = e
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func intPtr(n int) *int    { return &n }
func boolPtr(b bool) *bool { return &b }
