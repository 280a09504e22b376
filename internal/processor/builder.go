package processor

import (
	"fmt"
	"math"
	"path/filepath"

	"imgconvert/internal/codec"
	"imgconvert/internal/options"
	"imgconvert/pkg/imgutil"
)

// compressedDir is created beside the input when no output is given.
const compressedDir = "compressed"

// OutputRoot returns the directory jobs write under. Empty means each output
// goes next to its source, which is the case in replace mode.
func OutputRoot(d Discovery, cfg options.Config) string {
	if cfg.Replace {
		return ""
	}
	if cfg.Output != "" {
		return cfg.Output
	}

	inputDir := d.Root
	if !d.IsDir {
		inputDir = filepath.Dir(d.Root)
	}
	if cfg.Alloy != nil {
		if filepath.IsAbs(cfg.Alloy.Output) {
			return cfg.Alloy.Output
		}
		return filepath.Join(inputDir, filepath.FromSlash(cfg.Alloy.Output))
	}
	return filepath.Join(inputDir, compressedDir)
}

// BuildJobs expands one candidate into its conversion jobs: one per target
// format, or one per format and scale bucket when a scale set is active.
func BuildJobs(c Candidate, cfg options.Config, root string, m Measurer) ([]Job, error) {
	kinds, err := targetKinds(c, cfg.Format)
	if err != nil {
		return nil, err
	}

	if cfg.Alloy != nil {
		return buildScaledJobs(c, kinds, cfg.Alloy, root, m)
	}

	jobs := make([]Job, 0, len(kinds))
	for _, k := range kinds {
		ext := outputExtension(c, k)
		jobs = append(jobs, Job{
			Source:     c,
			Format:     k,
			Extension:  ext,
			Width:      cfg.Width,
			Height:     cfg.Height,
			Fit:        codec.FitCover,
			OutputPath: filepath.Join(baseDir(c, root), c.Name+"."+ext),
		})
	}
	return jobs, nil
}

func buildScaledJobs(c Candidate, kinds []imgutil.Kind, set *options.ScaleSet, root string, m Measurer) ([]Job, error) {
	srcW, srcH, err := m.Measure(c.Path)
	if err != nil {
		return nil, fmt.Errorf("measuring %s: %w", filepath.Base(c.Path), err)
	}

	var jobs []Job
	for _, k := range kinds {
		ext := outputExtension(c, k)
		for _, fam := range set.Families {
			for _, sc := range fam.Scales {
				jobs = append(jobs, Job{
					Source:     c,
					Format:     k,
					Extension:  ext,
					Width:      scaledDim(srcW, set.Divisor, sc.Factor),
					Height:     scaledDim(srcH, set.Divisor, sc.Factor),
					Fit:        codec.FitContain,
					Bucket:     sc.Name,
					OutputPath: scaledPath(c, root, ext, fam, sc),
				})
			}
		}
	}
	return jobs, nil
}

// targetKinds resolves the format selector for one candidate.
func targetKinds(c Candidate, sel options.FormatSelector) ([]imgutil.Kind, error) {
	switch sel {
	case options.FormatAll:
		return imgutil.SupportedKinds(), nil
	case options.FormatNone, "":
		k := imgutil.ParseKind(c.Ext)
		if k == imgutil.KindUnknown {
			return nil, fmt.Errorf("%w: source extension %q", ErrUnsupportedFormat, c.Ext)
		}
		return []imgutil.Kind{k}, nil
	default:
		k := imgutil.ParseKind(string(sel))
		if k == imgutil.KindUnknown {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, sel)
		}
		return []imgutil.Kind{k}, nil
	}
}

// outputExtension keeps the source's extension when it already names the
// target format (photo.jpg stays .jpg for jpeg), so replace mode overwrites.
func outputExtension(c Candidate, k imgutil.Kind) string {
	if imgutil.ParseKind(c.Ext) == k {
		return c.Ext
	}
	return k.Extension()
}

func baseDir(c Candidate, root string) string {
	if root == "" {
		return c.Dir
	}
	return root
}

func scaledPath(c Candidate, root, ext string, fam options.Family, sc options.Scale) string {
	dir := filepath.Join(baseDir(c, root), filepath.FromSlash(fam.Dir))
	name := c.Name

	switch fam.Layout {
	case options.LayoutSuffix:
		if sc.Name != "1x" {
			name += "@" + sc.Name
		}
	default:
		dir = filepath.Join(dir, sc.Name)
	}
	return filepath.Join(dir, name+"."+ext)
}

func scaledDim(n int, divisor, factor float64) int {
	v := int(math.Round(float64(n) / divisor * factor))
	return max(v, 1)
}
