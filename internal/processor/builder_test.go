package processor

import (
	"errors"
	"path/filepath"
	"testing"

	"imgconvert/internal/codec"
	"imgconvert/internal/options"
	"imgconvert/pkg/imgutil"
)

func TestOutputRoot(t *testing.T) {
	dirDisc := Discovery{Root: "/in", IsDir: true}
	fileDisc := Discovery{Root: "/in/photo.jpg"}

	tests := []struct {
		name string
		d    Discovery
		cfg  func(*options.Config)
		want string
	}{
		{"default dir", dirDisc, func(*options.Config) {}, filepath.Join("/in", "compressed")},
		{"default file", fileDisc, func(*options.Config) {}, filepath.Join("/in", "compressed")},
		{"explicit output", dirDisc, func(c *options.Config) { c.Output = "/out" }, "/out"},
		{"replace wins over output", dirDisc, func(c *options.Config) { c.Replace = true; c.Output = "/out" }, ""},
		{"alloy relative", dirDisc, func(c *options.Config) { c.Alloy = options.AlloyScaleSet() }, filepath.Join("/in", "assets")},
		{"alloy absolute", dirDisc, func(c *options.Config) {
			c.Alloy = options.AlloyScaleSet()
			c.Alloy.Output = "/art"
		}, "/art"},
		{"output beats alloy", dirDisc, func(c *options.Config) {
			c.Alloy = options.AlloyScaleSet()
			c.Output = "/out"
		}, "/out"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := options.DefaultConfig()
			tt.cfg(&cfg)
			if got := OutputRoot(tt.d, cfg); got != tt.want {
				t.Fatalf("OutputRoot = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildJobs_Formats(t *testing.T) {
	c := newCandidate(filepath.Join("/in", "photo.jpg"))

	tests := []struct {
		format options.FormatSelector
		want   []string
	}{
		{options.FormatNone, []string{"photo.jpg"}},
		{"webp", []string{"photo.webp"}},
		{"JPEG", []string{"photo.jpg"}},
		{options.FormatAll, []string{"photo.jpg", "photo.png", "photo.webp", "photo.avif", "photo.tiff", "photo.gif"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			cfg := options.DefaultConfig()
			cfg.Format = tt.format
			cfg.Width = 800

			jobs, err := BuildJobs(c, cfg, "/out", &fakeCodec{})
			if err != nil {
				t.Fatalf("build: %v", err)
			}
			if len(jobs) != len(tt.want) {
				t.Fatalf("got %d jobs, want %d", len(jobs), len(tt.want))
			}
			for i, job := range jobs {
				if job.OutputPath != filepath.Join("/out", tt.want[i]) {
					t.Errorf("job %d output = %q, want %q", i, job.OutputPath, tt.want[i])
				}
				if job.Width != 800 || job.Height != 0 || job.Fit != codec.FitCover || job.Bucket != "" {
					t.Errorf("job %d has unexpected geometry: %+v", i, job)
				}
			}
		})
	}
}

func TestBuildJobs_ReplaceWritesBesideSource(t *testing.T) {
	c := newCandidate(filepath.Join("/in", "photo.png"))
	cfg := options.DefaultConfig()
	cfg.Format = "avif"

	jobs, err := BuildJobs(c, cfg, "", &fakeCodec{})
	if err != nil {
		t.Fatal(err)
	}
	if jobs[0].OutputPath != filepath.Join("/in", "photo.avif") || jobs[0].Format != imgutil.KindAVIF {
		t.Fatalf("unexpected job: %+v", jobs[0])
	}
}

func TestBuildJobs_UnsupportedFormat(t *testing.T) {
	cfg := options.DefaultConfig()
	cfg.Format = "heic"
	if _, err := BuildJobs(newCandidate("/in/a.png"), cfg, "/out", &fakeCodec{}); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}

	cfg.Format = options.FormatNone
	if _, err := BuildJobs(newCandidate("/in/a.bmp"), cfg, "/out", &fakeCodec{}); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat for source extension, got %v", err)
	}
}

func TestBuildJobs_ScaleSet(t *testing.T) {
	cfg := options.DefaultConfig()
	cfg.Format = "webp"
	cfg.Alloy = &options.ScaleSet{
		Divisor: 3,
		Families: []options.Family{{
			Name:   "web",
			Dir:    "web",
			Layout: options.LayoutSuffix,
			Scales: []options.Scale{{Name: "1x", Factor: 1}, {Name: "2x", Factor: 2}},
		}},
	}

	jobs, err := BuildJobs(newCandidate("/in/logo.png"), cfg, "/out", &fakeCodec{width: 100, height: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}

	if jobs[0].Width != 33 || jobs[0].Height != 1 || jobs[0].OutputPath != filepath.Join("/out", "web", "logo.webp") {
		t.Errorf("unexpected 1x job: %+v", jobs[0])
	}
	if jobs[1].Width != 67 || jobs[1].Height != 1 || jobs[1].OutputPath != filepath.Join("/out", "web", "logo@2x.webp") {
		t.Errorf("unexpected 2x job: %+v", jobs[1])
	}
	for _, job := range jobs {
		if job.Fit != codec.FitContain {
			t.Errorf("scaled jobs should letterbox, got %v", job.Fit)
		}
	}
}

func TestEncodeOptions_Tuning(t *testing.T) {
	cfg := options.DefaultConfig()
	cfg.Density = 72

	png := encodeOptions(Job{Format: imgutil.KindPNG}, cfg)
	if !png.Palette || !png.Dither || png.Background != nil || png.Density != 72 {
		t.Errorf("unexpected png options: %+v", png)
	}

	jpg := encodeOptions(Job{Format: imgutil.KindJPEG}, cfg)
	if jpg.Background == nil || jpg.Palette {
		t.Errorf("unexpected jpeg options: %+v", jpg)
	}

	tif := encodeOptions(Job{Format: imgutil.KindTIFF}, cfg)
	if !tif.Lossless {
		t.Errorf("tiff should be lossless: %+v", tif)
	}

	webp := encodeOptions(Job{Format: imgutil.KindWebP}, cfg)
	if webp.Quality != cfg.Quality || webp.Lossless || webp.Palette {
		t.Errorf("unexpected webp options: %+v", webp)
	}
}
