package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"imgconvert/internal/codec"
	"imgconvert/pkg/imgutil"
)

var (
	// ErrPathNotFound is returned when the input path does not exist.
	ErrPathNotFound = errors.New("path does not exist")
	// ErrUnsupportedFormat marks a candidate that cannot be mapped to an
	// output format; the runner records it as skipped.
	ErrUnsupportedFormat = errors.New("unsupported output format")
)

// IOError is a fatal filesystem failure that happens before dispatch.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Measurer reports an image's natural dimensions.
type Measurer interface {
	Measure(path string) (width, height int, err error)
}

// Codec is the image engine jobs run through.
type Codec interface {
	Measurer
	Convert(ctx context.Context, src string, dst io.Writer, opts codec.Options) error
}

// Candidate is a file selected for conversion.
type Candidate struct {
	Path string
	Dir  string
	Name string // Base name without extension.
	Ext  string // Lowercase, without the dot.
}

// Skipped accounts for an entry that was not converted and why.
type Skipped struct {
	Path   string
	Reason string
}

// Discovery is the result of scanning the input path.
type Discovery struct {
	Root       string
	IsDir      bool
	Candidates []Candidate
	Skipped    []Skipped
}

// Job converts one source to one format at one size.
type Job struct {
	Source     Candidate
	Format     imgutil.Kind
	Extension  string
	Width      int
	Height     int
	Fit        codec.Fit
	Bucket     string // Scale bucket ("res-xhdpi", "2x"); empty for plain jobs.
	OutputPath string
	SourceSize int64 // Source size captured before any job of the run started.
}

// OverwritesSource reports whether the job writes over its own input.
func (j Job) OverwritesSource() bool {
	return j.OutputPath == j.Source.Path
}

// Outcome is the result of one job. Err is nil on success.
type Outcome struct {
	Job          Job
	OriginalSize int64
	NewSize      int64
	Duration     time.Duration
	Err          error
}

// OK reports whether the job succeeded.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Savings is the percentage of bytes saved by this job.
func (o Outcome) Savings() float64 {
	if o.OriginalSize <= 0 {
		return 0
	}
	return float64(o.OriginalSize-o.NewSize) / float64(o.OriginalSize) * 100
}

// Report is everything a run produced.
type Report struct {
	Stats     RunStatistics
	Outcomes  []Outcome // Completion order.
	Skipped   []Skipped
	OutputDir string // Empty when outputs are written next to their sources.
}

// Failures returns the failed outcomes.
func (r Report) Failures() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if !o.OK() {
			out = append(out, o)
		}
	}
	return out
}

// ProgressUpdate is sent on the optional progress channel as work advances.
type ProgressUpdate struct {
	TotalDelta      int
	DoneDelta       int
	FailedDelta     int
	BytesSavedDelta int64
	Outcome         *Outcome // Set when a job finishes.
}
