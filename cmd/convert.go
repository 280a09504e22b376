package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"imgconvert/internal/codec"
	"imgconvert/internal/options"
	"imgconvert/internal/processor"
	"imgconvert/internal/tui"
)

var convertFlags struct {
	format      string
	quality     string
	background  string
	replace     bool
	width       string
	height      string
	output      string
	preset      string
	environment string
	density     string
	concurrency string
	debug       bool
	timeout     time.Duration
}

func registerConvertFlags(c *cobra.Command) {
	f := c.Flags()
	f.StringVarP(&convertFlags.format, "format", "f", string(options.FormatNone), "output format: jpeg, png, webp, avif, tiff, gif, all or none")
	f.StringVarP(&convertFlags.quality, "quality", "q", "85", "output quality (1-100)")
	f.StringVarP(&convertFlags.background, "background", "b", options.DefaultBackground, "background colour used when flattening transparency")
	f.BoolVarP(&convertFlags.replace, "replace", "r", false, "write over the original files (--replace=false to turn off)")
	f.StringVarP(&convertFlags.width, "width", "w", "", "output width in pixels")
	f.StringVarP(&convertFlags.height, "height", "H", "", "output height in pixels")
	f.StringVarP(&convertFlags.output, "output", "o", "", "output directory (default <input>/compressed)")
	f.StringVarP(&convertFlags.preset, "preset", "p", "", "named preset from the built-ins or the config file")
	f.StringVarP(&convertFlags.environment, "environment", "e", options.DefaultEnvironment, "named environment (dev, prod or from the config file)")
	f.BoolVarP(&convertFlags.debug, "debug", "d", false, "verbose logging and per-job statistics")
	f.StringVar(&convertFlags.density, "density", "", "DPI written into jpeg and png output")
	f.StringVarP(&convertFlags.concurrency, "concurrency", "j", "", "number of conversions to run at once (default: CPU count)")
	f.DurationVar(&convertFlags.timeout, "timeout", 0, "stop dispatching new conversions after this long (0 disables)")
}

// cliValues snapshots the flags, marking the ones the user actually set.
func cliValues(flags *pflag.FlagSet) options.CLIValues {
	set := make(map[string]bool)
	flags.Visit(func(f *pflag.Flag) {
		set[f.Name] = true
	})

	return options.CLIValues{
		Format:      convertFlags.format,
		Quality:     convertFlags.quality,
		Background:  convertFlags.background,
		Replace:     strconv.FormatBool(convertFlags.replace),
		Width:       convertFlags.width,
		Height:      convertFlags.height,
		Output:      convertFlags.output,
		Preset:      convertFlags.preset,
		Environment: convertFlags.environment,
		Density:     convertFlags.density,
		Concurrency: convertFlags.concurrency,
		Debug:       convertFlags.debug,
		Timeout:     convertFlags.timeout,
		Set:         set,
	}
}

func runConvert(cmd *cobra.Command, args []string) error {
	file, err := options.LoadFile(configFile)
	if err != nil {
		return err
	}
	cfg, err := options.Resolve(cliValues(cmd.Flags()), file)
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Debug)
	logger.Debug("resolved configuration",
		"format", cfg.Format, "quality", cfg.Quality, "replace", cfg.Replace,
		"width", cfg.Width, "height", cfg.Height, "preset", cfg.Preset,
		"environment", cfg.Environment, "concurrency", cfg.Concurrency)
	if cfg.Replace && cfg.Output != "" {
		logger.Warn("replace mode writes next to the sources; ignoring output directory", "output", cfg.Output)
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	updates := make(chan processor.ProgressUpdate, 64)
	uiDone := make(chan struct{})
	if !cfg.Debug && isatty.IsTerminal(os.Stdout.Fd()) {
		go runProgressUI(updates, uiDone, cancel)
	} else {
		go logProgress(updates, uiDone, logger, cfg.Debug)
	}

	report, runErr := processor.Run(ctx, args[0], cfg, codec.New(), logger, updates)
	close(updates)
	<-uiDone

	if runErr != nil && !errors.Is(runErr, context.Canceled) && !errors.Is(runErr, context.DeadlineExceeded) {
		return runErr
	}

	if report.OutputDir != "" {
		if abs, absErr := filepath.Abs(report.OutputDir); absErr == nil {
			report.OutputDir = abs
		}
	}
	fmt.Fprintln(os.Stdout, tui.RenderReport(report, cfg.Debug))

	return runErr
}

func newLogger(debug bool) *log.Logger {
	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          "imgconvert",
		Level:           level,
		ReportTimestamp: debug,
	})
}

// runProgressUI drives the bubbletea progress view. Quitting the view with
// ctrl+c cancels the run; remaining updates are drained either way.
func runProgressUI(updates <-chan processor.ProgressUpdate, done chan<- struct{}, cancel context.CancelFunc) {
	defer close(done)

	program := tea.NewProgram(tui.NewModel(updates))
	final, err := program.Run()
	if m, ok := final.(tui.Model); err != nil || (ok && m.Aborted()) {
		cancel()
	}
	for range updates {
	}
}

// logProgress reports finished jobs as log lines when there is no terminal.
// In debug mode the runner already logs each job.
func logProgress(updates <-chan processor.ProgressUpdate, done chan<- struct{}, logger *log.Logger, debug bool) {
	defer close(done)

	total, finished := 0, 0
	for u := range updates {
		total += u.TotalDelta
		finished += u.DoneDelta
		if debug || u.Outcome == nil {
			continue
		}
		o := u.Outcome
		progress := fmt.Sprintf("%d/%d", finished, total)
		if o.OK() {
			logger.Info("converted", "progress", progress, "file", filepath.Base(o.Job.Source.Path),
				"format", o.Job.Format, "saved", tui.FormatBytes(o.OriginalSize-o.NewSize))
		} else {
			logger.Warn("failed", "progress", progress, "file", filepath.Base(o.Job.Source.Path),
				"format", o.Job.Format, "err", o.Err)
		}
	}
}
