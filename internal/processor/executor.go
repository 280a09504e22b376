package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"imgconvert/internal/options"
	"imgconvert/pkg/imgutil"
)

// Execute runs one job through the codec. Failures, including codec panics,
// are returned inside the Outcome and never escape.
func Execute(ctx context.Context, job Job, cfg options.Config, engine Codec) (out Outcome) {
	out = Outcome{Job: job}
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			out.Err = fmt.Errorf("codec panic: %v", r)
			out.NewSize = 0
		}
		out.Duration = time.Since(start)
	}()

	srcInfo, err := os.Stat(job.Source.Path)
	if err != nil {
		out.Err = err
		return out
	}
	out.OriginalSize = srcInfo.Size()
	if job.SourceSize > 0 {
		out.OriginalSize = job.SourceSize
	}

	tmpFile, err := os.CreateTemp("", "imgconvert-*."+job.Extension)
	if err != nil {
		out.Err = err
		return out
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)
	defer tmpFile.Close()

	if err := tmpFile.Chmod(srcInfo.Mode().Perm()); err != nil {
		out.Err = err
		return out
	}

	if err := engine.Convert(ctx, job.Source.Path, tmpFile, encodeOptions(job, cfg)); err != nil {
		out.Err = err
		return out
	}

	if err := tmpFile.Sync(); err != nil {
		out.Err = err
		return out
	}
	if err := tmpFile.Close(); err != nil {
		out.Err = err
		return out
	}

	if err := verifyEncoded(tmpPath, job.Format); err != nil {
		out.Err = err
		return out
	}

	if err := moveFile(tmpPath, job.OutputPath); err != nil {
		out.Err = fmt.Errorf("writing %s: %w", job.OutputPath, err)
		return out
	}

	outInfo, err := os.Stat(job.OutputPath)
	if err != nil {
		out.Err = err
		return out
	}
	out.NewSize = outInfo.Size()
	return out
}

// verifyEncoded sniffs the encoded file so a truncated or mislabelled
// output never replaces anything at the destination.
func verifyEncoded(path string, want imgutil.Kind) error {
	got, err := imgutil.SniffFile(path)
	if err != nil {
		return fmt.Errorf("reading encoded %s output: %w", want, err)
	}
	if got != want {
		return fmt.Errorf("encoder produced %s data, want %s", got, want)
	}
	return nil
}

// moveFile renames src over dst. When the scratch directory lives on another
// device the file is first copied beside dst so the final step is still an
// atomic rename.
func moveFile(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return replaceFile(src, dst)
	}

	staged, err := stageCopy(src, filepath.Dir(dst))
	if err != nil {
		return err
	}
	if err := replaceFile(staged, dst); err != nil {
		_ = os.Remove(staged)
		return err
	}
	return nil
}

func stageCopy(src, dir string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return "", err
	}

	out, err := os.CreateTemp(dir, ".imgconvert-*.tmp")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(out.Name())
		return "", err
	}
	if err := out.Chmod(info.Mode().Perm()); err != nil {
		_ = out.Close()
		_ = os.Remove(out.Name())
		return "", err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(out.Name())
		return "", err
	}
	return out.Name(), nil
}

func replaceFile(tmpPath, destPath string) error {
	if err := os.Rename(tmpPath, destPath); err == nil {
		return nil
	}
	if err := os.Remove(destPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return os.Rename(tmpPath, destPath)
}
