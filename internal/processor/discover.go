package processor

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"imgconvert/pkg/imgutil"
)

// Discover lists the candidates under root. A file yields itself; a
// directory yields its immediate regular files with a supported extension,
// in lexical order. Other entries are reported in Skipped, except
// subdirectories.
func Discover(root string) (Discovery, error) {
	d := Discovery{Root: root}

	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return d, fmt.Errorf("%w: %s", ErrPathNotFound, root)
		}
		return d, err
	}

	if !info.IsDir() {
		d.Candidates = []Candidate{newCandidate(root)}
		return d, nil
	}
	d.IsDir = true

	entries, err := os.ReadDir(root)
	if err != nil {
		return d, err
	}

	for _, entry := range entries {
		path := filepath.Join(root, entry.Name())
		if entry.IsDir() {
			continue
		}
		if !entry.Type().IsRegular() {
			d.Skipped = append(d.Skipped, Skipped{Path: path, Reason: "not a regular file"})
			continue
		}

		c := newCandidate(path)
		if imgutil.ParseKind(c.Ext) == imgutil.KindUnknown {
			d.Skipped = append(d.Skipped, Skipped{Path: path, Reason: "unsupported extension"})
			continue
		}
		d.Candidates = append(d.Candidates, c)
	}

	return d, nil
}

func newCandidate(path string) Candidate {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return Candidate{
		Path: path,
		Dir:  filepath.Dir(path),
		Name: strings.TrimSuffix(base, ext),
		Ext:  strings.ToLower(strings.TrimPrefix(ext, ".")),
	}
}
