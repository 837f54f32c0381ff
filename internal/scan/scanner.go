// Package scan enumerates candidate files under an application root.
//
// The scanner walks the tree once per discovery cycle, skipping version
// control metadata and any extra configured directory names, and returns a
// sorted, deterministic file list. Non-fatal errors (an unreadable
// subdirectory, for example) are aggregated and reported alongside the
// result; only a broken root is fatal.
package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/go-multierror"
)

// vcsDirs are always excluded from enumeration.
var vcsDirs = map[string]bool{
	".git": true,
	".hg":  true,
	".svn": true,
}

// Options configures a scan.
type Options struct {
	// ExcludeDirs lists directory names to skip in addition to VCS metadata.
	ExcludeDirs []string
}

// Result is the outcome of one scan.
type Result struct {
	// Files holds the absolute paths of every regular file found, sorted.
	Files []string
	// Errors aggregates non-fatal problems hit while walking, or nil.
	Errors error
}

// Directory walks root and returns every regular file beneath it.
func Directory(root string, opts Options) (*Result, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to access directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", root)
	}

	exclude := make(map[string]bool, len(opts.ExcludeDirs))
	for _, name := range opts.ExcludeDirs {
		exclude[name] = true
	}

	result := &Result{}
	var errs *multierror.Error

	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("error accessing %s: %w", path, err))
			return nil
		}
		if path == root {
			return nil
		}

		if d.IsDir() {
			if vcsDirs[d.Name()] || exclude[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		abs, err := filepath.Abs(path)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("error resolving %s: %w", path, err))
			return nil
		}
		result.Files = append(result.Files, abs)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan directory: %w", err)
	}

	sort.Strings(result.Files)
	result.Errors = errs.ErrorOrNil()
	return result, nil
}
