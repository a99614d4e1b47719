// Package merge copies a staged template tree into a destination without
// overwriting anything that already exists there.
package merge

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"

	"github.com/conn-castle/scaffold/internal/fsutil"
	"github.com/conn-castle/scaffold/internal/messages"
)

// Kind classifies the outcome for one template file.
type Kind int

const (
	// Copied means the file was newly created in the destination.
	Copied Kind = iota
	// Skipped means the destination path was left untouched.
	Skipped
	// Failed means the copy hit an I/O error.
	Failed
)

func (k Kind) String() string {
	switch k {
	case Copied:
		return "copied"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Result is the outcome for one template file. Path is slash-separated and
// relative to the template root.
type Result struct {
	Kind   Kind
	Path   string
	Reason string
	Err    error
}

// Summary counts results by kind.
type Summary struct {
	Copied  int
	Skipped int
	Failed  int
}

// Summarize counts results by kind.
func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		switch r.Kind {
		case Copied:
			s.Copied++
		case Skipped:
			s.Skipped++
		case Failed:
			s.Failed++
		}
	}
	return s
}

// CopyError reports the file that stopped the merge.
type CopyError struct {
	Path string
	Err  error
}

func (e *CopyError) Error() string {
	return fmt.Sprintf(messages.MergeCopyErrFmt, e.Path, e.Err)
}

func (e *CopyError) Unwrap() error {
	return e.Err
}

// System is the minimal filesystem interface needed by the copier.
type System interface {
	Lstat(name string) (os.FileInfo, error)
	MkdirAll(path string, perm os.FileMode) error
	WalkDir(root string, fn fs.WalkDirFunc) error
	Open(name string) (io.ReadCloser, error)
	CreateExclusive(name string, perm os.FileMode) (io.WriteCloser, error)
	Remove(name string) error
}

// RealSystem implements System using the OS.
type RealSystem struct{}

// Lstat returns file info without following symlinks.
func (RealSystem) Lstat(name string) (os.FileInfo, error) {
	return os.Lstat(name)
}

// MkdirAll creates a directory and any parents.
func (RealSystem) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// WalkDir walks root in lexical order.
func (RealSystem) WalkDir(root string, fn fs.WalkDirFunc) error {
	return filepath.WalkDir(root, fn)
}

// Open opens a file for reading.
func (RealSystem) Open(name string) (io.ReadCloser, error) {
	return os.Open(name)
}

// CreateExclusive creates name, failing if anything exists there.
func (RealSystem) CreateExclusive(name string, perm os.FileMode) (io.WriteCloser, error) {
	return fsutil.CreateExclusive(name, perm)
}

// Remove deletes a single file.
func (RealSystem) Remove(name string) error {
	return os.Remove(name)
}

// Options configures a Copier.
type Options struct {
	System System
	Logger *slog.Logger
}

// Copier merges a source tree into a destination directory.
type Copier struct {
	sys    System
	logger *slog.Logger
}

// New returns a Copier with defaults applied to unset options.
func New(opts Options) *Copier {
	c := &Copier{sys: opts.System, logger: opts.Logger}
	if c.sys == nil {
		c.sys = RealSystem{}
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c
}

// Merge copies every regular file under src into dst, creating dst if needed.
// Existing destination paths are skipped. The first copy failure stops the
// merge and is returned as a *CopyError alongside the results gathered so far.
func (c *Copier) Merge(src string, dst string) ([]Result, error) {
	if err := c.sys.MkdirAll(dst, 0o755); err != nil {
		return nil, &fsutil.DirOpError{Op: fsutil.OpCreate, Path: dst, Err: err}
	}

	var results []Result
	walkErr := c.sys.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if path == src {
			if err != nil {
				return &fsutil.DirOpError{Op: fsutil.OpRead, Path: src, Err: err}
			}
			return nil
		}
		rel, relErr := filepath.Rel(src, path)
		if relErr != nil {
			return relErr
		}
		slashRel := filepath.ToSlash(rel)
		if err != nil {
			results = append(results, Result{Kind: Failed, Path: slashRel, Reason: err.Error(), Err: err})
			return &CopyError{Path: slashRel, Err: err}
		}
		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() {
			results = append(results, Result{Kind: Skipped, Path: slashRel, Reason: messages.MergeNotRegular})
			return nil
		}

		result := c.copyFile(path, filepath.Join(dst, rel), slashRel, d)
		c.logger.Debug("merge entry", "path", slashRel, "result", result.Kind.String())
		results = append(results, result)
		if result.Kind == Failed {
			return &CopyError{Path: slashRel, Err: result.Err}
		}
		return nil
	})
	if walkErr != nil {
		return results, walkErr
	}
	return results, nil
}

// copyFile copies one file without ever replacing an existing target.
func (c *Copier) copyFile(src string, target string, rel string, d fs.DirEntry) Result {
	if _, err := c.sys.Lstat(target); err == nil {
		return Result{Kind: Skipped, Path: rel, Reason: messages.MergeAlreadyExists}
	} else if errors.Is(err, syscall.ENOTDIR) {
		return Result{Kind: Skipped, Path: rel, Reason: messages.MergeParentNotDir}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return failed(rel, err)
	}

	info, err := d.Info()
	if err != nil {
		return failed(rel, err)
	}
	in, err := c.sys.Open(src)
	if err != nil {
		return failed(rel, err)
	}
	defer func() { _ = in.Close() }()

	if err := c.sys.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		if errors.Is(err, syscall.ENOTDIR) || errors.Is(err, fs.ErrExist) {
			return Result{Kind: Skipped, Path: rel, Reason: messages.MergeParentNotDir}
		}
		return failed(rel, err)
	}
	out, err := c.sys.CreateExclusive(target, info.Mode().Perm())
	if err != nil {
		// Something appeared at target after the Lstat check.
		if errors.Is(err, fs.ErrExist) {
			return Result{Kind: Skipped, Path: rel, Reason: messages.MergeAlreadyExists}
		}
		return failed(rel, err)
	}
	_, copyErr := io.Copy(out, in)
	closeErr := out.Close()
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		// The partial file is ours; remove it so a re-run can retry the copy.
		_ = c.sys.Remove(target)
		return failed(rel, copyErr)
	}
	return Result{Kind: Copied, Path: rel}
}

func failed(rel string, err error) Result {
	return Result{Kind: Failed, Path: rel, Reason: err.Error(), Err: err}
}
