// Package stage fetches a template into a scoped, uniquely named temporary
// directory and guarantees the directory is removed afterwards.
package stage

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/conn-castle/scaffold/internal/catalog"
	"github.com/conn-castle/scaffold/internal/fsutil"
	"github.com/conn-castle/scaffold/internal/messages"
)

const namePrefix = "scaffold-"

// Fetcher populates a directory with a template's files.
type Fetcher interface {
	FetchAndExtract(ctx context.Context, tmpl catalog.Template, dest string) error
}

// System is the minimal filesystem interface needed by the stager.
type System interface {
	TempDir() string
	MkdirAll(path string, perm os.FileMode) error
	RemoveAll(path string) error
}

// RealSystem implements System using the OS.
type RealSystem struct{}

// TempDir returns the OS temporary directory.
func (RealSystem) TempDir() string {
	return os.TempDir()
}

// MkdirAll creates a directory and any parents.
func (RealSystem) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// RemoveAll removes a path and any children.
func (RealSystem) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

// StageError reports a failure to populate the staging directory.
type StageError struct {
	Template string
	Err      error
}

func (e *StageError) Error() string {
	return fmt.Sprintf(messages.StageErrFmt, e.Template, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Options configures a Stager.
type Options struct {
	System System
	Logger *slog.Logger
	// NewName returns a unique directory name; nil uses random hex.
	NewName func() (string, error)
}

// Stager owns the staging directory lifecycle.
type Stager struct {
	fetcher Fetcher
	sys     System
	logger  *slog.Logger
	newName func() (string, error)
}

// Staging is one staging directory. Its path must not be used after Cleanup.
type Staging struct {
	path    string
	sys     System
	logger  *slog.Logger
	cleaned bool
}

// New returns a Stager that fills staging directories with fetcher.
func New(fetcher Fetcher, opts Options) *Stager {
	s := &Stager{
		fetcher: fetcher,
		sys:     opts.System,
		logger:  opts.Logger,
		newName: opts.NewName,
	}
	if s.sys == nil {
		s.sys = RealSystem{}
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if s.newName == nil {
		s.newName = randomName
	}
	return s
}

// Stage creates an empty staging directory and fetches tmpl into it.
// When the returned Staging is non-nil the caller owns it and must call
// Cleanup, even if err is non-nil.
func (s *Stager) Stage(ctx context.Context, tmpl catalog.Template) (*Staging, error) {
	if s.fetcher == nil {
		return nil, errors.New(messages.StageFetcherRequired)
	}
	name, err := s.newName()
	if err != nil {
		return nil, fmt.Errorf(messages.StageNameFailedFmt, err)
	}
	path := filepath.Join(s.sys.TempDir(), name)
	staging := &Staging{path: path, sys: s.sys, logger: s.logger}

	// A leftover directory with the same name is never reused.
	if err := s.sys.RemoveAll(path); err != nil {
		return staging, &fsutil.DirOpError{Op: fsutil.OpRemove, Path: path, Err: err}
	}
	if err := s.sys.MkdirAll(path, 0o700); err != nil {
		return staging, &fsutil.DirOpError{Op: fsutil.OpCreate, Path: path, Err: err}
	}
	s.logger.Debug("staging directory created", "path", path, "template", tmpl.String())

	if err := s.fetcher.FetchAndExtract(ctx, tmpl, path); err != nil {
		return staging, &StageError{Template: tmpl.String(), Err: err}
	}
	return staging, nil
}

// With stages tmpl, calls fn with the staging path, and always cleans up.
// A cleanup failure is returned when fn succeeded and attached otherwise.
func (s *Stager) With(ctx context.Context, tmpl catalog.Template, fn func(path string) error) error {
	staging, err := s.Stage(ctx, tmpl)
	if staging == nil {
		return err
	}
	if err == nil {
		err = fn(staging.Path())
	}
	if cleanupErr := staging.Cleanup(); cleanupErr != nil {
		if err == nil {
			return cleanupErr
		}
		return fmt.Errorf(messages.StageCleanupJoinedFmt, err, cleanupErr)
	}
	return err
}

// Path returns the staging directory path.
func (st *Staging) Path() string {
	return st.path
}

// Cleanup removes the staging directory. Calling it again is a no-op.
func (st *Staging) Cleanup() error {
	if st == nil || st.cleaned {
		return nil
	}
	if err := st.sys.RemoveAll(st.path); err != nil {
		return &fsutil.DirOpError{Op: fsutil.OpRemove, Path: st.path, Err: err}
	}
	st.cleaned = true
	st.logger.Debug("staging directory removed", "path", st.path)
	return nil
}

func randomName() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return namePrefix + hex.EncodeToString(buf), nil
}
