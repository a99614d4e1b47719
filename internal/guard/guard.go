// Package guard decides whether a destination may be written without asking.
package guard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/conn-castle/scaffold/internal/fsutil"
	"github.com/conn-castle/scaffold/internal/messages"
)

// Decision is the outcome of a confirmation.
type Decision bool

const (
	// Declined stops the run with no side effects.
	Declined Decision = false
	// Proceed allows the run to continue.
	Proceed Decision = true
)

// ErrNoAnswer is returned when confirmation is needed but no prompter is configured.
var ErrNoAnswer = errors.New(messages.PromptRequiresInput)

// System is the minimal filesystem interface needed by the guard.
type System interface {
	Getwd() (string, error)
	IsEmptyDir(path string) (bool, error)
}

// RealSystem implements System using the OS.
type RealSystem struct{}

// Getwd returns the current working directory.
func (RealSystem) Getwd() (string, error) {
	return os.Getwd()
}

// IsEmptyDir reports whether path has no entries.
func (RealSystem) IsEmptyDir(path string) (bool, error) {
	return fsutil.IsEmptyDir(path)
}

// Options configures a Guard.
type Options struct {
	System System
	// AssumeYes answers the prompt affirmatively without reading input.
	AssumeYes bool
	Logger    *slog.Logger
}

// Guard asks before writing into a non-empty current directory.
type Guard struct {
	prompter  Prompter
	sys       System
	assumeYes bool
	logger    *slog.Logger
}

// New returns a Guard. prompter may be nil when AssumeYes is set.
func New(prompter Prompter, opts Options) *Guard {
	g := &Guard{
		prompter:  prompter,
		sys:       opts.System,
		assumeYes: opts.AssumeYes,
		logger:    opts.Logger,
	}
	if g.sys == nil {
		g.sys = RealSystem{}
	}
	if g.logger == nil {
		g.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return g
}

// Confirm decides whether dest may be written. Only a non-empty current
// working directory needs an answer; anything else proceeds immediately.
func (g *Guard) Confirm(ctx context.Context, dest string) (Decision, error) {
	absDest, err := filepath.Abs(dest)
	if err != nil {
		return Declined, fmt.Errorf(messages.GuardResolveDestFmt, dest, err)
	}
	cwd, err := g.sys.Getwd()
	if err != nil {
		return Declined, fmt.Errorf(messages.GuardResolveWorkingDirFmt, err)
	}
	if !sameDir(absDest, cwd) {
		g.logger.Debug("destination is not the working directory", "destination", absDest)
		return Proceed, nil
	}

	empty, err := g.sys.IsEmptyDir(cwd)
	if err != nil {
		return Declined, err
	}
	if empty {
		return Proceed, nil
	}
	if g.assumeYes {
		g.logger.Debug("non-empty working directory accepted by flag", "destination", cwd)
		return Proceed, nil
	}
	if g.prompter == nil {
		return Declined, ErrNoAnswer
	}
	if err := ctx.Err(); err != nil {
		return Declined, err
	}
	ok, err := g.prompter.Confirm(ctx, messages.PromptNonEmptyDir)
	if err != nil {
		return Declined, err
	}
	return Decision(ok), nil
}

// sameDir compares two absolute paths, resolving symlinks when possible.
func sameDir(a string, b string) bool {
	a, b = filepath.Clean(a), filepath.Clean(b)
	if a == b {
		return true
	}
	realA, errA := filepath.EvalSymlinks(a)
	realB, errB := filepath.EvalSymlinks(b)
	return errA == nil && errB == nil && realA == realB
}
