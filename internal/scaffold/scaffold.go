// Package scaffold runs the confirm, stage, merge, and cleanup sequence that
// materializes a template into a destination directory.
package scaffold

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/conn-castle/scaffold/internal/catalog"
	"github.com/conn-castle/scaffold/internal/fsutil"
	"github.com/conn-castle/scaffold/internal/guard"
	"github.com/conn-castle/scaffold/internal/merge"
	"github.com/conn-castle/scaffold/internal/messages"
)

// Guard confirms that a destination may be written.
type Guard interface {
	Confirm(ctx context.Context, dest string) (guard.Decision, error)
}

// Stager provides a populated staging directory for the duration of fn.
type Stager interface {
	With(ctx context.Context, tmpl catalog.Template, fn func(path string) error) error
}

// Merger copies a staged tree into a destination without clobbering.
type Merger interface {
	Merge(src string, dst string) ([]merge.Result, error)
}

// System is the minimal filesystem interface needed by the orchestrator.
type System interface {
	MkdirAll(path string, perm os.FileMode) error
}

// RealSystem implements System using the OS.
type RealSystem struct{}

// MkdirAll creates a directory and any parents.
func (RealSystem) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// Request is one scaffold run.
type Request struct {
	// Destination is the absolute target directory.
	Destination string
	Template    catalog.Template
}

// Outcome describes how a run ended.
type Outcome struct {
	State       State
	Declined    bool
	Destination string
	Template    catalog.Template
	// Results is empty unless the run reached Done.
	Results []merge.Result
	Copied  int
	Skipped int
}

// Options configures an Orchestrator.
type Options struct {
	System System
	Logger *slog.Logger
	// OnTransition is called after every state change.
	OnTransition func(from State, to State)
}

// Orchestrator sequences a scaffold run.
type Orchestrator struct {
	guard        Guard
	stager       Stager
	merger       Merger
	sys          System
	logger       *slog.Logger
	onTransition func(from State, to State)
}

// New returns an Orchestrator over the given collaborators.
func New(g Guard, s Stager, m Merger, opts Options) *Orchestrator {
	o := &Orchestrator{
		guard:        g,
		stager:       s,
		merger:       m,
		sys:          opts.System,
		logger:       opts.Logger,
		onTransition: opts.OnTransition,
	}
	if o.sys == nil {
		o.sys = RealSystem{}
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}

// run carries the state of one Run call.
type run struct {
	o   *Orchestrator
	out Outcome
}

func (r *run) transition(to State) {
	from := r.out.State
	if !canTransition(from, to) {
		panic(fmt.Sprintf("scaffold: invalid transition %s -> %s", from, to))
	}
	r.out.State = to
	r.o.logger.Debug("scaffold state", "from", from.String(), "to", to.String())
	if r.o.onTransition != nil {
		r.o.onTransition(from, to)
	}
}

// Run executes the workflow. A declined confirmation returns an Outcome with
// Declined set and a nil error. On any failure the staging directory has
// been removed before Run returns.
func (o *Orchestrator) Run(ctx context.Context, req Request) (Outcome, error) {
	if err := o.validate(req); err != nil {
		return Outcome{State: Idle, Destination: req.Destination, Template: req.Template}, err
	}
	r := &run{o: o, out: Outcome{State: Idle, Destination: req.Destination, Template: req.Template}}

	decision, err := o.guard.Confirm(ctx, req.Destination)
	if err != nil {
		r.transition(Aborted)
		return r.out, fmt.Errorf(messages.ScaffoldConfirmFailedFmt, req.Destination, err)
	}
	if decision == guard.Declined {
		r.out.Declined = true
		r.transition(Aborted)
		return r.out, nil
	}
	r.transition(Confirmed)

	var results []merge.Result
	err = o.stager.With(ctx, req.Template, func(path string) error {
		r.transition(Staged)
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := o.sys.MkdirAll(req.Destination, 0o755); err != nil {
			return &fsutil.DirOpError{Op: fsutil.OpCreate, Path: req.Destination, Err: err}
		}
		merged, err := o.merger.Merge(path, req.Destination)
		if err != nil {
			return err
		}
		results = merged
		r.transition(Merged)
		return nil
	})
	if err != nil {
		r.transition(Aborted)
		return r.out, err
	}
	r.transition(Cleaned)

	summary := merge.Summarize(results)
	r.out.Results = results
	r.out.Copied = summary.Copied
	r.out.Skipped = summary.Skipped
	r.transition(Done)
	return r.out, nil
}

func (o *Orchestrator) validate(req Request) error {
	switch {
	case o.guard == nil:
		return errors.New(messages.ScaffoldGuardRequired)
	case o.stager == nil:
		return errors.New(messages.ScaffoldStagerRequired)
	case o.merger == nil:
		return errors.New(messages.ScaffoldMergerRequired)
	case req.Destination == "":
		return errors.New(messages.ScaffoldDestinationRequired)
	case !filepath.IsAbs(req.Destination):
		return fmt.Errorf(messages.ScaffoldDestinationNotAbs, req.Destination)
	case req.Template.Name == "":
		return errors.New(messages.ScaffoldTemplateRequired)
	}
	return nil
}
