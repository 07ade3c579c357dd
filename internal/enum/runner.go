package enum

import (
	"context"
	"errors"
	"time"

	"github.com/papapumpkin/casmproj/internal/crystal"
	"github.com/papapumpkin/casmproj/internal/telemetry"
	"github.com/papapumpkin/casmproj/internal/ui"
)

// DefaultNPerCommit is the number of checked configurations between
// intermediate commits.
const DefaultNPerCommit = 100000

// ErrNoEnumerator is returned by Run on a runner created without an
// enumerator.
var ErrNoEnumerator = errors.New("runner has no enumerator")

// Enumerator yields configurations one at a time until exhausted.
type Enumerator interface {
	Next() (*crystal.Configuration, bool)
}

// StepIndexer is implemented by enumerators that advance through numbered
// steps, for example one step per supercell. Enumerators without it run as
// a single step with index 0.
type StepIndexer interface {
	EnumIndex() int
}

// Progress receives runner output. *ui.Printer implements it.
type Progress interface {
	Info(msg string)
	EnumBegin(id, desc string, initial int)
	EnumStep(d ui.EnumStepData)
	EnumCommitting(sinceLast int)
	EnumSummary(d ui.EnumSummaryData)
}

// FilterFunc reports whether a configuration should be kept.
type FilterFunc func(c *crystal.Configuration, d *Data) bool

// ContinueFunc is called after each check with the configuration and the
// filter outcome; returning false stops Run.
type ContinueFunc func(c *crystal.Configuration, kept bool) bool

// Options configures a Runner. Zero values select the defaults: keep every
// configuration, DefaultNPerCommit, no output.
type Options struct {
	Desc         string
	Filter       FilterFunc
	PrintSteps   bool
	NPerCommit   int
	PrintCommits bool
	Verbose      bool
	DryRun       bool
	Progress     Progress
	Telemetry    *telemetry.Emitter
}

// Runner feeds enumerated configurations into Data, applying the filter,
// keeping per-step counts, and committing every NPerCommit checks. A dry
// run counts and filters identically but never commits.
type Runner struct {
	data   *Data
	source Enumerator
	steps  StepIndexer
	opts   Options

	started time.Time

	inStep    bool
	stepIndex int

	nInit            int
	nFinal           int
	nBefore          int
	nTotal           int
	nExcluded        int
	nSinceLastCommit int
	nCommits         int
}

// NewRunner returns a runner adding to d. e may be nil when configurations
// are passed to Check directly.
func NewRunner(d *Data, e Enumerator, opts Options) *Runner {
	if opts.NPerCommit <= 0 {
		opts.NPerCommit = DefaultNPerCommit
	}
	r := &Runner{data: d, source: e, opts: opts}
	if si, ok := e.(StepIndexer); ok {
		r.steps = si
	}
	r.nInit = d.ConfigurationSet.Len()
	r.nBefore = r.nInit
	return r
}

// NTotal returns the configurations checked in the current step.
func (r *Runner) NTotal() int { return r.nTotal }

// NExcluded returns the configurations rejected by the filter in the
// current step.
func (r *Runner) NExcluded() int { return r.nExcluded }

// NSinceLastCommit returns the configurations checked since the last commit.
func (r *Runner) NSinceLastCommit() int { return r.nSinceLastCommit }

// NInit returns the configuration set size when the runner was created.
func (r *Runner) NInit() int { return r.nInit }

// NFinal returns the configuration set size recorded by Finish.
func (r *Runner) NFinal() int { return r.nFinal }

// NCommits returns the number of commits performed.
func (r *Runner) NCommits() int { return r.nCommits }

// StepIndex returns the index of the current step.
func (r *Runner) StepIndex() int { return r.stepIndex }

func (r *Runner) verbose() bool { return r.opts.Verbose && r.opts.Progress != nil }

func (r *Runner) emit(kind string, step *int, data any) {
	// Telemetry is best effort.
	_ = r.opts.Telemetry.Emit(telemetry.Event{
		Kind:   kind,
		EnumID: r.data.ID(),
		Step:   step,
		DryRun: r.opts.DryRun,
		Data:   data,
	})
}

// Begin resets the since-last-commit counter.
func (r *Runner) Begin() {
	r.started = time.Now()
	r.nSinceLastCommit = 0
	if r.verbose() {
		r.opts.Progress.EnumBegin(r.data.ID(), r.opts.Desc, r.nInit)
	}
	r.emit(telemetry.KindEnumBegin, nil, map[string]any{"desc": r.opts.Desc, "initial": r.nInit})
}

func (r *Runner) beginStep() {
	r.nTotal = 0
	r.nExcluded = 0
	r.nBefore = r.data.ConfigurationSet.Len()
}

func (r *Runner) finishStep() {
	step := ui.EnumStepData{
		Index:    r.stepIndex,
		HasIndex: r.steps != nil,
		Total:    r.nTotal,
		New:      r.data.ConfigurationSet.Len() - r.nBefore,
		Excluded: r.nExcluded,
	}
	if r.verbose() && r.opts.PrintSteps {
		r.opts.Progress.EnumStep(step)
	}
	r.emit(telemetry.KindEnumStep, telemetry.StepPtr(r.stepIndex), map[string]int{
		"total": step.Total, "new": step.New, "excluded": step.Excluded,
	})
}

// Check records one enumerated configuration. It inserts c into the
// configuration set when the filter keeps it, and commits when the batch
// threshold is reached. It returns the filter outcome.
func (r *Runner) Check(c *crystal.Configuration) (bool, error) {
	index := 0
	if r.steps != nil {
		index = r.steps.EnumIndex()
	}
	if !r.inStep || index != r.stepIndex {
		if r.inStep {
			r.finishStep()
		}
		r.inStep = true
		r.stepIndex = index
		r.beginStep()
	}

	r.nTotal++
	kept := r.opts.Filter == nil || r.opts.Filter(c, r.data)
	if kept {
		r.data.ConfigurationSet.Add(c)
	} else {
		r.nExcluded++
	}
	r.nSinceLastCommit++

	if !r.opts.DryRun && r.nSinceLastCommit >= r.opts.NPerCommit {
		if err := r.commit(); err != nil {
			return kept, err
		}
	}
	return kept, nil
}

func (r *Runner) commit() error {
	if r.verbose() && r.opts.PrintCommits {
		r.opts.Progress.EnumCommitting(r.nSinceLastCommit)
		r.opts.Progress.Info(r.data.String())
	}
	if err := r.data.Commit(); err != nil {
		return err
	}
	r.nCommits++
	r.emit(telemetry.KindEnumCommit, nil, map[string]int{
		"since_last": r.nSinceLastCommit, "configurations": r.data.ConfigurationSet.Len(),
	})
	r.nSinceLastCommit = 0
	return nil
}

// Finish closes the current step, records the final size, and, unless this
// is a dry run, commits the remainder.
func (r *Runner) Finish() error {
	if r.inStep {
		r.finishStep()
		r.inStep = false
	}
	r.nFinal = r.data.ConfigurationSet.Len()
	if r.verbose() {
		r.opts.Progress.EnumSummary(ui.EnumSummaryData{
			ID:      r.data.ID(),
			Initial: r.nInit,
			Final:   r.nFinal,
			DryRun:  r.opts.DryRun,
			Elapsed: time.Since(r.started),
		})
	}
	if !r.opts.DryRun {
		if err := r.commit(); err != nil {
			return err
		}
	}
	r.emit(telemetry.KindEnumFinish, nil, map[string]int{
		"initial": r.nInit, "final": r.nFinal, "commits": r.nCommits,
	})
	return nil
}

// Run drives the runner's enumerator to exhaustion through Check, stopping
// early when cont returns false, and then calls Finish. A cancelled ctx
// stops the run without the final commit; batches already committed stay
// on disk.
func (r *Runner) Run(ctx context.Context, cont ContinueFunc) error {
	if r.source == nil {
		return ErrNoEnumerator
	}
	e := r.source
	r.Begin()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		c, ok := e.Next()
		if !ok {
			break
		}
		kept, err := r.Check(c)
		if err != nil {
			return err
		}
		if cont != nil && !cont(c, kept) {
			break
		}
	}
	return r.Finish()
}
