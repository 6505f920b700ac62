// SPDX-License-Identifier: MPL-2.0

package taskgraph

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
)

var (
	// ErrDuplicateStep is the sentinel wrapped by DuplicateStepError.
	ErrDuplicateStep = errors.New("duplicate step")
	// ErrOverlappingOutputs is the sentinel wrapped by OverlappingOutputsError.
	ErrOverlappingOutputs = errors.New("overlapping step outputs")
	// ErrUnknownStep is returned for targets or dependencies that are not registered.
	ErrUnknownStep = errors.New("unknown step")
)

type (
	// Engine registers and runs steps.
	Engine struct {
		steps       map[string]*Step
		order       []string
		historyPath string
		history     *History
		dryRun      bool
		logger      *log.Logger
	}

	// Option configures an Engine.
	Option func(*Engine)

	// Report lists what a run did, in execution order.
	Report struct {
		Executed []string
		UpToDate []string
		// DryRun is true when Executed lists steps that would have run.
		DryRun bool
	}

	// DuplicateStepError is returned when a step name is registered twice.
	DuplicateStepError struct {
		Name string
	}

	// OverlappingOutputsError is returned when a step's outputs overlap
	// another step's outputs, or its own inputs (Other is then empty).
	OverlappingOutputsError struct {
		Step  string
		Other string
		Path  string
	}

	// StepError reports a failing step action.
	StepError struct {
		Step string
		Err  error
	}
)

// Error implements the error interface.
func (e *DuplicateStepError) Error() string {
	return fmt.Sprintf("step %q is already registered", e.Name)
}

// Unwrap returns ErrDuplicateStep for errors.Is() compatibility.
func (e *DuplicateStepError) Unwrap() error { return ErrDuplicateStep }

// Error implements the error interface.
func (e *OverlappingOutputsError) Error() string {
	if e.Other == "" {
		return fmt.Sprintf("step %q reads its own output %s", e.Step, e.Path)
	}
	return fmt.Sprintf("steps %q and %q both declare output %s", e.Other, e.Step, e.Path)
}

// Unwrap returns ErrOverlappingOutputs for errors.Is() compatibility.
func (e *OverlappingOutputsError) Unwrap() error { return ErrOverlappingOutputs }

// Error implements the error interface.
func (e *StepError) Error() string {
	return fmt.Sprintf("step %s failed: %v", e.Step, e.Err)
}

// Unwrap returns the action's error.
func (e *StepError) Unwrap() error { return e.Err }

// WithDryRun makes Run report the steps that would execute without running
// actions or saving history.
func WithDryRun(dryRun bool) Option {
	return func(e *Engine) { e.dryRun = dryRun }
}

// WithLogger sets the engine's logger.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New returns an engine persisting its history at historyPath. An empty
// historyPath keeps history in memory only.
func New(historyPath string, opts ...Option) (*Engine, error) {
	e := &Engine{
		steps:       make(map[string]*Step),
		historyPath: historyPath,
		history:     newHistory(),
		logger:      log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(e)
	}
	if historyPath != "" {
		h, err := LoadHistory(historyPath)
		if err != nil {
			return nil, err
		}
		e.history = h
	}
	return e, nil
}

// Register adds s to the engine.
func (e *Engine) Register(s *Step) error {
	if _, dup := e.steps[s.name]; dup {
		return &DuplicateStepError{Name: s.name}
	}
	if err := e.checkOverlaps(s); err != nil {
		return err
	}
	e.steps[s.name] = s
	e.order = append(e.order, s.name)
	return nil
}

// Step returns the registered step with the given name.
func (e *Engine) Step(name string) (*Step, bool) {
	s, ok := e.steps[name]
	return s, ok
}

// Steps returns the registered step names in registration order.
func (e *Engine) Steps() []string { return slices.Clone(e.order) }

func (e *Engine) checkOverlaps(s *Step) error {
	for _, out := range s.outputs {
		for _, in := range s.inputFiles {
			if overlaps(out, in) {
				return &OverlappingOutputsError{Step: s.name, Path: out}
			}
		}
		for _, name := range e.order {
			if name == s.name {
				continue
			}
			for _, other := range e.steps[name].outputs {
				if overlaps(out, other) {
					return &OverlappingOutputsError{Step: s.name, Other: name, Path: out}
				}
			}
		}
	}
	return nil
}

// overlaps reports whether a and b are the same path or one contains the other.
func overlaps(a, b string) bool {
	return a == b || within(a, b) || within(b, a)
}

func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && rel != "."
}

// Run executes targets and everything they depend on. Without targets,
// every registered step runs.
func (e *Engine) Run(ctx context.Context, targets ...string) (report *Report, err error) {
	order, err := e.plan(targets)
	if err != nil {
		return nil, err
	}
	for _, name := range order {
		if err := e.checkOverlaps(e.steps[name]); err != nil {
			return nil, err
		}
	}

	report = &Report{DryRun: e.dryRun}
	if !e.dryRun && e.historyPath != "" {
		defer func() {
			if saveErr := e.history.Save(e.historyPath); saveErr != nil && err == nil {
				err = saveErr
			}
		}()
	}

	for _, name := range order {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		s := e.steps[name]
		upToDate, inputs, err := e.upToDate(s)
		if err != nil {
			return report, &StepError{Step: name, Err: err}
		}
		if upToDate {
			e.logger.Debug("step up-to-date", "step", name)
			report.UpToDate = append(report.UpToDate, name)
			continue
		}
		report.Executed = append(report.Executed, name)
		if e.dryRun {
			e.logger.Info("step would run", "step", name)
			continue
		}

		e.logger.Debug("running step", "step", name, "actions", len(s.actions))
		delete(e.history.Steps, name)
		for _, action := range s.actions {
			if err := action(ctx, s); err != nil {
				return report, &StepError{Step: name, Err: err}
			}
		}
		outputs, err := outputFingerprint(s)
		if err != nil {
			return report, &StepError{Step: name, Err: err}
		}
		e.history.Steps[name] = Record{Inputs: inputs, Outputs: outputs}
	}
	return report, nil
}

// upToDate reports whether s can be skipped and returns its input fingerprint.
func (e *Engine) upToDate(s *Step) (bool, Fingerprint, error) {
	inputs, err := inputFingerprint(s)
	if err != nil {
		return false, Fingerprint{}, err
	}
	rec, ok := e.history.Steps[s.name]
	if !ok || rec.Inputs != inputs || len(s.outputs) == 0 {
		return false, inputs, nil
	}
	outputs, err := outputFingerprint(s)
	if err != nil {
		return false, inputs, err
	}
	return rec.Outputs == outputs, inputs, nil
}

// plan returns the execution order for targets and their dependencies.
func (e *Engine) plan(targets []string) ([]string, error) {
	if len(targets) == 0 {
		targets = e.order
	}
	g := newGraph()
	seen := make(map[string]bool)
	var add func(name string) error
	add = func(name string) error {
		if seen[name] {
			return nil
		}
		seen[name] = true
		s, ok := e.steps[name]
		if !ok {
			return fmt.Errorf("%w %q", ErrUnknownStep, name)
		}
		g.addNode(name)
		for _, dep := range s.dependsOn {
			if err := add(dep); err != nil {
				return err
			}
			g.addEdge(dep, name)
		}
		return nil
	}
	for _, t := range targets {
		if err := add(t); err != nil {
			return nil, err
		}
	}
	return g.sort()
}
