package core

import (
	"context"
	"fmt"
)

// State is the accumulated wizard input, merged across turns.
type State map[string]any

// Merge copies the input over the existing state, last write wins.
func (s State) Merge(input map[string]any) {
	for k, v := range input {
		s[k] = v
	}
}

// String reads a state value as a trimmed-down string; absent or
// non-string values read as "".
func (s State) String(key string) string {
	if v, ok := s[key].(string); ok {
		return v
	}
	return ""
}

// Step is one wizard screen. Validate gates the transition: while it
// errors, the wizard stays put. Run performs the step's side effect
// after validation passes.
type Step struct {
	Name     string
	Validate func(ctx context.Context, s State) error
	Run      func(ctx context.Context, s State) error
}

func NewStep(name string, validate, run func(ctx context.Context, s State) error) *Step {
	return &Step{
		Name:     name,
		Validate: validate,
		Run:      run,
	}
}

// Flow is an ordered list of steps under a name.
type Flow struct {
	name  string
	steps []*Step
}

func NewFlow(name string, steps ...*Step) *Flow {
	return &Flow{name: name, steps: steps}
}

func (f *Flow) Name() string   { return f.name }
func (f *Flow) Steps() []*Step { return f.steps }

// Session is one walk through a flow. Index points at the step the
// user is currently on.
type Session struct {
	ID        string
	Flow      *Flow
	State     State
	Index     int
	Completed bool
}

func NewSession(id string, flow *Flow) *Session {
	return &Session{
		ID:    id,
		Flow:  flow,
		State: State{},
	}
}

func (s *Session) CurrentStep() *Step {
	if s.Completed || s.Index >= len(s.Flow.steps) {
		return nil
	}
	return s.Flow.steps[s.Index]
}

// Next merges the input and tries to advance past the current step.
// A validation or execution failure leaves the session on the same
// step with the merged input intact, so the user can correct and
// resubmit.
func (s *Session) Next(ctx context.Context, input map[string]any) error {
	if s.Completed {
		return fmt.Errorf("flow %q is already completed", s.Flow.name)
	}

	s.State.Merge(input)

	step := s.Flow.steps[s.Index]
	if step.Validate != nil {
		if err := step.Validate(ctx, s.State); err != nil {
			return err
		}
	}
	if step.Run != nil {
		if err := step.Run(ctx, s.State); err != nil {
			return err
		}
	}

	s.Index++
	if s.Index >= len(s.Flow.steps) {
		s.Completed = true
	}
	return nil
}

// Back moves one step towards the start, flooring at the first step.
// Collected state is kept so moving forward again re-validates it.
func (s *Session) Back() {
	if s.Completed {
		return
	}
	if s.Index > 0 {
		s.Index--
	}
}
