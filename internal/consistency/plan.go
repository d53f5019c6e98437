package consistency

import (
	"context"
	"fmt"
	"strings"
)

// Step is one write in a plan.
type Step struct {
	Name string
	Run  func(ctx context.Context) error
}

// Plan is an ordered list of writes executed one after another. Writes are
// not transactional: when a step fails the remaining steps are skipped and
// the completed ones stay applied.
type Plan struct {
	steps []Step
}

func (p *Plan) Add(name string, run func(ctx context.Context) error) {
	p.steps = append(p.steps, Step{Name: name, Run: run})
}

// Append adds every step of other after the current steps.
func (p *Plan) Append(other Plan) {
	p.steps = append(p.steps, other.steps...)
}

func (p Plan) Len() int {
	return len(p.steps)
}

// Names lists the step names in execution order.
func (p Plan) Names() []string {
	names := make([]string, len(p.steps))
	for i, s := range p.steps {
		names[i] = s.Name
	}
	return names
}

// Execute runs the steps in order. A failure of the first step is returned
// as is since nothing was written; later failures come back as a
// *PartialWriteError.
func (p Plan) Execute(ctx context.Context) error {
	for i, s := range p.steps {
		if err := ctx.Err(); err != nil {
			return p.failure(i, err)
		}
		if err := s.Run(ctx); err != nil {
			return p.failure(i, err)
		}
	}
	return nil
}

func (p Plan) failure(i int, err error) error {
	if i == 0 {
		return fmt.Errorf("%s: %w", p.steps[0].Name, err)
	}
	completed := make([]string, i)
	for j := 0; j < i; j++ {
		completed[j] = p.steps[j].Name
	}
	return &PartialWriteError{Completed: completed, Failed: p.steps[i].Name, Err: err}
}

// PartialWriteError reports a plan that stopped after some writes were
// already applied.
type PartialWriteError struct {
	Completed []string
	Failed    string
	Err       error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("step %s failed after [%s]: %v", e.Failed, strings.Join(e.Completed, ", "), e.Err)
}

func (e *PartialWriteError) Unwrap() error {
	return e.Err
}
