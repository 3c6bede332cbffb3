package pipeline

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/siherrmann/bibliograph/helper"
)

// Pipeline runs stages in order and stops at the first failure
type Pipeline struct {
	Name    string
	Stages  []Stage
	Metrics *helper.Metrics
}

// NewPipeline creates a new named pipeline
func NewPipeline(name string, stages ...Stage) *Pipeline {
	return &Pipeline{
		Name:   name,
		Stages: stages,
	}
}

// SetMetrics counts stage failures on m
func (p *Pipeline) SetMetrics(m *helper.Metrics) {
	p.Metrics = m
}

// Run runs every stage against state. The first error is returned unchanged
// and no later stage runs.
func (p *Pipeline) Run(r *http.Request, state *State) error {
	for i, stage := range p.Stages {
		if err := stage(r, state); err != nil {
			if !errors.Is(err, ErrRouteMismatch) {
				p.Metrics.CountStageFailure(fmt.Sprintf("%s[%d]", p.Name, i))
			}
			return err
		}
	}
	return nil
}

// Chain tries pipelines in order while they fail with ErrRouteMismatch.
// It returns ErrRouteMismatch when no pipeline matched.
func Chain(pipelines ...*Pipeline) Stage {
	return func(r *http.Request, state *State) error {
		for _, p := range pipelines {
			err := p.Run(r, state)
			if errors.Is(err, ErrRouteMismatch) {
				continue
			}
			return err
		}
		return ErrRouteMismatch
	}
}
