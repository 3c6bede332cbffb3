package pipeline

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/siherrmann/bibliograph/helper"
	"github.com/siherrmann/bibliograph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordStage(name string, trace *[]string, err error) Stage {
	return func(r *http.Request, state *State) error {
		*trace = append(*trace, name)
		return err
	}
}

func TestPipelineRun(t *testing.T) {
	t.Run("Run stages in order", func(t *testing.T) {
		var trace []string
		p := NewPipeline("test", recordStage("a", &trace, nil), recordStage("b", &trace, nil), recordStage("c", &trace, nil))
		err := p.Run(httptest.NewRequest(http.MethodGet, "/", nil), NewState())
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, trace)
	})

	t.Run("Stop at first failure", func(t *testing.T) {
		var trace []string
		boom := errors.New("boom")
		m := helper.NewMetrics()
		p := NewPipeline("test", recordStage("a", &trace, nil), recordStage("b", &trace, boom), recordStage("c", &trace, nil))
		p.SetMetrics(m)
		err := p.Run(httptest.NewRequest(http.MethodGet, "/", nil), NewState())
		assert.Equal(t, boom, err, "Expected the stage error unchanged")
		assert.Equal(t, []string{"a", "b"}, trace, "Expected no stage after the failure")
		assert.Equal(t, 1.0, testutil.ToFloat64(m.StageFailures.WithLabelValues("test[1]")))
	})

	t.Run("Route mismatch is not counted as failure", func(t *testing.T) {
		var trace []string
		m := helper.NewMetrics()
		p := NewPipeline("test", recordStage("a", &trace, ErrRouteMismatch))
		p.SetMetrics(m)
		err := p.Run(httptest.NewRequest(http.MethodGet, "/", nil), NewState())
		assert.ErrorIs(t, err, ErrRouteMismatch)
		assert.Equal(t, 0, testutil.CollectAndCount(m.StageFailures))
	})

	t.Run("Empty pipeline succeeds", func(t *testing.T) {
		err := NewPipeline("empty").Run(httptest.NewRequest(http.MethodGet, "/", nil), NewState())
		assert.NoError(t, err)
	})
}

func TestChain(t *testing.T) {
	t.Run("Fall through on route mismatch", func(t *testing.T) {
		var trace []string
		chain := Chain(
			NewPipeline("first", recordStage("first", &trace, ErrRouteMismatch), recordStage("never", &trace, nil)),
			NewPipeline("second", recordStage("second", &trace, nil)),
			NewPipeline("third", recordStage("third", &trace, nil)),
		)
		err := chain(httptest.NewRequest(http.MethodGet, "/", nil), NewState())
		require.NoError(t, err)
		assert.Equal(t, []string{"first", "second"}, trace, "Expected the first matching pipeline only")
	})

	t.Run("Other errors stop the chain", func(t *testing.T) {
		var trace []string
		boom := &NotFoundError{Message: "Edition not found", Err: model.ErrNotFound}
		chain := Chain(
			NewPipeline("first", recordStage("first", &trace, boom)),
			NewPipeline("second", recordStage("second", &trace, nil)),
		)
		err := chain(httptest.NewRequest(http.MethodGet, "/", nil), NewState())
		assert.Equal(t, boom, err)
		assert.Equal(t, []string{"first"}, trace)
	})

	t.Run("No matching pipeline", func(t *testing.T) {
		var trace []string
		chain := Chain(NewPipeline("first", recordStage("first", &trace, ErrRouteMismatch)))
		err := chain(httptest.NewRequest(http.MethodGet, "/", nil), NewState())
		assert.ErrorIs(t, err, ErrRouteMismatch)
	})
}

func TestState(t *testing.T) {
	t.Run("Set and get terms per vocabulary", func(t *testing.T) {
		state := NewState()
		for i, kind := range model.VocabularyKinds {
			state.SetTerms(kind, []*model.Term{{ID: i, Kind: kind}})
		}
		for i, kind := range model.VocabularyKinds {
			require.Len(t, state.Terms(kind), 1)
			assert.Equal(t, i, state.Terms(kind)[0].ID, "Expected terms of %s in their own field", kind)
		}
	})

	t.Run("Unknown vocabulary is ignored", func(t *testing.T) {
		state := NewState()
		state.SetTerms("unknown", []*model.Term{{ID: 1}})
		assert.Nil(t, state.Terms("unknown"))
	})
}
