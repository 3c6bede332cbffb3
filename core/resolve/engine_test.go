package resolve

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/siherrmann/bibliograph/core/render"
	"github.com/siherrmann/bibliograph/helper"
	"github.com/siherrmann/bibliograph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockFinder resolves entities from a map and sleeps a random latency per lookup
type mockFinder struct {
	mu         sync.Mutex
	entities   map[uuid.UUID]*model.Entity
	failures   map[uuid.UUID]error
	maxLatency time.Duration
	calls      atomic.Int64
	inFlight   atomic.Int64
	peak       atomic.Int64
}

func newMockFinder(maxLatency time.Duration) *mockFinder {
	return &mockFinder{
		entities:   map[uuid.UUID]*model.Entity{},
		failures:   map[uuid.UUID]error{},
		maxLatency: maxLatency,
	}
}

func (m *mockFinder) add(name string) *model.Entity {
	e := &model.Entity{
		BBID:         uuid.New(),
		Kind:         model.KindCreator,
		DefaultAlias: &model.Alias{ID: 1, Name: name},
	}
	m.mu.Lock()
	m.entities[e.BBID] = e
	m.mu.Unlock()
	return e
}

func (m *mockFinder) FindByBBID(ctx context.Context, bbid uuid.UUID) (*model.Entity, error) {
	m.calls.Add(1)
	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		p := m.peak.Load()
		if n <= p || m.peak.CompareAndSwap(p, n) {
			break
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.maxLatency > 0 {
		select {
		case <-time.After(rand.N(m.maxLatency)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.failures[bbid]; ok {
		return nil, err
	}
	e, ok := m.entities[bbid]
	if !ok {
		return nil, fmt.Errorf("%s: %w", bbid, model.ErrNotFound)
	}
	return e, nil
}

func relationship(id int64, template string, participants ...*model.Participant) *model.Relationship {
	return &model.Relationship{
		ID:           id,
		Type:         &model.RelationshipType{ID: int(id), Label: "test", Template: template},
		Participants: participants,
	}
}

func participant(position int, e *model.Entity) *model.Participant {
	return &model.Participant{Position: position, EntityBBID: e.BBID}
}

func TestNewEngine(t *testing.T) {
	t.Run("Create new engine with defaults", func(t *testing.T) {
		engine := NewEngine(newMockFinder(0))
		require.NotNil(t, engine, "Expected NewEngine to return a non-nil instance")
		assert.NotNil(t, engine.render, "Expected engine to have a default renderer")
		assert.Equal(t, 0, engine.limit, "Expected no concurrency limit by default")
	})

	t.Run("Create new engine with options", func(t *testing.T) {
		m := helper.NewMetrics()
		engine := NewEngine(newMockFinder(0), WithConcurrencyLimit(2), WithMetrics(m))
		assert.Equal(t, 2, engine.limit, "Expected concurrency limit to be set")
		assert.Equal(t, m, engine.metrics, "Expected metrics to be set")
	})
}

func TestResolveRelationships(t *testing.T) {
	t.Run("Resolve participants in position order", func(t *testing.T) {
		finder := newMockFinder(5 * time.Millisecond)
		a, b, c := finder.add("a"), finder.add("b"), finder.add("c")
		subject := &model.Entity{BBID: uuid.New(), Kind: model.KindWork}
		subject.Relationships = []*model.Relationship{
			relationship(1, "{0} {1} {2}",
				participant(2, c),
				participant(0, a),
				participant(1, b),
			),
		}

		err := NewEngine(finder).ResolveRelationships(context.Background(), subject)
		require.NoError(t, err, "Expected resolution to succeed")
		require.Len(t, subject.Relationships, 1)

		rel := subject.Relationships[0]
		assert.Equal(t, "{0} {1} {2}", rel.Template, "Expected template to be flattened from the type")
		require.NotNil(t, rel.Rendered)
		assert.Equal(t, "a b c", rel.Rendered.Text, "Expected participants rendered in position order")
		require.Len(t, rel.Participants, 3)
		for i, want := range []*model.Entity{a, b, c} {
			assert.Equal(t, i, rel.Participants[i].Position, "Expected participants sorted by position")
			assert.Equal(t, want, rel.Participants[i].Entity, "Expected participant %d to be resolved", i)
		}
	})

	t.Run("Ordering holds under random latency", func(t *testing.T) {
		finder := newMockFinder(3 * time.Millisecond)
		names := []string{"p0", "p1", "p2", "p3", "p4", "p5", "p6", "p7"}
		participants := make([]*model.Participant, len(names))
		for i, name := range names {
			participants[i] = participant(i, finder.add(name))
		}
		rand.Shuffle(len(participants), func(i, j int) {
			participants[i], participants[j] = participants[j], participants[i]
		})

		for run := 0; run < 10; run++ {
			cp := make([]*model.Participant, len(participants))
			for i, p := range participants {
				q := *p
				cp[i] = &q
			}
			subject := &model.Entity{BBID: uuid.New(), Kind: model.KindWork}
			subject.Relationships = []*model.Relationship{
				relationship(1, "{0},{1},{2},{3},{4},{5},{6},{7}", cp...),
			}
			err := NewEngine(finder).ResolveRelationships(context.Background(), subject)
			require.NoError(t, err)
			assert.Equal(t, "p0,p1,p2,p3,p4,p5,p6,p7", subject.Relationships[0].Rendered.Text, "Expected stable output in run %d", run)
		}
	})

	t.Run("Equal positions keep insertion order", func(t *testing.T) {
		finder := newMockFinder(2 * time.Millisecond)
		x, y, z := finder.add("x"), finder.add("y"), finder.add("z")
		subject := &model.Entity{BBID: uuid.New(), Kind: model.KindWork}
		subject.Relationships = []*model.Relationship{
			relationship(1, "{0} {1} {2}", participant(1, y), participant(1, z), participant(0, x)),
		}

		err := NewEngine(finder).ResolveRelationships(context.Background(), subject)
		require.NoError(t, err)
		assert.Equal(t, "x y z", subject.Relationships[0].Rendered.Text, "Expected ties to keep insertion order")
	})

	t.Run("Extreme positions keep their order", func(t *testing.T) {
		finder := newMockFinder(0)
		a, b := finder.add("a"), finder.add("b")
		subject := &model.Entity{BBID: uuid.New(), Kind: model.KindWork}
		subject.Relationships = []*model.Relationship{
			relationship(1, "{0} {1}", participant(math.MaxInt, b), participant(math.MinInt+1, a)),
		}

		err := NewEngine(finder).ResolveRelationships(context.Background(), subject)
		require.NoError(t, err)
		assert.Equal(t, "a b", subject.Relationships[0].Rendered.Text, "Expected the lowest position first")
	})

	t.Run("Every relationship is processed exactly once", func(t *testing.T) {
		finder := newMockFinder(2 * time.Millisecond)
		subject := &model.Entity{BBID: uuid.New(), Kind: model.KindWork}
		var originals []*model.Relationship
		for i := range 6 {
			rel := relationship(int64(i+1), "{0} wrote {1}",
				participant(0, finder.add(fmt.Sprintf("author%d", i))),
				participant(1, finder.add(fmt.Sprintf("work%d", i))),
			)
			originals = append(originals, rel)
		}
		subject.Relationships = append([]*model.Relationship{}, originals...)

		err := NewEngine(finder).ResolveRelationships(context.Background(), subject)
		require.NoError(t, err)
		require.Len(t, subject.Relationships, len(originals), "Expected one processed relationship per original")
		for i, rel := range subject.Relationships {
			assert.Same(t, originals[i], rel, "Expected relationship %d to keep its slot", i)
			assert.Equal(t, fmt.Sprintf("author%d wrote work%d", i, i), rel.Rendered.Text)
		}
		assert.Equal(t, int64(12), finder.calls.Load(), "Expected one lookup per participant")
	})

	t.Run("Entity without relationships", func(t *testing.T) {
		subject := &model.Entity{BBID: uuid.New(), Kind: model.KindWork}
		err := NewEngine(newMockFinder(0)).ResolveRelationships(context.Background(), subject)
		require.NoError(t, err)
		assert.Empty(t, subject.Relationships, "Expected no relationships")
	})

	t.Run("Relationship without participants renders its template", func(t *testing.T) {
		subject := &model.Entity{BBID: uuid.New(), Kind: model.KindWork}
		subject.Relationships = []*model.Relationship{relationship(1, "standalone")}
		err := NewEngine(newMockFinder(0)).ResolveRelationships(context.Background(), subject)
		require.NoError(t, err)
		assert.Equal(t, "standalone", subject.Relationships[0].Rendered.Text)
	})

	t.Run("Nil entity returns an error", func(t *testing.T) {
		err := NewEngine(newMockFinder(0)).ResolveRelationships(context.Background(), nil)
		assert.Error(t, err, "Expected error for nil entity")
	})

	t.Run("Relationship without type returns an error", func(t *testing.T) {
		finder := newMockFinder(0)
		subject := &model.Entity{BBID: uuid.New(), Kind: model.KindWork}
		subject.Relationships = []*model.Relationship{{ID: 1, Participants: []*model.Participant{participant(0, finder.add("a"))}}}
		err := NewEngine(finder).ResolveRelationships(context.Background(), subject)
		assert.Error(t, err, "Expected error for missing relationship type")
	})
}

func TestResolveRelationshipsFailure(t *testing.T) {
	t.Run("Nil participant returns an error", func(t *testing.T) {
		finder := newMockFinder(0)
		a := finder.add("a")
		subject := &model.Entity{BBID: uuid.New(), Kind: model.KindWork}
		subject.Relationships = []*model.Relationship{relationship(1, "{0} {1}", participant(0, a), nil)}

		err := NewEngine(finder).ResolveRelationships(context.Background(), subject)
		require.Error(t, err, "Expected error for a nil participant")
		assert.Contains(t, err.Error(), "nil participant")
		assert.Nil(t, subject.Relationships[0].Rendered, "Expected no rendering")
		assert.Equal(t, int64(0), finder.calls.Load(), "Expected no lookups")
	})

	t.Run("Unknown participant fails the whole resolution", func(t *testing.T) {
		finder := newMockFinder(2 * time.Millisecond)
		a := finder.add("a")
		missing := &model.Entity{BBID: uuid.New()}
		subject := &model.Entity{BBID: uuid.New(), Kind: model.KindWork}
		good := relationship(1, "{0}", participant(0, a))
		bad := relationship(2, "{0} {1}", participant(1, missing), participant(0, a))
		subject.Relationships = []*model.Relationship{good, bad}

		err := NewEngine(finder).ResolveRelationships(context.Background(), subject)
		require.Error(t, err, "Expected resolution to fail")
		assert.ErrorIs(t, err, model.ErrNotFound, "Expected store error to be propagated")

		assert.Equal(t, []*model.Relationship{good, bad}, subject.Relationships, "Expected relationships to be left in place")
		assert.Empty(t, good.Template, "Expected no partial template flattening")
		assert.Nil(t, good.Rendered, "Expected no partial rendering")
		assert.Nil(t, bad.Participants[0].Entity, "Expected participants to be untouched")
		assert.Equal(t, 1, bad.Participants[0].Position, "Expected participant order to be untouched")
	})

	t.Run("Store error is propagated", func(t *testing.T) {
		finder := newMockFinder(0)
		a := finder.add("a")
		boom := errors.New("connection reset")
		finder.failures[a.BBID] = boom
		subject := &model.Entity{BBID: uuid.New(), Kind: model.KindWork}
		subject.Relationships = []*model.Relationship{relationship(1, "{0}", participant(0, a))}

		err := NewEngine(finder).ResolveRelationships(context.Background(), subject)
		assert.ErrorIs(t, err, boom, "Expected the store error")
	})

	t.Run("Render error is propagated", func(t *testing.T) {
		finder := newMockFinder(0)
		a := finder.add("a")
		subject := &model.Entity{BBID: uuid.New(), Kind: model.KindWork}
		subject.Relationships = []*model.Relationship{relationship(1, "{0} {1}", participant(0, a))}

		err := NewEngine(finder).ResolveRelationships(context.Background(), subject)
		assert.Error(t, err, "Expected arity error from the renderer")
		assert.Nil(t, subject.Relationships[0].Rendered)
	})

	t.Run("Custom renderer error is propagated", func(t *testing.T) {
		finder := newMockFinder(0)
		a := finder.add("a")
		boom := errors.New("render failed")
		subject := &model.Entity{BBID: uuid.New(), Kind: model.KindWork}
		subject.Relationships = []*model.Relationship{relationship(1, "{0}", participant(0, a))}

		engine := NewEngine(finder, WithRenderer(func([]*model.Entity, string, *render.Context) (*model.Rendered, error) {
			return nil, boom
		}))
		err := engine.ResolveRelationships(context.Background(), subject)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("Cancelled context stops lookups", func(t *testing.T) {
		finder := newMockFinder(50 * time.Millisecond)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		subject := &model.Entity{BBID: uuid.New(), Kind: model.KindWork}
		subject.Relationships = []*model.Relationship{relationship(1, "{0}", participant(0, finder.add("a")))}

		err := NewEngine(finder).ResolveRelationships(ctx, subject)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestResolveRelationshipsConcurrency(t *testing.T) {
	t.Run("Concurrency limit bounds lookups per relationship", func(t *testing.T) {
		finder := newMockFinder(5 * time.Millisecond)
		var participants []*model.Participant
		for i := range 10 {
			participants = append(participants, participant(i, finder.add(fmt.Sprintf("p%d", i))))
		}
		subject := &model.Entity{BBID: uuid.New(), Kind: model.KindWork}
		subject.Relationships = []*model.Relationship{relationship(1, "{0}", participants...)}

		err := NewEngine(finder, WithConcurrencyLimit(2)).ResolveRelationships(context.Background(), subject)
		require.NoError(t, err)
		assert.LessOrEqual(t, finder.peak.Load(), int64(2), "Expected at most two concurrent lookups")
	})

	t.Run("Metrics count lookups by result", func(t *testing.T) {
		finder := newMockFinder(0)
		a := finder.add("a")
		m := helper.NewMetrics()
		subject := &model.Entity{BBID: uuid.New(), Kind: model.KindWork}
		subject.Relationships = []*model.Relationship{relationship(1, "{0}", participant(0, a))}

		err := NewEngine(finder, WithMetrics(m)).ResolveRelationships(context.Background(), subject)
		require.NoError(t, err)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.ParticipantLookups.WithLabelValues(helper.LookupOK)))

		subject.Relationships = []*model.Relationship{relationship(2, "{0}", &model.Participant{EntityBBID: uuid.New()})}
		err = NewEngine(finder, WithMetrics(m)).ResolveRelationships(context.Background(), subject)
		require.Error(t, err)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.ParticipantLookups.WithLabelValues(helper.LookupNotFound)))
		assert.Equal(t, 1, testutil.CollectAndCount(m.ResolutionDuration), "Expected the resolution histogram to be collected")
	})
}
