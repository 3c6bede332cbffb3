package resolve

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/bibliograph/core/render"
	"github.com/siherrmann/bibliograph/helper"
	"github.com/siherrmann/bibliograph/model"
	"golang.org/x/sync/errgroup"
)

// EntityFinder looks up a single entity by identifier.
// It returns an error wrapping model.ErrNotFound for unknown identifiers.
type EntityFinder interface {
	FindByBBID(ctx context.Context, bbid uuid.UUID) (*model.Entity, error)
}

// Engine resolves the participants of an entity's relationships and renders them
type Engine struct {
	finder  EntityFinder
	render  render.Func
	limit   int
	metrics *helper.Metrics
	log     *slog.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithRenderer replaces the default template renderer
func WithRenderer(fn render.Func) Option {
	return func(e *Engine) {
		e.render = fn
	}
}

// WithConcurrencyLimit bounds the number of concurrent participant lookups
// per relationship. Zero or less means unlimited.
func WithConcurrencyLimit(n int) Option {
	return func(e *Engine) {
		e.limit = n
	}
}

// WithMetrics records lookup and resolution metrics
func WithMetrics(m *helper.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// NewEngine creates a new resolution engine
func NewEngine(finder EntityFinder, opts ...Option) *Engine {
	e := &Engine{
		finder: finder,
		render: render.Render,
		log:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// resolved holds the result for one relationship until every relationship succeeded
type resolved struct {
	rel          *model.Relationship
	template     string
	participants []*model.Participant
	rendered     *model.Rendered
}

// ResolveRelationships loads every participant of every relationship of entity,
// orders participants by position and renders each relationship.
//
// Relationships and participants are resolved concurrently. Participants are
// placed by their sorted index, never by completion order. The first failure
// cancels the remaining lookups and is returned; in that case entity is left
// untouched.
func (e *Engine) ResolveRelationships(ctx context.Context, entity *model.Entity) error {
	if entity == nil {
		return helper.NewError("resolve relationships", errors.New("entity is nil"))
	}

	start := time.Now()
	defer func() {
		e.metrics.ObserveResolution(time.Since(start))
	}()

	results := make([]resolved, len(entity.Relationships))

	g, gctx := errgroup.WithContext(ctx)
	for i, rel := range entity.Relationships {
		g.Go(func() error {
			r, err := e.resolveRelationship(gctx, rel)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		e.log.Debug("Relationship resolution failed", slog.String("bbid", entity.BBID.String()), slog.Any("error", err))
		return err
	}

	relationships := make([]*model.Relationship, len(results))
	for i, r := range results {
		r.rel.Template = r.template
		r.rel.Participants = r.participants
		r.rel.Rendered = r.rendered
		relationships[i] = r.rel
	}
	entity.Relationships = relationships

	e.log.Debug("Resolved relationships", slog.String("bbid", entity.BBID.String()), slog.Int("count", len(relationships)))

	return nil
}

func (e *Engine) resolveRelationship(ctx context.Context, rel *model.Relationship) (resolved, error) {
	if rel == nil {
		return resolved{}, helper.NewError("resolve relationship", errors.New("relationship is nil"))
	}
	if rel.Type == nil {
		return resolved{}, helper.NewError("resolve relationship", fmt.Errorf("relationship %d has no type", rel.ID))
	}

	// Copies keep the caller's relationship unchanged until everything succeeded
	participants := make([]*model.Participant, len(rel.Participants))
	for i, p := range rel.Participants {
		if p == nil {
			return resolved{}, helper.NewError("resolve relationship", fmt.Errorf("relationship %d has a nil participant at %d", rel.ID, i))
		}
		cp := *p
		participants[i] = &cp
	}
	slices.SortStableFunc(participants, func(a, b *model.Participant) int {
		return cmp.Compare(a.Position, b.Position)
	})

	entities := make([]*model.Entity, len(participants))

	g, gctx := errgroup.WithContext(ctx)
	if e.limit > 0 {
		g.SetLimit(e.limit)
	}
	for i, p := range participants {
		g.Go(func() error {
			found, err := e.finder.FindByBBID(gctx, p.EntityBBID)
			if err != nil {
				if errors.Is(err, model.ErrNotFound) {
					e.metrics.CountLookup(helper.LookupNotFound)
				} else {
					e.metrics.CountLookup(helper.LookupError)
				}
				return helper.NewError(fmt.Sprintf("resolve participant %s of relationship %d", p.EntityBBID, rel.ID), err)
			}
			e.metrics.CountLookup(helper.LookupOK)
			entities[i] = found
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return resolved{}, err
	}

	for i, p := range participants {
		p.Entity = entities[i]
	}

	rendered, err := e.render(entities, rel.Type.Template, nil)
	if err != nil {
		return resolved{}, helper.NewError(fmt.Sprintf("render relationship %d", rel.ID), err)
	}

	return resolved{
		rel:          rel,
		template:     rel.Type.Template,
		participants: participants,
		rendered:     rendered,
	}, nil
}
