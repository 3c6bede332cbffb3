package pipeline

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/siherrmann/bibliograph/model"
)

// Stage is one step of a request pipeline.
// A stage reads the request, adds to state and returns an error to stop the pipeline.
// Stages never write a response.
type Stage func(r *http.Request, state *State) error

// EntityLoader loads an entity together with the given related fields.
// Unknown identifiers return an error wrapping model.ErrNotFound.
type EntityLoader interface {
	FindOne(ctx context.Context, bbid uuid.UUID, populate []model.PopulateField) (*model.Entity, error)
}

// VocabularyFinder returns every term of a vocabulary
type VocabularyFinder interface {
	SelectTerms(ctx context.Context, kind model.VocabularyKind) ([]*model.Term, error)
}

// RelationshipResolver resolves and renders the relationships of an entity in place
type RelationshipResolver interface {
	ResolveRelationships(ctx context.Context, entity *model.Entity) error
}
