package database

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/siherrmann/bibliograph/helper"
	"github.com/siherrmann/bibliograph/model"
)

// Store combines the handlers into the entity store used by the catalog
type Store struct {
	DB            *helper.Database
	Entities      *EntitiesDBHandler
	Relationships *RelationshipsDBHandler
	Vocabularies  *VocabulariesDBHandler
}

// NewStore initializes all handlers on db.
// Entities are initialized first, relationship participants reference them.
func NewStore(db *helper.Database, force bool) (*Store, error) {
	entities, err := NewEntitiesDBHandler(db, force)
	if err != nil {
		return nil, helper.NewError("entities handler", err)
	}

	relationships, err := NewRelationshipsDBHandler(db, force)
	if err != nil {
		return nil, helper.NewError("relationships handler", err)
	}

	vocabularies, err := NewVocabulariesDBHandler(db, force)
	if err != nil {
		return nil, helper.NewError("vocabularies handler", err)
	}

	return &Store{
		DB:            db,
		Entities:      entities,
		Relationships: relationships,
		Vocabularies:  vocabularies,
	}, nil
}

// FindByBBID loads an entity without related fields
func (s *Store) FindByBBID(ctx context.Context, bbid uuid.UUID) (*model.Entity, error) {
	return s.Entities.SelectEntity(ctx, bbid)
}

// FindOne loads an entity with the given related fields.
// Referenced publications or publishers that no longer exist are left empty.
func (s *Store) FindOne(ctx context.Context, bbid uuid.UUID, populate []model.PopulateField) (*model.Entity, error) {
	entity, err := s.Entities.SelectEntity(ctx, bbid)
	if err != nil {
		return nil, err
	}

	if model.Populates(populate, model.PopulateRelationships) {
		entity.Relationships, err = s.Relationships.SelectRelationshipsByEntity(ctx, bbid)
		if err != nil {
			return nil, helper.NewError("select relationships", err)
		}
	}

	if model.Populates(populate, model.PopulatePublication) {
		entity.Publication, err = s.findReference(ctx, entity, model.DataPublication)
		if err != nil {
			return nil, err
		}
	}

	if model.Populates(populate, model.PopulatePublisher) {
		entity.Publisher, err = s.findReference(ctx, entity, model.DataPublisher)
		if err != nil {
			return nil, err
		}
	}

	if model.Populates(populate, model.PopulateEditions) {
		if key, ok := editionsKey(entity.Kind); ok {
			entity.Editions, err = s.Entities.SelectEntitiesByReference(ctx, model.KindEdition, key, bbid)
			if err != nil {
				return nil, helper.NewError("select editions", err)
			}
		}
	}

	entity.ApplyPopulate(populate)

	return entity, nil
}

func (s *Store) findReference(ctx context.Context, entity *model.Entity, key string) (*model.Entity, error) {
	ref, ok := entity.Data.BBID(key)
	if !ok {
		return nil, nil
	}

	found, err := s.Entities.SelectEntity(ctx, ref)
	if errors.Is(err, model.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, helper.NewError("select "+key, err)
	}

	return found, nil
}

// editionsKey returns the edition data field that references an entity of kind
func editionsKey(kind model.Kind) (string, bool) {
	switch kind {
	case model.KindPublication:
		return model.DataPublication, true
	case model.KindPublisher:
		return model.DataPublisher, true
	}
	return "", false
}

// SelectTerms returns every term of a vocabulary
func (s *Store) SelectTerms(ctx context.Context, kind model.VocabularyKind) ([]*model.Term, error) {
	return s.Vocabularies.SelectTerms(ctx, kind)
}

// CreateEntity inserts a new entity and sets its BBID
func (s *Store) CreateEntity(ctx context.Context, entity *model.Entity) error {
	return s.Entities.InsertEntity(ctx, entity)
}

// CreateRelationshipType inserts a relationship type and sets its ID
func (s *Store) CreateRelationshipType(ctx context.Context, relationshipType *model.RelationshipType) error {
	return s.Relationships.InsertRelationshipType(ctx, relationshipType)
}

// CreateRelationship inserts a relationship and sets its ID
func (s *Store) CreateRelationship(ctx context.Context, relationship *model.Relationship) error {
	return s.Relationships.InsertRelationship(ctx, relationship)
}

// CreateTerm inserts a vocabulary term
func (s *Store) CreateTerm(ctx context.Context, term *model.Term) error {
	return s.Vocabularies.InsertTerm(ctx, term)
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.DB.Close()
}
