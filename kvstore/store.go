package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/bibliograph/helper"
	"github.com/siherrmann/bibliograph/model"
)

// Key namespaces
const (
	nsEntity       = "entity"
	nsReference    = "ref"
	nsRelType      = "reltype"
	nsRelationship = "rel"
	nsRelIndex     = "relidx"
	nsTerm         = "term"
	nsSequence     = "seq"
)

// ErrExists is returned when an entity with the same BBID is already stored
var ErrExists = errors.New("entity already exists")

// EntityStore keeps the catalog in a key-value Store
type EntityStore struct {
	kv  Store
	log *slog.Logger
	// serializes writes so sequences and existence checks stay consistent
	mu sync.Mutex
}

// storedRelationship is the value of a relationship key
type storedRelationship struct {
	ID           int64               `json:"id"`
	TypeID       int                 `json:"type_id"`
	Participants []storedParticipant `json:"participants"`
}

type storedParticipant struct {
	Position   int       `json:"position"`
	EntityBBID uuid.UUID `json:"entity_bbid"`
}

// NewEntityStore creates a catalog store on kv
func NewEntityStore(kv Store, logger *slog.Logger) *EntityStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger.Info("Initialized EntityStore")
	return &EntityStore{kv: kv, log: logger}
}

// FindByBBID loads an entity without related fields
func (s *EntityStore) FindByBBID(ctx context.Context, bbid uuid.UUID) (*model.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := s.kv.Get(ctx, Key{nsEntity, bbid.String()})
	if errors.Is(err, ErrKeyNotFound) {
		return nil, helper.NewError("select entity", fmt.Errorf("%s: %w", bbid, model.ErrNotFound))
	}
	if err != nil {
		return nil, helper.NewError("get entity", err)
	}

	entity := &model.Entity{}
	if err := json.Unmarshal(raw, entity); err != nil {
		return nil, helper.NewError("unmarshal entity", err)
	}
	entity.MarkDefaultAlias()

	return entity, nil
}

// FindOne loads an entity with the given related fields.
// Referenced publications or publishers that no longer exist are left empty.
func (s *EntityStore) FindOne(ctx context.Context, bbid uuid.UUID, populate []model.PopulateField) (*model.Entity, error) {
	entity, err := s.FindByBBID(ctx, bbid)
	if err != nil {
		return nil, err
	}

	if model.Populates(populate, model.PopulateRelationships) {
		entity.Relationships, err = s.SelectRelationshipsByEntity(ctx, bbid)
		if err != nil {
			return nil, err
		}
	}

	for field, key := range map[model.PopulateField]string{
		model.PopulatePublication: model.DataPublication,
		model.PopulatePublisher:   model.DataPublisher,
	} {
		if !model.Populates(populate, field) {
			continue
		}
		ref, ok := entity.Data.BBID(key)
		if !ok {
			continue
		}
		found, err := s.FindByBBID(ctx, ref)
		if errors.Is(err, model.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if field == model.PopulatePublication {
			entity.Publication = found
		} else {
			entity.Publisher = found
		}
	}

	if model.Populates(populate, model.PopulateEditions) {
		var key string
		switch entity.Kind {
		case model.KindPublication:
			key = model.DataPublication
		case model.KindPublisher:
			key = model.DataPublisher
		}
		if len(key) > 0 {
			entity.Editions, err = s.selectReferencing(ctx, key, bbid)
			if err != nil {
				return nil, err
			}
		}
	}

	entity.ApplyPopulate(populate)

	return entity, nil
}

// selectReferencing returns the editions whose data field key references bbid in creation order
func (s *EntityStore) selectReferencing(ctx context.Context, key string, bbid uuid.UUID) ([]*model.Entity, error) {
	var entities []*model.Entity
	for entry, err := range s.kv.List(ctx, Key{nsReference, key, bbid.String()}) {
		if err != nil {
			return nil, helper.NewError("list references", err)
		}
		ref, err := uuid.Parse(entry.Key[len(entry.Key)-1])
		if err != nil {
			return nil, helper.NewError("parse reference", err)
		}
		found, err := s.FindByBBID(ctx, ref)
		if err != nil {
			return nil, err
		}
		entities = append(entities, found)
	}
	return entities, nil
}

// CreateEntity stores a new entity. A nil BBID is generated.
// Related fields are not stored, relationships are created with CreateRelationship.
func (s *EntityStore) CreateEntity(ctx context.Context, entity *model.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entity.BBID == uuid.Nil {
		entity.BBID = uuid.New()
	} else {
		_, err := s.kv.Get(ctx, Key{nsEntity, entity.BBID.String()})
		if err == nil {
			return helper.NewError("create entity", fmt.Errorf("%s: %w", entity.BBID, ErrExists))
		}
		if !errors.Is(err, ErrKeyNotFound) {
			return helper.NewError("get entity", err)
		}
	}
	if entity.Data == nil {
		entity.Data = model.Metadata{}
	}
	entity.CreatedAt = time.Now().UTC()

	stored := *entity
	stored.Relationships = nil
	stored.Publication = nil
	stored.Publisher = nil
	stored.Editions = nil
	raw, err := json.Marshal(&stored)
	if err != nil {
		return helper.NewError("marshal entity", err)
	}

	entries := []Entry{{Key: Key{nsEntity, entity.BBID.String()}, Value: raw}}
	if entity.Kind == model.KindEdition {
		for _, key := range []string{model.DataPublication, model.DataPublisher} {
			if ref, ok := entity.Data.BBID(key); ok {
				entries = append(entries, Entry{
					Key: Key{nsReference, key, ref.String(), sortable(entity.CreatedAt.UnixNano()), entity.BBID.String()},
				})
			}
		}
	}

	if err := s.kv.BatchSet(ctx, entries); err != nil {
		return helper.NewError("store entity", err)
	}

	s.log.Debug("Created entity", slog.String("bbid", entity.BBID.String()), slog.String("kind", string(entity.Kind)))

	return nil
}

// CreateRelationshipType stores a relationship type. A zero ID is assigned from a sequence.
func (s *EntityStore) CreateRelationshipType(ctx context.Context, relationshipType *model.RelationshipType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if relationshipType.ID == 0 {
		id, err := s.next(ctx, nsRelType)
		if err != nil {
			return err
		}
		relationshipType.ID = int(id)
	}

	raw, err := json.Marshal(relationshipType)
	if err != nil {
		return helper.NewError("marshal relationship type", err)
	}
	if err := s.kv.Set(ctx, Key{nsRelType, sortable(int64(relationshipType.ID))}, raw); err != nil {
		return helper.NewError("store relationship type", err)
	}

	return nil
}

// CreateRelationship stores a relationship with its participants in their current order
// and indexes it for every participant.
func (s *EntityStore) CreateRelationship(ctx context.Context, relationship *model.Relationship) error {
	if relationship.Type == nil {
		return helper.NewError("create relationship", errors.New("relationship has no type"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.kv.Get(ctx, Key{nsRelType, sortable(int64(relationship.Type.ID))}); err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return helper.NewError("create relationship", fmt.Errorf("relationship type %d: %w", relationship.Type.ID, model.ErrNotFound))
		}
		return helper.NewError("get relationship type", err)
	}

	stored := storedRelationship{TypeID: relationship.Type.ID}
	for _, p := range relationship.Participants {
		if _, err := s.kv.Get(ctx, Key{nsEntity, p.EntityBBID.String()}); err != nil {
			if errors.Is(err, ErrKeyNotFound) {
				return helper.NewError("create relationship", fmt.Errorf("participant %s: %w", p.EntityBBID, model.ErrNotFound))
			}
			return helper.NewError("get participant", err)
		}
		stored.Participants = append(stored.Participants, storedParticipant{Position: p.Position, EntityBBID: p.EntityBBID})
	}

	id, err := s.next(ctx, nsRelationship)
	if err != nil {
		return err
	}
	stored.ID = id

	raw, err := json.Marshal(stored)
	if err != nil {
		return helper.NewError("marshal relationship", err)
	}

	entries := []Entry{{Key: Key{nsRelationship, sortable(id)}, Value: raw}}
	indexed := map[uuid.UUID]bool{}
	for _, p := range stored.Participants {
		if indexed[p.EntityBBID] {
			continue
		}
		indexed[p.EntityBBID] = true
		entries = append(entries, Entry{Key: Key{nsRelIndex, p.EntityBBID.String(), sortable(id)}})
	}

	if err := s.kv.BatchSet(ctx, entries); err != nil {
		return helper.NewError("store relationship", err)
	}
	relationship.ID = id

	return nil
}

// SelectRelationshipsByEntity returns every relationship the entity takes part in by id.
// Participants are returned in insertion order and are not resolved.
func (s *EntityStore) SelectRelationshipsByEntity(ctx context.Context, bbid uuid.UUID) ([]*model.Relationship, error) {
	types := map[int]*model.RelationshipType{}

	var relationships []*model.Relationship
	for entry, err := range s.kv.List(ctx, Key{nsRelIndex, bbid.String()}) {
		if err != nil {
			return nil, helper.NewError("list relationships", err)
		}
		idSegment := entry.Key[len(entry.Key)-1]

		raw, err := s.kv.Get(ctx, Key{nsRelationship, idSegment})
		if err != nil {
			return nil, helper.NewError("get relationship "+idSegment, err)
		}
		var stored storedRelationship
		if err := json.Unmarshal(raw, &stored); err != nil {
			return nil, helper.NewError("unmarshal relationship", err)
		}

		relType, ok := types[stored.TypeID]
		if !ok {
			relType, err = s.selectRelationshipType(ctx, stored.TypeID)
			if err != nil {
				return nil, err
			}
			types[stored.TypeID] = relType
		}

		relationship := &model.Relationship{ID: stored.ID, Type: relType}
		for _, p := range stored.Participants {
			relationship.Participants = append(relationship.Participants, &model.Participant{
				Position:   p.Position,
				EntityBBID: p.EntityBBID,
			})
		}
		relationships = append(relationships, relationship)
	}

	return relationships, nil
}

func (s *EntityStore) selectRelationshipType(ctx context.Context, id int) (*model.RelationshipType, error) {
	raw, err := s.kv.Get(ctx, Key{nsRelType, sortable(int64(id))})
	if errors.Is(err, ErrKeyNotFound) {
		return nil, helper.NewError("select relationship type", fmt.Errorf("%d: %w", id, model.ErrNotFound))
	}
	if err != nil {
		return nil, helper.NewError("get relationship type", err)
	}

	relType := &model.RelationshipType{}
	if err := json.Unmarshal(raw, relType); err != nil {
		return nil, helper.NewError("unmarshal relationship type", err)
	}
	return relType, nil
}

// CreateTerm stores a vocabulary term, replacing the term with the same kind and id
func (s *EntityStore) CreateTerm(ctx context.Context, term *model.Term) error {
	raw, err := json.Marshal(term)
	if err != nil {
		return helper.NewError("marshal term", err)
	}
	if err := s.kv.Set(ctx, Key{nsTerm, string(term.Kind), sortable(int64(term.ID))}, raw); err != nil {
		return helper.NewError("store term", err)
	}
	return nil
}

// SelectTerms returns every term of a vocabulary ordered by id
func (s *EntityStore) SelectTerms(ctx context.Context, kind model.VocabularyKind) ([]*model.Term, error) {
	var terms []*model.Term
	for entry, err := range s.kv.List(ctx, Key{nsTerm, string(kind)}) {
		if err != nil {
			return nil, helper.NewError("list terms", err)
		}
		term := &model.Term{}
		if err := json.Unmarshal(entry.Value, term); err != nil {
			return nil, helper.NewError("unmarshal term", err)
		}
		terms = append(terms, term)
	}
	return terms, nil
}

// Close closes the underlying key-value store
func (s *EntityStore) Close() error {
	return s.kv.Close()
}

// next increments and returns the sequence name. The caller holds s.mu.
func (s *EntityStore) next(ctx context.Context, name string) (int64, error) {
	key := Key{nsSequence, name}

	var current int64
	raw, err := s.kv.Get(ctx, key)
	switch {
	case errors.Is(err, ErrKeyNotFound):
	case err != nil:
		return 0, helper.NewError("get sequence "+name, err)
	default:
		current, err = strconv.ParseInt(string(raw), 10, 64)
		if err != nil {
			return 0, helper.NewError("parse sequence "+name, err)
		}
	}

	current++
	if err := s.kv.Set(ctx, key, []byte(strconv.FormatInt(current, 10))); err != nil {
		return 0, helper.NewError("store sequence "+name, err)
	}
	return current, nil
}

// sortable formats n so that lexicographic key order equals numeric order for n >= 0
func sortable(n int64) string {
	return fmt.Sprintf("%020d", n)
}
