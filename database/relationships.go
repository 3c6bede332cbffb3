package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/bibliograph/helper"
	"github.com/siherrmann/bibliograph/model"
	loadSql "github.com/siherrmann/bibliograph/sql"
)

// RelationshipsDBHandlerFunctions defines the interface for Relationships database operations.
type RelationshipsDBHandlerFunctions interface {
	InsertRelationshipType(ctx context.Context, relationshipType *model.RelationshipType) error
	SelectRelationshipType(ctx context.Context, id int) (*model.RelationshipType, error)
	InsertRelationship(ctx context.Context, relationship *model.Relationship) error
	SelectRelationshipsByEntity(ctx context.Context, bbid uuid.UUID) ([]*model.Relationship, error)
	DeleteRelationship(ctx context.Context, id int64) error
}

// RelationshipsDBHandler handles relationship-related database operations
type RelationshipsDBHandler struct {
	db *helper.Database
}

// participantRow is the stored form of a participant
type participantRow struct {
	Position   int       `json:"position"`
	EntityBBID uuid.UUID `json:"entity_bbid"`
}

// NewRelationshipsDBHandler creates a new relationships database handler.
// The entities table has to exist, its BBIDs are referenced by the participants.
// If force is true, it will reload the SQL functions even if they already exist.
func NewRelationshipsDBHandler(db *helper.Database, force bool) (*RelationshipsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	relationshipsDbHandler := &RelationshipsDBHandler{
		db: db,
	}

	err := loadSql.LoadRelationshipsSql(relationshipsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load relationships sql", err)
	}

	err = relationshipsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized RelationshipsDBHandler")

	return relationshipsDbHandler, nil
}

// CreateTable creates the relationship tables in the database.
// If the tables already exist, it does not create them again.
func (h *RelationshipsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_relationships();`)
	if err != nil {
		log.Panicf("error initializing relationships tables: %#v", err)
	}

	h.db.Logger.Info("Checked/created tables relationship_types, relationships, relationship_entities")

	return nil
}

// InsertRelationshipType inserts a relationship type, updating the type with the same label
func (h *RelationshipsDBHandler) InsertRelationshipType(ctx context.Context, relationshipType *model.RelationshipType) error {
	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM insert_relationship_type($1, $2, $3)`,
		relationshipType.Label,
		relationshipType.Description,
		relationshipType.Template,
	)

	err := row.Scan(&relationshipType.ID)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectRelationshipType retrieves a relationship type by ID
func (h *RelationshipsDBHandler) SelectRelationshipType(ctx context.Context, id int) (*model.RelationshipType, error) {
	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM select_relationship_type($1)`,
		id,
	)

	relationshipType := &model.RelationshipType{}
	err := row.Scan(
		&relationshipType.ID,
		&relationshipType.Label,
		&relationshipType.Description,
		&relationshipType.Template,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, helper.NewError("select relationship type", fmt.Errorf("%d: %w", id, model.ErrNotFound))
	}
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return relationshipType, nil
}

// InsertRelationship inserts a relationship with its participants in their current order
func (h *RelationshipsDBHandler) InsertRelationship(ctx context.Context, relationship *model.Relationship) error {
	if relationship.Type == nil {
		return helper.NewError("insert relationship", fmt.Errorf("relationship has no type"))
	}

	participants := make([]participantRow, len(relationship.Participants))
	for i, p := range relationship.Participants {
		participants[i] = participantRow{Position: p.Position, EntityBBID: p.EntityBBID}
	}

	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM insert_relationship($1, $2)`,
		relationship.Type.ID,
		jsonb{participants},
	)

	err := row.Scan(&relationship.ID)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectRelationshipsByEntity retrieves every relationship the entity takes part in.
// Participants are returned in insertion order and are not resolved.
func (h *RelationshipsDBHandler) SelectRelationshipsByEntity(ctx context.Context, bbid uuid.UUID) ([]*model.Relationship, error) {
	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM select_relationships_by_entity($1)`,
		bbid,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var relationships []*model.Relationship
	for rows.Next() {
		relationship := &model.Relationship{Type: &model.RelationshipType{}}
		var participants []participantRow

		err := rows.Scan(
			&relationship.ID,
			&relationship.Type.ID,
			&relationship.Type.Label,
			&relationship.Type.Description,
			&relationship.Type.Template,
			jsonb{&participants},
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		for _, p := range participants {
			relationship.Participants = append(relationship.Participants, &model.Participant{
				Position:   p.Position,
				EntityBBID: p.EntityBBID,
			})
		}

		relationships = append(relationships, relationship)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return relationships, nil
}

// DeleteRelationship deletes a relationship and its participants
func (h *RelationshipsDBHandler) DeleteRelationship(ctx context.Context, id int64) error {
	_, err := h.db.Instance.ExecContext(
		ctx,
		`SELECT delete_relationship($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}
