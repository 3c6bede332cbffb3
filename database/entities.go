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

// EntitiesDBHandlerFunctions defines the interface for Entities database operations.
type EntitiesDBHandlerFunctions interface {
	InsertEntity(ctx context.Context, entity *model.Entity) error
	SelectEntity(ctx context.Context, bbid uuid.UUID) (*model.Entity, error)
	SelectEntitiesByReference(ctx context.Context, kind model.Kind, key string, bbid uuid.UUID) ([]*model.Entity, error)
	DeleteEntity(ctx context.Context, bbid uuid.UUID) error
}

// EntitiesDBHandler handles entity-related database operations
type EntitiesDBHandler struct {
	db *helper.Database
}

// NewEntitiesDBHandler creates a new entities database handler.
// It initializes the database connection and loads entity-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewEntitiesDBHandler(db *helper.Database, force bool) (*EntitiesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	entitiesDbHandler := &EntitiesDBHandler{
		db: db,
	}

	err := loadSql.LoadEntitiesSql(entitiesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load entities sql", err)
	}

	err = entitiesDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized EntitiesDBHandler")

	return entitiesDbHandler, nil
}

// CreateTable creates the 'entities' table in the database.
// If the table already exists, it does not create it again.
func (h *EntitiesDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_entities();`)
	if err != nil {
		log.Panicf("error initializing entities table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table entities")

	return nil
}

// InsertEntity inserts a new entity.
// A nil BBID is generated by the database and written back together with CreatedAt.
func (h *EntitiesDBHandler) InsertEntity(ctx context.Context, entity *model.Entity) error {
	var bbid *uuid.UUID
	if entity.BBID != uuid.Nil {
		bbid = &entity.BBID
	}
	if entity.Data == nil {
		entity.Data = model.Metadata{}
	}

	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM insert_entity($1, $2, $3, $4, $5, $6, $7, $8)`,
		bbid,
		entity.Kind,
		jsonb{entity.DefaultAlias},
		jsonb{aliasesOrEmpty(entity.Aliases)},
		jsonb{identifiersOrEmpty(entity.Identifiers)},
		entity.Annotation,
		entity.Disambiguation,
		entity.Data,
	)

	err := row.Scan(
		&entity.BBID,
		&entity.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectEntity retrieves an entity by BBID.
// An unknown BBID returns an error wrapping model.ErrNotFound.
func (h *EntitiesDBHandler) SelectEntity(ctx context.Context, bbid uuid.UUID) (*model.Entity, error) {
	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM select_entity($1)`,
		bbid,
	)

	entity, err := scanEntity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, helper.NewError("select entity", fmt.Errorf("%s: %w", bbid, model.ErrNotFound))
	}
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return entity, nil
}

// SelectEntitiesByReference retrieves the entities of kind whose data field key
// references bbid, e.g. the editions of a publication.
func (h *EntitiesDBHandler) SelectEntitiesByReference(ctx context.Context, kind model.Kind, key string, bbid uuid.UUID) ([]*model.Entity, error) {
	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM select_entities_by_reference($1, $2, $3)`,
		kind,
		key,
		bbid,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var entities []*model.Entity
	for rows.Next() {
		entity, err := scanEntity(rows)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		entities = append(entities, entity)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return entities, nil
}

// DeleteEntity deletes an entity by BBID together with its relationship participations
func (h *EntitiesDBHandler) DeleteEntity(ctx context.Context, bbid uuid.UUID) error {
	_, err := h.db.Instance.ExecContext(
		ctx,
		`SELECT delete_entity($1)`,
		bbid,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEntity(row rowScanner) (*model.Entity, error) {
	entity := &model.Entity{}
	var kind string

	err := row.Scan(
		&entity.BBID,
		&kind,
		jsonb{&entity.DefaultAlias},
		jsonb{&entity.Aliases},
		jsonb{&entity.Identifiers},
		&entity.Annotation,
		&entity.Disambiguation,
		&entity.Data,
		&entity.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	entity.Kind = model.Kind(kind)
	entity.MarkDefaultAlias()

	return entity, nil
}

func aliasesOrEmpty(aliases []model.Alias) []model.Alias {
	if aliases == nil {
		return []model.Alias{}
	}
	return aliases
}

func identifiersOrEmpty(identifiers []model.Identifier) []model.Identifier {
	if identifiers == nil {
		return []model.Identifier{}
	}
	return identifiers
}
