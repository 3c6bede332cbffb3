package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/siherrmann/bibliograph/helper"
	"github.com/siherrmann/bibliograph/model"
	loadSql "github.com/siherrmann/bibliograph/sql"
)

// VocabulariesDBHandlerFunctions defines the interface for Vocabularies database operations.
type VocabulariesDBHandlerFunctions interface {
	InsertTerm(ctx context.Context, term *model.Term) error
	SelectTerms(ctx context.Context, kind model.VocabularyKind) ([]*model.Term, error)
	DeleteTerm(ctx context.Context, kind model.VocabularyKind, id int) error
}

// VocabulariesDBHandler handles vocabulary-related database operations
type VocabulariesDBHandler struct {
	db *helper.Database
}

// NewVocabulariesDBHandler creates a new vocabularies database handler.
// If force is true, it will reload the SQL functions even if they already exist.
func NewVocabulariesDBHandler(db *helper.Database, force bool) (*VocabulariesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	vocabulariesDbHandler := &VocabulariesDBHandler{
		db: db,
	}

	err := loadSql.LoadVocabulariesSql(vocabulariesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load vocabularies sql", err)
	}

	err = vocabulariesDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized VocabulariesDBHandler")

	return vocabulariesDbHandler, nil
}

// CreateTable creates the 'vocabulary_terms' table in the database.
func (h *VocabulariesDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_vocabularies();`)
	if err != nil {
		log.Panicf("error initializing vocabulary_terms table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table vocabulary_terms")

	return nil
}

// InsertTerm inserts a term or updates the term with the same kind and id
func (h *VocabulariesDBHandler) InsertTerm(ctx context.Context, term *model.Term) error {
	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM insert_term($1, $2, $3, $4)`,
		term.Kind,
		term.ID,
		term.Name,
		term.Frequency,
	)

	var kind string
	err := row.Scan(
		&kind,
		&term.ID,
		&term.Name,
		&term.Frequency,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}
	term.Kind = model.VocabularyKind(kind)

	return nil
}

// SelectTerms retrieves every term of a vocabulary ordered by id
func (h *VocabulariesDBHandler) SelectTerms(ctx context.Context, kind model.VocabularyKind) ([]*model.Term, error) {
	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM select_terms($1)`,
		kind,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var terms []*model.Term
	for rows.Next() {
		term := &model.Term{}
		var k string

		err := rows.Scan(
			&k,
			&term.ID,
			&term.Name,
			&term.Frequency,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		term.Kind = model.VocabularyKind(k)

		terms = append(terms, term)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return terms, nil
}

// DeleteTerm deletes a term
func (h *VocabulariesDBHandler) DeleteTerm(ctx context.Context, kind model.VocabularyKind, id int) error {
	_, err := h.db.Instance.ExecContext(
		ctx,
		`SELECT delete_term($1, $2)`,
		kind,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}
