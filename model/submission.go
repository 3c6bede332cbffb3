package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSubmission is returned when a form submission fails validation
var ErrInvalidSubmission = errors.New("invalid submission")

// AliasInput is one alias row of a submitted form
type AliasInput struct {
	ID       int    `json:"id,omitempty"`
	Name     string `json:"name"`
	SortName string `json:"sortName"`
	Language *int   `json:"language,omitempty"`
	Primary  bool   `json:"primary"`
	Default  bool   `json:"default"`
}

// IdentifierInput is one identifier row of a submitted form
type IdentifierInput struct {
	TypeID int    `json:"typeId"`
	Value  string `json:"value"`
}

// EditionSubmission is the JSON body posted by the edition form
type EditionSubmission struct {
	Aliases         []AliasInput      `json:"aliases"`
	Publication     string            `json:"publication,omitempty"`
	Publisher       string            `json:"publisher,omitempty"`
	ReleaseDate     string            `json:"releaseDate,omitempty"`
	LanguageID      *int              `json:"languageId"`
	EditionFormatID *int              `json:"editionFormatId"`
	EditionStatusID *int              `json:"editionStatusId"`
	Disambiguation  string            `json:"disambiguation,omitempty"`
	Annotation      string            `json:"annotation,omitempty"`
	Identifiers     []IdentifierInput `json:"identifiers"`
	Pages           *int              `json:"pages"`
	Weight          *int              `json:"weight"`
	Width           *int              `json:"width"`
	Height          *int              `json:"height"`
	Depth           *int              `json:"depth"`
	Note            string            `json:"note"`
}

// PublicationSubmission is the JSON body posted by the publication form
type PublicationSubmission struct {
	Aliases           []AliasInput      `json:"aliases"`
	PublicationTypeID *int              `json:"publicationTypeId"`
	Disambiguation    string            `json:"disambiguation,omitempty"`
	Annotation        string            `json:"annotation,omitempty"`
	Identifiers       []IdentifierInput `json:"identifiers"`
	Note              string            `json:"note"`
}

// Revision is the response to a submission.
// Entity is nil when nothing was created, which clients treat as an expired login.
type Revision struct {
	Entity *EntityRef `json:"entity,omitempty"`
	Note   string     `json:"note,omitempty"`
}

// Validate checks the edition submission
func (s *EditionSubmission) Validate() error {
	if err := validateAliases(s.Aliases); err != nil {
		return err
	}
	if len(s.Publication) > 0 && !IsBBID(s.Publication) {
		return fmt.Errorf("%w: publication %q is not a valid bbid", ErrInvalidSubmission, s.Publication)
	}
	if len(s.Publisher) > 0 && !IsBBID(s.Publisher) {
		return fmt.Errorf("%w: publisher %q is not a valid bbid", ErrInvalidSubmission, s.Publisher)
	}
	for name, v := range map[string]*int{"pages": s.Pages, "weight": s.Weight, "width": s.Width, "height": s.Height, "depth": s.Depth} {
		if v != nil && *v < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalidSubmission, name)
		}
	}
	return validateIdentifiers(s.Identifiers)
}

// Validate checks the publication submission
func (s *PublicationSubmission) Validate() error {
	if err := validateAliases(s.Aliases); err != nil {
		return err
	}
	return validateIdentifiers(s.Identifiers)
}

// Entity converts the submission into a new edition entity
func (s *EditionSubmission) Entity() *Entity {
	e := newSubmittedEntity(KindEdition, s.Aliases, s.Identifiers, s.Annotation, s.Disambiguation)
	e.Data.SetString(DataPublication, s.Publication)
	e.Data.SetString(DataPublisher, s.Publisher)
	e.Data.SetString(DataReleaseDate, s.ReleaseDate)
	e.Data.SetInt(DataLanguageID, s.LanguageID)
	e.Data.SetInt(DataEditionFormatID, s.EditionFormatID)
	e.Data.SetInt(DataEditionStatusID, s.EditionStatusID)
	e.Data.SetInt(DataPages, s.Pages)
	e.Data.SetInt(DataWeight, s.Weight)
	e.Data.SetInt(DataWidth, s.Width)
	e.Data.SetInt(DataHeight, s.Height)
	e.Data.SetInt(DataDepth, s.Depth)
	return e
}

// Entity converts the submission into a new publication entity
func (s *PublicationSubmission) Entity() *Entity {
	e := newSubmittedEntity(KindPublication, s.Aliases, s.Identifiers, s.Annotation, s.Disambiguation)
	e.Data.SetInt(DataPublicationTypeID, s.PublicationTypeID)
	return e
}

func newSubmittedEntity(kind Kind, aliases []AliasInput, identifiers []IdentifierInput, annotation, disambiguation string) *Entity {
	e := &Entity{
		Kind: kind,
		Data: Metadata{},
	}

	for i, a := range aliases {
		e.Aliases = append(e.Aliases, Alias{
			ID:         i + 1,
			Name:       strings.TrimSpace(a.Name),
			SortName:   strings.TrimSpace(a.SortName),
			LanguageID: a.Language,
			Primary:    a.Primary,
			Default:    a.Default,
		})
	}
	e.MarkDefaultAlias()

	for _, id := range identifiers {
		e.Identifiers = append(e.Identifiers, Identifier{TypeID: id.TypeID, Value: strings.TrimSpace(id.Value)})
	}

	if a := strings.TrimSpace(annotation); len(a) > 0 {
		e.Annotation = &a
	}
	if d := strings.TrimSpace(disambiguation); len(d) > 0 {
		e.Disambiguation = &d
	}

	return e
}

func validateAliases(aliases []AliasInput) error {
	if len(aliases) == 0 {
		return fmt.Errorf("%w: at least one alias is required", ErrInvalidSubmission)
	}
	defaults := 0
	for i, a := range aliases {
		if len(strings.TrimSpace(a.Name)) == 0 {
			return fmt.Errorf("%w: alias %d has no name", ErrInvalidSubmission, i)
		}
		if a.Default {
			defaults++
		}
	}
	if defaults > 1 {
		return fmt.Errorf("%w: only one alias can be the default", ErrInvalidSubmission)
	}
	return nil
}

func validateIdentifiers(identifiers []IdentifierInput) error {
	for i, id := range identifiers {
		if id.TypeID <= 0 {
			return fmt.Errorf("%w: identifier %d has no type", ErrInvalidSubmission, i)
		}
		if len(strings.TrimSpace(id.Value)) == 0 {
			return fmt.Errorf("%w: identifier %d has no value", ErrInvalidSubmission, i)
		}
	}
	return nil
}
