package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by entity stores when an identifier does not resolve
var ErrNotFound = errors.New("entity not found")

// Kind is the type tag of a cataloged entity
type Kind string

const (
	KindEdition     Kind = "Edition"
	KindPublication Kind = "Publication"
	KindPublisher   Kind = "Publisher"
	KindCreator     Kind = "Creator"
	KindWork        Kind = "Work"
)

// Kinds lists every entity kind
var Kinds = []Kind{KindEdition, KindPublication, KindPublisher, KindCreator, KindWork}

// ParseKind accepts a kind name or its route segment, case-insensitively
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if strings.EqualFold(string(k), s) {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown entity kind %q", s)
}

// Segment returns the lower-case path segment used in routes, e.g. "edition"
func (k Kind) Segment() string {
	return strings.ToLower(string(k))
}

// Keys of kind specific fields in Entity.Data
const (
	DataPublication       = "publication"
	DataPublisher         = "publisher"
	DataReleaseDate       = "release_date"
	DataLanguageID        = "language_id"
	DataEditionFormatID   = "edition_format_id"
	DataEditionStatusID   = "edition_status_id"
	DataPages             = "pages"
	DataWeight            = "weight"
	DataWidth             = "width"
	DataHeight            = "height"
	DataDepth             = "depth"
	DataPublicationTypeID = "publication_type_id"
)

// Entity is a cataloged bibliographic object
type Entity struct {
	BBID           uuid.UUID       `json:"bbid"`
	Kind           Kind            `json:"kind"`
	DefaultAlias   *Alias          `json:"default_alias,omitempty"`
	Aliases        []Alias         `json:"aliases,omitempty"`
	Annotation     *string         `json:"annotation,omitempty"`
	Disambiguation *string         `json:"disambiguation,omitempty"`
	Identifiers    []Identifier    `json:"identifiers,omitempty"`
	Relationships  []*Relationship `json:"relationships,omitempty"`
	Data           Metadata        `json:"data,omitempty"`
	Publication    *Entity         `json:"publication,omitempty"`
	Publisher      *Entity         `json:"publisher,omitempty"`
	Editions       []*Entity       `json:"editions,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Alias is a name an entity is known by
type Alias struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	SortName   string `json:"sort_name"`
	LanguageID *int   `json:"language_id,omitempty"`
	Primary    bool   `json:"primary"`
	Default    bool   `json:"default"`
}

// Identifier is an external identifier (ISBN, Wikidata id, ...) of an entity
type Identifier struct {
	ID     int    `json:"id,omitempty"`
	TypeID int    `json:"type_id"`
	Value  string `json:"value"`
}

// Name returns the display name: the default alias, the first alias or the BBID
func (e *Entity) Name() string {
	if e.DefaultAlias != nil && len(e.DefaultAlias.Name) > 0 {
		return e.DefaultAlias.Name
	}
	if len(e.Aliases) > 0 {
		return e.Aliases[0].Name
	}
	return e.BBID.String()
}

// Path returns the route of the entity, e.g. "/edition/<bbid>"
func (e *Entity) Path() string {
	return "/" + e.Kind.Segment() + "/" + e.BBID.String()
}

// Ref returns the reference of the entity as returned after a revision
func (e *Entity) Ref() *EntityRef {
	return &EntityRef{BBID: e.BBID, Kind: e.Kind}
}

// MarkDefaultAlias sets Default on the alias whose id matches the default alias.
// Without a default alias the first primary alias (else the first alias) becomes the default.
func (e *Entity) MarkDefaultAlias() {
	if len(e.Aliases) == 0 {
		return
	}

	idx := -1
	if e.DefaultAlias != nil {
		for i := range e.Aliases {
			if e.Aliases[i].ID == e.DefaultAlias.ID {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		for i := range e.Aliases {
			if e.Aliases[i].Default {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		idx = 0
		for i := range e.Aliases {
			if e.Aliases[i].Primary {
				idx = i
				break
			}
		}
	}

	for i := range e.Aliases {
		e.Aliases[i].Default = i == idx
	}
	def := e.Aliases[idx]
	e.DefaultAlias = &def
}

// EntityRef references an entity by identifier and kind
type EntityRef struct {
	BBID uuid.UUID `json:"bbid"`
	Kind Kind      `json:"kind"`
}
