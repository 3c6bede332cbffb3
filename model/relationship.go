package model

import "github.com/google/uuid"

// RelationshipType describes a kind of relationship and how to render it
type RelationshipType struct {
	ID          int    `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
	Template    string `json:"template"`
}

// Participant places an entity at a position inside a relationship.
// Entity is nil until the relationship has been resolved.
type Participant struct {
	Position   int       `json:"position"`
	EntityBBID uuid.UUID `json:"entity_bbid"`
	Entity     *Entity   `json:"entity,omitempty"`
}

// Relationship is a typed connection between two or more entities
type Relationship struct {
	ID           int64             `json:"id"`
	Type         *RelationshipType `json:"relationship_type,omitempty"`
	Template     string            `json:"template,omitempty"`
	Participants []*Participant    `json:"entities"`
	Rendered     *Rendered         `json:"rendered,omitempty"`
}

// Rendered is the display value of a resolved relationship
type Rendered struct {
	Text     string            `json:"text"`
	Segments []RenderedSegment `json:"segments"`
}

// RenderedSegment is either literal text or a reference to an entity
type RenderedSegment struct {
	Text   string     `json:"text"`
	Entity *EntityRef `json:"entity,omitempty"`
	Link   string     `json:"link,omitempty"`
}
