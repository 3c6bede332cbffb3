package model

import "slices"

// PopulateField names a related field loaded together with an entity
type PopulateField string

const (
	PopulateAnnotation     PopulateField = "annotation"
	PopulateDisambiguation PopulateField = "disambiguation"
	PopulateRelationships  PopulateField = "relationships"
	PopulateAliases        PopulateField = "aliases"
	PopulateIdentifiers    PopulateField = "identifiers"
	PopulatePublication    PopulateField = "publication"
	PopulatePublisher      PopulateField = "publisher"
	PopulateEditions       PopulateField = "editions"
)

// BasePopulate is loaded for every entity kind
var BasePopulate = []PopulateField{
	PopulateAnnotation,
	PopulateDisambiguation,
	PopulateRelationships,
	PopulateAliases,
	PopulateIdentifiers,
}

// KindPopulate lists the extra fields loaded per entity kind
var KindPopulate = map[Kind][]PopulateField{
	KindEdition:     {PopulatePublication, PopulatePublisher},
	KindPublication: {PopulateEditions},
	KindPublisher:   {PopulateEditions},
}

// PopulateFor returns the full populate list for kind
func PopulateFor(kind Kind) []PopulateField {
	fields := slices.Clone(BasePopulate)
	return append(fields, KindPopulate[kind]...)
}

// Populates reports whether field is in fields
func Populates(fields []PopulateField, field PopulateField) bool {
	return slices.Contains(fields, field)
}

// ApplyPopulate clears the optional fields of e that are not in fields.
// Stores may load everything and call this to honor the populate list.
func (e *Entity) ApplyPopulate(fields []PopulateField) {
	if !Populates(fields, PopulateAnnotation) {
		e.Annotation = nil
	}
	if !Populates(fields, PopulateDisambiguation) {
		e.Disambiguation = nil
	}
	if !Populates(fields, PopulateRelationships) {
		e.Relationships = nil
	}
	if !Populates(fields, PopulateAliases) {
		e.Aliases = nil
	}
	if !Populates(fields, PopulateIdentifiers) {
		e.Identifiers = nil
	}
	if !Populates(fields, PopulatePublication) {
		e.Publication = nil
	}
	if !Populates(fields, PopulatePublisher) {
		e.Publisher = nil
	}
	if !Populates(fields, PopulateEditions) {
		e.Editions = nil
	}
}
