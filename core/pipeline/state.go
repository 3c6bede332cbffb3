package pipeline

import "github.com/siherrmann/bibliograph/model"

// State is the per request data filled by stages.
// Every request gets its own State.
type State struct {
	Entity *model.Entity `json:"entity,omitempty"`

	CreatorTypes     []*model.Term `json:"creatorTypes,omitempty"`
	EditionStatuses  []*model.Term `json:"editionStatuses,omitempty"`
	EditionFormats   []*model.Term `json:"editionFormats,omitempty"`
	Genders          []*model.Term `json:"genders,omitempty"`
	Languages        []*model.Term `json:"languages,omitempty"`
	PublicationTypes []*model.Term `json:"publicationTypes,omitempty"`
	PublisherTypes   []*model.Term `json:"publisherTypes,omitempty"`
	WorkTypes        []*model.Term `json:"workTypes,omitempty"`
	IdentifierTypes  []*model.Term `json:"identifierTypes,omitempty"`
}

// NewState returns an empty state
func NewState() *State {
	return &State{}
}

// SetTerms attaches terms to the field of the given vocabulary
func (s *State) SetTerms(kind model.VocabularyKind, terms []*model.Term) {
	if field := s.field(kind); field != nil {
		*field = terms
	}
}

// Terms returns the attached terms of the given vocabulary
func (s *State) Terms(kind model.VocabularyKind) []*model.Term {
	if field := s.field(kind); field != nil {
		return *field
	}
	return nil
}

func (s *State) field(kind model.VocabularyKind) *[]*model.Term {
	switch kind {
	case model.VocabularyCreatorType:
		return &s.CreatorTypes
	case model.VocabularyEditionStatus:
		return &s.EditionStatuses
	case model.VocabularyEditionFormat:
		return &s.EditionFormats
	case model.VocabularyGender:
		return &s.Genders
	case model.VocabularyLanguage:
		return &s.Languages
	case model.VocabularyPublicationType:
		return &s.PublicationTypes
	case model.VocabularyPublisherType:
		return &s.PublisherTypes
	case model.VocabularyWorkType:
		return &s.WorkTypes
	case model.VocabularyIdentifierType:
		return &s.IdentifierTypes
	}
	return nil
}
