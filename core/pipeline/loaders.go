package pipeline

import (
	"errors"
	"fmt"
	"net/http"
	"slices"

	"github.com/siherrmann/bibliograph/helper"
	"github.com/siherrmann/bibliograph/model"
)

// MakeLoader returns a stage that attaches every term of a vocabulary to the state.
// When cmp is not nil the terms are sorted with it, keeping the store order for ties.
func MakeLoader(finder VocabularyFinder, kind model.VocabularyKind, cmp func(a, b *model.Term) int) Stage {
	return func(r *http.Request, state *State) error {
		terms, err := finder.SelectTerms(r.Context(), kind)
		if err != nil {
			return helper.NewError(fmt.Sprintf("load %s", kind), err)
		}
		if cmp != nil {
			slices.SortStableFunc(terms, cmp)
		}
		state.SetTerms(kind, terms)
		return nil
	}
}

func LoadCreatorTypes(finder VocabularyFinder) Stage {
	return MakeLoader(finder, model.VocabularyCreatorType, nil)
}

func LoadEditionStatuses(finder VocabularyFinder) Stage {
	return MakeLoader(finder, model.VocabularyEditionStatus, nil)
}

func LoadEditionFormats(finder VocabularyFinder) Stage {
	return MakeLoader(finder, model.VocabularyEditionFormat, nil)
}

// LoadGenders sorts genders by id
func LoadGenders(finder VocabularyFinder) Stage {
	return MakeLoader(finder, model.VocabularyGender, model.GenderOrder)
}

// LoadLanguages sorts the most used languages first
func LoadLanguages(finder VocabularyFinder) Stage {
	return MakeLoader(finder, model.VocabularyLanguage, model.LanguageOrder)
}

func LoadPublicationTypes(finder VocabularyFinder) Stage {
	return MakeLoader(finder, model.VocabularyPublicationType, nil)
}

func LoadPublisherTypes(finder VocabularyFinder) Stage {
	return MakeLoader(finder, model.VocabularyPublisherType, nil)
}

func LoadWorkTypes(finder VocabularyFinder) Stage {
	return MakeLoader(finder, model.VocabularyWorkType, nil)
}

func LoadIdentifierTypes(finder VocabularyFinder) Stage {
	return MakeLoader(finder, model.VocabularyIdentifierType, nil)
}

// MatchKind returns a stage that lets only requests whose "kind" path value
// is the route segment of kind pass. Others return ErrRouteMismatch.
func MatchKind(kind model.Kind) Stage {
	return func(r *http.Request, state *State) error {
		if r.PathValue("kind") != kind.Segment() {
			return ErrRouteMismatch
		}
		return nil
	}
}

// MakeEntityLoader returns a stage loading the entity of kind named by the "bbid" path value.
//
// A path value that is not a BBID returns ErrRouteMismatch. An unknown entity,
// or one of another kind, returns a *NotFoundError carrying errMessage.
func MakeEntityLoader(loader EntityLoader, kind model.Kind, errMessage string) Stage {
	return func(r *http.Request, state *State) error {
		bbid, err := model.ParseBBID(r.PathValue("bbid"))
		if err != nil {
			return ErrRouteMismatch
		}

		entity, err := loader.FindOne(r.Context(), bbid, model.PopulateFor(kind))
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return &NotFoundError{Message: errMessage, Err: err}
			}
			return err
		}
		if entity.Kind != kind {
			return &NotFoundError{Message: errMessage, Err: model.ErrNotFound}
		}

		state.Entity = entity
		return nil
	}
}

// LoadEntityRelationships resolves and renders the relationships of the loaded entity
func LoadEntityRelationships(resolver RelationshipResolver) Stage {
	return func(r *http.Request, state *State) error {
		if state.Entity == nil {
			return ErrEntityNotLoaded
		}

		entity := state.Entity
		if err := resolver.ResolveRelationships(r.Context(), entity); err != nil {
			return err
		}
		state.Entity = entity
		return nil
	}
}
