package model

import (
	"cmp"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// VocabularyKind names a reference list of allowed values
type VocabularyKind string

const (
	VocabularyCreatorType     VocabularyKind = "creator_type"
	VocabularyEditionStatus   VocabularyKind = "edition_status"
	VocabularyEditionFormat   VocabularyKind = "edition_format"
	VocabularyGender          VocabularyKind = "gender"
	VocabularyLanguage        VocabularyKind = "language"
	VocabularyPublicationType VocabularyKind = "publication_type"
	VocabularyPublisherType   VocabularyKind = "publisher_type"
	VocabularyWorkType        VocabularyKind = "work_type"
	VocabularyIdentifierType  VocabularyKind = "identifier_type"
)

// VocabularyKinds lists every vocabulary
var VocabularyKinds = []VocabularyKind{
	VocabularyCreatorType,
	VocabularyEditionStatus,
	VocabularyEditionFormat,
	VocabularyGender,
	VocabularyLanguage,
	VocabularyPublicationType,
	VocabularyPublisherType,
	VocabularyWorkType,
	VocabularyIdentifierType,
}

// Term is one entry of a vocabulary.
// Frequency is only meaningful for languages.
type Term struct {
	ID        int            `json:"id"`
	Kind      VocabularyKind `json:"kind"`
	Name      string         `json:"name"`
	Frequency int            `json:"frequency,omitempty"`
}

// nameCollator compares names with the root locale collation.
// A Collator keeps iteration buffers and must not be used concurrently.
var nameCollator = struct {
	sync.Mutex
	c *collate.Collator
}{c: collate.New(language.Und)}

// CompareNames compares two display names in locale order
func CompareNames(a, b string) int {
	nameCollator.Lock()
	defer nameCollator.Unlock()
	return nameCollator.c.CompareString(a, b)
}

// LanguageOrder sorts by descending frequency, then by name
func LanguageOrder(a, b *Term) int {
	if a.Frequency != b.Frequency {
		return cmp.Compare(b.Frequency, a.Frequency)
	}
	return CompareNames(a.Name, b.Name)
}

// GenderOrder sorts by ascending id
func GenderOrder(a, b *Term) int {
	return cmp.Compare(a.ID, b.ID)
}
