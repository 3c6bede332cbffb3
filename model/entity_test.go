package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	t.Run("Kind names and route segments parse", func(t *testing.T) {
		for _, k := range Kinds {
			parsed, err := ParseKind(k.Segment())
			require.NoError(t, err)
			assert.Equal(t, k, parsed)

			parsed, err = ParseKind(string(k))
			require.NoError(t, err)
			assert.Equal(t, k, parsed)
		}
	})

	t.Run("Unknown kind returns an error", func(t *testing.T) {
		_, err := ParseKind("magazine")

		assert.Error(t, err)
	})
}

func TestEntityName(t *testing.T) {
	id := uuid.MustParse("11111111-1111-1111-1111-111111111111")

	t.Run("Default alias wins", func(t *testing.T) {
		e := &Entity{
			BBID:         id,
			DefaultAlias: &Alias{Name: "Dune"},
			Aliases:      []Alias{{Name: "Der Wüstenplanet"}},
		}

		assert.Equal(t, "Dune", e.Name())
	})

	t.Run("First alias without default", func(t *testing.T) {
		e := &Entity{BBID: id, Aliases: []Alias{{Name: "Der Wüstenplanet"}}}

		assert.Equal(t, "Der Wüstenplanet", e.Name())
	})

	t.Run("BBID without aliases", func(t *testing.T) {
		e := &Entity{BBID: id}

		assert.Equal(t, id.String(), e.Name())
	})

	t.Run("Path uses the kind segment", func(t *testing.T) {
		e := &Entity{BBID: id, Kind: KindEdition}

		assert.Equal(t, "/edition/11111111-1111-1111-1111-111111111111", e.Path())
	})
}

func TestMarkDefaultAlias(t *testing.T) {
	t.Run("Alias matching the default alias id is flagged", func(t *testing.T) {
		e := &Entity{
			DefaultAlias: &Alias{ID: 2},
			Aliases:      []Alias{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}},
		}

		e.MarkDefaultAlias()

		assert.False(t, e.Aliases[0].Default)
		assert.True(t, e.Aliases[1].Default)
		assert.Equal(t, "B", e.DefaultAlias.Name)
	})

	t.Run("Explicit default flag is kept", func(t *testing.T) {
		e := &Entity{Aliases: []Alias{{ID: 1, Name: "A", Primary: true}, {ID: 2, Name: "B", Default: true}}}

		e.MarkDefaultAlias()

		assert.Equal(t, "B", e.DefaultAlias.Name)
	})

	t.Run("First primary alias becomes default", func(t *testing.T) {
		e := &Entity{Aliases: []Alias{{ID: 1, Name: "A"}, {ID: 2, Name: "B", Primary: true}}}

		e.MarkDefaultAlias()

		assert.Equal(t, "B", e.DefaultAlias.Name)
		assert.True(t, e.Aliases[1].Default)
	})

	t.Run("No aliases is a no-op", func(t *testing.T) {
		e := &Entity{}

		e.MarkDefaultAlias()

		assert.Nil(t, e.DefaultAlias)
	})
}
