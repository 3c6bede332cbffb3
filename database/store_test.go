package database

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/siherrmann/bibliograph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	database := initDB(t)
	ctx := context.Background()

	store, err := NewStore(database, true)
	require.NoError(t, err, "Expected NewStore to not return an error")
	require.NotNil(t, store.Entities)
	require.NotNil(t, store.Relationships)
	require.NotNil(t, store.Vocabularies)

	publisher := newTestEntity(model.KindPublisher, "Chilton Books")
	publication := newTestEntity(model.KindPublication, "Dune")
	require.NoError(t, store.CreateEntity(ctx, publisher))
	require.NoError(t, store.CreateEntity(ctx, publication))

	disambiguation := "first edition"
	edition := newTestEntity(model.KindEdition, "Dune (Chilton)")
	edition.Disambiguation = &disambiguation
	edition.Data.SetString(model.DataPublication, publication.BBID.String())
	edition.Data.SetString(model.DataPublisher, publisher.BBID.String())
	require.NoError(t, store.CreateEntity(ctx, edition))

	relType := &model.RelationshipType{Label: "published-" + uuid.NewString(), Template: "{0} published {1}"}
	require.NoError(t, store.CreateRelationshipType(ctx, relType))
	require.NoError(t, store.CreateRelationship(ctx, &model.Relationship{
		Type: relType,
		Participants: []*model.Participant{
			{Position: 0, EntityBBID: publisher.BBID},
			{Position: 1, EntityBBID: edition.BBID},
		},
	}))

	t.Run("Find by bbid", func(t *testing.T) {
		found, err := store.FindByBBID(ctx, edition.BBID)
		require.NoError(t, err)
		assert.Equal(t, "Dune (Chilton)", found.Name())
		assert.Nil(t, found.Relationships, "Expected no related fields")
		assert.Nil(t, found.Publication)
	})

	t.Run("Find edition with populate", func(t *testing.T) {
		found, err := store.FindOne(ctx, edition.BBID, model.PopulateFor(model.KindEdition))
		require.NoError(t, err)
		require.NotNil(t, found.Publication, "Expected publication to be populated")
		assert.Equal(t, publication.BBID, found.Publication.BBID)
		require.NotNil(t, found.Publisher, "Expected publisher to be populated")
		assert.Equal(t, publisher.BBID, found.Publisher.BBID)
		require.Len(t, found.Relationships, 1)
		assert.Len(t, found.Relationships[0].Participants, 2)
		require.NotNil(t, found.Disambiguation)
		assert.Equal(t, disambiguation, *found.Disambiguation)
		assert.Nil(t, found.Editions)
	})

	t.Run("Find publication and publisher with editions", func(t *testing.T) {
		for _, e := range []*model.Entity{publication, publisher} {
			found, err := store.FindOne(ctx, e.BBID, model.PopulateFor(e.Kind))
			require.NoError(t, err)
			require.Len(t, found.Editions, 1, "Expected the edition of %s", e.Name())
			assert.Equal(t, edition.BBID, found.Editions[0].BBID)
		}
	})

	t.Run("Populate list limits loaded fields", func(t *testing.T) {
		found, err := store.FindOne(ctx, edition.BBID, []model.PopulateField{model.PopulateAliases})
		require.NoError(t, err)
		assert.NotEmpty(t, found.Aliases)
		assert.Nil(t, found.Disambiguation)
		assert.Nil(t, found.Relationships)
		assert.Nil(t, found.Publication)
	})

	t.Run("Find unknown entity returns not found", func(t *testing.T) {
		_, err := store.FindOne(ctx, uuid.New(), model.PopulateFor(model.KindEdition))
		assert.ErrorIs(t, err, model.ErrNotFound)
		_, err = store.FindByBBID(ctx, uuid.New())
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("Missing reference is left empty", func(t *testing.T) {
		orphan := newTestEntity(model.KindEdition, "Orphan")
		orphan.Data.SetString(model.DataPublication, uuid.NewString())
		require.NoError(t, store.CreateEntity(ctx, orphan))

		found, err := store.FindOne(ctx, orphan.BBID, model.PopulateFor(model.KindEdition))
		require.NoError(t, err)
		assert.Nil(t, found.Publication)
	})

	t.Run("Select terms", func(t *testing.T) {
		require.NoError(t, store.CreateTerm(ctx, &model.Term{ID: 1, Kind: model.VocabularyEditionFormat, Name: "Hardcover"}))
		terms, err := store.SelectTerms(ctx, model.VocabularyEditionFormat)
		require.NoError(t, err)
		require.Len(t, terms, 1)
		assert.Equal(t, "Hardcover", terms[0].Name)
	})
}
