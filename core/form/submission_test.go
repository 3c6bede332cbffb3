package form

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/siherrmann/bibliograph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInt(t *testing.T) {
	cases := []struct {
		in   string
		want *int
	}{
		{"42", intPtr(42)},
		{"  7", intPtr(7)},
		{"-3", intPtr(-3)},
		{"+5", intPtr(5)},
		{"12abc", intPtr(12)},
		{"3.9", intPtr(3)},
		{"0x1F", intPtr(31)},
		{"", nil},
		{"abc", nil},
		{"-", nil},
		{"0x", nil},
		{"99999999999999999999999", nil},
	}

	for _, c := range cases {
		t.Run("Parse "+c.in, func(t *testing.T) {
			assert.Equal(t, c.want, ParseInt(c.in))
		})
	}
}

func TestBuildEditionSubmission(t *testing.T) {
	t.Run("Build edition submission from form values", func(t *testing.T) {
		publication := uuid.NewString()
		s := BuildEditionSubmission(EditionFields{
			Aliases:       []model.AliasInput{{Name: "Dune", SortName: "Dune", Primary: true, Default: true}},
			Publication:   publication,
			ReleaseDate:   "1965-08-01",
			Language:      "120",
			EditionFormat: "2",
			EditionStatus: "",
			Pages:         "412 pages",
			Weight:        "abc",
			Note:          "first edition",
		})

		assert.Equal(t, publication, s.Publication)
		assert.Equal(t, intPtr(120), s.LanguageID)
		assert.Equal(t, intPtr(2), s.EditionFormatID)
		assert.Nil(t, s.EditionStatusID, "Expected empty value to stay unset")
		assert.Equal(t, intPtr(412), s.Pages)
		assert.Nil(t, s.Weight)
		assert.Equal(t, "first edition", s.Note)
		assert.NoError(t, s.Validate())
	})
}

func TestBuildPublicationSubmission(t *testing.T) {
	t.Run("Build publication submission from form values", func(t *testing.T) {
		s := BuildPublicationSubmission(PublicationFields{
			Aliases:         []model.AliasInput{{Name: "Dune", Default: true}},
			PublicationType: "1",
			Identifiers:     []model.IdentifierInput{{TypeID: 2, Value: "Q190192"}},
		})
		assert.Equal(t, intPtr(1), s.PublicationTypeID)
		assert.Len(t, s.Identifiers, 1)
		assert.NoError(t, s.Validate())
	})
}

func TestRedirect(t *testing.T) {
	bbid := uuid.New()

	t.Run("Redirect to the created entity", func(t *testing.T) {
		rev := &model.Revision{Entity: &model.EntityRef{BBID: bbid, Kind: model.KindEdition}}
		assert.Equal(t, "/edition/"+bbid.String(), Redirect(model.KindEdition, rev))
		assert.Equal(t, "/publication/"+bbid.String(), Redirect(model.KindPublication, rev))
	})

	t.Run("Redirect to login without entity", func(t *testing.T) {
		assert.Equal(t, LoginPath, Redirect(model.KindEdition, nil))
		assert.Equal(t, LoginPath, Redirect(model.KindEdition, &model.Revision{}))
	})
}

func TestSubmit(t *testing.T) {
	bbid := uuid.New()

	t.Run("Submit posts json and follows the revision", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			var s model.PublicationSubmission
			require.NoError(t, json.NewDecoder(r.Body).Decode(&s))
			assert.Equal(t, "Dune", s.Aliases[0].Name)
			json.NewEncoder(w).Encode(model.Revision{Entity: &model.EntityRef{BBID: bbid, Kind: model.KindPublication}})
		}))
		defer srv.Close()

		payload := BuildPublicationSubmission(PublicationFields{Aliases: []model.AliasInput{{Name: "Dune"}}})
		next, err := Submit(context.Background(), srv.Client(), srv.URL, model.KindPublication, payload)
		require.NoError(t, err)
		assert.Equal(t, "/publication/"+bbid.String(), next)
	})

	t.Run("Empty revision redirects to login", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("{}"))
		}))
		defer srv.Close()

		next, err := Submit(context.Background(), srv.Client(), srv.URL, model.KindEdition, map[string]any{})
		require.NoError(t, err)
		assert.Equal(t, LoginPath, next)
	})

	t.Run("Server error is returned", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "invalid submission", http.StatusBadRequest)
		}))
		defer srv.Close()

		_, err := Submit(context.Background(), srv.Client(), srv.URL, model.KindEdition, map[string]any{})
		assert.ErrorContains(t, err, "invalid submission")
	})
}

func intPtr(i int) *int {
	return &i
}
