package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/siherrmann/bibliograph"
	"github.com/siherrmann/bibliograph/core/form"
	"github.com/siherrmann/bibliograph/core/pipeline"
	"github.com/siherrmann/bibliograph/helper"
	"github.com/siherrmann/bibliograph/model"
)

func main() {
	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	// The catalog reads the DB_* environment
	dbConfig := helper.TestDatabaseConfiguration(dbPort)
	for key, value := range map[string]string{
		"DB_HOST":     dbConfig.Host,
		"DB_PORT":     dbConfig.Port,
		"DB_DATABASE": dbConfig.Database,
		"DB_USERNAME": dbConfig.Username,
		"DB_PASSWORD": dbConfig.Password,
		"DB_SCHEMA":   dbConfig.Schema,
		"DB_SSLMODE":  dbConfig.SSLMode,
	} {
		os.Setenv(key, value)
	}

	config := model.DefaultConfig()
	config.Resolve.MaxConcurrency = 4

	c, err := bibliograph.NewCatalog(config, nil)
	if err != nil {
		log.Fatalf("Failed to create catalog: %v", err)
	}
	defer c.Close()

	ctx := context.Background()

	// Vocabularies the create forms load
	terms := []*model.Term{
		{ID: 1, Kind: model.VocabularyLanguage, Name: "English", Frequency: 12},
		{ID: 2, Kind: model.VocabularyLanguage, Name: "German", Frequency: 4},
		{ID: 1, Kind: model.VocabularyEditionFormat, Name: "Paperback"},
		{ID: 2, Kind: model.VocabularyEditionFormat, Name: "Hardcover"},
		{ID: 1, Kind: model.VocabularyPublicationType, Name: "Book"},
		{ID: 1, Kind: model.VocabularyIdentifierType, Name: "ISBN-13"},
	}
	for _, term := range terms {
		if err := c.Store.CreateTerm(ctx, term); err != nil {
			log.Fatalf("Failed to create term: %v", err)
		}
	}

	ts := httptest.NewServer(c.Server())
	defer ts.Close()
	client := ts.Client()

	// Bootstrap the edition form
	var state pipeline.State
	getJSON(client, ts.URL+"/edition/create", &state)
	fmt.Println("Edition form languages:")
	for _, term := range state.Languages {
		fmt.Printf("- %s (%d)\n", term.Name, term.ID)
	}

	// Walk the form and submit a publication, then an edition of it
	f := form.New()
	f = f.Next(true, true)
	f = f.Next(true, true)
	fmt.Printf("\nForm is on tab %d, submit enabled: %t\n", f.Tab, f.SubmitEnabled())
	f = f.BeginSubmit()

	publication := form.BuildPublicationSubmission(form.PublicationFields{
		Aliases:         []model.AliasInput{{Name: "Neuromancer", SortName: "Neuromancer", Primary: true, Default: true}},
		PublicationType: "1",
		Note:            "initial import",
	})
	location, err := form.Submit(ctx, client, ts.URL+"/publication/create/handler", model.KindPublication, publication)
	if err != nil {
		f = f.Fail(err)
		log.Fatalf("Failed to submit publication: %v", f.Err)
	}
	fmt.Printf("Publication created, redirect to %s\n", location)

	publicationBBID := location[len("/publication/"):]
	edition := form.BuildEditionSubmission(form.EditionFields{
		Aliases:       []model.AliasInput{{Name: "Neuromancer (Ace)", Primary: true, Default: true}},
		Publication:   publicationBBID,
		Language:      "1",
		EditionFormat: "1",
		Identifiers:   []model.IdentifierInput{{TypeID: 1, Value: "9780441569595"}},
		Pages:         " 271 ",
		Note:          "first paperback",
	})
	location, err = form.Submit(ctx, client, ts.URL+"/edition/create/handler", model.KindEdition, edition)
	if err != nil {
		log.Fatalf("Failed to submit edition: %v", err)
	}
	fmt.Printf("Edition created, redirect to %s\n", location)

	// Display the publication with its editions
	var entity model.Entity
	getJSON(client, ts.URL+"/publication/"+publicationBBID, &entity)
	fmt.Printf("\n%s has %d edition(s):\n", entity.Name(), len(entity.Editions))
	for _, e := range entity.Editions {
		pages, _ := e.Data.Int(model.DataPages)
		fmt.Printf("- %s, %d pages\n", e.Name(), pages)
	}

	fmt.Println("\nAdvanced example completed successfully!")
}

func getJSON(client *http.Client, url string, v any) {
	resp, err := client.Get(url)
	if err != nil {
		log.Fatalf("Failed to get %s: %v", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Fatalf("Unexpected status for %s: %s", url, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		log.Fatalf("Failed to decode %s: %v", url, err)
	}
}
