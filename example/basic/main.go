package main

import (
	"context"
	"fmt"
	"log"

	"github.com/siherrmann/bibliograph"
	"github.com/siherrmann/bibliograph/model"
)

func main() {
	// In-memory badger store, nothing to set up
	config := model.DefaultConfig()
	config.Store.Backend = model.BackendBadger
	config.Store.InMemory = true

	c, err := bibliograph.NewCatalog(config, nil)
	if err != nil {
		log.Fatalf("Failed to create catalog: %v", err)
	}
	defer c.Close()

	ctx := context.Background()

	author := &model.Entity{Kind: model.KindCreator, Aliases: []model.Alias{{ID: 1, Name: "Mary Shelley", Primary: true}}}
	translator := &model.Entity{Kind: model.KindCreator, Aliases: []model.Alias{{ID: 1, Name: "Ursula Grawe", Primary: true}}}
	work := &model.Entity{Kind: model.KindWork, Aliases: []model.Alias{{ID: 1, Name: "Frankenstein", Primary: true}}}
	for _, e := range []*model.Entity{author, translator, work} {
		if err := c.Store.CreateEntity(ctx, e); err != nil {
			log.Fatalf("Failed to create entity: %v", err)
		}
		fmt.Printf("Created %s %q with BBID %s\n", e.Kind, e.Name(), e.BBID)
	}

	wrote := &model.RelationshipType{Label: "wrote", Template: "{0} wrote {1}"}
	translated := &model.RelationshipType{Label: "translated", Template: "{1} was translated by {0}"}
	for _, relType := range []*model.RelationshipType{wrote, translated} {
		if err := c.Store.CreateRelationshipType(ctx, relType); err != nil {
			log.Fatalf("Failed to create relationship type: %v", err)
		}
	}

	// Participants are stored out of order, rendering sorts them by position
	relationships := []*model.Relationship{
		{Type: wrote, Participants: []*model.Participant{
			{Position: 1, EntityBBID: work.BBID},
			{Position: 0, EntityBBID: author.BBID},
		}},
		{Type: translated, Participants: []*model.Participant{
			{Position: 0, EntityBBID: translator.BBID},
			{Position: 1, EntityBBID: work.BBID},
		}},
	}
	for _, rel := range relationships {
		if err := c.Store.CreateRelationship(ctx, rel); err != nil {
			log.Fatalf("Failed to create relationship: %v", err)
		}
	}

	entity, err := c.Resolve(ctx, work.BBID)
	if err != nil {
		log.Fatalf("Failed to resolve: %v", err)
	}

	fmt.Printf("\nRelationships of %q:\n", entity.Name())
	for _, rel := range entity.Relationships {
		fmt.Printf("- %s\n", rel.Rendered.Text)
		for _, segment := range rel.Rendered.Segments {
			if len(segment.Link) > 0 {
				fmt.Printf("    %s -> %s\n", segment.Text, segment.Link)
			}
		}
	}

	fmt.Println("\nBasic example completed successfully!")
}
