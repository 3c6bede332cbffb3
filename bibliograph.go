package bibliograph

import (
	"context"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/siherrmann/bibliograph/core/resolve"
	"github.com/siherrmann/bibliograph/database"
	"github.com/siherrmann/bibliograph/helper"
	"github.com/siherrmann/bibliograph/kvstore"
	"github.com/siherrmann/bibliograph/model"
	"github.com/siherrmann/bibliograph/server"
	loadSql "github.com/siherrmann/bibliograph/sql"
)

// Store is the entity store behind a catalog.
// Both database.Store and kvstore.EntityStore implement it.
type Store interface {
	resolve.EntityFinder
	server.Backend
	CreateRelationshipType(ctx context.Context, relationshipType *model.RelationshipType) error
	CreateRelationship(ctx context.Context, relationship *model.Relationship) error
	CreateTerm(ctx context.Context, term *model.Term) error
	Close() error
}

// Catalog wires the store, the resolution engine and the HTTP server
type Catalog struct {
	Config  *model.Config
	Store   Store
	Engine  *resolve.Engine
	Metrics *helper.Metrics
	// Logging
	log    *slog.Logger
	server *server.Server
}

// NewCatalog opens the configured store backend and builds the engine.
// A nil config uses model.DefaultConfig, a nil logger logs to stdout at the configured level.
func NewCatalog(config *model.Config, logger *slog.Logger) (*Catalog, error) {
	if config == nil {
		config = model.DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, helper.NewError("validate config", err)
	}
	if logger == nil {
		logger = helper.NewLogger(os.Stdout, helper.ParseLevel(config.Log.Level))
	}

	store, err := openStore(config.Store, logger)
	if err != nil {
		return nil, err
	}

	metrics := helper.NewMetrics()
	engine := resolve.NewEngine(store,
		resolve.WithConcurrencyLimit(config.Resolve.MaxConcurrency),
		resolve.WithMetrics(metrics),
		resolve.WithLogger(logger),
	)

	logger.Info("Initialized catalog", slog.String("backend", config.Store.Backend))

	return &Catalog{
		Config:  config,
		Store:   store,
		Engine:  engine,
		Metrics: metrics,
		log:     logger,
	}, nil
}

func openStore(config model.StoreConfig, logger *slog.Logger) (Store, error) {
	switch config.Backend {
	case model.BackendBadger:
		kv, err := kvstore.NewBadger(kvstore.BadgerOptions{
			Dir:      config.BadgerDir,
			InMemory: config.InMemory,
			Logger:   logger,
		})
		if err != nil {
			return nil, helper.NewError("open badger", err)
		}
		return kvstore.NewEntityStore(kv, logger), nil
	default:
		dbConfig, err := helper.NewDatabaseConfiguration()
		if err != nil {
			return nil, helper.NewError("database configuration", err)
		}

		db := helper.NewDatabase("bibliograph", dbConfig, logger)
		if err := loadSql.Init(db.Instance); err != nil {
			db.Close()
			return nil, helper.NewError("initialize database extensions", err)
		}

		store, err := database.NewStore(db, config.ForceLoadSQL)
		if err != nil {
			db.Close()
			return nil, helper.NewError("create store", err)
		}
		return store, nil
	}
}

// Resolve loads an entity with the related fields of its kind and renders its relationships
func (c *Catalog) Resolve(ctx context.Context, bbid uuid.UUID) (*model.Entity, error) {
	base, err := c.Store.FindByBBID(ctx, bbid)
	if err != nil {
		return nil, helper.NewError("find entity", err)
	}

	entity, err := c.Store.FindOne(ctx, bbid, model.PopulateFor(base.Kind))
	if err != nil {
		return nil, helper.NewError("load entity", err)
	}

	if err := c.Engine.ResolveRelationships(ctx, entity); err != nil {
		return nil, err
	}

	return entity, nil
}

// Server returns the HTTP server of the catalog, creating it on first use
func (c *Catalog) Server() *server.Server {
	if c.server == nil {
		c.server = server.New(c.Store, c.Engine, c.Metrics, c.log)
	}
	return c.server
}

// Serve serves the catalog on the configured address until ctx is done
func (c *Catalog) Serve(ctx context.Context) error {
	return c.Server().ListenAndServe(ctx, c.Config.Server)
}

// Close closes the store
func (c *Catalog) Close() error {
	if c.Store != nil {
		return c.Store.Close()
	}
	return nil
}
