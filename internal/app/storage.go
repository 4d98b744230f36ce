package app

import (
	"context"
	"fmt"

	"github.com/ArowuTest/bridgetunes-raffle/internal/config"
	"github.com/ArowuTest/bridgetunes-raffle/internal/repositories"
	"github.com/ArowuTest/bridgetunes-raffle/internal/repositories/bolt"
	"github.com/ArowuTest/bridgetunes-raffle/internal/repositories/memory"
	mongorepo "github.com/ArowuTest/bridgetunes-raffle/internal/repositories/mongodb"
	"github.com/ArowuTest/bridgetunes-raffle/pkg/mongodb"
	log "github.com/sirupsen/logrus"
)

// Storage is an opened repository backend
type Storage struct {
	Repos repositories.Repositories
	close func(ctx context.Context) error
}

// Close releases the backend. Safe to call on the memory driver.
func (s *Storage) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// OpenStorage opens the repositories selected by cfg.Driver
func OpenStorage(ctx context.Context, cfg config.StorageConfig) (*Storage, error) {
	switch cfg.Driver {
	case config.DriverMemory, "":
		return &Storage{Repos: memory.New()}, nil

	case config.DriverBolt:
		store, err := bolt.Open(cfg.BoltPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open bolt store: %w", err)
		}
		log.WithField("path", cfg.BoltPath).Info("using bolt storage")
		return &Storage{
			Repos: store.Repositories(),
			close: func(context.Context) error { return store.Close() },
		}, nil

	case config.DriverMongoDB:
		client, err := mongodb.NewClient(ctx, cfg.MongoURI)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		db := client.Database(cfg.MongoDatabase)
		if err := mongorepo.EnsureIndexes(ctx, db); err != nil {
			client.Disconnect(context.Background())
			return nil, fmt.Errorf("failed to create indexes: %w", err)
		}
		log.WithField("database", cfg.MongoDatabase).Info("using MongoDB storage")
		return &Storage{Repos: mongorepo.New(db), close: client.Disconnect}, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}
