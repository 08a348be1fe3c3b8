// Package draftstore holds the DraftStore backends wizard snapshots can be
// persisted to: in process, Redis, PostgreSQL and an embedded Badger database.
package draftstore

import (
	"context"
	"fmt"

	"eventwizard/internal/drafts"
	"eventwizard/internal/shared/config"
	"eventwizard/pkg/cache"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Store is a DraftStore the service can also health check and close
type Store interface {
	drafts.DraftStore
	Ping(ctx context.Context) error
}

// Purger is implemented by backends that need expired snapshots removed by hand.
// Redis and Badger expire keys themselves.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Deps are the shared connections a backend may be built on
type Deps struct {
	Redis    redis.UniversalClient
	Postgres *gorm.DB
}

// New builds the backend selected by cfg.Drafts.Backend
func New(cfg *config.Config, deps Deps) (Store, error) {
	switch cfg.Drafts.Backend {
	case config.DraftBackendMemory, "":
		return NewMemory(cfg.Drafts.TTL), nil
	case config.DraftBackendRedis:
		if deps.Redis == nil {
			return nil, fmt.Errorf("draft store %q needs a redis connection", cfg.Drafts.Backend)
		}
		return NewRedis(cache.NewService(deps.Redis), cfg.Drafts.TTL), nil
	case config.DraftBackendPostgres:
		if deps.Postgres == nil {
			return nil, fmt.Errorf("draft store %q needs a postgres connection", cfg.Drafts.Backend)
		}
		return NewPostgres(deps.Postgres, cfg.Drafts.TTL), nil
	case config.DraftBackendBadger:
		return OpenBadger(cfg.Drafts.BadgerPath, cfg.Drafts.TTL)
	default:
		return nil, fmt.Errorf("unknown draft store %q", cfg.Drafts.Backend)
	}
}
