package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/geocoder89/quicknotes/internal/cache"
	"github.com/geocoder89/quicknotes/internal/config"
	"github.com/geocoder89/quicknotes/internal/db"
	"github.com/geocoder89/quicknotes/internal/http/handlers"
	"github.com/geocoder89/quicknotes/internal/observability"
	"github.com/geocoder89/quicknotes/internal/redisclient"
	"github.com/geocoder89/quicknotes/internal/repo/memory"
	"github.com/geocoder89/quicknotes/internal/repo/mongodb"
	"github.com/geocoder89/quicknotes/internal/repo/postgres"
	"github.com/geocoder89/quicknotes/internal/service"
)

type stores struct {
	users  service.UserStore
	notes  service.NoteStore
	checks map[string]handlers.Check
	close  func()
}

func openStores(ctx context.Context, cfg config.Config, log *slog.Logger, prom *observability.Prom) (stores, error) {
	switch cfg.Store {
	case config.StoreMemory:
		log.Warn("using in-memory store, data is lost on restart")
		notes := memory.NewNotesRepo()
		return stores{
			users:  memory.NewUsersRepo(),
			notes:  notes,
			checks: map[string]handlers.Check{"store": notes.Ping},
			close:  func() {},
		}, nil

	case config.StoreMongo:
		client, err := mongodb.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return stores{}, err
		}
		database := client.Database(cfg.MongoDB)
		if err := mongodb.EnsureIndexes(ctx, database); err != nil {
			_ = client.Disconnect(context.Background())
			return stores{}, err
		}
		notes := mongodb.NewNotesRepo(database, prom)
		return stores{
			users:  mongodb.NewUsersRepo(database, prom),
			notes:  notes,
			checks: map[string]handlers.Check{"store": notes.Ping},
			close: func() {
				if err := client.Disconnect(context.Background()); err != nil {
					log.Error("mongo disconnect failed", "err", err)
				}
			},
		}, nil

	default:
		pool, err := db.NewPool(ctx, cfg.DBURL)
		if err != nil {
			return stores{}, fmt.Errorf("connect postgres: %w", err)
		}
		if cfg.AutoMigrate {
			if err := db.Migrate(ctx, pool); err != nil {
				pool.Close()
				return stores{}, err
			}
		}
		notes := postgres.NewNotesRepo(pool, prom)
		return stores{
			users:  postgres.NewUsersRepo(pool, prom),
			notes:  notes,
			checks: map[string]handlers.Check{"store": notes.Ping},
			close:  pool.Close,
		}, nil
	}
}

type listCache struct {
	cache  service.ListCache
	checks map[string]handlers.Check
	close  func()
}

func openListCache(ctx context.Context, cfg config.Config, log *slog.Logger, prom *observability.Prom) (listCache, error) {
	switch cfg.CacheBackend {
	case config.CacheMemory:
		nc := cache.NewNotesCache(cache.NewMemory(cfg.CacheTTL), cfg.CacheTTL, log).WithObserver(prom)
		return listCache{cache: nc, close: func() {}}, nil

	case config.CacheRedis:
		rc := redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rc.Ping(ctx); err != nil {
			_ = rc.Close()
			return listCache{}, fmt.Errorf("connect redis: %w", err)
		}
		nc := cache.NewNotesCache(rc, cfg.CacheTTL, log).WithObserver(prom)
		return listCache{
			cache:  nc,
			checks: map[string]handlers.Check{"cache": rc.Ping},
			close: func() {
				if err := rc.Close(); err != nil {
					log.Error("redis close failed", "err", err)
				}
			},
		}, nil

	default:
		return listCache{close: func() {}}, nil
	}
}
