package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/erazemk/lostfound/internal/auth"
	"github.com/erazemk/lostfound/internal/config"
	"github.com/erazemk/lostfound/internal/db"
	"github.com/erazemk/lostfound/internal/imaging"
	"github.com/erazemk/lostfound/internal/kv"
	"github.com/erazemk/lostfound/internal/media"
	"github.com/erazemk/lostfound/internal/metrics"
	"github.com/erazemk/lostfound/internal/notify"
	"github.com/erazemk/lostfound/internal/portal"
	"github.com/erazemk/lostfound/internal/store"
)

// app is everything a command needs, built from configuration.
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	kv       kv.Store
	redis    *redis.Client
	portal   *portal.Portal
	gate     *auth.Gate
	sessions *store.SessionStore
	queue    notify.Queue
	metrics  *metrics.Metrics
	health   func(context.Context) error
	closers  []func() error
}

type appOptions struct {
	// server runs the notification dispatcher in-process, so only the
	// server gets an in-memory queue.
	server bool
}

func newApp(ctx context.Context, cfg *config.Config, log *zap.Logger, opts appOptions) (_ *app, err error) {
	a := &app{cfg: cfg, log: log}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	if err := a.openStorage(ctx); err != nil {
		return nil, err
	}

	switch cfg.Notify.Backend {
	case "memory":
		if opts.server {
			a.queue = notify.NewInMemory(cfg.Notify.QueueSize)
		}
	case "redis":
		a.queue = notify.NewRedisQueue(a.redisClient(), cfg.Notify.RedisKey)
	}

	var mediaStore media.Store = media.Inline{}
	if cfg.Media.Backend == "b2" {
		b2cfg := cfg.Media.B2
		mediaStore, err = media.OpenB2(ctx, b2cfg.KeyID, b2cfg.AppKey, b2cfg.Bucket, b2cfg.Prefix, b2cfg.BaseURL)
		if err != nil {
			return nil, err
		}
	}

	if opts.server {
		a.metrics = metrics.New()
	}

	items, err := store.LoadItems(ctx, a.kv, log)
	if err != nil {
		return nil, err
	}

	var catalog *portal.Catalog
	if len(cfg.Catalog.Categories) > 0 || len(cfg.Catalog.Locations) > 0 {
		c := portal.DefaultCatalog()
		if len(cfg.Catalog.Categories) > 0 {
			c.Categories = cfg.Catalog.Categories
		}
		if len(cfg.Catalog.Locations) > 0 {
			c.Locations = cfg.Catalog.Locations
		}
		catalog = &c
	}

	a.portal = portal.New(items, portal.Options{
		Media: mediaStore,
		Images: imaging.Processor{
			MaxDimension: cfg.Media.MaxDimension,
			Quality:      cfg.Media.Quality,
			MaxBytes:     cfg.Media.MaxBytes,
		},
		Queue:   a.queue,
		Metrics: a.metrics,
		Log:     log,
		Catalog: catalog,
	})

	var verifier auth.Verifier = auth.DemoVerifier{Password: cfg.Auth.DemoPassword}
	if cfg.Auth.Verifier == "bcrypt" {
		verifier = auth.NewBcryptVerifier(a.kv, cfg.Auth.Admins...)
	}
	a.gate = auth.NewGate(verifier, log)
	a.sessions = store.NewSessionStore(a.kv, log)
	return a, nil
}

func (a *app) openStorage(ctx context.Context) error {
	cfg := a.cfg.Storage
	switch cfg.Backend {
	case "sqlite":
		database, err := db.Open(cfg.Path)
		if err != nil {
			return err
		}
		if err := db.EnsureSchema(database, db.SQLite); err != nil {
			database.Close()
			return err
		}
		a.kv = kv.NewSQL(database, db.SQLite)
		a.health = database.PingContext
	case "postgres":
		database, err := db.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		if err := db.EnsureSchema(database, db.Postgres); err != nil {
			database.Close()
			return err
		}
		a.kv = kv.NewSQL(database, db.Postgres)
		a.health = database.PingContext
	case "bolt":
		b, err := kv.OpenBolt(cfg.Path)
		if err != nil {
			return err
		}
		a.kv = b
	case "redis":
		r := kv.NewRedis(cfg.RedisAddr, cfg.RedisPrefix)
		a.redis = r.Client()
		a.kv = r
		a.health = func(ctx context.Context) error {
			if !r.Healthy(ctx) {
				return errors.New("redis is unreachable")
			}
			return nil
		}
	case "memory":
		a.kv = kv.NewMemory()
	default:
		return fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
	a.closers = append(a.closers, a.kv.Close)
	return nil
}

// redisClient returns the storage client when storage is Redis, or a
// dedicated one for the notification queue otherwise.
func (a *app) redisClient() *redis.Client {
	if a.redis != nil {
		return a.redis
	}
	a.redis = redis.NewClient(&redis.Options{Addr: a.cfg.Storage.RedisAddr})
	a.closers = append(a.closers, a.redis.Close)
	return a.redis
}

// Close releases backends in reverse order of opening.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
