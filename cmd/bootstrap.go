package cmd

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"example.com/medfleet/services/lorry/api/routes"
	"example.com/medfleet/services/lorry/config"
	"example.com/medfleet/services/lorry/internal/cache"
	"example.com/medfleet/services/lorry/internal/db"
	"example.com/medfleet/services/lorry/internal/messagebus"
	"example.com/medfleet/services/lorry/internal/model"
	"example.com/medfleet/services/lorry/internal/notify"
	"example.com/medfleet/services/lorry/internal/repository"
	"example.com/medfleet/services/lorry/internal/search"
	"example.com/medfleet/services/lorry/internal/service"
)

// deps holds the wired service graph shared by the serve, worker and
// autoassign commands.
type deps struct {
	cfg      *config.Config
	gormDB   *gorm.DB
	store    *repository.Store
	cache    cache.Client
	bus      messagebus.Client
	es       search.Client
	services routes.Services
}

// redisDateLocker adapts the cache client's distributed lock to the
// service-level locking contract.
type redisDateLocker struct {
	cache cache.Client
}

func (l redisDateLocker) WithLock(ctx context.Context, key string, ttl time.Duration, fn func() error) error {
	err := l.cache.WithLock(ctx, key, ttl, fn)
	if errors.Is(err, redislock.ErrNotObtained) {
		return service.ErrLockNotObtained
	}
	return err
}

// connectDB connects to Postgres with exponential backoff
func connectDB(cfg *config.DatabaseConfig, log *logrus.Logger) (*gorm.DB, error) {
	var (
		gormDB *gorm.DB
		err    error
	)
	maxRetries := 5
	retryInterval := time.Second

	for i := 0; i < maxRetries; i++ {
		log.WithField("attempt", i+1).Info("Connecting to database...")
		gormDB, err = db.Connect(cfg)
		if err == nil {
			return gormDB, nil
		}

		log.WithFields(logrus.Fields{
			"error":         err.Error(),
			"retry_attempt": i + 1,
			"max_retries":   maxRetries,
		}).Error("Failed to connect to database, retrying...")

		if i < maxRetries-1 {
			time.Sleep(retryInterval)
			retryInterval *= 2
		}
	}
	return nil, err
}

// buildDeps wires repositories, collaborators and services from config
func buildDeps(log *logrus.Logger) (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	gormDB, err := connectDB(&cfg.Database, log)
	if err != nil {
		return nil, err
	}

	store := repository.NewStore(gormDB)

	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		return nil, err
	}

	var bus messagebus.Client
	if cfg.MessageBus.Enabled {
		bus, err = messagebus.NewClient(&cfg.MessageBus)
		if err != nil {
			log.WithError(err).Warn("Failed to connect to message bus, continuing without it")
			bus = nil
		}
	}

	var es search.Client
	if cfg.Elasticsearch.Enabled {
		es, err = search.NewClient(&cfg.Elasticsearch)
		if err != nil {
			log.WithError(err).Warn("Failed to connect to Elasticsearch, continuing without it")
			es = nil
		}
	}

	notifier := notify.New(bus, es, log)
	locker := redisDateLocker{cache: redisClient}
	policy := model.ActionPolicy{}
	resolver := service.NewLedgerSKUResolver(store)

	services := routes.Services{
		Ledger:        service.NewLedgerService(store, resolver, notifier, redisClient, log),
		Stock:         service.NewStockService(store, redisClient, policy, log),
		Assignments:   service.NewAssignmentService(store, locker, log),
		Verifications: service.NewVerificationService(store, policy, notifier, log),
		Access:        service.NewAccessService(store, log),
		Holds:         service.NewHoldService(store, notifier, log),
		Fleet:         service.NewFleetService(store, log),
		Search:        es,
	}

	return &deps{
		cfg:      cfg,
		gormDB:   gormDB,
		store:    store,
		cache:    redisClient,
		bus:      bus,
		es:       es,
		services: services,
	}, nil
}

// close releases the external connections
func (d *deps) close(ctx context.Context) {
	if d.cache != nil {
		_ = d.cache.Close()
	}
	if d.bus != nil {
		_ = d.bus.Close(ctx)
	}
	if sqlDB, err := d.gormDB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
