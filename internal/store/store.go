package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/mentordesk/mentordesk/internal/collection"
	"github.com/mentordesk/mentordesk/internal/platform/db"
	"github.com/mentordesk/mentordesk/internal/store/filestore"
	"github.com/mentordesk/mentordesk/internal/store/memstore"
	"github.com/mentordesk/mentordesk/internal/store/pgstore"
	"github.com/mentordesk/mentordesk/internal/store/redisstore"
	"github.com/mentordesk/mentordesk/internal/store/s3store"
	"github.com/mentordesk/mentordesk/internal/store/sqlitestore"
)

// Supported STORE_DRIVER values.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverS3       = "s3"
)

// Drivers lists every accepted driver name.
var Drivers = []string{DriverMemory, DriverFile, DriverRedis, DriverPostgres, DriverSQLite, DriverS3}

// Config selects and configures a backend.
type Config struct {
	Driver     string
	Dir        string
	PGDSN      string
	PGMaxConns int32
	SQLitePath string
	S3         s3store.Config
	// Redis is required by the redis driver. The caller owns it.
	Redis *redis.Client
}

// BatchSaver is implemented by backends that can write several keys atomically.
type BatchSaver interface {
	SaveAll(ctx context.Context, payloads map[string][]byte) error
}

// Backend is an opened repository plus whatever handles it owns.
type Backend struct {
	Driver string
	Repo   collection.Repository

	closers []func()
}

// Close releases handles opened by Open.
func (b *Backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
	b.closers = nil
}

// SaveAll writes payloads atomically when the backend supports it and one by
// one otherwise.
func (b *Backend) SaveAll(ctx context.Context, payloads map[string][]byte) error {
	if batch, ok := b.Repo.(BatchSaver); ok {
		return batch.SaveAll(ctx, payloads)
	}
	for key, payload := range payloads {
		if err := b.Repo.Save(ctx, key, payload); err != nil {
			return err
		}
	}
	return nil
}

// Open builds the backend named by cfg.Driver.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Backend{Driver: cfg.Driver}
	switch cfg.Driver {
	case DriverMemory, "":
		b.Driver = DriverMemory
		b.Repo = memstore.New()
	case DriverFile:
		fs, err := filestore.New(cfg.Dir)
		if err != nil {
			return nil, err
		}
		b.Repo = fs
	case DriverRedis:
		if cfg.Redis == nil {
			return nil, fmt.Errorf("store: redis driver needs a client")
		}
		b.Repo = redisstore.New(cfg.Redis, "")
	case DriverPostgres:
		pool, err := db.Open(ctx, db.Options{DSN: cfg.PGDSN, MaxConns: cfg.PGMaxConns})
		if err != nil {
			return nil, err
		}
		pg := pgstore.New(pool)
		if err := pg.Migrate(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		b.Repo = pg
		b.closers = append(b.closers, closePool(pool))
	case DriverSQLite:
		lite, err := sqlitestore.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		b.Repo = lite
		b.closers = append(b.closers, func() {
			if err := lite.Close(); err != nil {
				logger.Warn("close sqlite", slog.Any("error", err))
			}
		})
	case DriverS3:
		s3, err := s3store.New(cfg.S3)
		if err != nil {
			return nil, err
		}
		if err := s3.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		b.Repo = s3
	default:
		return nil, fmt.Errorf("store: unknown driver %q", cfg.Driver)
	}
	logger.Info("collection store ready", slog.String("driver", b.Driver))
	return b, nil
}

func closePool(pool *pgxpool.Pool) func() {
	return func() { pool.Close() }
}
