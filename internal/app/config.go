package app

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/mentordesk/mentordesk/internal/kyc"
	"github.com/mentordesk/mentordesk/internal/notify"
	"github.com/mentordesk/mentordesk/internal/store"
	"github.com/mentordesk/mentordesk/internal/store/s3store"
)

// Scheduler backends for delayed status progressions.
const (
	SchedulerTimer = "timer"
	SchedulerAsynq = "asynq"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	StoreDriver    string `envconfig:"STORE_DRIVER" default:"memory"`
	StoreNamespace string `envconfig:"STORE_NAMESPACE" default:"mentordesk"`
	StoreDir       string `envconfig:"STORE_DIR" default:"./data"`
	PGDSN          string `envconfig:"PG_DSN"`
	PGMaxConns     int32  `envconfig:"PG_MAX_CONNS" default:"4"`
	SQLitePath     string `envconfig:"SQLITE_PATH" default:"./data/mentordesk.db"`

	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY"`
	S3SecretKey string `envconfig:"S3_SECRET_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET"`
	S3UseSSL    bool   `envconfig:"S3_USE_SSL" default:"false"`
	S3Region    string `envconfig:"S3_REGION"`

	Scheduler           string        `envconfig:"SCHEDULER" default:"timer"`
	WorkerConcurrency   int           `envconfig:"WORKER_CONCURRENCY" default:"5"`
	ReplyDeliveredAfter time.Duration `envconfig:"REPLY_DELIVERED_AFTER" default:"400ms"`
	ReplyReadAfter      time.Duration `envconfig:"REPLY_READ_AFTER" default:"600ms"`
	RedeliveryAfter     time.Duration `envconfig:"REDELIVERY_AFTER" default:"800ms"`
	MenteeConfirmDelay  time.Duration `envconfig:"MENTEE_CONFIRM_DELAY" default:"800ms"`
	MenteeFailureRate   float64       `envconfig:"MENTEE_FAILURE_RATE" default:"0.1"`

	RateLimitPerMinute int   `envconfig:"RATE_LIMIT_PER_MINUTE" default:"120"`
	KYCMaxUpload       int64 `envconfig:"KYC_MAX_UPLOAD" default:"10485760"`
	NoticeCapacity     int   `envconfig:"NOTICE_CAPACITY" default:"50"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the driver specific requirements.
func (c *Config) Validate() error {
	var errs []error
	if !slices.Contains(store.Drivers, c.StoreDriver) {
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be one of %v, got %q", store.Drivers, c.StoreDriver))
	}
	switch c.StoreDriver {
	case store.DriverFile:
		if c.StoreDir == "" {
			errs = append(errs, errors.New("STORE_DIR is required for the file driver"))
		}
	case store.DriverPostgres:
		if c.PGDSN == "" {
			errs = append(errs, errors.New("PG_DSN is required for the postgres driver"))
		}
	case store.DriverSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required for the sqlite driver"))
		}
	case store.DriverRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required for the redis driver"))
		}
	case store.DriverS3:
		if c.S3Endpoint == "" || c.S3Bucket == "" {
			errs = append(errs, errors.New("S3_ENDPOINT and S3_BUCKET are required for the s3 driver"))
		}
	}
	switch c.Scheduler {
	case SchedulerTimer:
	case SchedulerAsynq:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required for the asynq scheduler"))
		}
	default:
		errs = append(errs, fmt.Errorf("SCHEDULER must be timer or asynq, got %q", c.Scheduler))
	}
	if c.MenteeFailureRate < 0 || c.MenteeFailureRate > 1 {
		errs = append(errs, fmt.Errorf("MENTEE_FAILURE_RATE must be within [0,1], got %v", c.MenteeFailureRate))
	}
	if c.RateLimitPerMinute <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_PER_MINUTE must be positive"))
	}
	if c.KYCMaxUpload <= 0 {
		c.KYCMaxUpload = kyc.DefaultMaxUpload
	}
	if c.NoticeCapacity <= 0 {
		c.NoticeCapacity = notify.DefaultCapacity
	}
	return errors.Join(errs...)
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// UsesRedis reports whether any component needs the redis client.
func (c *Config) UsesRedis() bool {
	return c.RedisAddr != ""
}

// StoreConfig maps the environment onto store.Open's configuration.
func (c *Config) StoreConfig() store.Config {
	return store.Config{
		Driver:     c.StoreDriver,
		Dir:        c.StoreDir,
		PGDSN:      c.PGDSN,
		PGMaxConns: c.PGMaxConns,
		SQLitePath: c.SQLitePath,
		S3: s3store.Config{
			Endpoint:  c.S3Endpoint,
			AccessKey: c.S3AccessKey,
			SecretKey: c.S3SecretKey,
			Bucket:    c.S3Bucket,
			Region:    c.S3Region,
			UseSSL:    c.S3UseSSL,
		},
	}
}
