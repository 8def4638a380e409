package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go-pos-billing/internal/apperr"
	"go-pos-billing/internal/config"
	"go-pos-billing/internal/models"

	"github.com/cenkalti/backoff/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Options controls how the store is opened and seeded.
type Options struct {
	Driver string // "sqlite" (default) or "mysql"
	Path   string // sqlite file
	DSN    string // mysql DSN
	SQLLog bool

	AdminUsername string
	AdminPassword string

	Now models.Clock
}

// OptionsFromConfig maps process config onto store options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Driver:        cfg.DBDriver,
		Path:          cfg.DBPath,
		DSN:           cfg.DBDSN,
		SQLLog:        cfg.SQLLog,
		AdminUsername: cfg.AdminUsername,
		AdminPassword: cfg.AdminPassword,
	}
}

// Store is the single transactional entry point to the relational substrate.
// Writers are serialized in-process; readers use DB() and see committed state.
type Store struct {
	db      *gorm.DB
	log     *logrus.Entry
	now     models.Clock
	writeMu sync.Mutex
}

// Open connects, bootstraps the schema and seeds defaults.
func Open(ctx context.Context, opts Options, logg *logrus.Logger) (*Store, error) {
	if opts.Now == nil {
		opts.Now = models.SystemClock
	}
	dialector, err := newDialector(opts)
	if err != nil {
		return nil, err
	}

	level := logger.Error
	if opts.SQLLog {
		level = logger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(log.New(os.Stdout, "\r\n", log.LstdFlags), logger.Config{
			Colorful:      false,
			LogLevel:      level,
			SlowThreshold: time.Second,
		}),
		TranslateError: true,
		NowFunc: func() time.Time {
			return models.Instant(opts.Now())
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{
		db:  db,
		log: logg.WithField("module", "database"),
		now: opts.Now,
	}
	if err := s.Bootstrap(ctx, opts); err != nil {
		_ = s.Close()
		return nil, err
	}
	s.log.WithField("driver", driverName(opts)).Info("database ready")
	return s, nil
}

func newDialector(opts Options) (gorm.Dialector, error) {
	switch driverName(opts) {
	case "sqlite":
		if strings.TrimSpace(opts.Path) == "" {
			return nil, fmt.Errorf("storage path is required")
		}
		dsn := filepath.Clean(opts.Path) + "?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate"
		return sqlite.Open(dsn), nil
	case "mysql":
		if strings.TrimSpace(opts.DSN) == "" {
			return nil, fmt.Errorf("mysql DSN is required")
		}
		return mysql.Open(opts.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported driver %q", opts.Driver)
	}
}

func driverName(opts Options) string {
	if opts.Driver == "" {
		return "sqlite"
	}
	return opts.Driver
}

// Bootstrap creates the schema idempotently, seeds missing settings and, on
// first run, a single administrative identity.
func (s *Store) Bootstrap(ctx context.Context, opts Options) error {
	if err := s.db.WithContext(ctx).AutoMigrate(models.All()...); err != nil {
		return apperr.Wrap(apperr.KindStorage, "database.Bootstrap", err)
	}

	return s.Run(ctx, func(tx *gorm.DB) error {
		now := models.Instant(s.now())
		for _, def := range models.DefaultSettings {
			row := models.Setting{Key: def.Key, Value: def.Value, UpdatedAt: now, UpdatedBy: "system"}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
				return err
			}
		}

		var users int64
		if err := tx.Model(&models.User{}).Count(&users).Error; err != nil {
			return err
		}
		if users > 0 || opts.AdminUsername == "" {
			return nil
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(opts.AdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		s.log.WithField("username", opts.AdminUsername).Info("seeding administrative identity")
		return tx.Create(&models.User{
			Username:     opts.AdminUsername,
			PasswordHash: string(hash),
			Role:         models.RoleAdmin,
			CreatedAt:    now,
		}).Error
	})
}

// DB returns a handle for reads outside a unit of work.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Now returns the store clock reading normalized to UTC seconds.
func (s *Store) Now() time.Time {
	return models.Instant(s.now())
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Run executes fn inside one transaction. Any returned error discards every
// write; on success the writes are durable before Run returns. fn must use the
// tx it is given and must not call Run itself.
func (s *Store) Run(ctx context.Context, fn func(tx *gorm.DB) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return classify(s.db.WithContext(ctx).Transaction(fn))
}

// RunWithRetry repeats Run with exponential backoff while the failure is a
// numbering conflict or a storage error, up to limit attempts. A numbering
// conflict that survives every attempt becomes numbering-exhausted.
func (s *Store) RunWithRetry(ctx context.Context, limit int, fn func(tx *gorm.DB) error) error {
	if limit < 1 {
		limit = 1
	}
	attempt := 0
	operation := func() (struct{}, error) {
		attempt++
		err := s.Run(ctx, fn)
		if err == nil {
			return struct{}{}, nil
		}
		if retryable(err) && attempt < limit {
			s.log.WithFields(logrus.Fields{
				"attempt": attempt,
				"limit":   limit,
			}).WithError(err).Warn("unit of work failed, retrying")
			return struct{}{}, err
		}
		return struct{}{}, backoff.Permanent(err)
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(newBackOff()),
		backoff.WithMaxTries(uint(limit)),
	)
	if err != nil && errors.Is(err, apperr.ErrNumberingConflict) {
		return &apperr.Error{
			Kind:    apperr.KindNumberingExhausted,
			Op:      "database.RunWithRetry",
			Message: apperr.MsgNumberingExhausted,
			Err:     err,
		}
	}
	return err
}

func newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 10 * time.Millisecond
	b.Multiplier = 2
	b.MaxInterval = 500 * time.Millisecond
	return b
}

func retryable(err error) bool {
	switch apperr.KindOf(err) {
	case apperr.KindNumberingConflict, apperr.KindStorage:
		return true
	default:
		return false
	}
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	if apperr.KindOf(err) != "" {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return apperr.Wrap(apperr.KindStorage, "database.Run", err)
}

// IsDuplicateKey reports a unique-constraint collision on any driver.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "Duplicate entry")
}

// Lookup translates a gorm read error: missing rows become not-found, anything
// else is storage.
func Lookup(err error, op, entity string, id any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(op, entity, id)
	}
	return apperr.Wrap(apperr.KindStorage, op, err)
}
