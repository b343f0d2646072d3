// Package db opens the relational store and keeps its schema up to date
package db

import (
	"bitwise74/finance-api/model"
	"bitwise74/finance-api/util"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const defaultSQLitePath = "database.db"

var ErrUnknownDriver = errors.New("unknown database driver")

// New opens the database selected by driver and migrates all tables.
// Supported drivers are "sqlite", "postgres" and "memory".
func New(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch driver {
	case "sqlite":
		if dsn == "" {
			dsn = defaultSQLitePath
		}

		// If running in a docker container don't allow the sqlite file to be created.
		// The host should instead mount it using volumes
		if util.IsRunningInDocker() {
			if _, err := os.Stat(sqliteFile(dsn)); errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("SQLite database file not mounted, please use docker volumes to mount it to /app/%s", sqliteFile(dsn))
			}
		}

		dialector = sqlite.Open(withForeignKeys(dsn))
	case "postgres":
		if dsn == "" {
			return nil, errors.New("postgres requires database.dsn")
		}

		dialector = postgres.Open(dsn)
	case "memory":
		return NewInMemory("finance")
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}

	db, err := gorm.Open(dialector, config())
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database, %w", driver, err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// NewInMemory opens a private in-memory SQLite database. Every distinct name
// is a separate database. The pool is capped at one connection because each
// new SQLite connection to :memory: would otherwise see an empty database.
func NewInMemory(name string) (*gorm.DB, error) {
	name = strings.NewReplacer("/", "_", " ", "_").Replace(name)
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name)

	db, err := gorm.Open(sqlite.Open(dsn), config())
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database, %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		model.User{},
		model.Account{},
		model.ActivationToken{},
		model.RefreshToken{},
		model.Transaction{},
	)
	if err != nil {
		return fmt.Errorf("failed to automigrate tables, %w", err)
	}

	return nil
}

func config() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
		// SQLite compares timestamps as text so everything is stored in UTC
		NowFunc: func() time.Time { return time.Now().UTC() },
	}
}

func sqliteFile(dsn string) string {
	dsn = strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(dsn, '?'); i >= 0 {
		dsn = dsn[:i]
	}

	return dsn
}

// The cascade rules on the models only hold in SQLite when the pragma is on
func withForeignKeys(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys") || strings.Contains(dsn, "_fk") {
		return dsn
	}

	if strings.Contains(dsn, "?") {
		return dsn + "&_foreign_keys=on"
	}

	return dsn + "?_foreign_keys=on"
}
