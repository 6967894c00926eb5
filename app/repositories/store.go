package repositories

import (
	"errors"
	"fmt"
	"io"

	"github.com/dgraph-io/badger/v4"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Storage drivers accepted by Open.
const (
	DriverBadger   = "badger"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

var ErrBackupUnsupported = errors.New("backup and restore need the badger driver")

// Store bundles the repositories of one storage backend.
type Store struct {
	Posts      PostRepository
	Categories CategoryRepository
	Authors    AuthorRepository

	badger *badger.DB
	gorm   *gorm.DB
}

// Open opens the backend named by driver. For badger, dsn is the data directory and an
// empty dsn keeps everything in memory.
func Open(driver, dsn string) (*Store, error) {
	switch driver {
	case DriverBadger, "":
		return OpenBadger(dsn)
	case DriverSQLite, DriverPostgres, DriverMySQL:
		return OpenSQL(driver, dsn)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}

// OpenBadger opens an embedded badger store at path.
func OpenBadger(path string) (*Store, error) {
	opts := badger.DefaultOptions(path).
		WithLogger(nil).
		WithNumVersionsToKeep(1)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at %q: %w", path, err)
	}
	return NewBadgerStore(db), nil
}

// NewBadgerStore wraps an open badger database.
func NewBadgerStore(db *badger.DB) *Store {
	return &Store{
		Posts:      NewBadgerPostRepository(db),
		Categories: NewBadgerCategoryRepository(db),
		Authors:    NewBadgerAuthorRepository(db),
		badger:     db,
	}
}

// OpenSQL opens a SQL database through gorm and migrates the schema.
func OpenSQL(driver, dsn string) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	case DriverMySQL:
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unknown sql driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}
	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate %s: %w", driver, err)
	}
	return NewGormStore(db), nil
}

// NewGormStore wraps an open, migrated gorm connection.
func NewGormStore(db *gorm.DB) *Store {
	return &Store{
		Posts:      NewGormPostRepository(db),
		Categories: NewGormCategoryRepository(db),
		Authors:    NewGormAuthorRepository(db),
		gorm:       db,
	}
}

// Backup streams a full badger backup to w.
func (s *Store) Backup(w io.Writer) error {
	if s.badger == nil {
		return ErrBackupUnsupported
	}
	_, err := s.badger.Backup(w, 0)
	return err
}

// Restore loads a badger backup produced by Backup.
func (s *Store) Restore(r io.Reader) error {
	if s.badger == nil {
		return ErrBackupUnsupported
	}
	return s.badger.Load(r, 16)
}

// Close releases the underlying database.
func (s *Store) Close() error {
	if s.badger != nil {
		return s.badger.Close()
	}
	if s.gorm != nil {
		sqlDB, err := s.gorm.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}
