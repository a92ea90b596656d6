// Package coursedb is the data-access layer of a learning-management
// backend: per-entity repositories over a relational store, referential
// cascades, versioned assignment snapshots for gateway tests, and merged
// views overlaying per-user overrides onto shared defaults.
//
// One DB owns one store connection. It is not safe to share a DB across
// goroutines without external serialization; the design assumes one
// instance per logical request or job.
package coursedb

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jacentio/coursedb/record"
	"github.com/jacentio/coursedb/table"
)

// Config configures a DB.
type Config struct {
	// TablePrefix is prepended to every entity name to form the physical
	// table name, typically "<course>_".
	TablePrefix string

	// Logger receives cascade, transaction and maintenance diagnostics.
	// Defaults to slog.Default.
	Logger *slog.Logger
}

// DB is the layer facade: one repository per registered entity plus the
// cascade, merge, version and transaction operations that span them.
type DB struct {
	driver table.Driver
	prefix string
	logger *slog.Logger
	repos  map[string]*Repo

	// now is the clock used for snapshot timestamps; replaced in tests.
	now func() time.Time
}

// Open builds the repositories for every registered entity, dependencies
// first, and returns the facade. Fails if the declared dependency graph
// cannot be ordered.
func Open(driver table.Driver, cfg Config) (*DB, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	db := &DB{
		driver: driver,
		prefix: cfg.TablePrefix,
		logger: logger,
		now:    time.Now,
	}
	if err := db.buildRepos(); err != nil {
		return nil, err
	}
	return db, nil
}

// Close releases the store connection.
func (db *DB) Close() error { return db.driver.Close() }

// Repo returns the repository for an entity name, or false if the entity
// is not registered.
func (db *DB) Repo(entity string) (*Repo, bool) {
	r, ok := db.repos[entity]
	return r, ok
}

// Typed repository accessors, one per registered entity.

func (db *DB) Users() *Repo                  { return db.repos[record.TypeUser] }
func (db *DB) Passwords() *Repo              { return db.repos[record.TypePassword] }
func (db *DB) PermissionLevels() *Repo       { return db.repos[record.TypePermission] }
func (db *DB) SessionKeys() *Repo            { return db.repos[record.TypeSessionKey] }
func (db *DB) GlobalSets() *Repo             { return db.repos[record.TypeGlobalSet] }
func (db *DB) UserSets() *Repo               { return db.repos[record.TypeUserSet] }
func (db *DB) SetVersions() *Repo            { return db.repos[record.TypeSetVersion] }
func (db *DB) GlobalProblems() *Repo         { return db.repos[record.TypeGlobalProblem] }
func (db *DB) UserProblems() *Repo           { return db.repos[record.TypeUserProblem] }
func (db *DB) ProblemVersions() *Repo        { return db.repos[record.TypeProblemVersion] }
func (db *DB) Achievements() *Repo           { return db.repos[record.TypeAchievement] }
func (db *DB) UserAchievements() *Repo       { return db.repos[record.TypeUserAchievement] }
func (db *DB) GlobalUserAchievements() *Repo { return db.repos[record.TypeGlobalUserAchievement] }
func (db *DB) Locations() *Repo              { return db.repos[record.TypeLocation] }
func (db *DB) LocationAddresses() *Repo      { return db.repos[record.TypeLocationAddress] }
func (db *DB) GlobalSetLocations() *Repo     { return db.repos[record.TypeGlobalSetLocation] }
func (db *DB) UserSetLocations() *Repo       { return db.repos[record.TypeUserSetLocation] }
func (db *DB) PastAnswers() *Repo            { return db.repos[record.TypePastAnswer] }

// Get fetches a record through r and returns it as its concrete type.
// Returns nil when the key is absent.
func Get[T any](ctx context.Context, r *Repo, key ...string) (*T, error) {
	rec, err := r.Get(ctx, key...)
	if err != nil || rec == nil {
		return nil, err
	}
	typed, ok := any(rec).(*T)
	if !ok {
		return nil, &Error{
			Kind:   KindValidation,
			Entity: r.d.Name,
			Key:    key,
			Msg:    "record type does not match requested type",
		}
	}
	return typed, nil
}

// AddPastAnswer appends one row to the answer log, allocating a fresh
// answer ID when the record carries none, and returns the ID.
func (db *DB) AddPastAnswer(ctx context.Context, a *record.PastAnswer) (string, error) {
	if a == nil {
		return "", &Error{Kind: KindValidation, Entity: record.TypePastAnswer, Msg: "nil record"}
	}
	if a.AnswerID == "" {
		a.AnswerID = uuid.NewString()
	}
	if a.Timestamp == 0 {
		a.Timestamp = db.now().Unix()
	}
	if err := db.PastAnswers().Add(ctx, a); err != nil {
		return "", err
	}
	return a.AnswerID, nil
}

// --- Transaction coordination ---

// StartTransaction opens a transaction on the shared connection. If one
// is already open the coordinator logs a warning, forces a rollback so
// the connection is not left stuck, and re-raises the failure.
func (db *DB) StartTransaction(ctx context.Context) error {
	err := db.driver.Begin(ctx)
	if err == nil {
		return nil
	}
	if errors.Is(err, table.ErrTxOpen) {
		db.logger.Warn("transaction already open, forcing rollback", "error", err)
		if rbErr := db.driver.Rollback(ctx); rbErr != nil {
			db.logger.Warn("forced rollback failed", "error", rbErr)
		}
	}
	return err
}

// EndTransaction commits. A failed commit is rolled back before the
// failure is re-raised, so the connection never holds a dead transaction.
func (db *DB) EndTransaction(ctx context.Context) error {
	err := db.driver.Commit(ctx)
	if err == nil {
		return nil
	}
	if rbErr := db.driver.Rollback(ctx); rbErr != nil {
		db.logger.Warn("rollback after failed commit failed", "error", rbErr)
	}
	return err
}

// AbortTransaction rolls back. Failure re-raises directly.
func (db *DB) AbortTransaction(ctx context.Context) error {
	return db.driver.Rollback(ctx)
}

// --- Whole-store maintenance ---

// maintainer returns the driver's maintenance interface, or logs the
// skip and returns false. Drivers without maintenance support make these
// operations non-fatal no-ops.
func (db *DB) maintainer(op string) (table.Maintainer, bool) {
	m, ok := db.driver.(table.Maintainer)
	if !ok {
		db.logger.Warn("driver does not support maintenance operation, skipping",
			"op", op)
	}
	return m, ok
}

// CreateAllTables creates the backing table of every registered entity.
func (db *DB) CreateAllTables(ctx context.Context) error {
	m, ok := db.maintainer("create")
	if !ok {
		return nil
	}
	for _, d := range descriptors {
		if err := m.CreateTable(ctx, d.schema(db.prefix)); err != nil {
			return err
		}
	}
	return nil
}

// DeleteAllTables drops the backing table of every registered entity.
// Missing tables are skipped with a warning.
func (db *DB) DeleteAllTables(ctx context.Context) error {
	m, ok := db.maintainer("drop")
	if !ok {
		return nil
	}
	for _, d := range descriptors {
		if err := m.DropTable(ctx, d.schema(db.prefix)); err != nil {
			if errors.Is(err, table.ErrMissingTable) {
				db.logger.Warn("table already missing, skipping drop", "table", d.schema(db.prefix).Name)
				continue
			}
			return err
		}
	}
	return nil
}

// DumpAllTables writes every table's rows into dir.
func (db *DB) DumpAllTables(ctx context.Context, dir string) error {
	m, ok := db.maintainer("dump")
	if !ok {
		return nil
	}
	for _, d := range descriptors {
		if err := m.DumpTable(ctx, d.schema(db.prefix), dir); err != nil {
			return err
		}
	}
	return nil
}

// RestoreAllTables reloads every table's rows from dir, replacing
// current contents.
func (db *DB) RestoreAllTables(ctx context.Context, dir string) error {
	m, ok := db.maintainer("restore")
	if !ok {
		return nil
	}
	for _, d := range descriptors {
		if err := m.RestoreTable(ctx, d.schema(db.prefix), dir); err != nil {
			return err
		}
	}
	return nil
}

// RenameAllTables moves every table under a new prefix and rebuilds the
// repositories against the new physical names.
func (db *DB) RenameAllTables(ctx context.Context, newPrefix string) error {
	m, ok := db.maintainer("rename")
	if !ok {
		return nil
	}
	for _, d := range descriptors {
		if err := m.RenameTable(ctx, d.schema(db.prefix), newPrefix+d.Name); err != nil {
			return err
		}
	}
	db.prefix = newPrefix
	return db.buildRepos()
}
