// Package table defines the contract coursedb requires from the
// table-execution layer that physically runs queries against the store.
// Drivers implement it per backing store; the core never builds SQL or
// touches a connection itself.
package table

import (
	"context"

	"github.com/jacentio/coursedb/record"
)

// ColumnType is the storage type of one column, as far as drivers need
// to distinguish them.
type ColumnType int

const (
	ColString ColumnType = iota
	ColInt
	ColFloat
	ColBool
)

// Column is one column of a schema.
type Column struct {
	Name string
	Type ColumnType
}

// Schema describes the physical shape of one entity's table.
type Schema struct {
	// Name is the physical table name.
	Name string

	// KeyColumns are the primary key columns, in declared order. Key
	// columns are always strings.
	KeyColumns []string

	// Columns are all columns, key columns first.
	Columns []Column
}

// Where is an equality conjunction over columns. A nil or empty Where
// matches every row.
type Where map[string]any

// Order lists columns to sort by, ascending, in priority order.
type Order []string

// Table executes operations against one entity's backing table. All
// methods are synchronous, blocking calls; the driver owns retries (it
// performs none) and connection state.
type Table interface {
	// Exists reports whether a row with the given primary key is present.
	Exists(ctx context.Context, key []string) (bool, error)

	// GetMany returns the rows for the given keys. Absent keys are simply
	// omitted; input order is not preserved.
	GetMany(ctx context.Context, keys [][]string) ([]record.Row, error)

	// Insert stores a new row. Returns ErrExists if the key is taken.
	Insert(ctx context.Context, row record.Row) error

	// Update rewrites the row with the matching key, returning the number
	// of rows affected (0 when no row matched).
	Update(ctx context.Context, row record.Row) (int64, error)

	// Delete removes all rows matching where, returning the count removed.
	Delete(ctx context.Context, where Where) (int64, error)

	// Count returns the number of rows matching where.
	Count(ctx context.Context, where Where) (int, error)

	// ListKeys returns the primary keys of rows matching where.
	ListKeys(ctx context.Context, where Where, order Order) ([][]string, error)

	// Records returns the full rows matching where.
	Records(ctx context.Context, where Where, order Order) ([]record.Row, error)

	// FieldsWhere returns only the named columns of rows matching where,
	// one value slice per row, in the order the columns were requested.
	FieldsWhere(ctx context.Context, fields []string, where Where, order Order) ([][]any, error)
}

// Driver opens tables and owns the single shared connection, including
// its transaction state.
type Driver interface {
	// Table returns the executor for one schema. Cheap; may be called
	// once per entity at registry init.
	Table(Schema) Table

	// Begin opens a transaction on the shared connection. Returns
	// ErrTxOpen if one is already open.
	Begin(ctx context.Context) error

	// Commit commits the open transaction. Returns ErrNoTx if none is open.
	Commit(ctx context.Context) error

	// Rollback aborts the open transaction. Returns ErrNoTx if none is open.
	Rollback(ctx context.Context) error

	// Close releases the connection.
	Close() error
}

// Maintainer is implemented by drivers that support whole-table
// maintenance. Drivers without it are skipped (with a warning) by the
// bulk maintenance operations.
type Maintainer interface {
	CreateTable(ctx context.Context, s Schema) error
	DropTable(ctx context.Context, s Schema) error

	// DumpTable writes every row of the table into dir, in a form
	// RestoreTable can read back.
	DumpTable(ctx context.Context, s Schema, dir string) error

	// RestoreTable loads previously dumped rows from dir, replacing the
	// table's current contents.
	RestoreTable(ctx context.Context, s Schema, dir string) error

	// RenameTable moves the table to a new physical name.
	RenameTable(ctx context.Context, s Schema, newName string) error
}
