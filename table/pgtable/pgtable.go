// Package pgtable is the PostgreSQL table driver, built on database/sql
// with the pgx stdlib driver. SQL is generated from the schema; the
// driver owns one connection so transaction control brackets the same
// session every repository uses.
package pgtable

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/jacentio/coursedb/record"
	"github.com/jacentio/coursedb/table"
)

// Driver executes against one PostgreSQL session.
type Driver struct {
	db   *sql.DB
	conn *sql.Conn
	tx   bool
}

// Open connects with the given DSN and pins a single session.
func Open(ctx context.Context, dsn string) (*Driver, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("pgtable: open: %w", err)
	}
	db.SetMaxOpenConns(1)
	conn, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("pgtable: connect: %w", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		db.Close()
		return nil, fmt.Errorf("pgtable: ping: %w", err)
	}
	return &Driver{db: db, conn: conn}, nil
}

// Table returns the executor for one schema.
func (d *Driver) Table(s table.Schema) table.Table {
	return &tbl{d: d, schema: s}
}

// Begin opens a transaction on the pinned session.
func (d *Driver) Begin(ctx context.Context) error {
	if d.tx {
		return table.ErrTxOpen
	}
	if _, err := d.conn.ExecContext(ctx, "BEGIN"); err != nil {
		return mapError(err)
	}
	d.tx = true
	return nil
}

// Commit commits the open transaction.
func (d *Driver) Commit(ctx context.Context) error {
	if !d.tx {
		return table.ErrNoTx
	}
	d.tx = false
	if _, err := d.conn.ExecContext(ctx, "COMMIT"); err != nil {
		return mapError(err)
	}
	return nil
}

// Rollback aborts the open transaction.
func (d *Driver) Rollback(ctx context.Context) error {
	if !d.tx {
		return table.ErrNoTx
	}
	d.tx = false
	if _, err := d.conn.ExecContext(ctx, "ROLLBACK"); err != nil {
		return mapError(err)
	}
	return nil
}

// Close releases the session and the pool behind it.
func (d *Driver) Close() error {
	err := d.conn.Close()
	if dbErr := d.db.Close(); err == nil {
		err = dbErr
	}
	return err
}

// --- Maintenance ---

func (d *Driver) CreateTable(ctx context.Context, s table.Schema) error {
	defs := make([]string, 0, len(s.Columns)+1)
	for _, c := range s.Columns {
		defs = append(defs, fmt.Sprintf("%s %s", quote(c.Name), sqlType(c.Type)))
	}
	defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", quoteAll(s.KeyColumns)))
	q := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quote(s.Name), strings.Join(defs, ", "))
	_, err := d.conn.ExecContext(ctx, q)
	return mapError(err)
}

func (d *Driver) DropTable(ctx context.Context, s table.Schema) error {
	_, err := d.conn.ExecContext(ctx, fmt.Sprintf("DROP TABLE %s", quote(s.Name)))
	return mapError(err)
}

func (d *Driver) DumpTable(ctx context.Context, s table.Schema, dir string) error {
	t := &tbl{d: d, schema: s}
	rows, err := t.Records(ctx, nil, nil)
	if err != nil {
		return err
	}
	buf, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, s.Name+".json"), buf, 0o644)
}

func (d *Driver) RestoreTable(ctx context.Context, s table.Schema, dir string) error {
	buf, err := os.ReadFile(filepath.Join(dir, s.Name+".json"))
	if err != nil {
		return err
	}
	var rows []record.Row
	if err := json.Unmarshal(buf, &rows); err != nil {
		return err
	}
	t := &tbl{d: d, schema: s}
	if _, err := t.Delete(ctx, nil); err != nil {
		return err
	}
	for _, row := range rows {
		if err := t.Insert(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver) RenameTable(ctx context.Context, s table.Schema, newName string) error {
	q := fmt.Sprintf("ALTER TABLE %s RENAME TO %s", quote(s.Name), quote(newName))
	_, err := d.conn.ExecContext(ctx, q)
	return mapError(err)
}

// --- Table executor ---

type tbl struct {
	d      *Driver
	schema table.Schema
}

func (t *tbl) Exists(ctx context.Context, key []string) (bool, error) {
	where, args := t.keyWhere(key)
	q := fmt.Sprintf("SELECT 1 FROM %s WHERE %s LIMIT 1", quote(t.schema.Name), where)
	var one int
	err := t.d.conn.QueryRowContext(ctx, q, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, mapError(err)
	}
	return true, nil
}

func (t *tbl) GetMany(ctx context.Context, keys [][]string) ([]record.Row, error) {
	var out []record.Row
	for _, key := range keys {
		where, args := t.keyWhere(key)
		q := fmt.Sprintf("SELECT %s FROM %s WHERE %s",
			t.selectList(), quote(t.schema.Name), where)
		rows, err := t.queryRows(ctx, q, args)
		if err != nil {
			return nil, err
		}
		out = append(out, rows...)
	}
	return out, nil
}

func (t *tbl) Insert(ctx context.Context, row record.Row) error {
	cols := make([]string, 0, len(t.schema.Columns))
	holders := make([]string, 0, len(t.schema.Columns))
	args := make([]any, 0, len(t.schema.Columns))
	for i, c := range t.schema.Columns {
		cols = append(cols, quote(c.Name))
		holders = append(holders, fmt.Sprintf("$%d", i+1))
		if v, ok := row[c.Name]; ok {
			args = append(args, v)
		} else {
			args = append(args, nil)
		}
	}
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quote(t.schema.Name), strings.Join(cols, ", "), strings.Join(holders, ", "))
	_, err := t.d.conn.ExecContext(ctx, q, args...)
	return mapError(err)
}

func (t *tbl) Update(ctx context.Context, row record.Row) (int64, error) {
	isKey := make(map[string]bool, len(t.schema.KeyColumns))
	for _, k := range t.schema.KeyColumns {
		isKey[k] = true
	}
	var sets []string
	var args []any
	for _, c := range t.schema.Columns {
		if isKey[c.Name] {
			continue
		}
		args = append(args, valueOrNil(row, c.Name))
		sets = append(sets, fmt.Sprintf("%s = $%d", quote(c.Name), len(args)))
	}
	var conds []string
	for _, k := range t.schema.KeyColumns {
		args = append(args, valueOrNil(row, k))
		conds = append(conds, fmt.Sprintf("%s = $%d", quote(k), len(args)))
	}
	q := fmt.Sprintf("UPDATE %s SET %s WHERE %s",
		quote(t.schema.Name), strings.Join(sets, ", "), strings.Join(conds, " AND "))
	res, err := t.d.conn.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, mapError(err)
	}
	return res.RowsAffected()
}

func (t *tbl) Delete(ctx context.Context, where table.Where) (int64, error) {
	cond, args := buildWhere(where)
	q := fmt.Sprintf("DELETE FROM %s%s", quote(t.schema.Name), cond)
	res, err := t.d.conn.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, mapError(err)
	}
	return res.RowsAffected()
}

func (t *tbl) Count(ctx context.Context, where table.Where) (int, error) {
	cond, args := buildWhere(where)
	q := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", quote(t.schema.Name), cond)
	var n int
	if err := t.d.conn.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, mapError(err)
	}
	return n, nil
}

func (t *tbl) ListKeys(ctx context.Context, where table.Where, order table.Order) ([][]string, error) {
	cond, args := buildWhere(where)
	q := fmt.Sprintf("SELECT %s FROM %s%s%s",
		quoteAll(t.schema.KeyColumns), quote(t.schema.Name), cond, t.orderBy(order))
	rows, err := t.d.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		key := make([]string, len(t.schema.KeyColumns))
		dest := make([]any, len(key))
		for i := range key {
			dest[i] = &key[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, mapError(err)
		}
		out = append(out, key)
	}
	return out, rows.Err()
}

func (t *tbl) Records(ctx context.Context, where table.Where, order table.Order) ([]record.Row, error) {
	cond, args := buildWhere(where)
	q := fmt.Sprintf("SELECT %s FROM %s%s%s",
		t.selectList(), quote(t.schema.Name), cond, t.orderBy(order))
	return t.queryRows(ctx, q, args)
}

func (t *tbl) FieldsWhere(ctx context.Context, fields []string, where table.Where, order table.Order) ([][]any, error) {
	types := make(map[string]table.ColumnType, len(t.schema.Columns))
	for _, c := range t.schema.Columns {
		types[c.Name] = c.Type
	}
	cond, args := buildWhere(where)
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = quote(f)
	}
	q := fmt.Sprintf("SELECT %s FROM %s%s%s",
		strings.Join(quoted, ", "), quote(t.schema.Name), cond, t.orderBy(order))
	rows, err := t.d.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out [][]any
	for rows.Next() {
		dest := make([]any, len(fields))
		for i, f := range fields {
			dest[i] = scanDest(types[f])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, mapError(err)
		}
		vals := make([]any, len(fields))
		for i := range dest {
			vals[i] = scanValue(dest[i])
		}
		out = append(out, vals)
	}
	return out, rows.Err()
}

// queryRows runs a select over the full column list and decodes each row,
// dropping NULL columns so pointer fields stay unset.
func (t *tbl) queryRows(ctx context.Context, q string, args []any) ([]record.Row, error) {
	rows, err := t.d.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []record.Row
	for rows.Next() {
		dest := make([]any, len(t.schema.Columns))
		for i, c := range t.schema.Columns {
			dest[i] = scanDest(c.Type)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, mapError(err)
		}
		row := make(record.Row, len(dest))
		for i, c := range t.schema.Columns {
			if v := scanValue(dest[i]); v != nil {
				row[c.Name] = v
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (t *tbl) selectList() string {
	cols := make([]string, len(t.schema.Columns))
	for i, c := range t.schema.Columns {
		cols[i] = quote(c.Name)
	}
	return strings.Join(cols, ", ")
}

func (t *tbl) keyWhere(key []string) (string, []any) {
	conds := make([]string, len(t.schema.KeyColumns))
	args := make([]any, len(t.schema.KeyColumns))
	for i, k := range t.schema.KeyColumns {
		conds[i] = fmt.Sprintf("%s = $%d", quote(k), i+1)
		if i < len(key) {
			args[i] = key[i]
		}
	}
	return strings.Join(conds, " AND "), args
}

func (t *tbl) orderBy(order table.Order) string {
	cols := append(append([]string{}, order...), t.schema.KeyColumns...)
	quoted := make([]string, 0, len(cols))
	seen := make(map[string]bool, len(cols))
	for _, c := range cols {
		if seen[c] {
			continue
		}
		seen[c] = true
		quoted = append(quoted, quote(c))
	}
	return " ORDER BY " + strings.Join(quoted, ", ")
}

// buildWhere renders an equality conjunction in sorted column order so
// generated SQL is stable.
func buildWhere(where table.Where) (string, []any) {
	if len(where) == 0 {
		return "", nil
	}
	cols := make([]string, 0, len(where))
	for c := range where {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	conds := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, c := range cols {
		conds[i] = fmt.Sprintf("%s = $%d", quote(c), i+1)
		args[i] = where[c]
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func valueOrNil(row record.Row, col string) any {
	if v, ok := row[col]; ok {
		return v
	}
	return nil
}

func scanDest(t table.ColumnType) any {
	switch t {
	case table.ColInt:
		return &sql.NullInt64{}
	case table.ColFloat:
		return &sql.NullFloat64{}
	case table.ColBool:
		return &sql.NullBool{}
	default:
		return &sql.NullString{}
	}
}

func scanValue(dest any) any {
	switch v := dest.(type) {
	case *sql.NullInt64:
		if v.Valid {
			return v.Int64
		}
	case *sql.NullFloat64:
		if v.Valid {
			return v.Float64
		}
	case *sql.NullBool:
		if v.Valid {
			return v.Bool
		}
	case *sql.NullString:
		if v.Valid {
			return v.String
		}
	}
	return nil
}

func sqlType(t table.ColumnType) string {
	switch t {
	case table.ColInt:
		return "BIGINT"
	case table.ColFloat:
		return "DOUBLE PRECISION"
	case table.ColBool:
		return "BOOLEAN"
	default:
		return "TEXT"
	}
}

func quote(ident string) string {
	return `"` + ident + `"`
}

func quoteAll(idents []string) string {
	quoted := make([]string, len(idents))
	for i, id := range idents {
		quoted[i] = quote(id)
	}
	return strings.Join(quoted, ", ")
}

// mapError translates the store's duplicate-key and missing-table
// conditions into the collaborator-owned sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("pgtable: %s: %w", pgErr.Message, table.ErrExists)
		case "42P01":
			return fmt.Errorf("pgtable: %s: %w", pgErr.Message, table.ErrMissingTable)
		}
	}
	return err
}
