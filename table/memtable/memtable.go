// Package memtable is an in-memory table driver. It backs the core test
// suite and is usable as a real store for throwaway courses; semantics
// (key uniqueness, rows affected, missing tables, transactions) match the
// relational driver.
package memtable

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/jacentio/coursedb/record"
	"github.com/jacentio/coursedb/table"
)

// keySep joins key parts into map keys. Not a legal character in any key
// field class, so joined keys never collide.
const keySep = "\x1f"

// Driver holds every table's rows in process memory. One Driver models
// one store connection: a single transaction may be open at a time and
// all tables share it.
type Driver struct {
	mu   sync.Mutex
	data map[string]map[string]record.Row

	// snap is the pre-transaction copy of data; nil when no transaction
	// is open.
	snap map[string]map[string]record.Row
}

// New returns an empty driver with no tables. Create tables through the
// maintenance interface before use.
func New() *Driver {
	return &Driver{data: make(map[string]map[string]record.Row)}
}

// Table returns the executor for one schema.
func (d *Driver) Table(s table.Schema) table.Table {
	return &tbl{d: d, schema: s}
}

// Begin opens a transaction by snapshotting all tables.
func (d *Driver) Begin(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.snap != nil {
		return table.ErrTxOpen
	}
	d.snap = copyData(d.data)
	return nil
}

// Commit discards the snapshot, keeping all changes.
func (d *Driver) Commit(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.snap == nil {
		return table.ErrNoTx
	}
	d.snap = nil
	return nil
}

// Rollback restores the snapshot, discarding all changes.
func (d *Driver) Rollback(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.snap == nil {
		return table.ErrNoTx
	}
	d.data = d.snap
	d.snap = nil
	return nil
}

// Close drops all data.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.data = make(map[string]map[string]record.Row)
	d.snap = nil
	return nil
}

// --- Maintenance ---

// CreateTable creates an empty table. Creating an existing table is a
// no-op, matching CREATE TABLE IF NOT EXISTS.
func (d *Driver) CreateTable(ctx context.Context, s table.Schema) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.data[s.Name]; !ok {
		d.data[s.Name] = make(map[string]record.Row)
	}
	return nil
}

// DropTable removes the table and its rows.
func (d *Driver) DropTable(ctx context.Context, s table.Schema) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.data[s.Name]; !ok {
		return table.ErrMissingTable
	}
	delete(d.data, s.Name)
	return nil
}

// DumpTable writes the table's rows to <dir>/<name>.json.
func (d *Driver) DumpTable(ctx context.Context, s table.Schema, dir string) error {
	d.mu.Lock()
	rows, ok := d.data[s.Name]
	if !ok {
		d.mu.Unlock()
		return table.ErrMissingTable
	}
	out := make([]record.Row, 0, len(rows))
	for _, k := range sortedKeys(rows) {
		out = append(out, copyRow(rows[k]))
	}
	d.mu.Unlock()

	buf, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, s.Name+".json"), buf, 0o644)
}

// RestoreTable replaces the table's rows with those dumped to dir.
func (d *Driver) RestoreTable(ctx context.Context, s table.Schema, dir string) error {
	buf, err := os.ReadFile(filepath.Join(dir, s.Name+".json"))
	if err != nil {
		return err
	}
	var rows []record.Row
	if err := json.Unmarshal(buf, &rows); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	m := make(map[string]record.Row, len(rows))
	for _, row := range rows {
		norm := restoreRow(row, s)
		m[joinKey(keyOf(norm, s.KeyColumns))] = norm
	}
	d.data[s.Name] = m
	return nil
}

// restoreRow renormalizes a row read back from JSON, where every number
// decodes as float64, using the schema's column types.
func restoreRow(row record.Row, s table.Schema) record.Row {
	types := make(map[string]table.ColumnType, len(s.Columns))
	for _, c := range s.Columns {
		types[c.Name] = c.Type
	}
	out := make(record.Row, len(row))
	for k, v := range row {
		if f, ok := v.(float64); ok && types[k] == table.ColInt {
			out[k] = int64(f)
			continue
		}
		out[k] = normValue(v)
	}
	return out
}

// RenameTable moves the table under a new physical name.
func (d *Driver) RenameTable(ctx context.Context, s table.Schema, newName string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	rows, ok := d.data[s.Name]
	if !ok {
		return table.ErrMissingTable
	}
	if _, taken := d.data[newName]; taken {
		return fmt.Errorf("memtable: rename %s: %w", newName, table.ErrExists)
	}
	delete(d.data, s.Name)
	d.data[newName] = rows
	return nil
}

// --- Table executor ---

type tbl struct {
	d      *Driver
	schema table.Schema
}

// rows returns the live row map, or ErrMissingTable.
func (t *tbl) rows() (map[string]record.Row, error) {
	m, ok := t.d.data[t.schema.Name]
	if !ok {
		return nil, table.ErrMissingTable
	}
	return m, nil
}

func (t *tbl) Exists(ctx context.Context, key []string) (bool, error) {
	t.d.mu.Lock()
	defer t.d.mu.Unlock()
	m, err := t.rows()
	if err != nil {
		return false, err
	}
	_, ok := m[joinKey(key)]
	return ok, nil
}

func (t *tbl) GetMany(ctx context.Context, keys [][]string) ([]record.Row, error) {
	t.d.mu.Lock()
	defer t.d.mu.Unlock()
	m, err := t.rows()
	if err != nil {
		return nil, err
	}
	var out []record.Row
	for _, key := range keys {
		if row, ok := m[joinKey(key)]; ok {
			out = append(out, copyRow(row))
		}
	}
	return out, nil
}

func (t *tbl) Insert(ctx context.Context, row record.Row) error {
	t.d.mu.Lock()
	defer t.d.mu.Unlock()
	m, err := t.rows()
	if err != nil {
		return err
	}
	norm := normRow(row)
	k := joinKey(keyOf(norm, t.schema.KeyColumns))
	if _, ok := m[k]; ok {
		return table.ErrExists
	}
	m[k] = norm
	return nil
}

func (t *tbl) Update(ctx context.Context, row record.Row) (int64, error) {
	t.d.mu.Lock()
	defer t.d.mu.Unlock()
	m, err := t.rows()
	if err != nil {
		return 0, err
	}
	norm := normRow(row)
	k := joinKey(keyOf(norm, t.schema.KeyColumns))
	if _, ok := m[k]; !ok {
		return 0, nil
	}
	m[k] = norm
	return 1, nil
}

func (t *tbl) Delete(ctx context.Context, where table.Where) (int64, error) {
	t.d.mu.Lock()
	defer t.d.mu.Unlock()
	m, err := t.rows()
	if err != nil {
		return 0, err
	}
	var n int64
	for k, row := range m {
		if matches(row, where) {
			delete(m, k)
			n++
		}
	}
	return n, nil
}

func (t *tbl) Count(ctx context.Context, where table.Where) (int, error) {
	t.d.mu.Lock()
	defer t.d.mu.Unlock()
	m, err := t.rows()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, row := range m {
		if matches(row, where) {
			n++
		}
	}
	return n, nil
}

func (t *tbl) ListKeys(ctx context.Context, where table.Where, order table.Order) ([][]string, error) {
	rows, err := t.Records(ctx, where, order)
	if err != nil {
		return nil, err
	}
	keys := make([][]string, len(rows))
	for i, row := range rows {
		keys[i] = keyOf(row, t.schema.KeyColumns)
	}
	return keys, nil
}

func (t *tbl) Records(ctx context.Context, where table.Where, order table.Order) ([]record.Row, error) {
	t.d.mu.Lock()
	defer t.d.mu.Unlock()
	m, err := t.rows()
	if err != nil {
		return nil, err
	}
	var out []record.Row
	for _, row := range m {
		if matches(row, where) {
			out = append(out, copyRow(row))
		}
	}
	sortRows(out, order, t.schema.KeyColumns)
	return out, nil
}

func (t *tbl) FieldsWhere(ctx context.Context, fields []string, where table.Where, order table.Order) ([][]any, error) {
	rows, err := t.Records(ctx, where, order)
	if err != nil {
		return nil, err
	}
	out := make([][]any, len(rows))
	for i, row := range rows {
		vals := make([]any, len(fields))
		for j, f := range fields {
			vals[j] = row[f]
		}
		out[i] = vals
	}
	return out, nil
}

// --- helpers ---

func joinKey(parts []string) string {
	return strings.Join(parts, keySep)
}

func keyOf(row record.Row, keyCols []string) []string {
	key := make([]string, len(keyCols))
	for i, c := range keyCols {
		if v, ok := row[c].(string); ok {
			key[i] = v
		}
	}
	return key
}

// normRow copies a row, widening numeric values so stored values compare
// with == regardless of the width the caller used.
func normRow(row record.Row) record.Row {
	out := make(record.Row, len(row))
	for k, v := range row {
		out[k] = normValue(v)
	}
	return out
}

func normValue(v any) any {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case float32:
		return float64(n)
	default:
		return v
	}
}

func copyRow(row record.Row) record.Row {
	out := make(record.Row, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}

func copyData(data map[string]map[string]record.Row) map[string]map[string]record.Row {
	out := make(map[string]map[string]record.Row, len(data))
	for name, rows := range data {
		m := make(map[string]record.Row, len(rows))
		for k, row := range rows {
			m[k] = copyRow(row)
		}
		out[name] = m
	}
	return out
}

func matches(row record.Row, where table.Where) bool {
	for col, want := range where {
		if row[col] != normValue(want) {
			return false
		}
	}
	return true
}

func sortedKeys(rows map[string]record.Row) []string {
	keys := make([]string, 0, len(rows))
	for k := range rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// sortRows orders rows by the requested columns, falling back to the
// primary key so results are deterministic. String ordering is
// lexicographic; numeric columns compare numerically.
func sortRows(rows []record.Row, order table.Order, keyCols []string) {
	cols := append(append([]string{}, order...), keyCols...)
	sort.SliceStable(rows, func(i, j int) bool {
		for _, c := range cols {
			cmp := compareValues(rows[i][c], rows[j][c])
			if cmp != 0 {
				return cmp < 0
			}
		}
		return false
	})
}

func compareValues(a, b any) int {
	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv)
		}
	case int64:
		if bv, ok := b.(int64); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	case float64:
		if bv, ok := b.(float64); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case !av && bv:
				return -1
			case av && !bv:
				return 1
			}
			return 0
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
