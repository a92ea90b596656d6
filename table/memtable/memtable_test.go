package memtable

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jacentio/coursedb/record"
	"github.com/jacentio/coursedb/table"
)

var testSchema = table.Schema{
	Name:       "t_thing",
	KeyColumns: []string{"a", "b"},
	Columns: []table.Column{
		{Name: "a", Type: table.ColString},
		{Name: "b", Type: table.ColString},
		{Name: "n", Type: table.ColInt},
		{Name: "note", Type: table.ColString},
	},
}

func newTable(t *testing.T) (*Driver, table.Table) {
	t.Helper()
	d := New()
	if err := d.CreateTable(context.Background(), testSchema); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	return d, d.Table(testSchema)
}

func mustInsert(t *testing.T, tb table.Table, rows ...record.Row) {
	t.Helper()
	for _, row := range rows {
		if err := tb.Insert(context.Background(), row); err != nil {
			t.Fatalf("Insert %v: %v", row, err)
		}
	}
}

// --- CRUD ---

func TestInsertAndExists(t *testing.T) {
	_, tb := newTable(t)
	ctx := context.Background()
	mustInsert(t, tb, record.Row{"a": "x", "b": "y", "n": 1})

	ok, err := tb.Exists(ctx, []string{"x", "y"})
	if err != nil || !ok {
		t.Errorf("Exists = %v, %v, want true", ok, err)
	}
	ok, _ = tb.Exists(ctx, []string{"x", "z"})
	if ok {
		t.Error("Exists for absent key")
	}
}

func TestInsert_Duplicate(t *testing.T) {
	_, tb := newTable(t)
	mustInsert(t, tb, record.Row{"a": "x", "b": "y"})

	err := tb.Insert(context.Background(), record.Row{"a": "x", "b": "y"})
	if !errors.Is(err, table.ErrExists) {
		t.Errorf("expected ErrExists, got %v", err)
	}
}

func TestUpdate_RowsAffected(t *testing.T) {
	_, tb := newTable(t)
	ctx := context.Background()
	mustInsert(t, tb, record.Row{"a": "x", "b": "y", "n": 1})

	n, err := tb.Update(ctx, record.Row{"a": "x", "b": "y", "n": 2})
	if err != nil || n != 1 {
		t.Errorf("Update existing = %d, %v, want 1 row", n, err)
	}
	n, err = tb.Update(ctx, record.Row{"a": "x", "b": "z", "n": 2})
	if err != nil || n != 0 {
		t.Errorf("Update absent = %d, %v, want 0 rows", n, err)
	}
}

func TestDelete_Where(t *testing.T) {
	_, tb := newTable(t)
	ctx := context.Background()
	mustInsert(t, tb,
		record.Row{"a": "x", "b": "1"},
		record.Row{"a": "x", "b": "2"},
		record.Row{"a": "y", "b": "1"},
	)

	n, err := tb.Delete(ctx, table.Where{"a": "x"})
	if err != nil || n != 2 {
		t.Fatalf("Delete = %d, %v, want 2 rows", n, err)
	}
	count, _ := tb.Count(ctx, nil)
	if count != 1 {
		t.Errorf("remaining rows = %d, want 1", count)
	}
}

func TestMissingTable(t *testing.T) {
	d := New()
	tb := d.Table(testSchema)

	_, err := tb.Exists(context.Background(), []string{"x", "y"})
	if !errors.Is(err, table.ErrMissingTable) {
		t.Errorf("expected ErrMissingTable, got %v", err)
	}
}

// --- Value Normalization ---

func TestWhere_NumericWidths(t *testing.T) {
	_, tb := newTable(t)
	ctx := context.Background()
	mustInsert(t, tb, record.Row{"a": "x", "b": "y", "n": 7})

	// The caller's int and the stored int64 must compare equal.
	n, err := tb.Count(ctx, table.Where{"n": 7})
	if err != nil || n != 1 {
		t.Errorf("Count with int where = %d, %v, want 1", n, err)
	}
	n, _ = tb.Count(ctx, table.Where{"n": int64(7)})
	if n != 1 {
		t.Errorf("Count with int64 where = %d, want 1", n)
	}
}

// --- Ordering ---

func TestRecords_Order(t *testing.T) {
	_, tb := newTable(t)
	ctx := context.Background()
	mustInsert(t, tb,
		record.Row{"a": "x", "b": "2", "n": 3},
		record.Row{"a": "x", "b": "1", "n": 5},
		record.Row{"a": "w", "b": "9", "n": 5},
	)

	rows, err := tb.Records(ctx, nil, table.Order{"n"})
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d", len(rows))
	}
	if rows[0]["n"] != int64(3) {
		t.Errorf("expected n=3 first, got %v", rows[0])
	}
	// Equal sort values fall back to key order.
	if rows[1]["a"] != "w" || rows[2]["b"] != "1" {
		t.Errorf("key tiebreak: %v, %v", rows[1], rows[2])
	}
}

func TestListKeys(t *testing.T) {
	_, tb := newTable(t)
	mustInsert(t, tb,
		record.Row{"a": "x", "b": "2"},
		record.Row{"a": "x", "b": "1"},
	)

	keys, err := tb.ListKeys(context.Background(), table.Where{"a": "x"}, nil)
	if err != nil {
		t.Fatalf("ListKeys: %v", err)
	}
	if len(keys) != 2 || keys[0][1] != "1" || keys[1][1] != "2" {
		t.Errorf("keys = %v", keys)
	}
}

func TestGetMany_PreservesRequestOrder(t *testing.T) {
	_, tb := newTable(t)
	mustInsert(t, tb,
		record.Row{"a": "x", "b": "1", "note": "first"},
		record.Row{"a": "x", "b": "2", "note": "second"},
	)

	rows, err := tb.GetMany(context.Background(), [][]string{{"x", "2"}, {"x", "missing"}, {"x", "1"}})
	if err != nil {
		t.Fatalf("GetMany: %v", err)
	}
	if len(rows) != 2 || rows[0]["note"] != "second" || rows[1]["note"] != "first" {
		t.Errorf("rows = %v", rows)
	}
}

func TestFieldsWhere(t *testing.T) {
	_, tb := newTable(t)
	mustInsert(t, tb, record.Row{"a": "x", "b": "1", "n": 4, "note": "hi"})

	vals, err := tb.FieldsWhere(context.Background(), []string{"note", "n"}, nil, nil)
	if err != nil {
		t.Fatalf("FieldsWhere: %v", err)
	}
	if len(vals) != 1 || vals[0][0] != "hi" || vals[0][1] != int64(4) {
		t.Errorf("vals = %v", vals)
	}
}

// --- Mutation Isolation ---

func TestRecords_CopiesRows(t *testing.T) {
	_, tb := newTable(t)
	ctx := context.Background()
	mustInsert(t, tb, record.Row{"a": "x", "b": "1", "note": "orig"})

	rows, _ := tb.Records(ctx, nil, nil)
	rows[0]["note"] = "scribbled"

	again, _ := tb.Records(ctx, nil, nil)
	if again[0]["note"] != "orig" {
		t.Error("caller mutation reached stored row")
	}
}

// --- Transactions ---

func TestTransaction(t *testing.T) {
	d, tb := newTable(t)
	ctx := context.Background()

	if err := d.Begin(ctx); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := d.Begin(ctx); !errors.Is(err, table.ErrTxOpen) {
		t.Errorf("second Begin = %v, want ErrTxOpen", err)
	}
	mustInsert(t, tb, record.Row{"a": "x", "b": "1"})
	if err := d.Rollback(ctx); err != nil {
		t.Fatalf("Rollback: %v", err)
	}

	ok, _ := tb.Exists(ctx, []string{"x", "1"})
	if ok {
		t.Error("rollback kept the insert")
	}
	if err := d.Commit(ctx); !errors.Is(err, table.ErrNoTx) {
		t.Errorf("Commit without tx = %v, want ErrNoTx", err)
	}
}

// --- Maintenance ---

func TestDumpRestore(t *testing.T) {
	d, tb := newTable(t)
	ctx := context.Background()
	mustInsert(t, tb, record.Row{"a": "x", "b": "1", "n": 42, "note": "keep"})

	dir := t.TempDir()
	if err := d.DumpTable(ctx, testSchema, dir); err != nil {
		t.Fatalf("DumpTable: %v", err)
	}

	// The dump is plain JSON rows.
	buf, err := os.ReadFile(filepath.Join(dir, "t_thing.json"))
	if err != nil {
		t.Fatalf("read dump: %v", err)
	}
	var dumped []record.Row
	if err := json.Unmarshal(buf, &dumped); err != nil {
		t.Fatalf("dump is not json: %v", err)
	}
	if len(dumped) != 1 {
		t.Fatalf("dumped rows = %d", len(dumped))
	}

	if _, err := tb.Delete(ctx, nil); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := d.RestoreTable(ctx, testSchema, dir); err != nil {
		t.Fatalf("RestoreTable: %v", err)
	}

	rows, _ := tb.Records(ctx, nil, nil)
	if len(rows) != 1 || rows[0]["note"] != "keep" {
		t.Fatalf("restored rows = %v", rows)
	}
	// Restored integers must compare like stored ones.
	n, _ := tb.Count(ctx, table.Where{"n": 42})
	if n != 1 {
		t.Error("restored numeric column does not match int where")
	}
}

func TestRenameTable(t *testing.T) {
	d, tb := newTable(t)
	ctx := context.Background()
	mustInsert(t, tb, record.Row{"a": "x", "b": "1"})

	renamed := testSchema
	renamed.Name = "t2_thing"
	if err := d.RenameTable(ctx, testSchema, "t2_thing"); err != nil {
		t.Fatalf("RenameTable: %v", err)
	}

	ok, _ := d.Table(renamed).Exists(ctx, []string{"x", "1"})
	if !ok {
		t.Error("row unreachable under new name")
	}
	_, err := tb.Exists(ctx, []string{"x", "1"})
	if !errors.Is(err, table.ErrMissingTable) {
		t.Errorf("old name should be gone, got %v", err)
	}
}

func TestRenameTable_TargetTaken(t *testing.T) {
	d, _ := newTable(t)
	ctx := context.Background()

	other := testSchema
	other.Name = "t2_thing"
	if err := d.CreateTable(ctx, other); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	err := d.RenameTable(ctx, testSchema, "t2_thing")
	if !errors.Is(err, table.ErrExists) {
		t.Errorf("expected ErrExists, got %v", err)
	}
}

func TestCreateTable_Idempotent(t *testing.T) {
	d, tb := newTable(t)
	ctx := context.Background()
	mustInsert(t, tb, record.Row{"a": "x", "b": "1"})

	if err := d.CreateTable(ctx, testSchema); err != nil {
		t.Fatalf("re-create: %v", err)
	}
	ok, _ := tb.Exists(ctx, []string{"x", "1"})
	if !ok {
		t.Error("re-create dropped existing rows")
	}
}
