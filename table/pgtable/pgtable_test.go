package pgtable

import (
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

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
		{Name: "f", Type: table.ColFloat},
		{Name: "ok", Type: table.ColBool},
	},
}

// --- SQL Generation ---

func TestBuildWhere(t *testing.T) {
	cond, args := buildWhere(nil)
	if cond != "" || args != nil {
		t.Errorf("empty where = %q, %v", cond, args)
	}

	// Sorted column order keeps the SQL stable across map iteration.
	cond, args = buildWhere(table.Where{"user_id": "alice", "set_id": "hw1"})
	want := ` WHERE "set_id" = $1 AND "user_id" = $2`
	if cond != want {
		t.Errorf("cond = %q, want %q", cond, want)
	}
	if len(args) != 2 || args[0] != "hw1" || args[1] != "alice" {
		t.Errorf("args = %v", args)
	}
}

func TestKeyWhere(t *testing.T) {
	tb := &tbl{schema: testSchema}
	cond, args := tb.keyWhere([]string{"x", "y"})
	if cond != `"a" = $1 AND "b" = $2` {
		t.Errorf("cond = %q", cond)
	}
	if len(args) != 2 || args[0] != "x" || args[1] != "y" {
		t.Errorf("args = %v", args)
	}
}

func TestOrderBy(t *testing.T) {
	tb := &tbl{schema: testSchema}

	if got := tb.orderBy(nil); got != ` ORDER BY "a", "b"` {
		t.Errorf("default order = %q", got)
	}
	// Requested columns come first; key columns trail as tiebreak,
	// deduplicated when already requested.
	if got := tb.orderBy(table.Order{"n", "a"}); got != ` ORDER BY "n", "a", "b"` {
		t.Errorf("order = %q", got)
	}
}

func TestSelectList(t *testing.T) {
	tb := &tbl{schema: testSchema}
	if got := tb.selectList(); got != `"a", "b", "n", "f", "ok"` {
		t.Errorf("select list = %q", got)
	}
}

func TestSQLType(t *testing.T) {
	tests := []struct {
		in   table.ColumnType
		want string
	}{
		{table.ColString, "TEXT"},
		{table.ColInt, "BIGINT"},
		{table.ColFloat, "DOUBLE PRECISION"},
		{table.ColBool, "BOOLEAN"},
	}
	for _, tt := range tests {
		if got := sqlType(tt.in); got != tt.want {
			t.Errorf("sqlType(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValueOrNil(t *testing.T) {
	row := record.Row{"a": "x"}
	if v := valueOrNil(row, "a"); v != "x" {
		t.Errorf("present column = %v", v)
	}
	if v := valueOrNil(row, "n"); v != nil {
		t.Errorf("absent column = %v, want nil", v)
	}
}

// --- Scan Plumbing ---

func TestScanRoundTrip(t *testing.T) {
	for _, ct := range []table.ColumnType{table.ColString, table.ColInt, table.ColFloat, table.ColBool} {
		dest := scanDest(ct)
		// A fresh dest is NULL; a NULL column must read back as absent.
		if v := scanValue(dest); v != nil {
			t.Errorf("null %v column = %v, want nil", ct, v)
		}
	}

	if v := scanValue(&sql.NullInt64{Int64: 7, Valid: true}); v != int64(7) {
		t.Errorf("int column = %v", v)
	}
	if v := scanValue(&sql.NullString{String: "hello", Valid: true}); v != "hello" {
		t.Errorf("string column = %v", v)
	}
	if v := scanValue(&sql.NullBool{Bool: true, Valid: true}); v != true {
		t.Errorf("bool column = %v", v)
	}
}

// --- Error Mapping ---

func TestMapError(t *testing.T) {
	if mapError(nil) != nil {
		t.Error("nil must stay nil")
	}

	dup := &pgconn.PgError{Code: "23505", Message: "duplicate key"}
	if !errors.Is(mapError(dup), table.ErrExists) {
		t.Error("23505 must map to ErrExists")
	}

	missing := &pgconn.PgError{Code: "42P01", Message: "relation does not exist"}
	if !errors.Is(mapError(missing), table.ErrMissingTable) {
		t.Error("42P01 must map to ErrMissingTable")
	}

	other := errors.New("connection reset")
	if mapError(other) != other {
		t.Error("unrelated errors must pass through unchanged")
	}
}

// --- Config ---

func TestConfigDSN(t *testing.T) {
	cfg := Config{
		Host: "db.example", Port: "5433",
		User: "ww", Password: "s3cret",
		Name: "math101", SSLMode: "require",
	}
	dsn := cfg.DSN()
	for _, part := range []string{"host=db.example", "port=5433", "user=ww", "password=s3cret", "dbname=math101", "sslmode=require"} {
		if !strings.Contains(dsn, part) {
			t.Errorf("dsn %q missing %q", dsn, part)
		}
	}
}
