package coursedb

import (
	"context"
	"errors"
	"fmt"

	"github.com/jacentio/coursedb/record"
	"github.com/jacentio/coursedb/table"
)

// Repo is the uniform per-entity accessor set. One instance per entity,
// built by the registry from the entity's descriptor; persistence is
// delegated to the table executor, dependency checks to the parent
// repositories constructed before this one.
type Repo struct {
	db     *DB
	d      Descriptor
	table  table.Table
	parent []*Repo
}

// Name returns the entity name this repository serves.
func (r *Repo) Name() string { return r.d.Name }

// Exists reports whether a row with the given key is present.
func (r *Repo) Exists(ctx context.Context, key ...string) (bool, error) {
	if err := r.d.checkKey(key); err != nil {
		return false, err
	}
	ok, err := r.table.Exists(ctx, key)
	return ok, r.wrap(err, key)
}

// Get returns the record with the given key, or nil when absent. The
// returned record is an independent copy.
func (r *Repo) Get(ctx context.Context, key ...string) (record.Record, error) {
	if err := r.d.checkKey(key); err != nil {
		return nil, err
	}
	rows, err := r.table.GetMany(ctx, [][]string{key})
	if err != nil {
		return nil, r.wrap(err, key)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return r.decode(rows[0])
}

// GetMany returns the records for the given keys. Absent keys are
// omitted; result order is not guaranteed to follow input order.
func (r *Repo) GetMany(ctx context.Context, keys [][]string) ([]record.Record, error) {
	for _, key := range keys {
		if err := r.d.checkKey(key); err != nil {
			return nil, err
		}
	}
	rows, err := r.table.GetMany(ctx, keys)
	if err != nil {
		return nil, r.wrap(err, nil)
	}
	return r.decodeAll(rows)
}

// Add inserts a new record after checking that every declared parent row
// exists. Raises KindDependencyNotFound before touching the entity's
// table, KindRecordExists when the key is already taken.
func (r *Repo) Add(ctx context.Context, rec record.Record) error {
	if err := r.d.checkRecord(rec); err != nil {
		return err
	}
	row, err := record.Marshal(rec)
	if err != nil {
		return &Error{Kind: KindValidation, Entity: r.d.Name, Key: rec.Key(), Err: err}
	}
	if err := r.checkDependencies(ctx, row, rec.Key()); err != nil {
		return err
	}
	return r.wrap(r.table.Insert(ctx, row), rec.Key())
}

// Put rewrites an existing record, returning the rows affected. A
// zero-row put raises KindRecordNotFound, except for the two entities
// declared UpsertOnPut, where it transparently falls back to Add.
func (r *Repo) Put(ctx context.Context, rec record.Record) (int64, error) {
	if err := r.d.checkRecord(rec); err != nil {
		return 0, err
	}
	row, err := record.Marshal(rec)
	if err != nil {
		return 0, &Error{Kind: KindValidation, Entity: r.d.Name, Key: rec.Key(), Err: err}
	}
	n, err := r.table.Update(ctx, row)
	if err != nil {
		return 0, r.wrap(err, rec.Key())
	}
	if n == 0 {
		if r.d.UpsertOnPut {
			if err := r.Add(ctx, rec); err != nil {
				return 0, err
			}
			return 1, nil
		}
		return 0, &Error{Kind: KindRecordNotFound, Entity: r.d.Name, Key: rec.Key()}
	}
	return n, nil
}

// Delete removes the row with the given complete key, returning the rows
// affected. It does not cascade; cascading deletes live on DB.
func (r *Repo) Delete(ctx context.Context, key ...string) (int64, error) {
	if err := r.d.checkKey(key); err != nil {
		return 0, err
	}
	where := make(table.Where, len(key))
	for i, field := range r.d.KeyFields {
		where[field] = key[i]
	}
	n, err := r.table.Delete(ctx, where)
	return n, r.wrap(err, key)
}

// deleteWhere removes every row matching the partial-key filter. Cascade
// engine entry point; deliberately not part of the public surface.
func (r *Repo) deleteWhere(ctx context.Context, f Filter) (int64, error) {
	if err := r.d.checkFilter(f); err != nil {
		return 0, err
	}
	where := make(table.Where, len(f))
	for field, value := range f {
		where[field] = value
	}
	n, err := r.table.Delete(ctx, where)
	return n, r.wrap(err, nil)
}

// Count returns the number of rows matching where.
func (r *Repo) Count(ctx context.Context, where table.Where) (int, error) {
	n, err := r.table.Count(ctx, where)
	return n, r.wrap(err, nil)
}

// ListKeys returns the keys of rows matching where.
func (r *Repo) ListKeys(ctx context.Context, where table.Where, order table.Order) ([][]string, error) {
	keys, err := r.table.ListKeys(ctx, where, order)
	return keys, r.wrap(err, nil)
}

// Records returns independent copies of the records matching where.
func (r *Repo) Records(ctx context.Context, where table.Where, order table.Order) ([]record.Record, error) {
	rows, err := r.table.Records(ctx, where, order)
	if err != nil {
		return nil, r.wrap(err, nil)
	}
	return r.decodeAll(rows)
}

// Fields returns only the named columns of rows matching where, one value
// slice per row.
func (r *Repo) Fields(ctx context.Context, fields []string, where table.Where, order table.Order) ([][]any, error) {
	vals, err := r.table.FieldsWhere(ctx, fields, where, order)
	return vals, r.wrap(err, nil)
}

// checkDependencies verifies every declared parent row exists, reading
// the parent key values out of the child row by column name. A compound
// versioned set_id is resolved against its base set name.
func (r *Repo) checkDependencies(ctx context.Context, row record.Row, key []string) error {
	for i, p := range r.parent {
		pkey := make([]string, len(p.d.KeyFields))
		for j, field := range p.d.KeyFields {
			v, _ := row[field].(string)
			if field == "set_id" {
				if base, _, ok := ParseVersionedSetID(v); ok {
					v = base
				}
			}
			pkey[j] = v
		}
		ok, err := p.table.Exists(ctx, pkey)
		if err != nil {
			return p.wrap(err, pkey)
		}
		if !ok {
			return &Error{
				Kind:   KindDependencyNotFound,
				Entity: r.d.Name,
				Key:    key,
				Msg:    fmt.Sprintf("requires %s [%s]", r.d.Depends[i].Entity, joinKeyParts(pkey)),
			}
		}
	}
	return nil
}

func (r *Repo) decode(row record.Row) (record.Record, error) {
	rec := r.d.New()
	if err := record.Unmarshal(row, rec); err != nil {
		return nil, fmt.Errorf("coursedb: %s: %w", r.d.Name, err)
	}
	return rec, nil
}

func (r *Repo) decodeAll(rows []record.Row) ([]record.Record, error) {
	out := make([]record.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := r.decode(row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// wrap maps collaborator-owned conditions into the error taxonomy and
// leaves everything else untouched.
func (r *Repo) wrap(err error, key []string) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, table.ErrExists):
		return &Error{Kind: KindRecordExists, Entity: r.d.Name, Key: key, Err: err}
	case errors.Is(err, table.ErrMissingTable):
		return &Error{Kind: KindTableMissing, Entity: r.d.Name, Key: key, Err: err}
	}
	return err
}

func joinKeyParts(key []string) string {
	out := ""
	for i, k := range key {
		if i > 0 {
			out += ", "
		}
		out += k
	}
	return out
}
