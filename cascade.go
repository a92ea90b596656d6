package coursedb

import (
	"context"

	"github.com/jacentio/coursedb/record"
)

// Cascade engine: deleting a parent row also deletes every dependent row,
// walking the descriptor-declared children in order and recursing through
// each child's own declaration before removing its rows. The parent
// filter is projected onto each child by shared key-column name, so a
// child whose key is a superset of the parent's is constrained exactly on
// the columns the parent pins down.
//
// No implicit transaction wraps a cascade. An interrupted cascade can
// leave dependents partially deleted; callers needing atomicity bracket
// the call with StartTransaction/EndTransaction themselves.

// DeleteCascade deletes the row with the given complete key along with
// all of its dependents, returning the number of parent rows removed.
func (db *DB) DeleteCascade(ctx context.Context, entity string, key ...string) (int64, error) {
	r, ok := db.repos[entity]
	if !ok {
		return 0, &Error{Kind: KindValidation, Entity: entity, Key: key, Msg: "unknown entity"}
	}
	if err := r.d.checkKey(key); err != nil {
		return 0, err
	}
	f := make(Filter, len(key))
	for i, field := range r.d.KeyFields {
		f[field] = key[i]
	}
	return db.cascadeDelete(ctx, r, f)
}

// cascadeDelete removes every row of r matching f, children first.
func (db *DB) cascadeDelete(ctx context.Context, r *Repo, f Filter) (int64, error) {
	for _, childName := range r.d.CascadeChildren {
		child := db.repos[childName]
		cf := projectFilter(f, child.d.KeyFields)
		if _, err := db.cascadeDelete(ctx, child, cf); err != nil {
			return 0, err
		}
	}
	n, err := r.deleteWhere(ctx, f)
	if err != nil {
		return 0, err
	}
	if n > 0 && len(r.d.CascadeChildren) > 0 {
		db.logger.Debug("cascade step complete",
			"entity", r.d.Name,
			"rows", n,
		)
	}
	return n, nil
}

// projectFilter keeps only the filter columns that are key fields of the
// child. Columns the child does not key on fall away, leaving that part
// of the child's key unconstrained.
func projectFilter(f Filter, childKeys []string) Filter {
	out := make(Filter, len(f))
	for _, field := range childKeys {
		if v, ok := f[field]; ok {
			out[field] = v
		}
	}
	return out
}

// Cascade-aware delete variants for the parent entities of the schema.

// DeleteUser removes a user and everything owned by it: assigned sets
// (with their versions, problems and location overrides), password,
// permission level, session key, achievement state and answer log.
func (db *DB) DeleteUser(ctx context.Context, userID string) (int64, error) {
	return db.DeleteCascade(ctx, record.TypeUser, userID)
}

// DeleteGlobalSet removes an assignment and all per-user copies,
// problems and location restrictions under it.
func (db *DB) DeleteGlobalSet(ctx context.Context, setID string) (int64, error) {
	return db.DeleteCascade(ctx, record.TypeGlobalSet, setID)
}

// DeleteUserSet removes one user's copy of a set with its versions,
// problems and location overrides.
func (db *DB) DeleteUserSet(ctx context.Context, userID, setID string) (int64, error) {
	return db.DeleteCascade(ctx, record.TypeUserSet, userID, setID)
}

// DeleteGlobalProblem removes a problem and every user's copy of it.
func (db *DB) DeleteGlobalProblem(ctx context.Context, setID, problemID string) (int64, error) {
	return db.DeleteCascade(ctx, record.TypeGlobalProblem, setID, problemID)
}

// DeleteAchievement removes an achievement and all per-user progress
// toward it.
func (db *DB) DeleteAchievement(ctx context.Context, achievementID string) (int64, error) {
	return db.DeleteCascade(ctx, record.TypeAchievement, achievementID)
}

// DeleteLocation removes a location, its address masks and every set
// restriction referencing it.
func (db *DB) DeleteLocation(ctx context.Context, locationID string) (int64, error) {
	return db.DeleteCascade(ctx, record.TypeLocation, locationID)
}
