package coursedb

import (
	"context"
	"strconv"

	"github.com/jacentio/coursedb/record"
)

// Merge resolver: the effective record for a (user, entity) pair is the
// global row with every explicitly-set override field layered on top.
// Overlaying happens at row level: a pointer override field marshals into
// the row only when set, so absent columns fall through to the global
// value and present ones win. Results are built from fresh rows on every
// call; mutating a merged record never touches the rows it came from.

// overlayRows layers override onto base, strongest last.
func overlayRows(base, override record.Row) record.Row {
	out := make(record.Row, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}

// ExistsMergedSet reports whether a merged set can be computed for the
// pair, which is exactly when the global set exists.
func (db *DB) ExistsMergedSet(ctx context.Context, userID, setID string) (bool, error) {
	if err := db.UserSets().d.checkKey([]string{userID, setID}); err != nil {
		return false, err
	}
	return db.GlobalSets().Exists(ctx, setID)
}

// GetMergedSet returns the effective set for a user: the global set with
// the user's override layered on. Nil when the global set is absent; the
// plain global values when no override row exists.
func (db *DB) GetMergedSet(ctx context.Context, userID, setID string) (*record.MergedSet, error) {
	if err := db.UserSets().d.checkKey([]string{userID, setID}); err != nil {
		return nil, err
	}
	global, err := Get[record.GlobalSet](ctx, db.GlobalSets(), setID)
	if err != nil || global == nil {
		return nil, err
	}
	over, err := Get[record.UserSet](ctx, db.UserSets(), userID, setID)
	if err != nil {
		return nil, err
	}
	var overlay any
	if over != nil {
		overlay = over
	}
	merged := &record.MergedSet{}
	if err := db.mergeInto(global, overlay, merged); err != nil {
		return nil, err
	}
	merged.UserID = userID
	return merged, nil
}

// ExistsMergedSetVersion reports whether the given graded attempt exists.
func (db *DB) ExistsMergedSetVersion(ctx context.Context, userID, setID string, version int) (bool, error) {
	return db.SetVersions().Exists(ctx, userID, setID, strconv.Itoa(version))
}

// GetMergedSetVersion returns the effective state of one graded gateway
// attempt: the SetVersion snapshot layered on the owning global set. Nil
// when the version does not exist.
func (db *DB) GetMergedSetVersion(ctx context.Context, userID, setID string, version int) (*record.MergedSetVersion, error) {
	snap, err := Get[record.SetVersion](ctx, db.SetVersions(), userID, setID, strconv.Itoa(version))
	if err != nil || snap == nil {
		return nil, err
	}
	global, err := Get[record.GlobalSet](ctx, db.GlobalSets(), setID)
	if err != nil {
		return nil, err
	}
	if global == nil {
		global = &record.GlobalSet{SetID: setID}
	}
	merged := &record.MergedSetVersion{}
	if err := db.mergeInto(global, snap, merged); err != nil {
		return nil, err
	}
	merged.UserID = userID
	return merged, nil
}

// ExistsMergedProblem reports whether a merged problem can be computed,
// which is exactly when the global problem exists.
func (db *DB) ExistsMergedProblem(ctx context.Context, userID, setID, problemID string) (bool, error) {
	if err := db.UserProblems().d.checkKey([]string{userID, setID, problemID}); err != nil {
		return false, err
	}
	if base, version, ok := ParseVersionedSetID(setID); ok {
		return db.ProblemVersions().Exists(ctx, userID, base, strconv.Itoa(version), problemID)
	}
	return db.GlobalProblems().Exists(ctx, setID, problemID)
}

// GetMergedProblem returns the effective problem for a user, including
// the user's working state. A compound versioned set identifier
// ("hw1,v3") resolves against that version's snapshot instead of the
// working user problem.
func (db *DB) GetMergedProblem(ctx context.Context, userID, setID, problemID string) (*record.MergedProblem, error) {
	if err := db.UserProblems().d.checkKey([]string{userID, setID, problemID}); err != nil {
		return nil, err
	}
	if base, version, ok := ParseVersionedSetID(setID); ok {
		mv, err := db.GetMergedProblemVersion(ctx, userID, base, version, problemID)
		if err != nil || mv == nil {
			return nil, err
		}
		merged := &record.MergedProblem{}
		if err := db.mergeInto(mv, nil, merged); err != nil {
			return nil, err
		}
		merged.SetID = setID
		return merged, nil
	}

	global, err := Get[record.GlobalProblem](ctx, db.GlobalProblems(), setID, problemID)
	if err != nil || global == nil {
		return nil, err
	}
	over, err := Get[record.UserProblem](ctx, db.UserProblems(), userID, setID, problemID)
	if err != nil {
		return nil, err
	}
	var overlay any
	if over != nil {
		overlay = over
	}
	merged := &record.MergedProblem{}
	if err := db.mergeInto(global, overlay, merged); err != nil {
		return nil, err
	}
	merged.UserID = userID
	return merged, nil
}

// ExistsMergedProblemVersion reports whether the snapshot problem exists.
func (db *DB) ExistsMergedProblemVersion(ctx context.Context, userID, setID string, version int, problemID string) (bool, error) {
	return db.ProblemVersions().Exists(ctx, userID, setID, strconv.Itoa(version), problemID)
}

// GetMergedProblemVersion returns the effective problem inside one graded
// attempt: the ProblemVersion snapshot layered on the owning global
// problem. Nil when the snapshot does not exist.
func (db *DB) GetMergedProblemVersion(ctx context.Context, userID, setID string, version int, problemID string) (*record.MergedProblemVersion, error) {
	snap, err := Get[record.ProblemVersion](ctx, db.ProblemVersions(), userID, setID, strconv.Itoa(version), problemID)
	if err != nil || snap == nil {
		return nil, err
	}
	global, err := Get[record.GlobalProblem](ctx, db.GlobalProblems(), setID, problemID)
	if err != nil {
		return nil, err
	}
	if global == nil {
		global = &record.GlobalProblem{SetID: setID, ProblemID: problemID}
	}
	merged := &record.MergedProblemVersion{}
	if err := db.mergeInto(global, snap, merged); err != nil {
		return nil, err
	}
	merged.UserID = userID
	return merged, nil
}

// mergeInto marshals base and override to rows, overlays them and
// decodes the result into out. A nil override leaves the base values.
func (db *DB) mergeInto(base, override, out any) error {
	baseRow, err := record.Marshal(base)
	if err != nil {
		return err
	}
	row := baseRow
	if override != nil {
		overRow, err := record.Marshal(override)
		if err != nil {
			return err
		}
		row = overlayRows(baseRow, overRow)
	}
	return record.Unmarshal(row, out)
}
