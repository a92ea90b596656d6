package coursedb

import (
	"context"
	"sort"
	"strconv"

	"github.com/jacentio/coursedb/record"
	"github.com/jacentio/coursedb/table"
)

// Version manager: append-only per-(user, set) snapshots supporting
// repeatable, independently-graded gateway attempts. Version numbers are
// allocated from the store, so they are dense and never skipped under
// sequential calls on one connection; nothing here creates versions
// automatically.

// AddSetVersion snapshots the user's current state of a set: a SetVersion
// copy of the UserSet override fields plus a ProblemVersion copy of every
// current UserProblem. Requires the UserSet to exist; returns the newly
// allocated version number, 1 when none existed.
func (db *DB) AddSetVersion(ctx context.Context, userID, setID string) (int, error) {
	userSet, err := Get[record.UserSet](ctx, db.UserSets(), userID, setID)
	if err != nil {
		return 0, err
	}
	if userSet == nil {
		return 0, &Error{
			Kind:   KindDependencyNotFound,
			Entity: record.TypeSetVersion,
			Key:    []string{userID, setID},
			Msg:    "requires " + record.TypeUserSet,
		}
	}

	versions, err := db.ListSetVersions(ctx, userID, setID)
	if err != nil {
		return 0, err
	}
	next := 1
	if len(versions) > 0 {
		next = versions[len(versions)-1] + 1
	}

	snap := snapshotUserSet(userSet, next, db.now().Unix())
	if err := db.SetVersions().Add(ctx, snap); err != nil {
		return 0, err
	}

	problems, err := db.UserProblems().Records(ctx,
		table.Where{"user_id": userID, "set_id": setID},
		table.Order{"problem_id"},
	)
	if err != nil {
		return 0, err
	}
	for _, rec := range problems {
		up, ok := rec.(*record.UserProblem)
		if !ok {
			continue
		}
		pv := snapshotUserProblem(up, next)
		if err := db.ProblemVersions().Add(ctx, pv); err != nil {
			return 0, err
		}
	}
	return next, nil
}

// GetSetVersion returns one snapshot, or nil when absent.
func (db *DB) GetSetVersion(ctx context.Context, userID, setID string, version int) (*record.SetVersion, error) {
	return Get[record.SetVersion](ctx, db.SetVersions(), userID, setID, strconv.Itoa(version))
}

// ListSetVersions returns the version numbers of a (user, set) pair in
// ascending numeric order.
func (db *DB) ListSetVersions(ctx context.Context, userID, setID string) ([]int, error) {
	if err := db.UserSets().d.checkKey([]string{userID, setID}); err != nil {
		return nil, err
	}
	keys, err := db.SetVersions().ListKeys(ctx,
		table.Where{"user_id": userID, "set_id": setID}, nil)
	if err != nil {
		return nil, err
	}
	versions := make([]int, 0, len(keys))
	for _, key := range keys {
		// key is (user_id, set_id, version_id)
		n, err := strconv.Atoi(key[2])
		if err != nil {
			continue
		}
		versions = append(versions, n)
	}
	sort.Ints(versions)
	return versions, nil
}

// DeleteSetVersion removes one snapshot and all ProblemVersion rows tied
// to it. Other versions' rows are untouched.
func (db *DB) DeleteSetVersion(ctx context.Context, userID, setID string, version int) (int64, error) {
	return db.DeleteCascade(ctx, record.TypeSetVersion, userID, setID, strconv.Itoa(version))
}

func snapshotUserSet(us *record.UserSet, version int, now int64) *record.SetVersion {
	us = record.Clone(us)
	return &record.SetVersion{
		UserID:              us.UserID,
		SetID:               us.SetID,
		VersionID:           strconv.Itoa(version),
		SetHeader:           us.SetHeader,
		HardcopyHeader:      us.HardcopyHeader,
		AssignmentType:      us.AssignmentType,
		OpenDate:            us.OpenDate,
		DueDate:             us.DueDate,
		AnswerDate:          us.AnswerDate,
		Visible:             us.Visible,
		ProblemRandorder:    us.ProblemRandorder,
		AttemptsPerVersion:  us.AttemptsPerVersion,
		TimeInterval:        us.TimeInterval,
		VersionsPerInterval: us.VersionsPerInterval,
		VersionTimeLimit:    us.VersionTimeLimit,
		ProblemsPerPage:     us.ProblemsPerPage,
		HideScore:           us.HideScore,
		HideWork:            us.HideWork,
		RestrictIP:          us.RestrictIP,
		VersionCreationTime: now,
	}
}

func snapshotUserProblem(up *record.UserProblem, version int) *record.ProblemVersion {
	up = record.Clone(up)
	return &record.ProblemVersion{
		UserID:       up.UserID,
		SetID:        up.SetID,
		VersionID:    strconv.Itoa(version),
		ProblemID:    up.ProblemID,
		SourceFile:   up.SourceFile,
		Value:        up.Value,
		MaxAttempts:  up.MaxAttempts,
		ProblemSeed:  up.ProblemSeed,
		Status:       up.Status,
		Attempted:    up.Attempted,
		NumCorrect:   up.NumCorrect,
		NumIncorrect: up.NumIncorrect,
		LastAnswer:   up.LastAnswer,
	}
}
