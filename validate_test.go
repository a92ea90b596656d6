package coursedb

import (
	"errors"
	"testing"

	"github.com/jacentio/coursedb/record"
)

func descriptorFor(t *testing.T, name string) Descriptor {
	t.Helper()
	for _, d := range descriptors {
		if d.Name == name {
			return d
		}
	}
	t.Fatalf("no descriptor %s", name)
	return Descriptor{}
}

// --- Key Class Tests ---

func TestCheckKey(t *testing.T) {
	tests := []struct {
		name   string
		entity string
		key    []string
		ok     bool
	}{
		{"plain user", record.TypeUser, []string{"alice"}, true},
		{"email user", record.TypeUser, []string{"alice@example.edu"}, true},
		{"proctor suffix", record.TypeUser, []string{"alice,g"}, true},
		{"empty part", record.TypeUser, []string{""}, false},
		{"space in id", record.TypeUser, []string{"alice smith"}, false},
		{"wrong arity", record.TypeUser, []string{"alice", "extra"}, false},
		{"set pair", record.TypeUserSet, []string{"alice", "hw1"}, true},
		{"versioned set on versioned entity", record.TypeUserSet, []string{"alice", "hw1,v3"}, true},
		{"versioned set on global set", record.TypeGlobalSet, []string{"hw1,v3"}, false},
		{"numeric problem", record.TypeGlobalProblem, []string{"hw1", "12"}, true},
		{"alpha problem", record.TypeGlobalProblem, []string{"hw1", "1a"}, false},
		{"location ip entity", record.TypeLocationAddress, []string{"lab", "10.0.0.0/24"}, true},
		{"bad ip chars", record.TypeLocationAddress, []string{"lab", "10.0.0.0 or 1=1"}, false},
		{"answer uuid", record.TypePastAnswer, []string{"alice", "hw1,v2", "3", "c0ffee00-0000-4000-8000-000000000001"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := descriptorFor(t, tt.entity)
			err := d.checkKey(tt.key)
			if tt.ok && err != nil {
				t.Errorf("checkKey(%v) = %v, want ok", tt.key, err)
			}
			if !tt.ok && !errors.Is(err, ErrValidation) {
				t.Errorf("checkKey(%v) = %v, want validation error", tt.key, err)
			}
		})
	}
}

func TestCheckRecord_WrongType(t *testing.T) {
	d := descriptorFor(t, record.TypeUser)
	err := d.checkRecord(&record.GlobalSet{SetID: "hw1"})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected validation error for wrong record type, got %v", err)
	}
}

func TestCheckRecord_Nil(t *testing.T) {
	d := descriptorFor(t, record.TypeUser)
	if err := d.checkRecord(nil); !errors.Is(err, ErrValidation) {
		t.Errorf("expected validation error for nil record, got %v", err)
	}
}

// --- Filter Tests ---

func TestCheckFilter(t *testing.T) {
	d := descriptorFor(t, record.TypeUserSet)

	if err := d.checkFilter(Filter{"user_id": "alice"}); err != nil {
		t.Errorf("partial key filter: %v", err)
	}
	if err := d.checkFilter(Filter{"set_id": "hw1"}); err != nil {
		t.Errorf("trailing key filter: %v", err)
	}
	err := d.checkFilter(Filter{"open_date": "0"})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected rejection of non-key filter field, got %v", err)
	}
	err = d.checkFilter(Filter{"user_id": "bad id"})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected class check inside filter, got %v", err)
	}
}

// --- Versioned Set ID Tests ---

func TestVersionedSetID(t *testing.T) {
	id := VersionedSetID("hw1", 3)
	if id != "hw1,v3" {
		t.Errorf("VersionedSetID = %q, want hw1,v3", id)
	}

	set, v, ok := ParseVersionedSetID("hw1,v3")
	if !ok || set != "hw1" || v != 3 {
		t.Errorf("ParseVersionedSetID(hw1,v3) = %q,%d,%v", set, v, ok)
	}

	set, _, ok = ParseVersionedSetID("hw1")
	if ok || set != "hw1" {
		t.Errorf("ParseVersionedSetID(hw1) = %q,%v, want hw1,false", set, ok)
	}

	if _, _, ok := ParseVersionedSetID("hw1,v0"); ok {
		t.Error("version numbers start at 1")
	}
}
