package record

import (
	"strings"
	"testing"
)

func TestMarshal_SkipsNilPointers(t *testing.T) {
	due := int64(5000)
	row, err := Marshal(&UserSet{UserID: "alice", SetID: "hw1", DueDate: &due})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	if row["user_id"] != "alice" || row["set_id"] != "hw1" {
		t.Errorf("key columns: %v", row)
	}
	if row["due_date"] != int64(5000) {
		t.Errorf("due_date = %v, want dereferenced 5000", row["due_date"])
	}
	if _, present := row["open_date"]; present {
		t.Error("nil pointer field must be absent from the row")
	}
}

func TestMarshal_ValueFieldsAlwaysPresent(t *testing.T) {
	row, err := Marshal(&GlobalSet{SetID: "hw1"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if v, ok := row["open_date"]; !ok || v != int64(0) {
		t.Errorf("zero value field must still be present, got %v (%v)", v, ok)
	}
	if v, ok := row["visible"]; !ok || v != false {
		t.Errorf("zero bool field must still be present, got %v (%v)", v, ok)
	}
}

func TestMarshal_Errors(t *testing.T) {
	if _, err := Marshal((*User)(nil)); err == nil {
		t.Error("expected error for nil pointer")
	}
	if _, err := Marshal("not a struct"); err == nil {
		t.Error("expected error for non-struct")
	}
}

func TestUnmarshal_PointerPresence(t *testing.T) {
	row := Row{"user_id": "alice", "set_id": "hw1", "due_date": int64(5000)}
	var us UserSet
	if err := Unmarshal(row, &us); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if us.DueDate == nil || *us.DueDate != 5000 {
		t.Errorf("DueDate = %v, want 5000", us.DueDate)
	}
	if us.OpenDate != nil {
		t.Error("absent column must leave pointer nil")
	}
}

func TestUnmarshal_NumericConversions(t *testing.T) {
	// Stores hand back int64 for integer columns and float64 after a
	// JSON round trip; both must land in int fields when exact.
	var p GlobalProblem
	row := Row{"set_id": "hw1", "problem_id": "1", "value": int64(3), "max_attempts": float64(-1)}
	if err := Unmarshal(row, &p); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if p.Value != 3 || p.MaxAttempts != -1 {
		t.Errorf("converted fields = %d, %d", p.Value, p.MaxAttempts)
	}

	var up UserProblem
	if err := Unmarshal(Row{"user_id": "a", "set_id": "s", "problem_id": "1", "status": int64(1)}, &up); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if up.Status != 1.0 {
		t.Errorf("int into float field = %v", up.Status)
	}
}

func TestUnmarshal_RejectsFractionIntoInt(t *testing.T) {
	var p GlobalProblem
	err := Unmarshal(Row{"value": float64(1.5)}, &p)
	if err == nil {
		t.Fatal("expected error storing 1.5 into int field")
	}
	if !strings.Contains(err.Error(), "value") {
		t.Errorf("error should name the column: %v", err)
	}
}

func TestUnmarshal_TypeMismatch(t *testing.T) {
	var u User
	if err := Unmarshal(Row{"user_id": int64(7)}, &u); err == nil {
		t.Error("expected error storing int into string field")
	}
}

func TestRoundTrip(t *testing.T) {
	src := "custom.pg"
	in := &UserProblem{
		UserID: "alice", SetID: "hw1", ProblemID: "2",
		SourceFile:  &src,
		ProblemSeed: 42,
		Status:      0.75,
		Attempted:   3,
		LastAnswer:  "x=2",
	}
	row, err := Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var out UserProblem
	if err := Unmarshal(row, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if out.UserID != in.UserID || out.Status != in.Status || out.LastAnswer != in.LastAnswer {
		t.Errorf("round trip mismatch: %+v", out)
	}
	if out.SourceFile == nil || *out.SourceFile != "custom.pg" {
		t.Errorf("pointer round trip: %v", out.SourceFile)
	}
	if out.Value != nil {
		t.Error("unset override resurrected by round trip")
	}
}

func TestClone_Independent(t *testing.T) {
	due := int64(100)
	a := &UserSet{UserID: "alice", SetID: "hw1", DueDate: &due}
	b := Clone(a)

	if b == a {
		t.Fatal("clone returned the same pointer")
	}
	*b.DueDate = 999
	b.UserID = "bob"
	if *a.DueDate != 100 || a.UserID != "alice" {
		t.Errorf("mutating clone changed original: %+v", a)
	}
}
