package coursedb

import (
	"fmt"
	"strings"
)

// Kind tags an Error with its failure class.
type Kind int

const (
	// KindRecordExists: duplicate-key insert, surfaced from the table layer.
	KindRecordExists Kind = iota + 1

	// KindRecordNotFound: put matched zero rows, or a required row is gone.
	KindRecordNotFound

	// KindDependencyNotFound: a parent row required by an add is absent.
	// A subtype of KindRecordNotFound for matching purposes.
	KindDependencyNotFound

	// KindTableMissing: the backing table is absent from the store.
	KindTableMissing

	// KindValidation: malformed arguments or key-field values, rejected
	// before any store interaction.
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindRecordExists:
		return "record exists"
	case KindRecordNotFound:
		return "record not found"
	case KindDependencyNotFound:
		return "dependency not found"
	case KindTableMissing:
		return "table missing"
	case KindValidation:
		return "validation failed"
	}
	return "unknown"
}

// Error is the one failure type the layer raises: a kind, the entity and
// key involved, and for validation failures the offending field, value
// and allowed pattern.
type Error struct {
	Kind   Kind
	Entity string
	Key    []string

	// Validation detail; empty for other kinds.
	Field   string
	Value   string
	Pattern string

	Msg string
	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("coursedb: ")
	b.WriteString(e.Kind.String())
	if e.Entity != "" {
		fmt.Fprintf(&b, ": %s", e.Entity)
	}
	if len(e.Key) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(e.Key, ", "))
	}
	if e.Field != "" {
		fmt.Fprintf(&b, ": field %s=%q does not match %s", e.Field, e.Value, e.Pattern)
	}
	if e.Msg != "" {
		fmt.Fprintf(&b, ": %s", e.Msg)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on kind, so callers can test errors.Is(err, ErrRecordExists)
// without caring which entity raised it. KindDependencyNotFound also
// matches ErrRecordNotFound, as a subtype.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if e.Kind == t.Kind {
		return true
	}
	return e.Kind == KindDependencyNotFound && t.Kind == KindRecordNotFound
}

// Kind sentinels for errors.Is.
var (
	ErrRecordExists       = &Error{Kind: KindRecordExists}
	ErrRecordNotFound     = &Error{Kind: KindRecordNotFound}
	ErrDependencyNotFound = &Error{Kind: KindDependencyNotFound}
	ErrTableMissing       = &Error{Kind: KindTableMissing}
	ErrValidation         = &Error{Kind: KindValidation}
)
