// Package record defines the plain typed data containers persisted by
// coursedb, one struct per entity, plus the row codec that moves them in
// and out of the table layer.
package record

// Row is the wire shape a table driver stores and returns: column name to
// value. Values are the Go types the codec emits (string, int, int64,
// float64, bool); pointer fields with no value are simply absent from the
// row.
type Row map[string]any

// Record is the base interface for all storable types.
type Record interface {
	// Type returns the entity name (e.g. "user_set").
	Type() string

	// Key returns the values of the key fields, in declared order.
	Key() []string
}

// Clone returns an independent deep copy of r. Repositories hand back
// copies on every get so callers never share mutable state with the layer.
func Clone[T any](r *T) *T {
	row, err := Marshal(r)
	if err != nil {
		out := *r
		return &out
	}
	out := new(T)
	if err := Unmarshal(row, out); err != nil {
		copied := *r
		return &copied
	}
	return out
}
