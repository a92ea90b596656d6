package coursedb

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jacentio/coursedb/record"
)

// Key-field character classes. Every key part of every call is checked
// against its field's class before the store is touched.
//
// user_id additionally accepts a ",g" suffix: the synthetic proctor
// pseudo-user paired with a real login for proctored gateway tests.
var keyClasses = map[string]*regexp.Regexp{
	"user_id":        regexp.MustCompile(`^[A-Za-z0-9_.@-]+(,g)?$`),
	"set_id":         regexp.MustCompile(`^[A-Za-z0-9_.-]+$`),
	"problem_id":     regexp.MustCompile(`^[0-9]+$`),
	"version_id":     regexp.MustCompile(`^[0-9]+$`),
	"achievement_id": regexp.MustCompile(`^[A-Za-z0-9_.-]+$`),
	"location_id":    regexp.MustCompile(`^[A-Za-z0-9_.-]+$`),
	"ip_mask":        regexp.MustCompile(`^[0-9a-fA-F:./]+$`),
	"answer_id":      regexp.MustCompile(`^[0-9a-fA-F-]+$`),
}

// versionedSetID is the widened set_id class for entities with gateway
// support: a plain set name optionally carrying a ",vN" version suffix.
var versionedSetID = regexp.MustCompile(`^[A-Za-z0-9_.-]+(,v[0-9]+)?$`)

// VersionedSetID encodes a set name and version number into the compound
// identifier gateway tests pass around ("hw1,v3").
func VersionedSetID(setID string, version int) string {
	return fmt.Sprintf("%s,v%d", setID, version)
}

// ParseVersionedSetID splits a compound set identifier into its base name
// and version. ok is false when id carries no version suffix.
func ParseVersionedSetID(id string) (setID string, version int, ok bool) {
	i := strings.LastIndex(id, ",v")
	if i < 0 {
		return id, 0, false
	}
	n, err := strconv.Atoi(id[i+2:])
	if err != nil || n < 1 {
		return id, 0, false
	}
	return id[:i], n, true
}

// classFor returns the pattern a key field must match, honoring the
// entity's versioned widening.
func (d Descriptor) classFor(field string) *regexp.Regexp {
	if field == "set_id" && d.Versioned {
		return versionedSetID
	}
	return keyClasses[field]
}

// checkKey validates a complete key: exact arity, every part non-empty
// and inside its field's character class.
func (d Descriptor) checkKey(key []string) error {
	if len(key) != len(d.KeyFields) {
		return &Error{
			Kind:   KindValidation,
			Entity: d.Name,
			Key:    key,
			Msg:    fmt.Sprintf("want %d key parts, got %d", len(d.KeyFields), len(key)),
		}
	}
	for i, field := range d.KeyFields {
		if err := d.checkKeyPart(field, key[i]); err != nil {
			return err
		}
	}
	return nil
}

func (d Descriptor) checkKeyPart(field, value string) error {
	class := d.classFor(field)
	if class == nil {
		return &Error{
			Kind:   KindValidation,
			Entity: d.Name,
			Field:  field,
			Value:  value,
			Msg:    "key field has no declared character class",
		}
	}
	if value == "" || !class.MatchString(value) {
		return &Error{
			Kind:    KindValidation,
			Entity:  d.Name,
			Field:   field,
			Value:   value,
			Pattern: class.String(),
		}
	}
	return nil
}

// checkRecord validates a record argument: right entity type, and every
// key field set and well-formed.
func (d Descriptor) checkRecord(rec record.Record) error {
	if rec == nil {
		return &Error{Kind: KindValidation, Entity: d.Name, Msg: "nil record"}
	}
	if rec.Type() != d.Name {
		return &Error{
			Kind:   KindValidation,
			Entity: d.Name,
			Msg:    fmt.Sprintf("record is a %s, not a %s", rec.Type(), d.Name),
		}
	}
	return d.checkKey(rec.Key())
}

// Filter is the cascade-mode key predicate: key column to required value,
// with absent columns genuinely unconstrained. Only the cascade engine
// builds these; the public API always requires complete keys. The split
// is enforced by the entry-point type, not by inspecting the caller.
type Filter map[string]string

// checkFilter validates a partial-key filter: only key fields, and every
// part present must be inside its class.
func (d Descriptor) checkFilter(f Filter) error {
	isKey := make(map[string]bool, len(d.KeyFields))
	for _, k := range d.KeyFields {
		isKey[k] = true
	}
	for field, value := range f {
		if !isKey[field] {
			return &Error{
				Kind:   KindValidation,
				Entity: d.Name,
				Field:  field,
				Value:  value,
				Msg:    "filter on non-key field",
			}
		}
		if err := d.checkKeyPart(field, value); err != nil {
			return err
		}
	}
	return nil
}
