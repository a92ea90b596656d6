package coursedb

import (
	"reflect"

	"github.com/jacentio/coursedb/record"
	"github.com/jacentio/coursedb/table"
)

// Dependency names a parent entity that must exist before a row of the
// dependent entity may be added. The parent's key values are read from
// the dependent record's columns of the same name.
type Dependency struct {
	Entity string
}

// Descriptor is the static declaration the registry builds a repository
// from: record shape, key fields, parents, cascade children and the
// per-entity oddities (upsert fallback, versioned set IDs).
type Descriptor struct {
	// Name is the entity name; also the physical table name, after the
	// course prefix.
	Name string

	// KeyFields are the key columns in declared order.
	KeyFields []string

	// New returns a pointer to a zero record of the entity's type. The
	// full column list is derived from its db tags.
	New func() record.Record

	// Depends lists parents checked before add, in order.
	Depends []Dependency

	// CascadeChildren lists dependent entities deleted, in order, when a
	// row of this entity is deleted. Each child delete recurses through
	// the child's own cascade declaration.
	CascadeChildren []string

	// Versioned widens the set_id character class to accept a compound
	// "name,vN" identifier (gateway tests).
	Versioned bool

	// UpsertOnPut makes a zero-row put fall back to add. Only the
	// password and permission entities carry this.
	UpsertOnPut bool
}

// columns derives the full column list, with storage types, from the
// record type's db tags, key columns first.
func (d Descriptor) columns() []table.Column {
	t := reflect.TypeOf(d.New())
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	isKey := make(map[string]bool, len(d.KeyFields))
	for _, k := range d.KeyFields {
		isKey[k] = true
	}
	cols := make([]table.Column, 0, t.NumField())
	for _, k := range d.KeyFields {
		cols = append(cols, table.Column{Name: k, Type: table.ColString})
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		col := f.Tag.Get("db")
		if col == "" || col == "-" || isKey[col] {
			continue
		}
		cols = append(cols, table.Column{Name: col, Type: columnType(f.Type)})
	}
	return cols
}

func columnType(t reflect.Type) table.ColumnType {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int64:
		return table.ColInt
	case reflect.Float64:
		return table.ColFloat
	case reflect.Bool:
		return table.ColBool
	default:
		return table.ColString
	}
}

// schema builds the table.Schema under the given course prefix.
func (d Descriptor) schema(prefix string) table.Schema {
	return table.Schema{
		Name:       prefix + d.Name,
		KeyColumns: append([]string{}, d.KeyFields...),
		Columns:    d.columns(),
	}
}

// descriptors is the static entity table. Order here is arbitrary; the
// registry initializes dependencies before dependents.
var descriptors = []Descriptor{
	{
		Name:      record.TypeUser,
		KeyFields: []string{"user_id"},
		New:       func() record.Record { return &record.User{} },
		CascadeChildren: []string{
			record.TypeUserSet,
			record.TypePassword,
			record.TypeGlobalUserAchievement,
			record.TypePermission,
			record.TypeSessionKey,
			record.TypeUserAchievement,
			record.TypePastAnswer,
		},
	},
	{
		Name:        record.TypePassword,
		KeyFields:   []string{"user_id"},
		New:         func() record.Record { return &record.Password{} },
		Depends:     []Dependency{{Entity: record.TypeUser}},
		UpsertOnPut: true,
	},
	{
		Name:        record.TypePermission,
		KeyFields:   []string{"user_id"},
		New:         func() record.Record { return &record.PermissionLevel{} },
		Depends:     []Dependency{{Entity: record.TypeUser}},
		UpsertOnPut: true,
	},
	{
		Name:      record.TypeSessionKey,
		KeyFields: []string{"user_id"},
		New:       func() record.Record { return &record.SessionKey{} },
		Depends:   []Dependency{{Entity: record.TypeUser}},
	},
	{
		Name:      record.TypeGlobalSet,
		KeyFields: []string{"set_id"},
		New:       func() record.Record { return &record.GlobalSet{} },
		CascadeChildren: []string{
			record.TypeUserSet,
			record.TypeGlobalProblem,
			record.TypeGlobalSetLocation,
		},
	},
	{
		Name:      record.TypeUserSet,
		KeyFields: []string{"user_id", "set_id"},
		New:       func() record.Record { return &record.UserSet{} },
		Depends: []Dependency{
			{Entity: record.TypeUser},
			{Entity: record.TypeGlobalSet},
		},
		CascadeChildren: []string{
			record.TypeSetVersion,
			record.TypeUserProblem,
			record.TypeUserSetLocation,
		},
		Versioned: true,
	},
	{
		Name:      record.TypeSetVersion,
		KeyFields: []string{"user_id", "set_id", "version_id"},
		New:       func() record.Record { return &record.SetVersion{} },
		Depends:   []Dependency{{Entity: record.TypeUserSet}},
		CascadeChildren: []string{
			record.TypeProblemVersion,
		},
	},
	{
		Name:      record.TypeGlobalProblem,
		KeyFields: []string{"set_id", "problem_id"},
		New:       func() record.Record { return &record.GlobalProblem{} },
		Depends:   []Dependency{{Entity: record.TypeGlobalSet}},
		CascadeChildren: []string{
			record.TypeUserProblem,
		},
	},
	{
		Name:      record.TypeUserProblem,
		KeyFields: []string{"user_id", "set_id", "problem_id"},
		New:       func() record.Record { return &record.UserProblem{} },
		Depends: []Dependency{
			{Entity: record.TypeUserSet},
			{Entity: record.TypeGlobalProblem},
		},
		CascadeChildren: []string{
			record.TypeProblemVersion,
			record.TypePastAnswer,
		},
		Versioned: true,
	},
	{
		Name:      record.TypeProblemVersion,
		KeyFields: []string{"user_id", "set_id", "version_id", "problem_id"},
		New:       func() record.Record { return &record.ProblemVersion{} },
		Depends: []Dependency{
			{Entity: record.TypeSetVersion},
			{Entity: record.TypeUserProblem},
		},
	},
	{
		Name:      record.TypeAchievement,
		KeyFields: []string{"achievement_id"},
		New:       func() record.Record { return &record.Achievement{} },
		CascadeChildren: []string{
			record.TypeUserAchievement,
		},
	},
	{
		Name:      record.TypeUserAchievement,
		KeyFields: []string{"user_id", "achievement_id"},
		New:       func() record.Record { return &record.UserAchievement{} },
		Depends: []Dependency{
			{Entity: record.TypeUser},
			{Entity: record.TypeAchievement},
		},
	},
	{
		Name:      record.TypeGlobalUserAchievement,
		KeyFields: []string{"user_id"},
		New:       func() record.Record { return &record.GlobalUserAchievement{} },
		Depends:   []Dependency{{Entity: record.TypeUser}},
	},
	{
		Name:      record.TypeLocation,
		KeyFields: []string{"location_id"},
		New:       func() record.Record { return &record.Location{} },
		CascadeChildren: []string{
			record.TypeGlobalSetLocation,
			record.TypeUserSetLocation,
			record.TypeLocationAddress,
		},
	},
	{
		Name:      record.TypeLocationAddress,
		KeyFields: []string{"location_id", "ip_mask"},
		New:       func() record.Record { return &record.LocationAddress{} },
		Depends:   []Dependency{{Entity: record.TypeLocation}},
	},
	{
		Name:      record.TypeGlobalSetLocation,
		KeyFields: []string{"set_id", "location_id"},
		New:       func() record.Record { return &record.GlobalSetLocation{} },
		Depends: []Dependency{
			{Entity: record.TypeGlobalSet},
			{Entity: record.TypeLocation},
		},
	},
	{
		Name:      record.TypeUserSetLocation,
		KeyFields: []string{"user_id", "set_id", "location_id"},
		New:       func() record.Record { return &record.UserSetLocation{} },
		Depends: []Dependency{
			{Entity: record.TypeUserSet},
			{Entity: record.TypeLocation},
		},
	},
	{
		Name:      record.TypePastAnswer,
		KeyFields: []string{"user_id", "set_id", "problem_id", "answer_id"},
		New:       func() record.Record { return &record.PastAnswer{} },
		Depends:   []Dependency{{Entity: record.TypeUserProblem}},
		Versioned: true,
	},
}
