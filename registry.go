package coursedb

import "fmt"

// initState is the three-state marker used during registry construction.
type initState int

const (
	stateUninitialized initState = iota
	stateInProgress
	stateDone
)

// buildRepos instantiates one repository per descriptor, depth-first, so
// a repository's dependencies are always fully constructed before it is.
// A dependency cycle or a reference to an undeclared entity is fatal: the
// layer must not come up over a schema it cannot order.
func (db *DB) buildRepos() error {
	byName := make(map[string]Descriptor, len(descriptors))
	for _, d := range descriptors {
		if _, dup := byName[d.Name]; dup {
			return fmt.Errorf("coursedb: duplicate entity descriptor %q", d.Name)
		}
		byName[d.Name] = d
	}

	states := make(map[string]initState, len(byName))
	db.repos = make(map[string]*Repo, len(byName))

	var visit func(name string, path []string) error
	visit = func(name string, path []string) error {
		switch states[name] {
		case stateDone:
			return nil
		case stateInProgress:
			return fmt.Errorf("coursedb: dependency cycle: %v -> %s", path, name)
		}
		d, ok := byName[name]
		if !ok {
			return fmt.Errorf("coursedb: %q depends on undeclared entity %q", path[len(path)-1], name)
		}
		states[name] = stateInProgress
		for _, dep := range d.Depends {
			if err := visit(dep.Entity, append(path, name)); err != nil {
				return err
			}
		}
		db.repos[name] = &Repo{
			db:     db,
			d:      d,
			table:  db.driver.Table(d.schema(db.prefix)),
			parent: make([]*Repo, 0, len(d.Depends)),
		}
		for _, dep := range d.Depends {
			db.repos[name].parent = append(db.repos[name].parent, db.repos[dep.Entity])
		}
		states[name] = stateDone
		return nil
	}

	for _, d := range descriptors {
		if err := visit(d.Name, nil); err != nil {
			return err
		}
	}

	// Cascade declarations are resolved lazily at delete time; verify up
	// front that they all point at declared entities.
	for _, d := range descriptors {
		for _, child := range d.CascadeChildren {
			if _, ok := byName[child]; !ok {
				return fmt.Errorf("coursedb: %q cascades to undeclared entity %q", d.Name, child)
			}
		}
	}
	return nil
}
