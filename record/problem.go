package record

// GlobalProblem is one problem inside a GlobalSet.
type GlobalProblem struct {
	SetID       string `db:"set_id"`
	ProblemID   string `db:"problem_id"`
	SourceFile  string `db:"source_file"`
	Value       int    `db:"value"`
	MaxAttempts int    `db:"max_attempts"`
}

func (p GlobalProblem) Type() string  { return TypeGlobalProblem }
func (p GlobalProblem) Key() []string { return []string{p.SetID, p.ProblemID} }

// UserProblem overrides GlobalProblem fields for a single user and carries
// that user's working state on the problem. The override fields are
// pointers (nil = unset, global value applies); the state fields are plain
// values owned entirely by the user row.
type UserProblem struct {
	UserID       string  `db:"user_id"`
	SetID        string  `db:"set_id"`
	ProblemID    string  `db:"problem_id"`
	SourceFile   *string `db:"source_file"`
	Value        *int    `db:"value"`
	MaxAttempts  *int    `db:"max_attempts"`
	ProblemSeed  int     `db:"problem_seed"`
	Status       float64 `db:"status"`
	Attempted    int     `db:"attempted"`
	NumCorrect   int     `db:"num_correct"`
	NumIncorrect int     `db:"num_incorrect"`
	LastAnswer   string  `db:"last_answer"`
}

func (p UserProblem) Type() string  { return TypeUserProblem }
func (p UserProblem) Key() []string { return []string{p.UserID, p.SetID, p.ProblemID} }

// ProblemVersion is the snapshot of a UserProblem taken when a SetVersion
// is created. Graded independently of the working UserProblem row.
type ProblemVersion struct {
	UserID       string  `db:"user_id"`
	SetID        string  `db:"set_id"`
	VersionID    string  `db:"version_id"`
	ProblemID    string  `db:"problem_id"`
	SourceFile   *string `db:"source_file"`
	Value        *int    `db:"value"`
	MaxAttempts  *int    `db:"max_attempts"`
	ProblemSeed  int     `db:"problem_seed"`
	Status       float64 `db:"status"`
	Attempted    int     `db:"attempted"`
	NumCorrect   int     `db:"num_correct"`
	NumIncorrect int     `db:"num_incorrect"`
	LastAnswer   string  `db:"last_answer"`
}

func (p ProblemVersion) Type() string { return TypeProblemVersion }
func (p ProblemVersion) Key() []string {
	return []string{p.UserID, p.SetID, p.VersionID, p.ProblemID}
}
