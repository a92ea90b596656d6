package record

// GlobalSet is the shared definition of an assignment: dates, headers and,
// for gateway (repeatable/timed) assignments, the versioning parameters.
type GlobalSet struct {
	SetID               string `db:"set_id"`
	SetHeader           string `db:"set_header"`
	HardcopyHeader      string `db:"hardcopy_header"`
	AssignmentType      string `db:"assignment_type"`
	OpenDate            int64  `db:"open_date"`
	DueDate             int64  `db:"due_date"`
	AnswerDate          int64  `db:"answer_date"`
	Visible             bool   `db:"visible"`
	ProblemRandorder    bool   `db:"problem_randorder"`
	AttemptsPerVersion  int    `db:"attempts_per_version"`
	TimeInterval        int64  `db:"time_interval"`
	VersionsPerInterval int    `db:"versions_per_interval"`
	VersionTimeLimit    int64  `db:"version_time_limit"`
	ProblemsPerPage     int    `db:"problems_per_page"`
	HideScore           string `db:"hide_score"`
	HideWork            string `db:"hide_work"`
	RestrictIP          string `db:"restrict_ip"`
}

func (s GlobalSet) Type() string  { return TypeGlobalSet }
func (s GlobalSet) Key() []string { return []string{s.SetID} }

// UserSet overrides GlobalSet fields for a single user. Nil means the
// field is unset and the global value applies.
type UserSet struct {
	UserID              string  `db:"user_id"`
	SetID               string  `db:"set_id"`
	SetHeader           *string `db:"set_header"`
	HardcopyHeader      *string `db:"hardcopy_header"`
	AssignmentType      *string `db:"assignment_type"`
	OpenDate            *int64  `db:"open_date"`
	DueDate             *int64  `db:"due_date"`
	AnswerDate          *int64  `db:"answer_date"`
	Visible             *bool   `db:"visible"`
	ProblemRandorder    *bool   `db:"problem_randorder"`
	AttemptsPerVersion  *int    `db:"attempts_per_version"`
	TimeInterval        *int64  `db:"time_interval"`
	VersionsPerInterval *int    `db:"versions_per_interval"`
	VersionTimeLimit    *int64  `db:"version_time_limit"`
	ProblemsPerPage     *int    `db:"problems_per_page"`
	HideScore           *string `db:"hide_score"`
	HideWork            *string `db:"hide_work"`
	RestrictIP          *string `db:"restrict_ip"`
}

func (s UserSet) Type() string  { return TypeUserSet }
func (s UserSet) Key() []string { return []string{s.UserID, s.SetID} }

// SetVersion is an immutable snapshot of a UserSet, one per graded attempt
// at a gateway assignment. Same override shape as UserSet plus the version
// number and the timestamps bounding the attempt.
type SetVersion struct {
	UserID              string  `db:"user_id"`
	SetID               string  `db:"set_id"`
	VersionID           string  `db:"version_id"`
	SetHeader           *string `db:"set_header"`
	HardcopyHeader      *string `db:"hardcopy_header"`
	AssignmentType      *string `db:"assignment_type"`
	OpenDate            *int64  `db:"open_date"`
	DueDate             *int64  `db:"due_date"`
	AnswerDate          *int64  `db:"answer_date"`
	Visible             *bool   `db:"visible"`
	ProblemRandorder    *bool   `db:"problem_randorder"`
	AttemptsPerVersion  *int    `db:"attempts_per_version"`
	TimeInterval        *int64  `db:"time_interval"`
	VersionsPerInterval *int    `db:"versions_per_interval"`
	VersionTimeLimit    *int64  `db:"version_time_limit"`
	ProblemsPerPage     *int    `db:"problems_per_page"`
	HideScore           *string `db:"hide_score"`
	HideWork            *string `db:"hide_work"`
	RestrictIP          *string `db:"restrict_ip"`
	VersionCreationTime int64   `db:"version_creation_time"`
	VersionLastAttempt  int64   `db:"version_last_attempt_time"`
}

func (s SetVersion) Type() string  { return TypeSetVersion }
func (s SetVersion) Key() []string { return []string{s.UserID, s.SetID, s.VersionID} }
