package record

// Merged projections: the effective record for a (user, entity) pair,
// computed by overlaying the user-level override onto the global row.
// These are never persisted and have no repositories; the merge resolver
// builds them fresh on every call.

// MergedSet is the effective assignment a user sees.
type MergedSet struct {
	UserID              string `db:"user_id"`
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

// MergedSetVersion is the effective state of one graded gateway attempt:
// a SetVersion snapshot overlaid on the owning GlobalSet.
type MergedSetVersion struct {
	UserID              string `db:"user_id"`
	SetID               string `db:"set_id"`
	VersionID           string `db:"version_id"`
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
	VersionCreationTime int64  `db:"version_creation_time"`
	VersionLastAttempt  int64  `db:"version_last_attempt_time"`
}

// MergedProblem is the effective problem a user works on, including the
// user's own state fields.
type MergedProblem struct {
	UserID       string  `db:"user_id"`
	SetID        string  `db:"set_id"`
	ProblemID    string  `db:"problem_id"`
	SourceFile   string  `db:"source_file"`
	Value        int     `db:"value"`
	MaxAttempts  int     `db:"max_attempts"`
	ProblemSeed  int     `db:"problem_seed"`
	Status       float64 `db:"status"`
	Attempted    int     `db:"attempted"`
	NumCorrect   int     `db:"num_correct"`
	NumIncorrect int     `db:"num_incorrect"`
	LastAnswer   string  `db:"last_answer"`
}

// MergedProblemVersion is the effective problem inside one graded gateway
// attempt: a ProblemVersion snapshot overlaid on the owning GlobalProblem.
type MergedProblemVersion struct {
	UserID       string  `db:"user_id"`
	SetID        string  `db:"set_id"`
	VersionID    string  `db:"version_id"`
	ProblemID    string  `db:"problem_id"`
	SourceFile   string  `db:"source_file"`
	Value        int     `db:"value"`
	MaxAttempts  int     `db:"max_attempts"`
	ProblemSeed  int     `db:"problem_seed"`
	Status       float64 `db:"status"`
	Attempted    int     `db:"attempted"`
	NumCorrect   int     `db:"num_correct"`
	NumIncorrect int     `db:"num_incorrect"`
	LastAnswer   string  `db:"last_answer"`
}
