package record

// PastAnswer is one row of the append-only answer-submission log. AnswerID
// is a UUID allocated by the layer when left empty on add; rows are never
// updated after the fact.
type PastAnswer struct {
	UserID        string  `db:"user_id"`
	SetID         string  `db:"set_id"`
	ProblemID     string  `db:"problem_id"`
	AnswerID      string  `db:"answer_id"`
	Timestamp     int64   `db:"timestamp"`
	Scores        string  `db:"scores"`
	AnswerString  string  `db:"answer_string"`
	CommentString string  `db:"comment_string"`
	SourceFile    string  `db:"source_file"`
	ProblemSeed   int     `db:"problem_seed"`
	Score         float64 `db:"score"`
}

func (a PastAnswer) Type() string { return TypePastAnswer }
func (a PastAnswer) Key() []string {
	return []string{a.UserID, a.SetID, a.ProblemID, a.AnswerID}
}
