package record

// Entity type names, as used by descriptors, dependency declarations and
// the registry lookup table.
const (
	TypeUser                  = "user"
	TypePassword              = "password"
	TypePermission            = "permission"
	TypeSessionKey            = "key"
	TypeGlobalSet             = "set"
	TypeUserSet               = "set_user"
	TypeSetVersion            = "set_version"
	TypeGlobalProblem         = "problem"
	TypeUserProblem           = "problem_user"
	TypeProblemVersion        = "problem_version"
	TypeAchievement           = "achievement"
	TypeUserAchievement       = "achievement_user"
	TypeGlobalUserAchievement = "global_user_achievement"
	TypeLocation              = "location"
	TypeLocationAddress       = "location_addresses"
	TypeGlobalSetLocation     = "set_locations"
	TypeUserSetLocation       = "set_locations_user"
	TypePastAnswer            = "past_answer"
)

// User is the course roster entry. Everything else hangs off it.
type User struct {
	UserID       string `db:"user_id"`
	FirstName    string `db:"first_name"`
	LastName     string `db:"last_name"`
	EmailAddress string `db:"email_address"`
	StudentID    string `db:"student_id"`
	Status       string `db:"status"`
	Section      string `db:"section"`
	Recitation   string `db:"recitation"`
	Comment      string `db:"comment"`
}

func (u User) Type() string  { return TypeUser }
func (u User) Key() []string { return []string{u.UserID} }

// Password holds the crypted login password for one user.
type Password struct {
	UserID   string `db:"user_id"`
	Password string `db:"password"`
}

func (p Password) Type() string  { return TypePassword }
func (p Password) Key() []string { return []string{p.UserID} }

// PermissionLevel holds the numeric privilege level for one user.
type PermissionLevel struct {
	UserID     string `db:"user_id"`
	Permission int    `db:"permission"`
}

func (p PermissionLevel) Type() string  { return TypePermission }
func (p PermissionLevel) Key() []string { return []string{p.UserID} }

// SessionKey is the per-user login session token.
type SessionKey struct {
	UserID    string `db:"user_id"`
	KeyValue  string `db:"key_not_a_keyword"`
	Timestamp int64  `db:"timestamp"`
}

func (k SessionKey) Type() string  { return TypeSessionKey }
func (k SessionKey) Key() []string { return []string{k.UserID} }
