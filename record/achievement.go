package record

// Achievement is a course-wide badge definition. The evaluation logic that
// decides when one is earned lives outside this layer.
type Achievement struct {
	AchievementID string `db:"achievement_id"`
	Name          string `db:"name"`
	Category      string `db:"category"`
	Points        int    `db:"points"`
	MaxCounter    int    `db:"max_counter"`
	Description   string `db:"description"`
	Enabled       bool   `db:"enabled"`
}

func (a Achievement) Type() string  { return TypeAchievement }
func (a Achievement) Key() []string { return []string{a.AchievementID} }

// UserAchievement tracks one user's progress toward one achievement.
type UserAchievement struct {
	UserID        string `db:"user_id"`
	AchievementID string `db:"achievement_id"`
	Earned        bool   `db:"earned"`
	Counter       int    `db:"counter"`
}

func (a UserAchievement) Type() string  { return TypeUserAchievement }
func (a UserAchievement) Key() []string { return []string{a.UserID, a.AchievementID} }

// GlobalUserAchievement aggregates a user's achievement score and level.
type GlobalUserAchievement struct {
	UserID             string `db:"user_id"`
	AchievementPoints  int    `db:"achievement_points"`
	LevelAchievementID string `db:"level_achievement_id"`
	FrozenHash         string `db:"frozen_hash"`
}

func (a GlobalUserAchievement) Type() string  { return TypeGlobalUserAchievement }
func (a GlobalUserAchievement) Key() []string { return []string{a.UserID} }
