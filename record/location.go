package record

// Location names a place (a lab, a testing center) from which proctored
// work may be required to originate.
type Location struct {
	LocationID  string `db:"location_id"`
	Description string `db:"description"`
}

func (l Location) Type() string  { return TypeLocation }
func (l Location) Key() []string { return []string{l.LocationID} }

// LocationAddress is one IP mask belonging to a Location.
type LocationAddress struct {
	LocationID string `db:"location_id"`
	IPMask     string `db:"ip_mask"`
}

func (l LocationAddress) Type() string  { return TypeLocationAddress }
func (l LocationAddress) Key() []string { return []string{l.LocationID, l.IPMask} }

// GlobalSetLocation restricts a set to a location for all users.
type GlobalSetLocation struct {
	SetID      string `db:"set_id"`
	LocationID string `db:"location_id"`
}

func (l GlobalSetLocation) Type() string  { return TypeGlobalSetLocation }
func (l GlobalSetLocation) Key() []string { return []string{l.SetID, l.LocationID} }

// UserSetLocation overrides the location restriction for one user's copy
// of a set, mirroring the GlobalSet/UserSet pattern.
type UserSetLocation struct {
	UserID     string `db:"user_id"`
	SetID      string `db:"set_id"`
	LocationID string `db:"location_id"`
}

func (l UserSetLocation) Type() string  { return TypeUserSetLocation }
func (l UserSetLocation) Key() []string { return []string{l.UserID, l.SetID, l.LocationID} }
