package domain

// Roles allowed into the moderation area.
const (
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
)

// Moderator is the signed-in staff member decoded from the session cookie.
// The raw token is kept so gateway calls can forward it.
type Moderator struct {
	Id    string
	Email string
	Role  string
	Token string
}

func (m *Moderator) CanModerate() bool {
	return m != nil && (m.Role == RoleAdmin || m.Role == RoleModerator)
}
