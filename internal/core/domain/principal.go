package domain

// Principal is the authenticated caller, decoded once per request from the access token.
type Principal struct {
	ID    string
	Email string
	Name  string
	Role  Role
}

func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }
