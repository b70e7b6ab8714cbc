package auth

// Role is the access level carried in a token.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleAmbassador Role = "ambassador"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleAmbassador
}

// LoginRole maps the optional role field of a login request. Anything other
// than "admin" logs in as an ambassador.
func LoginRole(requested string) Role {
	if requested == string(RoleAdmin) {
		return RoleAdmin
	}
	return RoleAmbassador
}

// HasRole reports whether r is one of allowed.
func HasRole(r Role, allowed ...Role) bool {
	for _, candidate := range allowed {
		if r == candidate {
			return true
		}
	}
	return false
}
