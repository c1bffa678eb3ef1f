package domain

// Role names stored on users.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// RequestContext carries authenticated user info when available.
type RequestContext struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

// IsAdmin reports whether the token carried the admin role.
func (rc RequestContext) IsAdmin() bool {
	return rc.Role == RoleAdmin
}
