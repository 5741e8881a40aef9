package types

// Principal is the authenticated caller produced by the auth middleware.
type Principal struct {
	UserID string   `json:"user_id"`
	Role   UserRole `json:"role"`
}

func (p Principal) IsAdmin() bool { return p.Role == UserRoleAdmin }

// CanAccess reports whether the principal may act on a resource owned by
// ownerID: owners and admins only.
func (p Principal) CanAccess(ownerID string) bool {
	return p.IsAdmin() || (p.UserID != "" && p.UserID == ownerID)
}
