package service

import "github.com/Skotchmaster/storefront/internal/models"

// Actor is the verified caller of an operation.
type Actor struct {
	UserID uint
	Role   models.Role
}

func (a Actor) IsAdmin() bool { return a.Role == models.RoleAdmin }

// TargetUser resolves which user an operation acts on. An omitted id means
// the caller; only admins may name someone else.
func (a Actor) TargetUser(requested *uint) (uint, error) {
	if requested == nil || *requested == a.UserID {
		return a.UserID, nil
	}
	if a.IsAdmin() {
		return *requested, nil
	}
	return 0, newError(ErrForbidden, nil, "cannot act on behalf of another user")
}
