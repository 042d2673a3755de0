package service

import (
	"github.com/shiftly-dev/shiftly/backend/internal/domain"
)

// RequireRole fails with Forbidden unless identity has the expected role.
func RequireRole(identity *domain.User, role domain.Role) error {
	if identity == nil {
		return domain.Errorf(domain.ErrUnauthorized, "Unauthorized")
	}
	if identity.Role != role {
		return domain.Errorf(domain.ErrForbidden, "Forbidden")
	}
	return nil
}

// canView reports whether identity may read shift: managers see the shifts they
// own, workers the shifts they are assigned to.
func canView(identity *domain.User, shift *domain.Shift) bool {
	switch identity.Role {
	case domain.RoleBoss:
		return shift.OwnedBy(identity.ID)
	case domain.RoleEmployee:
		return shift.AssignedTo(identity.ID)
	}
	return false
}
