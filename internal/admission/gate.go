package admission

import "postboard/internal/models"

// PrivilegeLevel is the access a route requires.
type PrivilegeLevel int

const (
	// PrivilegeNone marks public routes. No token is required; admission is
	// keyed by client IP.
	PrivilegeNone PrivilegeLevel = iota

	// PrivilegeMember requires a valid bearer token.
	PrivilegeMember

	// PrivilegeAdmin requires a valid bearer token belonging to an admin.
	PrivilegeAdmin
)

func (p PrivilegeLevel) String() string {
	switch p {
	case PrivilegeNone:
		return "none"
	case PrivilegeMember:
		return "member"
	case PrivilegeAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// Authorize checks that member satisfies the required privilege level.
// A nil member passes only PrivilegeNone.
func Authorize(member *models.Member, required PrivilegeLevel) error {
	switch required {
	case PrivilegeNone:
		return nil
	case PrivilegeMember:
		if member == nil {
			return ErrUnauthenticated
		}
		return nil
	case PrivilegeAdmin:
		if member == nil {
			return ErrUnauthenticated
		}
		if !member.IsAdmin {
			return ErrForbidden
		}
		return nil
	default:
		return ErrForbidden
	}
}
