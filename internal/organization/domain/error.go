package domain

import "errors"

var (
	ErrInvalidCompanyName   = errors.New("invalid_company_name")
	ErrInvalidRole          = errors.New("invalid_role")
	ErrInvalidUser          = errors.New("invalid_user")
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrProfileNotFound      = errors.New("profile not found")

	// ErrNotAdmin is returned when the acting profile lacks the admin role.
	ErrNotAdmin = errors.New("only administrators may perform this action")

	// ErrCrossTenant is returned when the target profile belongs to another
	// organization.
	ErrCrossTenant = errors.New("target belongs to a different organization")

	// ErrSoleAdmin is returned when an operation would leave an organization
	// without any admin.
	ErrSoleAdmin = errors.New("organization must keep at least one administrator")

	// ErrCoAdminsPresent is returned when organization deletion is requested
	// while other admins still exist.
	ErrCoAdminsPresent = errors.New("other administrators exist; demote or remove them first")

	// ErrSelfRemoval is returned when an admin tries to remove their own
	// membership through the member-removal path.
	ErrSelfRemoval = errors.New("cannot remove yourself; use account deletion instead")
)
