package messages

// ─── Group membership ────────────────────────────────────────────────────────

const (
	GroupJoinedBody = "%s %s was added to group '%s'."
	GroupLeftBody   = "%s %s was removed from group '%s'."
	GroupChanged    = "Group membership of %s %s changed."
)

// ─── Role mapping ────────────────────────────────────────────────────────────

const (
	RoleGrantedBody = "Role '%s' was granted to %s %s."
	RoleRevokedBody = "Role '%s' was revoked from %s %s."
	RoleChangedBody = "Role '%s' of %s %s changed."

	RoleOrgMatchesSuffix = " Defined by organizations: %s."
	RoleNoOrgSuffix      = " No organization client defines it."
)
