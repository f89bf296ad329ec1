package messages

import (
	"fmt"
	"strings"

	"vn.io.arda/admin-event-interpreter/internal/domain"
)

// ─── Group builders ──────────────────────────────────────────────────────────

func GroupMembership(op domain.OperationKind, subjectType domain.ObjectType, subjectID, groupName string) string {
	switch op {
	case domain.KindWrite:
		return fmt.Sprintf(GroupJoinedBody, subjectType, subjectID, groupName)
	case domain.KindDelete:
		return fmt.Sprintf(GroupLeftBody, subjectType, subjectID, groupName)
	default:
		return fmt.Sprintf(GroupChanged, subjectType, subjectID)
	}
}

// ─── Role builders ───────────────────────────────────────────────────────────

func RoleMapping(op domain.OperationKind, subjectType domain.ObjectType, subjectID, roleName string, v *domain.ValidationResult) string {
	var body string
	switch op {
	case domain.KindWrite:
		body = fmt.Sprintf(RoleGrantedBody, roleName, subjectType, subjectID)
	case domain.KindDelete:
		body = fmt.Sprintf(RoleRevokedBody, roleName, subjectType, subjectID)
	default:
		body = fmt.Sprintf(RoleChangedBody, roleName, subjectType, subjectID)
	}

	if v == nil {
		return body
	}
	if v.Granted() {
		return body + fmt.Sprintf(RoleOrgMatchesSuffix, strings.Join(v.Matches, ", "))
	}
	return body + RoleNoOrgSuffix
}

// Describe renders the human-readable line for an interpretation.
func Describe(in *domain.Interpretation) string {
	name := in.ObjectName
	if name == "" {
		name = in.ObjectID
	}
	if in.ObjectType == domain.ObjectGroup {
		return GroupMembership(in.Operation, in.SubjectType, in.SubjectID, name)
	}
	return RoleMapping(in.Operation, in.SubjectType, in.SubjectID, name, in.Validation)
}
