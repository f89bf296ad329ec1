// Package adminevent classifies Keycloak administrative change events and
// extracts attributes from their JSON representation. Everything here is a
// pure function of the event, except TranslateSubjectID which consults a
// RoleNameResolver.
package adminevent

import (
	"context"
	"fmt"
	"strings"

	"vn.io.arda/admin-event-interpreter/internal/domain"
)

// Resource path segment names.
const (
	ResourceUsers     = "users"
	ResourceGroups    = "groups"
	ResourceRolesByID = "roles-by-id"
)

var objectTypes = map[domain.ResourceType]domain.ObjectType{
	domain.ResourceRealmRoleMapping:  domain.ObjectRole,
	domain.ResourceRealmRole:         domain.ObjectRole,
	domain.ResourceClientRoleMapping: domain.ObjectRole,
	domain.ResourceGroupMembership:   domain.ObjectGroup,
}

var subjectTypes = map[string]domain.ObjectType{
	ResourceUsers:     domain.ObjectUser,
	ResourceGroups:    domain.ObjectGroup,
	ResourceRolesByID: domain.ObjectRole,
}

// RoleNameResolver looks up a role's display name by id in the event's realm.
// Implementations return an error matching domain.ErrRoleNotFound when the
// role does not exist.
type RoleNameResolver interface {
	RoleName(ctx context.Context, roleID string) (string, error)
}

// RoleNameResolverFunc adapts a function to RoleNameResolver.
type RoleNameResolverFunc func(ctx context.Context, roleID string) (string, error)

func (f RoleNameResolverFunc) RoleName(ctx context.Context, roleID string) (string, error) {
	return f(ctx, roleID)
}

// ClassifyObjectType maps the event's resource type to the kind of object
// that changed. Only role and group mapping resource types are handled.
func ClassifyObjectType(ev domain.AdminEvent) (domain.ObjectType, error) {
	t, ok := objectTypes[ev.ResourceType]
	if !ok {
		return "", domain.NewEventError(domain.ErrUnsupportedResourceType,
			fmt.Sprintf("id:%s resource:%s", ev.ID, ev.ResourceType), nil)
	}
	return t, nil
}

// ClassifyUserType maps the first resource path segment to the kind of
// subject the event is about.
func ClassifyUserType(resourcePath string) (domain.ObjectType, error) {
	name, err := ResourceName(resourcePath)
	if err != nil {
		return "", err
	}
	t, ok := subjectTypes[name]
	if !ok {
		return "", domain.NewEventError(domain.ErrUnsupportedResourceName, name, nil)
	}
	return t, nil
}

// OperationKindOf collapses an operation tag to write, delete or other.
func OperationKindOf(op domain.OperationType) domain.OperationKind {
	switch op {
	case domain.OperationCreate:
		return domain.KindWrite
	case domain.OperationDelete:
		return domain.KindDelete
	default:
		return domain.KindOther
	}
}

// ResourceName returns the first resource path segment.
func ResourceName(resourcePath string) (string, error) {
	segs, err := segments(resourcePath)
	if err != nil {
		return "", err
	}
	return segs[0], nil
}

// TargetID returns the second resource path segment.
func TargetID(resourcePath string) (string, error) {
	segs, err := segments(resourcePath)
	if err != nil {
		return "", err
	}
	return segs[1], nil
}

func segments(resourcePath string) ([]string, error) {
	segs := strings.Split(resourcePath, "/")
	if len(segs) < 2 || segs[0] == "" || segs[1] == "" {
		return nil, domain.NewEventError(domain.ErrMalformedResourcePath, fmt.Sprintf("%q", resourcePath), nil)
	}
	return segs, nil
}

// TranslateSubjectID returns the target id of the path, or the role name
// when the path addresses a role by id.
func TranslateSubjectID(ctx context.Context, resourcePath string, resolver RoleNameResolver) (string, error) {
	subject, err := ClassifyUserType(resourcePath)
	if err != nil {
		return "", err
	}
	id, err := TargetID(resourcePath)
	if err != nil {
		return "", err
	}
	if subject != domain.ObjectRole {
		return id, nil
	}
	if resolver == nil {
		return "", domain.NewEventError(domain.ErrRoleNotFound, "no role resolver for "+id, nil)
	}
	return resolver.RoleName(ctx, id)
}

// Parse classifies an event. The first failing step is returned.
func Parse(ev domain.AdminEvent) (*domain.ParsedEvent, error) {
	objectType, err := ClassifyObjectType(ev)
	if err != nil {
		return nil, err
	}
	subjectType, err := ClassifyUserType(ev.ResourcePath)
	if err != nil {
		return nil, err
	}
	// ClassifyUserType already validated the path.
	segs, _ := segments(ev.ResourcePath)

	return &domain.ParsedEvent{
		ObjectType:   objectType,
		SubjectType:  subjectType,
		Operation:    OperationKindOf(ev.OperationType),
		ResourceName: segs[0],
		TargetID:     segs[1],
	}, nil
}

// IsUserEvent reports whether the path addresses a user, ignoring case.
func IsUserEvent(resourcePath string) bool { return hasResourceName(resourcePath, ResourceUsers) }

// IsGroupEvent reports whether the path addresses a group, ignoring case.
func IsGroupEvent(resourcePath string) bool { return hasResourceName(resourcePath, ResourceGroups) }

// IsRoleEvent reports whether the path addresses a role by id, ignoring case.
func IsRoleEvent(resourcePath string) bool { return hasResourceName(resourcePath, ResourceRolesByID) }

func hasResourceName(resourcePath, name string) bool {
	first, _, _ := strings.Cut(resourcePath, "/")
	return strings.EqualFold(first, name)
}

// AuthenticatedUserID returns the id of the admin who made the change.
func AuthenticatedUserID(ev domain.AdminEvent) string {
	return ev.AuthDetails.UserID
}
