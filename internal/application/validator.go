package application

import (
	"context"

	"github.com/rs/zerolog"

	"vn.io.arda/admin-event-interpreter/internal/adminevent"
	"vn.io.arda/admin-event-interpreter/internal/domain"
)

// OrgNameToClientID maps an organization group to the clientId of the client
// that represents it. The association is by name equality; there is no
// explicit link between groups and clients in the directory.
func OrgNameToClientID(g domain.Group) string {
	return g.Name
}

// OrgRoleValidator checks whether a user's organizations grant a role through
// the client associated with each organization.
type OrgRoleValidator struct {
	directory       DirectoryGateway
	logger          zerolog.Logger
	orgNameOverride string
}

// ValidatorOption configures an OrgRoleValidator.
type ValidatorOption func(*OrgRoleValidator)

// WithOrgNameOverride makes every organization resolve to the same client id,
// reproducing deployments that looked up a fixed organization name.
// An empty name keeps the group-name convention.
func WithOrgNameOverride(name string) ValidatorOption {
	return func(v *OrgRoleValidator) { v.orgNameOverride = name }
}

// NewOrgRoleValidator creates a validator backed by the given directory.
func NewOrgRoleValidator(directory DirectoryGateway, logger zerolog.Logger, opts ...ValidatorOption) *OrgRoleValidator {
	v := &OrgRoleValidator{
		directory: directory,
		logger:    logger.With().Str("component", "org_role_validator").Logger(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// UsersOrganizations returns the user's top-level groups. An unknown user has
// no organizations and is not an error.
func (v *OrgRoleValidator) UsersOrganizations(ctx context.Context, realmID, userID string) ([]domain.Group, error) {
	realm, err := v.ResolveRealm(ctx, realmID)
	if err != nil {
		return nil, err
	}

	user, err := v.directory.GetUserByID(ctx, realm, userID)
	if err != nil {
		return nil, domain.NewEventError(domain.ErrDirectoryLookup, "user "+userID, err)
	}
	if user == nil {
		return []domain.Group{}, nil
	}

	groups := user.Groups
	if groups == nil {
		groups, err = v.directory.UserGroups(ctx, realm, userID)
		if err != nil {
			return nil, domain.NewEventError(domain.ErrDirectoryLookup, "groups of user "+userID, err)
		}
	}

	orgs := make([]domain.Group, 0, len(groups))
	for _, g := range groups {
		if g.IsOrganization() {
			orgs = append(orgs, g)
		}
	}
	return orgs, nil
}

// FindClientByOrgName returns the client whose clientId equals orgName, or nil.
func (v *OrgRoleValidator) FindClientByOrgName(ctx context.Context, realmID, orgName string) (*domain.Client, error) {
	realm, err := v.ResolveRealm(ctx, realmID)
	if err != nil {
		return nil, err
	}
	client, err := v.directory.GetClientByClientID(ctx, realm, orgName)
	if err != nil {
		return nil, domain.NewEventError(domain.ErrDirectoryLookup, "client "+orgName, err)
	}
	return client, nil
}

// FindClientRole returns the first role of the client named roleName, or nil.
// Directory errors are logged and reported as "no role": a failed lookup here
// never fails the surrounding validation.
func (v *OrgRoleValidator) FindClientRole(ctx context.Context, realmID, clientUUID, roleName string) *domain.Role {
	realm, err := v.directory.GetRealm(ctx, realmID)
	if err != nil || realm == nil {
		v.logger.Debug().Err(err).Str("realm", realmID).Msg("client role lookup: realm unavailable")
		return nil
	}

	client, err := v.directory.GetClientByID(ctx, realm, clientUUID)
	if err != nil || client == nil {
		v.logger.Debug().Err(err).Str("client", clientUUID).Msg("client role lookup: client unavailable")
		return nil
	}

	roles, err := v.directory.ClientRoles(ctx, realm, client.ID)
	if err != nil {
		v.logger.Debug().Err(err).Str("client", client.ClientID).Msg("client role lookup: roles unavailable")
		return nil
	}
	for i := range roles {
		if roles[i].Name == roleName {
			return &roles[i]
		}
	}
	return nil
}

// ValidateRoleInUserOrgClients collects "<org>-<role>" for every organization
// of the user whose client defines roleName.
func (v *OrgRoleValidator) ValidateRoleInUserOrgClients(ctx context.Context, realmID, userID, roleName string) (*domain.ValidationResult, error) {
	orgs, err := v.UsersOrganizations(ctx, realmID, userID)
	if err != nil {
		return nil, err
	}

	result := &domain.ValidationResult{RoleName: roleName, Matches: []string{}}
	for _, org := range orgs {
		orgName := OrgNameToClientID(org)
		if v.orgNameOverride != "" {
			orgName = v.orgNameOverride
		}

		client, err := v.FindClientByOrgName(ctx, realmID, orgName)
		if err != nil {
			return nil, err
		}
		if client == nil {
			v.logger.Debug().Str("org", orgName).Msg("no client for organization")
			continue
		}

		role := v.FindClientRole(ctx, realmID, client.ID, roleName)
		if role == nil {
			continue
		}
		result.Matches = append(result.Matches, orgName+"-"+role.Name)
	}

	v.logger.Debug().
		Str("realm", realmID).
		Str("user", userID).
		Str("role", roleName).
		Int("organizations", len(orgs)).
		Strs("matches", result.Matches).
		Msg("role validated against organization clients")

	return result, nil
}

// RoleNameResolver binds role-id lookups to a realm.
func (v *OrgRoleValidator) RoleNameResolver(realmID string) adminevent.RoleNameResolver {
	return adminevent.RoleNameResolverFunc(func(ctx context.Context, roleID string) (string, error) {
		realm, err := v.ResolveRealm(ctx, realmID)
		if err != nil {
			return "", err
		}
		role, err := v.directory.GetRoleByID(ctx, realm, roleID)
		if err != nil {
			return "", domain.NewEventError(domain.ErrDirectoryLookup, "role "+roleID, err)
		}
		if role == nil {
			return "", domain.NewEventError(domain.ErrRoleNotFound, "id:"+roleID+" realm:"+realmID, nil)
		}
		return role.Name, nil
	})
}

// ResolveRealm looks a realm up by id or name. A realm the directory does not
// know is ErrUnknownRealm; a failed lookup is ErrDirectoryLookup.
func (v *OrgRoleValidator) ResolveRealm(ctx context.Context, ref string) (*domain.Realm, error) {
	if ref == "" {
		return nil, domain.NewEventError(domain.ErrUnknownRealm, "empty realm", nil)
	}
	realm, err := v.directory.GetRealm(ctx, ref)
	if err != nil {
		return nil, domain.NewEventError(domain.ErrDirectoryLookup, "realm "+ref, err)
	}
	if realm == nil {
		return nil, domain.NewEventError(domain.ErrUnknownRealm, ref, nil)
	}
	return realm, nil
}
