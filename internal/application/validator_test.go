package application_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vn.io.arda/admin-event-interpreter/internal/application"
	"vn.io.arda/admin-event-interpreter/internal/domain"
)

func TestUsersOrganizations_UnknownUserIsEmpty(t *testing.T) {
	dir := newFakeDirectory()
	v := application.NewOrgRoleValidator(dir, zerolog.Nop())

	orgs, err := v.UsersOrganizations(context.Background(), "acme", "ghost")
	require.NoError(t, err)
	assert.NotNil(t, orgs)
	assert.Empty(t, orgs)
}

func TestUsersOrganizations_OnlyRootGroups(t *testing.T) {
	dir := newFakeDirectory()
	dir.users["u1"] = domain.User{ID: "u1"}
	dir.addOrg("u1", "org-a")
	dir.groups["u1"] = append(dir.groups["u1"], domain.Group{ID: "team", Name: "team", Path: "/org-a/team", ParentID: "grp-org-a"})
	v := application.NewOrgRoleValidator(dir, zerolog.Nop())

	orgs, err := v.UsersOrganizations(context.Background(), "realm-uuid", "u1")
	require.NoError(t, err)
	require.Len(t, orgs, 1)
	assert.Equal(t, "org-a", orgs[0].Name)
}

func TestUsersOrganizations_InlineGroupsSkipLookup(t *testing.T) {
	dir := newFakeDirectory()
	dir.users["u1"] = domain.User{ID: "u1", Groups: []domain.Group{{ID: "g", Name: "org-x"}}}
	v := application.NewOrgRoleValidator(dir, zerolog.Nop())

	orgs, err := v.UsersOrganizations(context.Background(), "acme", "u1")
	require.NoError(t, err)
	require.Len(t, orgs, 1)
	assert.NotContains(t, dir.calls, "UserGroups")
}

func TestUsersOrganizations_Errors(t *testing.T) {
	dir := newFakeDirectory()
	v := application.NewOrgRoleValidator(dir, zerolog.Nop())

	_, err := v.UsersOrganizations(context.Background(), "no-such-realm", "u1")
	assert.ErrorIs(t, err, domain.ErrUnknownRealm)
	assert.NotErrorIs(t, err, domain.ErrDirectoryLookup)

	dir.failUser = true
	_, err = v.UsersOrganizations(context.Background(), "acme", "u1")
	assert.ErrorIs(t, err, domain.ErrDirectoryLookup)
	assert.ErrorIs(t, err, errDirectoryDown)
}

func TestFindClientRole_SwallowsErrors(t *testing.T) {
	dir := newFakeDirectory()
	dir.addOrg("u1", "org-a", "viewer")
	v := application.NewOrgRoleValidator(dir, zerolog.Nop())
	ctx := context.Background()

	role := v.FindClientRole(ctx, "acme", "cl-org-a", "viewer")
	require.NotNil(t, role)
	assert.Equal(t, "viewer", role.Name)

	assert.Nil(t, v.FindClientRole(ctx, "acme", "cl-org-a", "editor"))
	assert.Nil(t, v.FindClientRole(ctx, "acme", "cl-missing", "viewer"))
	assert.Nil(t, v.FindClientRole(ctx, "no-such-realm", "cl-org-a", "viewer"))

	dir.failClientRoles = true
	assert.Nil(t, v.FindClientRole(ctx, "acme", "cl-org-a", "viewer"))

	dir.failClientRoles = false
	dir.failClientByID = true
	assert.Nil(t, v.FindClientRole(ctx, "acme", "cl-org-a", "viewer"))
}

func TestValidateRoleInUserOrgClients_Matches(t *testing.T) {
	dir := newFakeDirectory()
	dir.users["u1"] = domain.User{ID: "u1"}
	dir.addOrg("u1", "org-a", "viewer", "editor")
	dir.addOrg("u1", "org-b", "editor")
	dir.addOrg("u1", "org-c", "viewer")
	v := application.NewOrgRoleValidator(dir, zerolog.Nop())

	result, err := v.ValidateRoleInUserOrgClients(context.Background(), "acme", "u1", "viewer")
	require.NoError(t, err)
	assert.Equal(t, "viewer", result.RoleName)
	assert.Equal(t, []string{"org-a-viewer", "org-c-viewer"}, result.Matches)
	assert.True(t, result.Granted())
}

func TestValidateRoleInUserOrgClients_NoOrganizations(t *testing.T) {
	dir := newFakeDirectory()
	dir.users["u1"] = domain.User{ID: "u1"}
	v := application.NewOrgRoleValidator(dir, zerolog.Nop())

	result, err := v.ValidateRoleInUserOrgClients(context.Background(), "acme", "u1", "viewer")
	require.NoError(t, err)
	assert.Empty(t, result.Matches)
	assert.False(t, result.Granted())
}

func TestValidateRoleInUserOrgClients_OrgWithoutClient(t *testing.T) {
	dir := newFakeDirectory()
	dir.users["u1"] = domain.User{ID: "u1"}
	dir.groups["u1"] = []domain.Group{{ID: "g1", Name: "orphan-org"}}
	v := application.NewOrgRoleValidator(dir, zerolog.Nop())

	result, err := v.ValidateRoleInUserOrgClients(context.Background(), "acme", "u1", "viewer")
	require.NoError(t, err)
	assert.Empty(t, result.Matches)
}

func TestValidateRoleInUserOrgClients_RoleLookupFailureIsNotFatal(t *testing.T) {
	dir := newFakeDirectory()
	dir.users["u1"] = domain.User{ID: "u1"}
	dir.addOrg("u1", "org-a", "viewer")
	dir.failClientRoles = true
	v := application.NewOrgRoleValidator(dir, zerolog.Nop())

	result, err := v.ValidateRoleInUserOrgClients(context.Background(), "acme", "u1", "viewer")
	require.NoError(t, err)
	assert.Empty(t, result.Matches)
}

func TestValidateRoleInUserOrgClients_OrgNameOverride(t *testing.T) {
	dir := newFakeDirectory()
	dir.users["u1"] = domain.User{ID: "u1"}
	dir.addOrg("u1", "org-a", "viewer")
	dir.addOrg("u1", "org-b")
	v := application.NewOrgRoleValidator(dir, zerolog.Nop(), application.WithOrgNameOverride("org-a"))

	result, err := v.ValidateRoleInUserOrgClients(context.Background(), "acme", "u1", "viewer")
	require.NoError(t, err)
	// Both organizations resolve to the org-a client.
	assert.Equal(t, []string{"org-a-viewer", "org-a-viewer"}, result.Matches)
	assert.NotContains(t, dir.calls, "GetClientByClientID:org-b")
}

func TestOrgNameToClientID(t *testing.T) {
	assert.Equal(t, "org-a", application.OrgNameToClientID(domain.Group{ID: "x", Name: "org-a"}))
}

func TestRoleNameResolver(t *testing.T) {
	dir := newFakeDirectory()
	dir.roles["r1"] = domain.Role{ID: "r1", Name: "viewer"}
	resolver := application.NewOrgRoleValidator(dir, zerolog.Nop()).RoleNameResolver("acme")

	name, err := resolver.RoleName(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "viewer", name)

	_, err = resolver.RoleName(context.Background(), "r2")
	assert.ErrorIs(t, err, domain.ErrRoleNotFound)
}
