package application_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vn.io.arda/admin-event-interpreter/internal/application"
	"vn.io.arda/admin-event-interpreter/internal/domain"
)

type serviceFixture struct {
	dir       *fakeDirectory
	repo      *memoryRepo
	hub       *recordingHub
	publisher *recordingPublisher
	svc       *application.Service
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	f := &serviceFixture{
		dir:       newFakeDirectory(),
		repo:      &memoryRepo{},
		hub:       &recordingHub{},
		publisher: &recordingPublisher{},
	}
	validator := application.NewOrgRoleValidator(f.dir, zerolog.Nop())
	f.svc = application.NewService(f.repo, f.hub, f.publisher, validator, zerolog.Nop())
	return f
}

func roleGrantEvent(id string) domain.AdminEvent {
	return domain.AdminEvent{
		ID:             id,
		RealmID:        "realm-uuid",
		AuthDetails:    domain.AuthDetails{RealmID: "master", ClientID: "admin-cli", UserID: "admin-1", IPAddress: "127.0.0.1"},
		ResourceType:   domain.ResourceClientRoleMapping,
		OperationType:  domain.OperationCreate,
		ResourcePath:   "users/u1/role-mappings/clients/cl-org-a",
		Representation: `[{"id":"role-org-a-viewer","name":"viewer","clientRole":true}]`,
	}
}

func TestInterpret_RoleGrantIsValidated(t *testing.T) {
	f := newServiceFixture(t)
	f.dir.users["u1"] = domain.User{ID: "u1"}
	f.dir.addOrg("u1", "org-a", "viewer")

	in, err := f.svc.Interpret(context.Background(), roleGrantEvent("evt-1"))
	require.NoError(t, err)
	require.NotNil(t, in)

	assert.Equal(t, "evt-1", in.EventID)
	assert.Equal(t, "acme", in.RealmID)
	assert.Equal(t, domain.ObjectRole, in.ObjectType)
	assert.Equal(t, domain.ObjectUser, in.SubjectType)
	assert.Equal(t, domain.KindWrite, in.Operation)
	assert.Equal(t, "u1", in.SubjectID)
	assert.Equal(t, "role-org-a-viewer", in.ObjectID)
	assert.Equal(t, "viewer", in.ObjectName)
	assert.Equal(t, "admin-1", in.AuthUserID)
	require.NotNil(t, in.Validation)
	assert.Equal(t, []string{"org-a-viewer"}, in.Validation.Matches)
	assert.Contains(t, in.Summary, "resourceType=CLIENT_ROLE_MAPPING")
	assert.Contains(t, in.Description, "org-a-viewer")

	assert.Equal(t, []string{"acme"}, f.hub.realms)
	assert.Len(t, f.publisher.published, 1)
}

func TestInterpret_DuplicateEventIsSkipped(t *testing.T) {
	f := newServiceFixture(t)
	f.dir.users["u1"] = domain.User{ID: "u1"}

	first, err := f.svc.Interpret(context.Background(), roleGrantEvent("evt-1"))
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := f.svc.Interpret(context.Background(), roleGrantEvent("evt-1"))
	require.NoError(t, err)
	assert.Nil(t, second)
	assert.Len(t, f.publisher.published, 1)
}

func TestInterpret_GroupMembership(t *testing.T) {
	f := newServiceFixture(t)

	in, err := f.svc.Interpret(context.Background(), domain.AdminEvent{
		ID:             "evt-2",
		RealmID:        "realm-uuid",
		ResourceType:   domain.ResourceGroupMembership,
		OperationType:  domain.OperationDelete,
		ResourcePath:   "users/u1/groups/g1",
		Representation: `{"id":"g1","name":"org-a","path":"/org-a"}`,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.ObjectGroup, in.ObjectType)
	assert.Equal(t, domain.KindDelete, in.Operation)
	assert.Equal(t, "org-a", in.ObjectName)
	assert.Nil(t, in.Validation)
	assert.Equal(t, "user u1 was removed from group 'org-a'.", in.Description)
	assert.NotContains(t, f.dir.calls, "GetUserByID")
}

func TestInterpret_RoleByIDTranslatesSubject(t *testing.T) {
	f := newServiceFixture(t)
	f.dir.roles["r9"] = domain.Role{ID: "r9", Name: "auditor"}

	in, err := f.svc.Interpret(context.Background(), domain.AdminEvent{
		ID:             "evt-3",
		RealmID:        "acme",
		ResourceType:   domain.ResourceRealmRole,
		OperationType:  domain.OperationUpdate,
		ResourcePath:   "roles-by-id/r9",
		Representation: `{"id":"r9","name":"auditor","description":"read only"}`,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ObjectRole, in.SubjectType)
	assert.Equal(t, "auditor", in.SubjectID)
	assert.Equal(t, domain.KindOther, in.Operation)
}

func TestInterpret_DeletedRoleKeepsID(t *testing.T) {
	f := newServiceFixture(t)

	in, err := f.svc.Interpret(context.Background(), domain.AdminEvent{
		ID:            "evt-4",
		RealmID:       "acme",
		ResourceType:  domain.ResourceRealmRole,
		OperationType: domain.OperationDelete,
		ResourcePath:  "roles-by-id/gone",
	})
	require.NoError(t, err)
	assert.Equal(t, "gone", in.SubjectID)
}

func TestInterpret_UnresolvableRoleFails(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.Interpret(context.Background(), domain.AdminEvent{
		ID:            "evt-5",
		RealmID:       "acme",
		ResourceType:  domain.ResourceRealmRole,
		OperationType: domain.OperationUpdate,
		ResourcePath:  "roles-by-id/missing",
	})
	assert.ErrorIs(t, err, domain.ErrRoleNotFound)
	assert.Empty(t, f.repo.items)
}

func TestInterpret_ClassificationErrorsAreSurfaced(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.svc.Interpret(ctx, domain.AdminEvent{ResourceType: domain.ResourceUser, ResourcePath: "users/u1"})
	assert.ErrorIs(t, err, domain.ErrUnsupportedResourceType)

	_, err = f.svc.Interpret(ctx, domain.AdminEvent{ResourceType: domain.ResourceGroupMembership, ResourcePath: "users"})
	assert.ErrorIs(t, err, domain.ErrMalformedResourcePath)

	_, err = f.svc.Interpret(ctx, domain.AdminEvent{
		ResourceType:   domain.ResourceGroupMembership,
		ResourcePath:   "users/u1/groups/g1",
		Representation: `{"id":`,
	})
	assert.ErrorIs(t, err, domain.ErrAttributeParse)

	assert.Empty(t, f.repo.items)
	assert.Empty(t, f.hub.realms)
}

func TestInterpret_ValidationFailureIsNotFatal(t *testing.T) {
	f := newServiceFixture(t)
	f.dir.failUser = true

	in, err := f.svc.Interpret(context.Background(), roleGrantEvent("evt-6"))
	require.NoError(t, err)
	assert.Nil(t, in.Validation)
}

func TestInterpret_PublishFailureIsNotFatal(t *testing.T) {
	f := newServiceFixture(t)
	f.publisher.err = errors.New("broker down")

	in, err := f.svc.Interpret(context.Background(), roleGrantEvent("evt-7"))
	require.NoError(t, err)
	assert.NotNil(t, in)
	assert.Len(t, f.repo.items, 1)
}

func TestInterpret_StoreFailure(t *testing.T) {
	f := newServiceFixture(t)
	f.repo.err = errors.New("db down")

	_, err := f.svc.Interpret(context.Background(), roleGrantEvent("evt-8"))
	require.Error(t, err)
	assert.Empty(t, f.hub.realms)
}

func TestInterpret_WithoutPublisher(t *testing.T) {
	dir := newFakeDirectory()
	svc := application.NewService(&memoryRepo{}, &recordingHub{}, nil,
		application.NewOrgRoleValidator(dir, zerolog.Nop()), zerolog.Nop())

	in, err := svc.Interpret(context.Background(), roleGrantEvent("evt-9"))
	require.NoError(t, err)
	assert.NotNil(t, in)
}

func TestList_ClampsLimit(t *testing.T) {
	f := newServiceFixture(t)
	for _, id := range []string{"a", "b", "c"} {
		ev := roleGrantEvent(id)
		_, err := f.svc.Interpret(context.Background(), ev)
		require.NoError(t, err)
	}

	items, err := f.svc.List(context.Background(), domain.InterpretationFilter{Limit: 1000})
	require.NoError(t, err)
	assert.Len(t, items, 3)

	items, err = f.svc.List(context.Background(), domain.InterpretationFilter{Limit: 2, Offset: -5})
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestGet(t *testing.T) {
	f := newServiceFixture(t)
	_, err := f.svc.Interpret(context.Background(), roleGrantEvent("evt-10"))
	require.NoError(t, err)

	in, err := f.svc.Get(context.Background(), "evt-10")
	require.NoError(t, err)
	assert.Equal(t, "evt-10", in.EventID)

	_, err = f.svc.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPurgeTTL(t *testing.T) {
	f := newServiceFixture(t)
	for _, id := range []string{"old", "new"} {
		_, err := f.svc.Interpret(context.Background(), roleGrantEvent(id))
		require.NoError(t, err)
	}
	f.repo.items[0].CreatedAt = f.repo.items[0].CreatedAt.AddDate(0, 0, -40)

	f.svc.PurgeTTL(context.Background(), 30)

	require.Len(t, f.repo.items, 1)
	assert.Equal(t, "new", f.repo.items[0].EventID)

	f.repo.err = errors.New("db down")
	assert.NotPanics(t, func() { f.svc.PurgeTTL(context.Background(), 30) })
}

func TestInterpret_RealmIsKeyedByName(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	byID := domain.AdminEvent{
		ID:             "evt-20",
		RealmID:        "realm-uuid",
		ResourceType:   domain.ResourceGroupMembership,
		OperationType:  domain.OperationCreate,
		ResourcePath:   "users/u1/groups/g1",
		Representation: `{"id":"g1","name":"org-a"}`,
	}
	byName := byID
	byName.ID = "evt-21"
	byName.RealmID = "acme"

	for _, ev := range []domain.AdminEvent{byID, byName} {
		in, err := f.svc.Interpret(ctx, ev)
		require.NoError(t, err)
		assert.Equal(t, "acme", in.RealmID)
	}
	assert.Equal(t, []string{"acme", "acme"}, f.hub.realms)

	items, err := f.svc.List(ctx, domain.InterpretationFilter{RealmID: "acme"})
	require.NoError(t, err)
	assert.Len(t, items, 2)

	name, err := f.svc.ResolveRealm(ctx, "realm-uuid")
	require.NoError(t, err)
	assert.Equal(t, "acme", name)
}

func TestInterpret_RealmComesFromEventOnly(t *testing.T) {
	f := newServiceFixture(t)

	// The acting admin's realm is not the realm that changed.
	_, err := f.svc.Interpret(context.Background(), domain.AdminEvent{
		ID:            "evt-22",
		AuthDetails:   domain.AuthDetails{RealmID: "acme", UserID: "admin-1"},
		ResourceType:  domain.ResourceGroupMembership,
		OperationType: domain.OperationCreate,
		ResourcePath:  "users/u1/groups/g1",
	})
	assert.ErrorIs(t, err, domain.ErrUnknownRealm)

	_, err = f.svc.Interpret(context.Background(), domain.AdminEvent{
		ID:            "evt-23",
		RealmID:       "elsewhere",
		ResourceType:  domain.ResourceGroupMembership,
		OperationType: domain.OperationCreate,
		ResourcePath:  "users/u1/groups/g1",
	})
	assert.ErrorIs(t, err, domain.ErrUnknownRealm)
	assert.Empty(t, f.repo.items)
}

func TestInterpret_RealmLookupFailure(t *testing.T) {
	f := newServiceFixture(t)
	f.dir.failRealm = true

	_, err := f.svc.Interpret(context.Background(), roleGrantEvent("evt-24"))
	assert.ErrorIs(t, err, domain.ErrDirectoryLookup)
	assert.ErrorIs(t, err, errDirectoryDown)
	assert.Empty(t, f.repo.items)
}
