package application_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"vn.io.arda/admin-event-interpreter/internal/domain"
)

// fakeDirectory is an in-memory DirectoryGateway for a single realm.
type fakeDirectory struct {
	realm       domain.Realm
	users       map[string]domain.User
	groups      map[string][]domain.Group // userID -> groups
	clients     []domain.Client
	clientRoles map[string][]domain.Role // client internal id -> roles
	roles       map[string]domain.Role   // role id -> role

	failRealm       bool
	failClientRoles bool
	failClientByID  bool
	failUser        bool

	mu    sync.Mutex
	calls []string
}

var errDirectoryDown = errors.New("directory unavailable")

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		realm:       domain.Realm{ID: "realm-uuid", Name: "acme"},
		users:       map[string]domain.User{},
		groups:      map[string][]domain.Group{},
		clientRoles: map[string][]domain.Role{},
		roles:       map[string]domain.Role{},
	}
}

func (f *fakeDirectory) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeDirectory) GetRealm(_ context.Context, id string) (*domain.Realm, error) {
	f.record("GetRealm")
	if f.failRealm {
		return nil, errDirectoryDown
	}
	if id == f.realm.ID || id == f.realm.Name {
		r := f.realm
		return &r, nil
	}
	return nil, nil
}

func (f *fakeDirectory) GetUserByID(_ context.Context, _ *domain.Realm, id string) (*domain.User, error) {
	f.record("GetUserByID")
	if f.failUser {
		return nil, errDirectoryDown
	}
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (f *fakeDirectory) UserGroups(_ context.Context, _ *domain.Realm, userID string) ([]domain.Group, error) {
	f.record("UserGroups")
	return f.groups[userID], nil
}

func (f *fakeDirectory) GetClientByClientID(_ context.Context, _ *domain.Realm, clientID string) (*domain.Client, error) {
	f.record("GetClientByClientID:" + clientID)
	for _, c := range f.clients {
		if c.ClientID == clientID {
			c := c
			return &c, nil
		}
	}
	return nil, nil
}

func (f *fakeDirectory) GetClientByID(_ context.Context, _ *domain.Realm, id string) (*domain.Client, error) {
	f.record("GetClientByID")
	if f.failClientByID {
		return nil, errDirectoryDown
	}
	for _, c := range f.clients {
		if c.ID == id {
			c := c
			return &c, nil
		}
	}
	return nil, nil
}

func (f *fakeDirectory) ClientRoles(_ context.Context, _ *domain.Realm, clientID string) ([]domain.Role, error) {
	f.record("ClientRoles")
	if f.failClientRoles {
		return nil, errDirectoryDown
	}
	return f.clientRoles[clientID], nil
}

func (f *fakeDirectory) GetRoleByID(_ context.Context, _ *domain.Realm, id string) (*domain.Role, error) {
	f.record("GetRoleByID")
	r, ok := f.roles[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

// addOrg registers a top-level group for the user and a same-named client
// defining the given roles.
func (f *fakeDirectory) addOrg(userID, org string, roles ...string) {
	f.groups[userID] = append(f.groups[userID], domain.Group{ID: "grp-" + org, Name: org, Path: "/" + org})
	clientUUID := "cl-" + org
	f.clients = append(f.clients, domain.Client{ID: clientUUID, ClientID: org, Name: org})
	for _, r := range roles {
		f.clientRoles[clientUUID] = append(f.clientRoles[clientUUID], domain.Role{
			ID: "role-" + org + "-" + r, Name: r, ClientRole: true, ContainerID: clientUUID,
		})
	}
}

// memoryRepo is an in-memory domain.Repository.
type memoryRepo struct {
	mu    sync.Mutex
	items []*domain.Interpretation
	err   error
}

func (r *memoryRepo) Create(_ context.Context, in *domain.Interpretation) (*domain.Interpretation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	if in.EventID != "" {
		for _, existing := range r.items {
			if existing.EventID == in.EventID {
				return nil, nil
			}
		}
	}
	saved := *in
	saved.ID = uuid.New()
	saved.CreatedAt = time.Now()
	r.items = append(r.items, &saved)
	return &saved, nil
}

func (r *memoryRepo) List(_ context.Context, f domain.InterpretationFilter) ([]*domain.Interpretation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Interpretation
	for _, in := range r.items {
		if f.RealmID != "" && in.RealmID != f.RealmID {
			continue
		}
		out = append(out, in)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if f.Offset >= len(out) {
		return nil, nil
	}
	out = out[f.Offset:]
	if len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *memoryRepo) GetByEventID(_ context.Context, eventID string) (*domain.Interpretation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, in := range r.items {
		if in.EventID == eventID {
			return in, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memoryRepo) PurgeOlderThan(_ context.Context, days int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	cutoff := time.Now().AddDate(0, 0, -days)
	kept := r.items[:0]
	var purged int64
	for _, in := range r.items {
		if in.CreatedAt.Before(cutoff) {
			purged++
			continue
		}
		kept = append(kept, in)
	}
	r.items = kept
	return purged, nil
}

type recordingHub struct {
	mu     sync.Mutex
	realms []string
}

func (h *recordingHub) Broadcast(realmID string, _ *domain.Interpretation) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.realms = append(h.realms, realmID)
}

type recordingPublisher struct {
	mu        sync.Mutex
	published []*domain.Interpretation
	err       error
}

func (p *recordingPublisher) Publish(_ context.Context, in *domain.Interpretation) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, in)
	return p.err
}
