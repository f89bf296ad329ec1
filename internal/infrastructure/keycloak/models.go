package keycloak

import (
	"strings"

	"vn.io.arda/admin-event-interpreter/internal/domain"
)

// tokenResponse is the client-credentials token payload.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type realmRep struct {
	ID      string `json:"id"`
	Realm   string `json:"realm"`
	Enabled bool   `json:"enabled"`
}

type userRep struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Enabled  bool   `json:"enabled"`
}

// groupRep carries parentId on Keycloak 23+; older servers only send path.
type groupRep struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Path     string `json:"path"`
	ParentID string `json:"parentId"`
}

type clientRep struct {
	ID       string `json:"id"`
	ClientID string `json:"clientId"`
	Name     string `json:"name"`
}

type roleRep struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ClientRole  bool   `json:"clientRole"`
	ContainerID string `json:"containerId"`
}

func (r realmRep) toDomain() *domain.Realm {
	return &domain.Realm{ID: r.ID, Name: r.Realm}
}

func (u userRep) toDomain() *domain.User {
	return &domain.User{ID: u.ID, Username: u.Username, Enabled: u.Enabled}
}

func (g groupRep) toDomain() domain.Group {
	parent := g.ParentID
	if parent == "" {
		// "/org-a/team" has parent "/org-a"; "/org-a" has none.
		trimmed := strings.Trim(g.Path, "/")
		if i := strings.LastIndex(trimmed, "/"); i >= 0 {
			parent = "/" + trimmed[:i]
		}
	}
	return domain.Group{ID: g.ID, Name: g.Name, Path: g.Path, ParentID: parent}
}

func (c clientRep) toDomain() *domain.Client {
	return &domain.Client{ID: c.ID, ClientID: c.ClientID, Name: c.Name}
}

func (r roleRep) toDomain() domain.Role {
	return domain.Role{ID: r.ID, Name: r.Name, ClientRole: r.ClientRole, ContainerID: r.ContainerID}
}
