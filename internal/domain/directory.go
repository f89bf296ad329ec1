package domain

// Realm is the directory's tenant boundary.
type Realm struct {
	ID   string `json:"id"`
	Name string `json:"realm"`
}

// User is a directory user. Groups is filled only by gateways that
// return memberships inline.
type User struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Enabled  bool    `json:"enabled"`
	Groups   []Group `json:"groups,omitempty"`
}

// Group is a directory group. Groups without a parent are organizations.
type Group struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Path     string `json:"path,omitempty"`
	ParentID string `json:"parent_id,omitempty"`
}

// IsOrganization reports whether the group is a top-level group.
func (g Group) IsOrganization() bool { return g.ParentID == "" }

// Client is a directory client (application). ID is the internal UUID,
// ClientID the human-assigned identifier.
type Client struct {
	ID       string `json:"id"`
	ClientID string `json:"client_id"`
	Name     string `json:"name,omitempty"`
}

// Role is a realm or client role.
type Role struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ClientRole  bool   `json:"client_role"`
	ContainerID string `json:"container_id,omitempty"`
}

// ValidationResult lists every "<org>-<role>" pair under which a user's
// organizations define the requested role.
type ValidationResult struct {
	RoleName string   `json:"role_name"`
	Matches  []string `json:"matches"`
}

// Granted reports whether at least one organization defines the role.
func (r *ValidationResult) Granted() bool { return r != nil && len(r.Matches) > 0 }
