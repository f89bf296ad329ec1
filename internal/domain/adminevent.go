package domain

// ResourceType is the Keycloak admin event resource tag.
type ResourceType string

const (
	ResourceRealm             ResourceType = "REALM"
	ResourceRealmRole         ResourceType = "REALM_ROLE"
	ResourceRealmRoleMapping  ResourceType = "REALM_ROLE_MAPPING"
	ResourceRealmScopeMapping ResourceType = "REALM_SCOPE_MAPPING"
	ResourceUser              ResourceType = "USER"
	ResourceGroup             ResourceType = "GROUP"
	ResourceGroupMembership   ResourceType = "GROUP_MEMBERSHIP"
	ResourceClient            ResourceType = "CLIENT"
	ResourceClientRole        ResourceType = "CLIENT_ROLE"
	ResourceClientRoleMapping ResourceType = "CLIENT_ROLE_MAPPING"
	ResourceClientScope       ResourceType = "CLIENT_SCOPE"
	ResourceComponent         ResourceType = "COMPONENT"
	ResourceCustom            ResourceType = "CUSTOM"
)

// OperationType is the Keycloak admin event operation tag.
type OperationType string

const (
	OperationCreate OperationType = "CREATE"
	OperationUpdate OperationType = "UPDATE"
	OperationDelete OperationType = "DELETE"
	OperationAction OperationType = "ACTION"
)

// ObjectType is the logical kind of object an event is about.
type ObjectType string

const (
	ObjectUser  ObjectType = "user"
	ObjectRole  ObjectType = "role"
	ObjectGroup ObjectType = "group"
)

// OperationKind collapses OperationType into the three outcomes the
// interpreter distinguishes. Write and delete can never both hold.
type OperationKind string

const (
	KindWrite  OperationKind = "write"
	KindDelete OperationKind = "delete"
	KindOther  OperationKind = "other"
)

func (k OperationKind) IsWrite() bool  { return k == KindWrite }
func (k OperationKind) IsDelete() bool { return k == KindDelete }

// AuthDetails identifies the admin session that produced an event.
// Only used for diagnostics.
type AuthDetails struct {
	RealmID   string `json:"realmId"`
	ClientID  string `json:"clientId"`
	UserID    string `json:"userId"`
	IPAddress string `json:"ipAddress"`
}

// AdminEvent mirrors the JSON shape Keycloak emits for administrative changes.
type AdminEvent struct {
	ID             string        `json:"id,omitempty"`
	Time           int64         `json:"time,omitempty"`
	RealmID        string        `json:"realmId"`
	AuthDetails    AuthDetails   `json:"authDetails"`
	ResourceType   ResourceType  `json:"resourceType"`
	OperationType  OperationType `json:"operationType"`
	ResourcePath   string        `json:"resourcePath"`
	Representation string        `json:"representation,omitempty"`
	Error          string        `json:"error,omitempty"`
}

// ParsedEvent is the classification of a single AdminEvent.
//
// ObjectType comes from the resource type table, SubjectType from the first
// resource path segment. For "users/u1/groups/g1" under GROUP_MEMBERSHIP the
// object is a group and the subject a user.
type ParsedEvent struct {
	ObjectType   ObjectType    `json:"object_type"`
	SubjectType  ObjectType    `json:"subject_type"`
	Operation    OperationKind `json:"operation"`
	ResourceName string        `json:"resource_name"`
	TargetID     string        `json:"target_id"`
}
