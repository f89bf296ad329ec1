package application

import (
	"context"

	"vn.io.arda/admin-event-interpreter/internal/domain"
)

// DirectoryGateway is the read-only view of the identity provider's live data.
// The default implementation calls the Keycloak Admin REST API.
//
// Lookups of a single entity return nil, nil when it does not exist.
type DirectoryGateway interface {
	// GetRealm resolves a realm by its id or name.
	GetRealm(ctx context.Context, id string) (*domain.Realm, error)

	GetUserByID(ctx context.Context, realm *domain.Realm, id string) (*domain.User, error)

	// UserGroups returns every group the user is a direct member of.
	UserGroups(ctx context.Context, realm *domain.Realm, userID string) ([]domain.Group, error)

	// GetClientByClientID looks a client up by its human-assigned clientId.
	GetClientByClientID(ctx context.Context, realm *domain.Realm, clientID string) (*domain.Client, error)

	// GetClientByID looks a client up by its internal id.
	GetClientByID(ctx context.Context, realm *domain.Realm, id string) (*domain.Client, error)

	// ClientRoles returns the roles defined on a client (by internal id).
	ClientRoles(ctx context.Context, realm *domain.Realm, clientID string) ([]domain.Role, error)

	GetRoleByID(ctx context.Context, realm *domain.Realm, id string) (*domain.Role, error)
}
