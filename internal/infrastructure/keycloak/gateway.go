package keycloak

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"vn.io.arda/admin-event-interpreter/internal/domain"
)

// errNotFound marks a 404 from the Admin API; lookups turn it into nil, nil.
var errNotFound = errors.New("keycloak: not found")

// Gateway implements application.DirectoryGateway by calling the Keycloak Admin REST API.
// Directory data is never cached; only the admin access token is.
type Gateway struct {
	adminURL     string // e.g. "http://keycloak:8080"
	adminRealm   string // realm used for admin login, usually "master"
	clientID     string
	clientSecret string

	httpClient *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// New creates a Keycloak Gateway. A nil httpClient gets a 10-second timeout client.
func New(adminURL, adminRealm, clientID, clientSecret string, httpClient *http.Client) *Gateway {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Gateway{
		adminURL:     strings.TrimRight(adminURL, "/"),
		adminRealm:   adminRealm,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   httpClient,
	}
}

// GetRealm resolves a realm by internal id or by name. Admin events carry
// the internal id while the Admin API is addressed by name.
func (g *Gateway) GetRealm(ctx context.Context, id string) (*domain.Realm, error) {
	var realms []realmRep
	if err := g.get(ctx, "/admin/realms", &realms); err != nil {
		return nil, fmt.Errorf("keycloak list realms: %w", err)
	}
	for _, r := range realms {
		if r.ID == id || r.Realm == id {
			return r.toDomain(), nil
		}
	}
	return nil, nil
}

func (g *Gateway) GetUserByID(ctx context.Context, realm *domain.Realm, id string) (*domain.User, error) {
	var u userRep
	err := g.get(ctx, realmPath(realm, "users", id), &u)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("keycloak get user(%s): %w", id, err)
	}
	return u.toDomain(), nil
}

func (g *Gateway) UserGroups(ctx context.Context, realm *domain.Realm, userID string) ([]domain.Group, error) {
	var reps []groupRep
	path := realmPath(realm, "users", userID, "groups") + "?briefRepresentation=false&max=1000"
	if err := g.get(ctx, path, &reps); err != nil {
		return nil, fmt.Errorf("keycloak user groups(%s): %w", userID, err)
	}
	groups := make([]domain.Group, 0, len(reps))
	for _, r := range reps {
		groups = append(groups, r.toDomain())
	}
	return groups, nil
}

func (g *Gateway) GetClientByClientID(ctx context.Context, realm *domain.Realm, clientID string) (*domain.Client, error) {
	var reps []clientRep
	path := realmPath(realm, "clients") + "?" + url.Values{"clientId": {clientID}}.Encode()
	if err := g.get(ctx, path, &reps); err != nil {
		return nil, fmt.Errorf("keycloak find client(%s): %w", clientID, err)
	}
	// The clientId filter is a prefix search on some versions.
	for _, c := range reps {
		if c.ClientID == clientID {
			return c.toDomain(), nil
		}
	}
	return nil, nil
}

func (g *Gateway) GetClientByID(ctx context.Context, realm *domain.Realm, id string) (*domain.Client, error) {
	var c clientRep
	err := g.get(ctx, realmPath(realm, "clients", id), &c)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("keycloak get client(%s): %w", id, err)
	}
	return c.toDomain(), nil
}

func (g *Gateway) ClientRoles(ctx context.Context, realm *domain.Realm, clientID string) ([]domain.Role, error) {
	var reps []roleRep
	if err := g.get(ctx, realmPath(realm, "clients", clientID, "roles"), &reps); err != nil {
		return nil, fmt.Errorf("keycloak client roles(%s): %w", clientID, err)
	}
	roles := make([]domain.Role, 0, len(reps))
	for _, r := range reps {
		roles = append(roles, r.toDomain())
	}
	return roles, nil
}

func (g *Gateway) GetRoleByID(ctx context.Context, realm *domain.Realm, id string) (*domain.Role, error) {
	var r roleRep
	err := g.get(ctx, realmPath(realm, "roles-by-id", id), &r)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("keycloak get role(%s): %w", id, err)
	}
	role := r.toDomain()
	return &role, nil
}

// --- internal helpers ---

func realmPath(realm *domain.Realm, segments ...string) string {
	var sb strings.Builder
	sb.WriteString("/admin/realms/")
	sb.WriteString(url.PathEscape(realm.Name))
	for _, s := range segments {
		sb.WriteByte('/')
		sb.WriteString(url.PathEscape(s))
	}
	return sb.String()
}

// get performs an authorized GET against the Admin API and decodes the JSON body.
func (g *Gateway) get(ctx context.Context, path string, target any) error {
	token, err := g.adminToken(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.adminURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errNotFound
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return json.NewDecoder(resp.Body).Decode(target)
}

// adminToken returns a cached admin access token, refreshing it 30 seconds before expiry.
func (g *Gateway) adminToken(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.accessToken != "" && time.Now().Add(30*time.Second).Before(g.tokenExpiry) {
		return g.accessToken, nil
	}

	tokenURL := fmt.Sprintf("%s/realms/%s/protocol/openid-connect/token", g.adminURL, url.PathEscape(g.adminRealm))
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {g.clientID},
		"client_secret": {g.clientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("keycloak admin token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("keycloak admin token: status %d", resp.StatusCode)
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", err
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("keycloak returned empty access_token")
	}

	g.accessToken = tok.AccessToken
	g.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	log.Debug().Time("expires_at", g.tokenExpiry).Msg("keycloak admin token refreshed")

	return g.accessToken, nil
}
