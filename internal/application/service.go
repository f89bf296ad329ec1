package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"vn.io.arda/admin-event-interpreter/internal/adminevent"
	"vn.io.arda/admin-event-interpreter/internal/domain"
	"vn.io.arda/admin-event-interpreter/internal/messages"
	"vn.io.arda/admin-event-interpreter/internal/metrics"
)

// Broadcaster is the interface for pushing interpretations to connected SSE clients.
// Implementation lives in transport/http/sse_hub.go.
type Broadcaster interface {
	Broadcast(realmID string, in *domain.Interpretation)
}

// Publisher forwards stored interpretations to downstream consumers.
// Implementation lives in kafka/publisher.go.
type Publisher interface {
	Publish(ctx context.Context, in *domain.Interpretation) error
}

// Service holds all interpretation use-cases.
type Service struct {
	repo      domain.Repository
	hub       Broadcaster
	publisher Publisher
	validator *OrgRoleValidator
	logger    zerolog.Logger
}

// NewService creates a new application Service. publisher may be nil.
func NewService(repo domain.Repository, hub Broadcaster, publisher Publisher, validator *OrgRoleValidator, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		hub:       hub,
		publisher: publisher,
		validator: validator,
		logger:    logger,
	}
}

// Interpret classifies an admin event, enriches it from the directory and
// stores the result. A duplicate event id returns nil, nil.
func (s *Service) Interpret(ctx context.Context, ev domain.AdminEvent) (*domain.Interpretation, error) {
	in, err := s.interpret(ctx, ev)
	if err != nil {
		metrics.EventsRejected.WithLabelValues(metrics.Reason(err)).Inc()
		return nil, err
	}

	saved, err := s.repo.Create(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("store interpretation: %w", err)
	}
	if saved == nil {
		metrics.EventsDuplicate.Inc()
		s.logger.Debug().Str("event_id", ev.ID).Msg("admin event already interpreted, skipping")
		return nil, nil
	}

	metrics.EventsInterpreted.WithLabelValues(string(saved.ObjectType), string(saved.Operation)).Inc()
	s.hub.Broadcast(saved.RealmID, saved)

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, saved); err != nil {
			s.logger.Error().Err(err).Str("event_id", saved.EventID).Msg("failed to publish interpretation")
		}
	}

	s.logger.Info().
		Str("id", saved.ID.String()).
		Str("event_id", saved.EventID).
		Str("realm", saved.RealmID).
		Str("object_type", string(saved.ObjectType)).
		Str("operation", string(saved.Operation)).
		Str("subject", saved.SubjectID).
		Msg("admin event interpreted")

	return saved, nil
}

func (s *Service) interpret(ctx context.Context, ev domain.AdminEvent) (*domain.Interpretation, error) {
	parsed, err := adminevent.Parse(ev)
	if err != nil {
		return nil, err
	}

	objectID, objectName, err := attributes(ev.Representation)
	if err != nil {
		return nil, err
	}

	// Events carry the realm id; interpretations are keyed by realm name.
	realm, err := s.validator.ResolveRealm(ctx, ev.RealmID)
	if err != nil {
		return nil, err
	}
	realmID := realm.Name

	subjectID, err := adminevent.TranslateSubjectID(ctx, ev.ResourcePath, s.validator.RoleNameResolver(realmID))
	if err != nil {
		// A deleted role can no longer be resolved by id.
		if !(errors.Is(err, domain.ErrRoleNotFound) && parsed.Operation.IsDelete()) {
			return nil, err
		}
		s.logger.Debug().Str("role_id", parsed.TargetID).Msg("deleted role not resolvable, keeping id")
		subjectID = parsed.TargetID
	}

	in := &domain.Interpretation{
		EventID:       ev.ID,
		RealmID:       realmID,
		ResourceType:  ev.ResourceType,
		OperationType: ev.OperationType,
		ObjectType:    parsed.ObjectType,
		SubjectType:   parsed.SubjectType,
		Operation:     parsed.Operation,
		ResourceName:  parsed.ResourceName,
		TargetID:      parsed.TargetID,
		SubjectID:     subjectID,
		ObjectID:      objectID,
		ObjectName:    objectName,
		AuthUserID:    adminevent.AuthenticatedUserID(ev),
		Summary:       adminevent.Summary(ev),
	}

	if isRoleGrantToUser(parsed) && objectName != "" {
		in.Validation = s.validateGrant(ctx, realmID, parsed.TargetID, objectName)
	}
	in.Description = messages.Describe(in)

	return in, nil
}

// attributes extracts id and name from a representation. Missing attributes
// are left empty; an unparseable representation is an error.
func attributes(representation string) (id, name string, err error) {
	if representation == "" {
		return "", "", nil
	}
	id, err = adminevent.ExtractID(representation)
	if err != nil && !errors.Is(err, domain.ErrAttributeMissing) {
		return "", "", err
	}
	name, err = adminevent.ExtractName(representation)
	if err != nil && !errors.Is(err, domain.ErrAttributeMissing) {
		return "", "", err
	}
	return id, name, nil
}

func isRoleGrantToUser(p *domain.ParsedEvent) bool {
	return p.ObjectType == domain.ObjectRole && p.SubjectType == domain.ObjectUser && p.Operation.IsWrite()
}

// validateGrant is best-effort: a directory failure leaves the
// interpretation without a validation result.
func (s *Service) validateGrant(ctx context.Context, realmID, userID, roleName string) *domain.ValidationResult {
	result, err := s.ValidateRole(ctx, realmID, userID, roleName)
	if err != nil {
		s.logger.Warn().Err(err).
			Str("realm", realmID).
			Str("user", userID).
			Str("role", roleName).
			Msg("organization role validation failed")
		return nil
	}
	return result
}

// ValidateRole checks roleName against the clients of the user's organizations.
func (s *Service) ValidateRole(ctx context.Context, realmID, userID, roleName string) (*domain.ValidationResult, error) {
	result, err := s.validator.ValidateRoleInUserOrgClients(ctx, realmID, userID, roleName)
	switch {
	case err != nil:
		metrics.RoleValidations.WithLabelValues("error").Inc()
		return nil, err
	case result.Granted():
		metrics.RoleValidations.WithLabelValues("granted").Inc()
	default:
		metrics.RoleValidations.WithLabelValues("not_granted").Inc()
	}
	return result, nil
}

// Organizations returns the user's top-level groups.
func (s *Service) Organizations(ctx context.Context, realmID, userID string) ([]domain.Group, error) {
	return s.validator.UsersOrganizations(ctx, realmID, userID)
}

// List returns paginated interpretations.
func (s *Service) List(ctx context.Context, filter domain.InterpretationFilter) ([]*domain.Interpretation, error) {
	return s.repo.List(ctx, filter.Normalized())
}

// ResolveRealm returns the realm name for a realm id or name.
func (s *Service) ResolveRealm(ctx context.Context, ref string) (string, error) {
	realm, err := s.validator.ResolveRealm(ctx, ref)
	if err != nil {
		return "", err
	}
	return realm.Name, nil
}

// Get returns the interpretation of a single admin event.
func (s *Service) Get(ctx context.Context, eventID string) (*domain.Interpretation, error) {
	return s.repo.GetByEventID(ctx, eventID)
}

// PurgeTTL deletes old interpretations. Called by a background scheduler.
func (s *Service) PurgeTTL(ctx context.Context, days int) {
	count, err := s.repo.PurgeOlderThan(ctx, days)
	if err != nil {
		s.logger.Error().Err(err).Msg("interpretation TTL purge failed")
		return
	}
	s.logger.Info().Int64("deleted", count).Int("older_than_days", days).Msg("interpretation TTL purge completed")
}
