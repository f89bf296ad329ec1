package handlers

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"vn.io.arda/admin-event-interpreter/internal/domain"
)

func init() {
	RegisterDirect(TopicKeycloakAdminEvents, handleKeycloakAdminEvent)
}

// handleKeycloakAdminEvent decodes an admin event as emitted by the
// Keycloak event listener: the record value is the event itself.
func handleKeycloakAdminEvent(data []byte) *domain.AdminEvent {
	var ev domain.AdminEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		log.Warn().Err(err).Str("topic", TopicKeycloakAdminEvents).Msg("invalid admin event payload")
		return nil
	}
	if ev.ResourceType == "" && ev.ResourcePath == "" {
		return nil
	}
	return &ev
}
