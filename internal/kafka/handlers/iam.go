package handlers

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"vn.io.arda/admin-event-interpreter/internal/domain"
)

func init() {
	Register(TopicIAMEvents, "ADMIN_EVENT", handleIAMAdminEvent)
}

type iamEnv struct {
	EventType string            `json:"eventType"`
	EventID   string            `json:"eventId"`
	TenantKey string            `json:"tenantKey"`
	Payload   domain.AdminEvent `json:"payload"`
}

// handleIAMAdminEvent unwraps an admin event relayed by the IAM service.
// The envelope's eventId and tenantKey fill in what the payload lacks.
func handleIAMAdminEvent(data []byte) *domain.AdminEvent {
	var env iamEnv
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("topic", TopicIAMEvents).Msg("invalid ADMIN_EVENT envelope")
		return nil
	}

	ev := env.Payload
	if ev.ID == "" {
		ev.ID = env.EventID
	}
	if ev.RealmID == "" && ev.AuthDetails.RealmID == "" {
		ev.RealmID = env.TenantKey
	}
	return &ev
}
