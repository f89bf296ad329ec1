package adminevent

import (
	"strings"

	"vn.io.arda/admin-event-interpreter/internal/domain"
)

// Summary renders the one-line diagnostic form of an event. Field order is
// fixed and error= is appended only when the event carries an error; log
// parsers depend on both.
func Summary(ev domain.AdminEvent) string {
	var sb strings.Builder
	sb.WriteString("AdminEvent resourceType=")
	sb.WriteString(string(ev.ResourceType))
	sb.WriteString(", operationType=")
	sb.WriteString(string(ev.OperationType))
	sb.WriteString(", realmId=")
	sb.WriteString(ev.AuthDetails.RealmID)
	sb.WriteString(", clientId=")
	sb.WriteString(ev.AuthDetails.ClientID)
	sb.WriteString(", userId=")
	sb.WriteString(ev.AuthDetails.UserID)
	sb.WriteString(", ipAddress=")
	sb.WriteString(ev.AuthDetails.IPAddress)
	sb.WriteString(", resourcePath=")
	sb.WriteString(ev.ResourcePath)
	if ev.Error != "" {
		sb.WriteString(", error=")
		sb.WriteString(ev.Error)
	}
	return sb.String()
}
