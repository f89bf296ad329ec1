package handlers

import (
	"vn.io.arda/admin-event-interpreter/internal/kafka/registry"
)

// Topic names consumed by the interpreter.
const (
	TopicKeycloakAdminEvents = "keycloak-admin-events"
	TopicIAMEvents           = "iam-events"
)

// Register is a convenience alias so each source file calls Register(...)
// instead of registry.Register(...), keeping imports minimal.
func Register(topic, eventType string, h registry.EventHandler) {
	registry.Register(topic, eventType, h)
}

// RegisterDirect registers a handler for topics that don't use eventType routing.
func RegisterDirect(topic string, h registry.EventHandler) {
	registry.Register(topic, "", h)
}
