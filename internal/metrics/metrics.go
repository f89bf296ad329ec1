// Package metrics holds the Prometheus collectors of the interpreter.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"vn.io.arda/admin-event-interpreter/internal/domain"
)

var (
	EventsInterpreted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "admin_events_interpreted_total",
		Help: "Admin events interpreted, by object type and operation kind.",
	}, []string{"object_type", "operation"})

	EventsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "admin_events_rejected_total",
		Help: "Admin events that failed classification or extraction, by reason.",
	}, []string{"reason"})

	EventsDuplicate = promauto.NewCounter(prometheus.CounterOpts{
		Name: "admin_events_duplicate_total",
		Help: "Admin events skipped because their id was already interpreted.",
	})

	RoleValidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "org_role_validations_total",
		Help: "Organization role validations, by outcome (granted, not_granted, error).",
	}, []string{"outcome"})
)

var reasons = []struct {
	kind  error
	label string
}{
	{domain.ErrUnsupportedResourceType, "unsupported_resource_type"},
	{domain.ErrUnsupportedResourceName, "unsupported_resource_name"},
	{domain.ErrMalformedResourcePath, "malformed_resource_path"},
	{domain.ErrAttributeParse, "attribute_parse"},
	{domain.ErrAttributeMissing, "attribute_missing"},
	{domain.ErrRoleNotFound, "role_not_found"},
	{domain.ErrDirectoryLookup, "directory_lookup"},
	{domain.ErrUnknownRealm, "unknown_realm"},
}

// Reason returns the rejection label for an error.
func Reason(err error) string {
	for _, r := range reasons {
		if errors.Is(err, r.kind) {
			return r.label
		}
	}
	return "internal"
}
