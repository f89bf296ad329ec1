package domain

import (
	"time"

	"github.com/google/uuid"
)

// Interpretation is the stored outcome of interpreting one AdminEvent.
type Interpretation struct {
	ID            uuid.UUID         `json:"id"`
	EventID       string            `json:"event_id,omitempty"`
	RealmID       string            `json:"realm_id"`
	ResourceType  ResourceType      `json:"resource_type"`
	OperationType OperationType     `json:"operation_type"`
	ObjectType    ObjectType        `json:"object_type"`
	SubjectType   ObjectType        `json:"subject_type"`
	Operation     OperationKind     `json:"operation"`
	ResourceName  string            `json:"resource_name"`
	TargetID      string            `json:"target_id"`
	SubjectID     string            `json:"subject_id"`
	ObjectID      string            `json:"object_id,omitempty"`
	ObjectName    string            `json:"object_name,omitempty"`
	AuthUserID    string            `json:"auth_user_id,omitempty"`
	Summary       string            `json:"summary"`
	Description   string            `json:"description"`
	Validation    *ValidationResult `json:"validation,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

// InterpretationFilter holds query parameters for listing interpretations.
type InterpretationFilter struct {
	RealmID    string
	ObjectType ObjectType
	Operation  OperationKind
	Limit      int
	Offset     int
}

// Normalized clamps Limit to 1..100 (default 20) and Offset to >= 0.
func (f InterpretationFilter) Normalized() InterpretationFilter {
	switch {
	case f.Limit <= 0:
		f.Limit = 20
	case f.Limit > 100:
		f.Limit = 100
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}
