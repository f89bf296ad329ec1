package adminevent

import (
	"encoding/json"
	"strings"

	"vn.io.arda/admin-event-interpreter/internal/domain"
)

// Extract reads a top-level string attribute from an event representation.
//
// Every backslash is removed before parsing. This is lossy: escaped quotes or
// backslashes inside values are corrupted, and `{"id":"a\\b"}` yields "ab".
// Stored interpretations depend on the stripped form.
//
// An array root is unwrapped once and its first element is used.
// The representation is parsed again on every call.
func Extract(representation, attribute string) (string, error) {
	sanitized := strings.ReplaceAll(representation, `\`, "")

	var root any
	if err := json.Unmarshal([]byte(sanitized), &root); err != nil {
		return "", domain.NewEventError(domain.ErrAttributeParse, attribute, err)
	}

	if arr, ok := root.([]any); ok {
		if len(arr) == 0 {
			return "", domain.NewEventError(domain.ErrAttributeMissing, attribute+" (empty array)", nil)
		}
		root = arr[0]
	}

	obj, ok := root.(map[string]any)
	if !ok {
		return "", domain.NewEventError(domain.ErrAttributeMissing, attribute+" (not an object)", nil)
	}
	value, ok := obj[attribute].(string)
	if !ok {
		return "", domain.NewEventError(domain.ErrAttributeMissing, attribute, nil)
	}
	return value, nil
}

// ExtractID reads the "id" attribute.
func ExtractID(representation string) (string, error) { return Extract(representation, "id") }

// ExtractName reads the "name" attribute.
func ExtractName(representation string) (string, error) { return Extract(representation, "name") }
