package utils

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateCycleID creates a short, human-readable identifier for one
// controller cycle. Format: {trigger}-{8charHexUUID}
//
// Example:
//   - Input: trigger="scheduled"
//   - Output: "scheduled-a3f8e2b1"
func GenerateCycleID(trigger string) string {
	return trigger + "-" + generateShortUUID()
}

// generateShortUUID creates an 8-character hex string from a UUID.
func generateShortUUID() string {
	id := uuid.New()
	return strings.ReplaceAll(id.String(), "-", "")[:8]
}
