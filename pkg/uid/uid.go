package uid

import "github.com/google/uuid"

// New generates a unique identifier, used for request IDs and for naming
// staging directories and uploaded files.
func New() string {
	return uuid.New().String()
}
