package id

import "github.com/google/uuid"

// New returns a random session identifier.
func New() string {
	return uuid.NewString()
}
