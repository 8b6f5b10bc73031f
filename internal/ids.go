package internal

import "github.com/google/uuid"

// NewID returns a fresh identifier of the form "<prefix>_<uuid>".
func NewID(prefix string) string {
	if prefix == "" {
		prefix = "sub"
	}
	return prefix + "_" + uuid.NewString()
}
