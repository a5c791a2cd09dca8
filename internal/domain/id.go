package domain

import (
	"strings"

	"github.com/google/uuid"
)

// ParseID parses a canonical identifier. Braced, urn and compact forms accepted by
// uuid.Parse are rejected so that one article has exactly one textual id.
func ParseID(s string) (uuid.UUID, bool) {
	s = strings.TrimSpace(s)
	if len(s) != 36 {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(s)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}
