package model

import (
	"fmt"
	"regexp"

	"github.com/google/uuid"
)

// bbidPattern is the canonical entity identifier format: lower-case hex
// digits grouped 8-4-4-4-12.
var bbidPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// IsBBID reports whether s is a well formed entity identifier
func IsBBID(s string) bool {
	return bbidPattern.MatchString(s)
}

// ParseBBID parses s into a uuid.UUID after checking the canonical format.
// uuid.Parse alone also accepts braces, urn prefixes and upper case.
func ParseBBID(s string) (uuid.UUID, error) {
	if !IsBBID(s) {
		return uuid.Nil, fmt.Errorf("invalid bbid %q", s)
	}
	return uuid.Parse(s)
}
