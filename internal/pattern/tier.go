package pattern

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Tier is the difficulty classification of a pattern
type Tier int

const (
	// TierUnknown is the zero value; it is never emitted in a rules document
	TierUnknown Tier = iota
	TierBeginner
	TierIntermediate
	TierAdvanced
)

// Tiers lists the tiers in rendering order
var Tiers = []Tier{TierBeginner, TierIntermediate, TierAdvanced}

// String returns the display name of the tier
func (t Tier) String() string {
	switch t {
	case TierBeginner:
		return "Beginner"
	case TierIntermediate:
		return "Intermediate"
	case TierAdvanced:
		return "Advanced"
	default:
		return "Unknown"
	}
}

// Slug returns the lower-case identifier used in metadata and directory names
func (t Tier) Slug() string {
	return strings.ToLower(t.String())
}

// Valid reports whether t is one of the three real tiers
func (t Tier) Valid() bool {
	return t >= TierBeginner && t <= TierAdvanced
}

// MarshalJSON encodes the tier by its slug
func (t Tier) MarshalJSON() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("cannot encode tier %d", int(t))
	}
	return json.Marshal(t.Slug())
}

// ParseTier resolves a tier name case-insensitively.
// Surrounding whitespace is ignored; anything else returns false.
func ParseTier(s string) (Tier, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "beginner":
		return TierBeginner, true
	case "intermediate":
		return TierIntermediate, true
	case "advanced":
		return TierAdvanced, true
	default:
		return TierUnknown, false
	}
}

// TierNames returns the slugs of all tiers in rendering order
func TierNames() []string {
	names := make([]string, len(Tiers))
	for i, t := range Tiers {
		names[i] = t.Slug()
	}
	return names
}
