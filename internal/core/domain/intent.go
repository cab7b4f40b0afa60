package domain

// IntentKind classifies a free-text query.
type IntentKind string

const (
	// IntentCount asks how many of something exist.
	IntentCount IntentKind = "count"

	// IntentFind asks to locate or list elements.
	IntentFind IntentKind = "find"

	// IntentSpatial asks about floors, zones or locations.
	IntentSpatial IntentKind = "spatial"

	// IntentSystem asks about building disciplines (HVAC, ...).
	IntentSystem IntentKind = "system"

	// IntentGeneral is the fallback when no pattern matches.
	IntentGeneral IntentKind = "general"
)

// WildcardEntityType in an intent's EntityTypes requests every type.
const WildcardEntityType = "*"

// QueryIntent is the structured interpretation of a free-text query.
// It is ephemeral: produced per query, never persisted.
type QueryIntent struct {
	// Kind is the detected query class.
	Kind IntentKind `json:"kind"`

	// EntityTypes lists requested schema types (or the wildcard).
	EntityTypes []string `json:"entityTypes,omitempty"`

	// Keywords are stemmed, stopword-filtered query terms.
	Keywords []string `json:"keywords,omitempty"`

	// SpatialTerms are floor/zone/wing phrases found in the query.
	SpatialTerms []string `json:"spatialTerms,omitempty"`

	// SystemTerms are discipline names and matched discipline keywords.
	SystemTerms []string `json:"systemTerms,omitempty"`

	// Confidence is the classification confidence in [0,1].
	Confidence float64 `json:"confidence"`
}

// HasWildcard reports whether every entity type was requested.
func (q *QueryIntent) HasWildcard() bool {
	for _, t := range q.EntityTypes {
		if t == WildcardEntityType {
			return true
		}
	}
	return false
}

// FilterCount counts the active candidate filters (entity type,
// spatial, system). The query optimizer derives plan complexity
// from this number.
func (q *QueryIntent) FilterCount() int {
	n := 0
	if len(q.EntityTypes) > 0 {
		n++
	}
	if len(q.SpatialTerms) > 0 {
		n++
	}
	if len(q.SystemTerms) > 0 {
		n++
	}
	return n
}
