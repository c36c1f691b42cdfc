package constants

import "time"

// Catalog cache
const (
	// DefaultCatalogTTL how long a loaded sheet is served before reload
	DefaultCatalogTTL = 10 * time.Minute

	// DefaultFetchTimeout upper bound for one spreadsheet round trip
	DefaultFetchTimeout = 20 * time.Second

	// HeaderMinCells first row with this many non-empty cells is the header
	HeaderMinCells = 3

	// ActiveTokenMinLen shorter ingredient tokens are not indexed
	ActiveTokenMinLen = 3
)

// Search
const (
	// NameMatchThreshold fuzzy score below this is excluded
	NameMatchThreshold = 0.6

	// ContainmentScore score given when the query is a substring of the name
	ContainmentScore = 0.92

	// MaxSearchResults buttons shown for an ambiguous name search
	MaxSearchResults = 12
)

// Conversation
const (
	// DefaultSessionTTL idle conversation lifetime
	DefaultSessionTTL = 2 * time.Hour

	// MaxAmount sanity cap for hectares, litres and tons
	MaxAmount = 1_000_000
)
