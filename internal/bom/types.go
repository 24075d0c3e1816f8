package bom

// ItemRecord is a single line item extracted from a BOM document.
type ItemRecord struct {
	Seq         int    `json:"seq"`
	Description string `json:"description"`
	Identifier  string `json:"identifier"`
	Quantity    int    `json:"quantity"`
}

// Config controls the extraction heuristics. The defaults are tuned to
// common "Component Listing / Hand Receipt" style exports.
type Config struct {
	// QtyCeiling is the sanity ceiling for quantities. A quantity above
	// the ceiling discards the whole record rather than clamping it.
	QtyCeiling int

	// IdentifierMinDigits and IdentifierMaxDigits bound the accepted
	// length of an all-digit identifier line. The canonical NSN form is
	// exactly 9 digits; some exports carry 7-13 digit stock numbers.
	IdentifierMinDigits int
	IdentifierMaxDigits int

	// MinDescriptionLen is the minimum length for a line to qualify as a
	// description candidate.
	MinDescriptionLen int

	// RequireIdentifier drops records that never saw an identifier line.
	// Off by default: many valid BOM rows carry no stock number.
	RequireIdentifier bool
}

// DefaultConfig returns the extraction configuration used in production.
func DefaultConfig() Config {
	return Config{
		QtyCeiling:          99999,
		IdentifierMinDigits: 9,
		IdentifierMaxDigits: 9,
		MinDescriptionLen:   3,
	}
}
