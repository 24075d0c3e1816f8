package bom

import (
	"regexp"
	"strconv"
	"strings"
)

// lineKind is the outcome of classifying one cleaned input line. Rules are
// evaluated in priority order; the first match wins.
type lineKind int

const (
	kindNoise lineKind = iota
	kindLevelMarker
	kindPrefixItem
	kindIdentifier
	kindQuantity
	kindCandidate
	kindSkip
)

var (
	levelMarkerRe = regexp.MustCompile(`^[A-Z]$`)
	prefixItemRe  = regexp.MustCompile(`^B\s+(.+?)\s+(\d+)$`)
	allDigitsRe   = regexp.MustCompile(`^\d+$`)
	trailingIntRe = regexp.MustCompile(`(\d+)\s*$`)
	materialRe    = regexp.MustCompile(`^[A-Z]_`)
	repeatedWSRe  = regexp.MustCompile(`\s+`)
)

// Column headers and page furniture that must never start, continue, or end
// a record.
var noiseLines = map[string]struct{}{
	"DESCRIPTION":  {},
	"NOMENCLATURE": {},
	"ITEM":         {},
	"NSN":          {},
	"NSN:":         {},
	"QTY":          {},
	"QUANTITY":     {},
	"AUTH":         {},
	"UI":           {},
}

// Longer boilerplate strings matched by containment.
var noisePhrases = []string{
	"COMPONENT OF END ITEM",
	"COMPONENT LISTING / HAND RECEIPT",
	"PAGE ",
}

// unitOfIssueTokens are the codes that mark a quantity-bearing line.
var unitOfIssueTokens = map[string]struct{}{
	"EA": {},
	"AY": {},
	"9G": {},
	"9K": {},
}

// cleanLine normalizes raw extracted text: NBSP to space, collapsed
// whitespace, trimmed.
func cleanLine(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.TrimSpace(repeatedWSRe.ReplaceAllString(s, " "))
}

// cleanDescription strips known boilerplate and repeated whitespace from a
// description candidate.
func cleanDescription(s string) string {
	s = strings.ReplaceAll(s, "COMPONENT LISTING / HAND RECEIPT", "")
	return strings.TrimSpace(repeatedWSRe.ReplaceAllString(s, " "))
}

// isNoise reports whether the line is a known header or page-furniture line.
func isNoise(ln string) bool {
	upper := strings.ToUpper(ln)
	if _, ok := noiseLines[upper]; ok {
		return true
	}
	for _, phrase := range noisePhrases {
		if strings.Contains(upper, phrase) {
			return true
		}
	}
	return false
}

// isIdentifier reports whether the line is an all-digit run within the
// configured length bounds.
func (c Config) isIdentifier(ln string) bool {
	if !allDigitsRe.MatchString(ln) {
		return false
	}
	return len(ln) >= c.IdentifierMinDigits && len(ln) <= c.IdentifierMaxDigits
}

// hasUnitOfIssue reports whether any whitespace-separated token of the line
// is a known unit-of-issue code.
func hasUnitOfIssue(ln string) bool {
	for _, tok := range strings.Fields(ln) {
		if _, ok := unitOfIssueTokens[tok]; ok {
			return true
		}
	}
	return false
}

// trailingQuantity returns the trailing integer of a line, or 0 when the
// line has none or the value fails strconv.
func trailingQuantity(ln string) int {
	m := trailingIntRe.FindStringSubmatch(ln)
	if m == nil {
		return 0
	}
	q, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return q
}

// endsWithInt reports whether the line ends with an integer token, which in
// these exports usually means a new item rather than a wrapped description.
func endsWithInt(ln string) bool {
	return trailingIntRe.MatchString(ln)
}

// classify assigns a cleaned, non-empty line to the first matching rule.
func (c Config) classify(ln string) lineKind {
	switch {
	case isNoise(ln):
		return kindNoise
	case levelMarkerRe.MatchString(ln):
		return kindLevelMarker
	case prefixItemRe.MatchString(ln):
		return kindPrefixItem
	case c.isIdentifier(ln):
		return kindIdentifier
	case hasUnitOfIssue(ln) && endsWithInt(ln):
		return kindQuantity
	case hasUnitOfIssue(ln):
		// Unit-of-issue codes without a quantity are column debris, not
		// descriptions.
		return kindSkip
	case len(ln) >= c.MinDescriptionLen && !allDigitsRe.MatchString(ln) && !materialRe.MatchString(ln):
		return kindCandidate
	default:
		return kindSkip
	}
}
