package bom

import (
	"strconv"
	"strings"
)

// maxContinuationLen bounds the length of a wrapped-description line that
// may be appended to an existing description.
const maxContinuationLen = 60

// accumulator holds the record currently being assembled from the line
// stream. It is flushed when a completion condition fires and discarded
// when it never completes.
type accumulator struct {
	desc       string
	identifier string
	qty        int
	contUsed   bool
}

func (a *accumulator) reset() {
	*a = accumulator{}
}

// Extractor turns page-ordered text lines into an ordered list of
// ItemRecord using a fixed set of classification rules.
type Extractor struct {
	cfg Config
}

// NewExtractor creates an extractor with the given heuristics configuration.
func NewExtractor(cfg Config) *Extractor {
	return &Extractor{cfg: cfg}
}

// Extract parses the given pages, each an ordered slice of raw text lines,
// and returns completed records in document order, renumbered 1..N after
// deduplication. Zero records is a valid result, not an error.
func (e *Extractor) Extract(pages [][]string) []ItemRecord {
	var (
		out      []ItemRecord
		acc      accumulator
		prevKind = kindSkip
	)

	flush := func() {
		if acc.desc != "" && acc.qty >= 1 {
			if !e.cfg.RequireIdentifier || acc.identifier != "" {
				out = append(out, ItemRecord{
					Description: acc.desc,
					Identifier:  acc.identifier,
					Quantity:    acc.qty,
				})
			}
		}
		acc.reset()
	}

	for _, lines := range pages {
		for _, raw := range lines {
			ln := cleanLine(raw)
			if ln == "" {
				continue
			}

			kind := e.cfg.classify(ln)
			switch kind {
			case kindNoise, kindSkip:
				continue

			case kindLevelMarker:
				flush()

			case kindPrefixItem:
				flush()
				m := prefixItemRe.FindStringSubmatch(ln)
				qty, _ := strconv.Atoi(m[2])
				if qty < 1 || qty > e.cfg.QtyCeiling {
					// Out-of-range quantity drops the record, never clamps.
					acc.reset()
					continue
				}
				acc.desc = cleanDescription(m[1])
				acc.qty = qty

			case kindIdentifier:
				if acc.identifier == "" {
					acc.identifier = ln
				} else {
					// A second identifier starts a fresh record.
					flush()
					acc.identifier = ln
				}

			case kindQuantity:
				q := trailingQuantity(ln)
				if q < 1 || q > e.cfg.QtyCeiling {
					acc.reset()
					continue
				}
				acc.qty = q
				flush()

			case kindCandidate:
				switch {
				case acc.desc == "":
					acc.desc = cleanDescription(ln)
				case e.continuable(acc, prevKind, ln):
					acc.desc = cleanDescription(acc.desc + " " + ln)
					acc.contUsed = true
				}
			}
			prevKind = kind
		}
	}

	flush()

	return renumber(dedupe(out))
}

// continuable reports whether a candidate line may be appended to the
// in-progress description. Only the line immediately following the one that
// supplied the description qualifies, and only when it doesn't look like
// the start of the next item.
func (e *Extractor) continuable(acc accumulator, prevKind lineKind, ln string) bool {
	if acc.contUsed {
		return false
	}
	if prevKind != kindCandidate && prevKind != kindPrefixItem {
		return false
	}
	if endsWithInt(ln) || len(ln) > maxContinuationLen {
		return false
	}
	return true
}

// dedupe collapses exact-duplicate (description, identifier, quantity)
// triples that arise from repeated page headers, keeping the first
// occurrence in its original position.
func dedupe(records []ItemRecord) []ItemRecord {
	seen := make(map[string]struct{}, len(records))
	out := records[:0]
	for _, r := range records {
		key := strings.Join([]string{r.Description, r.Identifier, strconv.Itoa(r.Quantity)}, "\x00")
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}

// renumber assigns 1-based sequence numbers in output order.
func renumber(records []ItemRecord) []ItemRecord {
	for i := range records {
		records[i].Seq = i + 1
	}
	return records
}
