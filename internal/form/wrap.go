package form

import (
	"regexp"
	"strings"
)

// ellipsis marks a description truncated to the line cap.
const ellipsis = "…"

var (
	punctSpaceRe = regexp.MustCompile(`([,/;:])(\S)`)
	multiSpaceRe = regexp.MustCompile(`\s+`)
)

// Measurer reports the rendered width of a string at a font size, in page
// units. Production code measures actual Helvetica glyph widths; tests
// substitute a fixed-width fake.
type Measurer interface {
	TextWidth(text string, size float64) float64
}

// NormalizeText prepares BOM nomenclature for wrapping. These exports often
// omit the space after punctuation ("VALVE,CHECK/BRASS"), which would
// otherwise produce unbreakable over-wide tokens.
func NormalizeText(s string) string {
	s = punctSpaceRe.ReplaceAllString(s, "$1 $2")
	return strings.TrimSpace(multiSpaceRe.ReplaceAllString(s, " "))
}

// Wrap greedily word-wraps text to maxWidth measured at the given font
// size, up to maxLines lines. A single word wider than the cell is
// hard-broken onto as many lines as needed. The second return value
// reports whether any input was left over when the line cap was reached.
func Wrap(text string, m Measurer, size, maxWidth float64, maxLines int) ([]string, bool) {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}, false
	}

	var lines []string
	cur := ""

	// emit closes the current line; false means the line cap is hit.
	emit := func() bool {
		lines = append(lines, cur)
		cur = ""
		return len(lines) < maxLines
	}

	for i := 0; i < len(words); i++ {
		w := words[i]
		trial := w
		if cur != "" {
			trial = cur + " " + w
		}
		if m.TextWidth(trial, size) <= maxWidth {
			cur = trial
			continue
		}
		if cur != "" {
			if !emit() {
				return lines, true
			}
			i-- // retry the word on the fresh line
			continue
		}
		// Single word wider than the cell: hard-break it.
		chunk := w
		for chunk != "" {
			head, tail := fittingPrefix(chunk, m, size, maxWidth)
			cur = head
			chunk = tail
			if chunk == "" {
				break // keep the line open for following words
			}
			if !emit() {
				return lines, true
			}
		}
	}

	if cur != "" {
		lines = append(lines, cur)
	}
	return lines, false
}

// fittingPrefix finds the longest prefix of s that fits maxWidth via binary
// search, always consuming at least one rune so progress is guaranteed.
func fittingPrefix(s string, m Measurer, size, maxWidth float64) (head, tail string) {
	runes := []rune(s)
	lo, hi, best := 1, len(runes), 1
	for lo <= hi {
		mid := (lo + hi) / 2
		if m.TextWidth(string(runes[:mid]), size) <= maxWidth {
			best = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return string(runes[:best]), string(runes[best:])
}

// FitDescription normalizes and wraps a description into the contents
// cell, walking the profile's font ladder until the text fits the line cap
// and falling back to ellipsis truncation at the smallest size.
func FitDescription(text string, m Measurer, g Geometry) ([]string, float64) {
	norm := NormalizeText(text)
	maxW := g.ContentWidth()

	var (
		lines     []string
		truncated bool
		size      float64
	)
	for _, size = range g.FontLadder {
		lines, truncated = Wrap(norm, m, size, maxW, g.MaxDescLines)
		if !truncated {
			return lines, size
		}
	}
	return ellipsize(lines, m, size, maxW), size
}

// ellipsize trims the last line until an appended ellipsis fits the cell.
func ellipsize(lines []string, m Measurer, size, maxWidth float64) []string {
	last := []rune(lines[len(lines)-1])
	for len(last) > 0 && m.TextWidth(string(last)+ellipsis, size) > maxWidth {
		last = last[:len(last)-1]
	}
	lines[len(lines)-1] = strings.TrimRight(string(last), " ") + ellipsis
	return lines
}
