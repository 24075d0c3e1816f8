package form

import (
	"fmt"
	"strconv"

	"github.com/canopyforms/dd1750/internal/bom"
)

// unitOfIssue is fixed by the form: every item row is issued "each".
const unitOfIssue = "EA"

// TextRun is one positioned string on an overlay page. X and Y are PDF
// points from the bottom-left corner; Y is the text baseline.
type TextRun struct {
	Text string
	X    float64
	Y    float64
	Size float64
}

// Page is the overlay content for one output page.
type Page struct {
	Runs []TextRun
}

// Paginate splits records into page-sized chunks. Zero records still
// produce exactly one (empty) page so the caller always gets a document.
func Paginate(records []bom.ItemRecord, rowsPerPage int) [][]bom.ItemRecord {
	if len(records) == 0 {
		return [][]bom.ItemRecord{nil}
	}
	var chunks [][]bom.ItemRecord
	for start := 0; start < len(records); start += rowsPerPage {
		end := start + rowsPerPage
		if end > len(records) {
			end = len(records)
		}
		chunks = append(chunks, records[start:end])
	}
	return chunks
}

// BuildPages lays out all records against the geometry, producing one page
// of positioned text runs per chunk. The box number column carries the
// record's global sequence number, so numbering runs continuously across
// pages.
func BuildPages(records []bom.ItemRecord, g Geometry, m Measurer, label string) []Page {
	chunks := Paginate(records, g.RowsPerPage)
	pages := make([]Page, 0, len(chunks))
	for _, chunk := range chunks {
		pages = append(pages, buildPage(chunk, g, m, label))
	}
	return pages
}

func buildPage(chunk []bom.ItemRecord, g Geometry, m Measurer, label string) Page {
	var page Page
	for row, rec := range chunk {
		rowTop := g.RowTop(row)
		yDesc := rowTop - g.DescInset
		yLabel := rowTop - g.LabelInset

		page.Runs = append(page.Runs, centered(m, strconv.Itoa(rec.Seq), g.BoxLeft, g.BoxRight, yDesc, g.NumberSize))

		page.Runs = append(page.Runs, contentRuns(rec, g, m, label, yDesc, yLabel)...)

		qty := strconv.Itoa(rec.Quantity)
		page.Runs = append(page.Runs,
			centered(m, unitOfIssue, g.UOILeft, g.UOIRight, yDesc, g.NumberSize),
			centered(m, qty, g.InitLeft, g.InitRight, yDesc, g.NumberSize),
			centered(m, "0", g.SpareLeft, g.SpareRight, yDesc, g.NumberSize),
			centered(m, qty, g.TotalLeft, g.TotalRight, yDesc, g.NumberSize))
	}
	return page
}

// contentRuns fills the contents cell: wrapped description plus the
// identifier sub-label. When the description already consumes the line
// cap, the label is appended to the last line (trimmed as needed) rather
// than dropped.
func contentRuns(rec bom.ItemRecord, g Geometry, m Measurer, label string, yDesc, yLabel float64) []TextRun {
	x := g.ContentLeft + g.PadX
	maxW := g.ContentWidth()

	lines, size := FitDescription(rec.Description, m, g)

	idLabel := ""
	if rec.Identifier != "" {
		idLabel = fmt.Sprintf("%s: %s", label, rec.Identifier)
	}

	var runs []TextRun
	if len(lines) < g.MaxDescLines {
		for i, line := range lines {
			runs = append(runs, TextRun{Text: line, X: x, Y: yDesc - float64(i)*(size+1.0), Size: size})
		}
		if idLabel != "" {
			runs = append(runs, TextRun{Text: idLabel, X: x, Y: yLabel, Size: g.LabelSize})
		}
		return runs
	}

	for i := 0; i < len(lines)-1; i++ {
		runs = append(runs, TextRun{Text: lines[i], X: x, Y: yDesc - float64(i)*(size+1.0), Size: size})
	}
	last := lines[len(lines)-1]
	if idLabel != "" {
		appended := last + "  " + idLabel
		if m.TextWidth(appended, size) > maxW {
			// Trim the description line to make room for the label.
			reserve := m.TextWidth(" "+ellipsis+" "+idLabel, size)
			avail := maxW - reserve
			if avail < 10.0 {
				avail = 10.0
			}
			trimmed := []rune(last)
			for len(trimmed) > 0 && m.TextWidth(string(trimmed), size) > avail {
				trimmed = trimmed[:len(trimmed)-1]
			}
			appended = string(trimmed) + " " + ellipsis + " " + idLabel
		}
		last = appended
	}
	runs = append(runs, TextRun{Text: last, X: x, Y: yLabel, Size: size})
	return runs
}

// centered builds a run whose text is centered between two x bounds.
func centered(m Measurer, text string, left, right, y, size float64) TextRun {
	mid := (left + right) / 2.0
	return TextRun{Text: text, X: mid - m.TextWidth(text, size)/2.0, Y: y, Size: size}
}
