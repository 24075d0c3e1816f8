package form

import "fmt"

// Geometry describes the fixed grid of one DD Form 1750 template variant:
// column x-bounds, the vertical extent of the item table, and the fonts
// used to fill it. All coordinates are PDF points with the origin at the
// bottom-left of the page.
//
// Geometry values are tuned against a specific flat template render. Using
// a profile against a template with different grid lines silently produces
// misaligned output; no runtime check catches that.
type Geometry struct {
	PageWidth  float64
	PageHeight float64

	// Column bounds, left to right across the form.
	BoxLeft, BoxRight         float64
	ContentLeft, ContentRight float64
	UOILeft, UOIRight         float64
	InitLeft, InitRight       float64
	SpareLeft, SpareRight     float64
	TotalLeft, TotalRight     float64

	// Item table vertical extent and row pitch.
	TableTop  float64
	RowHeight float64

	RowsPerPage int

	// PadX is the horizontal text inset inside the contents cell.
	PadX float64

	// FontLadder is the descending list of candidate sizes for the
	// description; the smallest entry is the truncation fallback.
	FontLadder []float64

	// NumberSize is used for the box number, unit of issue and quantities;
	// LabelSize for the identifier sub-label.
	NumberSize float64
	LabelSize  float64

	// MaxDescLines caps the wrapped description height within one row.
	MaxDescLines int

	// Baseline insets within a row, measured down from the row top.
	DescInset  float64
	LabelInset float64
}

// ContentWidth returns the usable width of the contents cell.
func (g Geometry) ContentWidth() float64 {
	return g.ContentRight - g.ContentLeft - 2*g.PadX
}

// RowTop returns the y coordinate of the top of row r (0-based).
func (g Geometry) RowTop(r int) float64 {
	return g.TableTop - float64(r)*g.RowHeight
}

// StandardProfile is the full 40-row DD1750 grid measured from the flat
// letter-size template (612x792): header divider at ~616pt, bottom divider
// above the certification block at ~89.5pt.
func StandardProfile() Geometry {
	const tableTop, tableBottom = 616.0, 89.5
	const rows = 40
	return Geometry{
		PageWidth:  612.0,
		PageHeight: 792.0,

		BoxLeft: 44.0, BoxRight: 88.0,
		ContentLeft: 88.0, ContentRight: 365.0,
		UOILeft: 365.0, UOIRight: 408.5,
		InitLeft: 408.5, InitRight: 453.5,
		SpareLeft: 453.5, SpareRight: 514.5,
		TotalLeft: 514.5, TotalRight: 566.0,

		TableTop:    tableTop - 2.0,
		RowHeight:   (tableTop - tableBottom) / rows,
		RowsPerPage: rows,

		PadX:         3.0,
		FontLadder:   []float64{6.8, 6.5, 6.0, 5.5},
		NumberSize:   8.0,
		LabelSize:    5.8,
		MaxDescLines: 2,
		DescInset:    7.0,
		LabelInset:   12.2,
	}
}

// CompactProfile is the coarse 18-row layout used for templates with taller
// rows.
func CompactProfile() Geometry {
	return Geometry{
		PageWidth:  612.0,
		PageHeight: 792.0,

		BoxLeft: 40.0, BoxRight: 80.0,
		ContentLeft: 110.0, ContentRight: 386.0,
		UOILeft: 388.0, UOIRight: 432.0,
		InitLeft: 433.0, InitRight: 477.0,
		SpareLeft: 478.0, SpareRight: 522.0,
		TotalLeft: 526.0, TotalRight: 570.0,

		TableTop:    607.0,
		RowHeight:   22.0,
		RowsPerPage: 18,

		PadX:         0.0,
		FontLadder:   []float64{7.0, 6.5, 6.0, 5.5},
		NumberSize:   8.0,
		LabelSize:    6.0,
		MaxDescLines: 2,
		DescInset:    7.0,
		LabelInset:   14.5,
	}
}

// LookupProfile resolves a profile name to its geometry.
func LookupProfile(name string) (Geometry, error) {
	switch name {
	case "standard", "":
		return StandardProfile(), nil
	case "compact":
		return CompactProfile(), nil
	default:
		return Geometry{}, fmt.Errorf("unknown geometry profile: %s", name)
	}
}
