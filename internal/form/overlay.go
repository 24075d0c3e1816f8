package form

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
)

const overlayFont = "Helvetica"

// WriteOverlay renders the laid-out pages into a PDF written to w. The
// overlay carries only the positioned text runs; it is later stamped onto
// copies of the blank template.
func WriteOverlay(pages []Page, g Geometry, w io.Writer) error {
	doc := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: g.PageWidth, Ht: g.PageHeight},
	})
	doc.SetAutoPageBreak(false, 0)
	tr := doc.UnicodeTranslatorFromDescriptor("")

	for _, page := range pages {
		doc.AddPage()
		for _, run := range page.Runs {
			doc.SetFont(overlayFont, "", run.Size)
			// gofpdf measures y from the top of the page; runs carry PDF
			// bottom-left baselines.
			doc.Text(run.X, g.PageHeight-run.Y, tr(run.Text))
		}
	}

	if err := doc.Error(); err != nil {
		return fmt.Errorf("failed to build overlay: %w", err)
	}
	if err := doc.Output(w); err != nil {
		return fmt.Errorf("failed to write overlay: %w", err)
	}
	return nil
}

// HelveticaMeasurer measures rendered string widths using gofpdf's core
// Helvetica metrics, matching the font the overlay is drawn with.
type HelveticaMeasurer struct {
	doc *gofpdf.Fpdf
	tr  func(string) string
}

// NewHelveticaMeasurer creates a measurer backed by a throwaway document.
func NewHelveticaMeasurer() *HelveticaMeasurer {
	doc := gofpdf.New("P", "pt", "Letter", "")
	doc.SetFont(overlayFont, "", 10)
	return &HelveticaMeasurer{doc: doc, tr: doc.UnicodeTranslatorFromDescriptor("")}
}

// TextWidth returns the width of text at the given font size, in points.
func (h *HelveticaMeasurer) TextWidth(text string, size float64) float64 {
	h.doc.SetFontSize(size)
	return h.doc.GetStringWidth(h.tr(text))
}
