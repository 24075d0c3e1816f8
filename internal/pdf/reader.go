package pdf

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// lineYTolerance groups positioned text fragments whose baselines differ
// by no more than this many points onto the same visual line.
const lineYTolerance = 2.0

// Reader extracts per-page text lines from a bill-of-materials PDF.
type Reader struct {
	maxFileSize int64
}

// NewReader creates a new PDF reader with the specified size constraint.
func NewReader(maxFileSize int64) *Reader {
	return &Reader{
		maxFileSize: maxFileSize,
	}
}

// PageLinesResult holds the extracted lines for one source document.
type PageLinesResult struct {
	Path        string
	Pages       [][]string
	TotalPages  int
	Size        int64
	ContentType string
}

// PageLines extracts the text of every page at or after startPage, as lines
// in top-to-bottom, left-to-right reading order. startPage is zero-based;
// pages before it are skipped entirely. Pages without extractable text
// contribute an empty line slice rather than an error, so a scanned page in
// the middle of a listing does not abort the run. A start page at or past
// the last page reads as an empty listing, not an error.
func (r *Reader) PageLines(path string, startPage int) (*PageLinesResult, error) {
	if path == "" {
		return nil, fmt.Errorf("path cannot be empty")
	}
	if startPage < 0 {
		return nil, fmt.Errorf("start page cannot be negative: %d", startPage)
	}

	fileInfo, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("file does not exist: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot access file: %w", err)
	}
	if err := r.validatePDFFile(path, fileInfo); err != nil {
		return nil, err
	}

	f, pdfReader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	total := pdfReader.NumPage()

	var pages [][]string
	for pageNum := startPage + 1; pageNum <= total; pageNum++ {
		page := pdfReader.Page(pageNum)
		if page.V.IsNull() {
			pages = append(pages, nil)
			continue
		}
		pages = append(pages, linesFromPage(page))
	}

	result := &PageLinesResult{
		Path:        path,
		Pages:       pages,
		TotalPages:  total,
		Size:        fileInfo.Size(),
		ContentType: r.analyzeContentType(pages, pdfReader),
	}

	return result, nil
}

// validatePDFFile performs basic validation on a PDF file
func (r *Reader) validatePDFFile(filePath string, fileInfo os.FileInfo) error {
	if fileInfo.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", filePath)
	}

	if !strings.HasSuffix(strings.ToLower(filePath), ".pdf") {
		return fmt.Errorf("file is not a PDF: %s", filePath)
	}

	if fileInfo.Size() == 0 {
		return fmt.Errorf("file is empty: %s", filePath)
	}

	if fileInfo.Size() > r.maxFileSize {
		return fmt.Errorf("file too large: %d bytes (max: %d bytes)",
			fileInfo.Size(), r.maxFileSize)
	}

	return nil
}

// linesFromPage reassembles a page's positioned text fragments into reading
// order. Fragments are bucketed into lines by baseline, each line is sorted
// left to right, and a space is inserted wherever the horizontal gap between
// adjacent fragments is wide enough to separate words.
func linesFromPage(page pdf.Page) (lines []string) {
	defer func() {
		// Malformed content streams can panic inside the parser.
		if recover() != nil {
			lines = nil
		}
	}()

	return linesFromTexts(page.Content().Text)
}

// linesFromTexts buckets fragments into lines by baseline, sorts each line
// left to right, and joins the fragments into strings.
func linesFromTexts(texts []pdf.Text) []string {
	if len(texts) == 0 {
		return nil
	}

	sorted := make([]pdf.Text, len(texts))
	copy(sorted, texts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Y > sorted[j].Y
	})

	var lines []string
	i := 0
	for i < len(sorted) {
		j := i + 1
		for j < len(sorted) && sorted[i].Y-sorted[j].Y <= lineYTolerance {
			j++
		}
		group := sorted[i:j]
		sort.SliceStable(group, func(a, b int) bool {
			return group[a].X < group[b].X
		})

		line := joinFragments(group)
		if line != "" {
			lines = append(lines, line)
		}
		i = j
	}

	return lines
}

// joinFragments concatenates one line's fragments, inserting spaces at word
// boundaries. Many producers emit one fragment per glyph, so fragments are
// only separated when the gap between them exceeds a fraction of the font
// size.
func joinFragments(group []pdf.Text) string {
	var b strings.Builder
	for k := range group {
		if k > 0 {
			prev := group[k-1]
			gap := group[k].X - (prev.X + prev.W)
			if gap > wordGap(prev.FontSize) {
				b.WriteByte(' ')
			}
		}
		b.WriteString(group[k].S)
	}
	return strings.TrimSpace(b.String())
}

func wordGap(fontSize float64) float64 {
	if fontSize <= 0 {
		return 1.0
	}
	gap := fontSize * 0.3
	if gap < 1.0 {
		gap = 1.0
	}
	return gap
}

// analyzeContentType classifies what the source document contains so the
// caller can give a useful diagnostic when extraction finds nothing.
func (r *Reader) analyzeContentType(pages [][]string, pdfReader *pdf.Reader) string {
	totalText := 0
	for _, lines := range pages {
		for _, line := range lines {
			totalText += len(line)
		}
	}

	hasImages, _ := r.detectImages(pdfReader)

	// Minimum text length to consider content meaningful
	const minMeaningfulTextLength = 50

	if totalText < minMeaningfulTextLength {
		if hasImages {
			return "scanned_images"
		}
		return "no_content"
	}

	if hasImages {
		return "mixed"
	}

	return "text"
}

// detectImages scans the PDF for image objects
func (r *Reader) detectImages(pdfReader *pdf.Reader) (bool, int) {
	imageCount := 0

	for pageNum := 1; pageNum <= pdfReader.NumPage(); pageNum++ {
		imageCount += r.countImagesOnPage(pdfReader, pageNum)
	}

	return imageCount > 0, imageCount
}

// countImagesOnPage counts image XObjects on a specific page
func (r *Reader) countImagesOnPage(pdfReader *pdf.Reader, pageNum int) int {
	defer func() {
		// Recover from any panics during image detection
		if recover() != nil {
			// Image detection failed for this page
		}
	}()

	page := pdfReader.Page(pageNum)
	if page.V.IsNull() {
		return 0
	}

	resources := page.V.Key("Resources")
	if resources.IsNull() {
		return 0
	}

	xObjects := resources.Key("XObject")
	if xObjects.IsNull() || xObjects.Kind() != pdf.Dict {
		return 0
	}

	imageCount := 0
	for _, key := range xObjects.Keys() {
		obj := xObjects.Key(key)
		if obj.IsNull() {
			continue
		}

		subtype := obj.Key("Subtype")
		if subtype.IsNull() || subtype.Name() != "Image" {
			continue
		}

		imageCount++
	}

	return imageCount
}
