// Package generate orchestrates the conversion of a bill-of-materials PDF
// into a filled DD Form 1750 packing list.
package generate

import (
	"fmt"
	"log"

	"github.com/canopyforms/dd1750/internal/bom"
	"github.com/canopyforms/dd1750/internal/form"
	"github.com/canopyforms/dd1750/internal/pdf"
)

// Service handles conversion requests by orchestrating validation, text
// extraction, record extraction, and form rendering.
type Service struct {
	maxFileSize int64
	validator   *pdf.Validator
	reader      *pdf.Reader
	extractCfg  bom.Config
}

// NewService creates a conversion service with the specified constraints.
func NewService(maxFileSize int64, extractCfg bom.Config) *Service {
	return &Service{
		maxFileSize: maxFileSize,
		validator:   pdf.NewValidator(maxFileSize),
		reader:      pdf.NewReader(maxFileSize),
		extractCfg:  extractCfg,
	}
}

// ConvertRequest describes one conversion job. TemplatePath must already be
// resolved to a file the caller is allowed to read.
type ConvertRequest struct {
	BOMPath      string
	TemplatePath string
	StartPage    int    // zero-based first listing page to read
	Profile      string // geometry profile name, empty means standard
	Label        string // identifier sub-label prefix, empty means "NSN: "
}

// ConvertResult holds the rendered form and extraction diagnostics.
type ConvertResult struct {
	PDF         []byte           `json:"-"`
	Items       []bom.ItemRecord `json:"items"`
	ItemCount   int              `json:"item_count"`
	PageCount   int              `json:"page_count"`
	ContentType string           `json:"content_type"`
}

// NoItemsError reports that extraction found no line items. The message
// depends on what the source document contained, so callers can tell an
// empty listing from a scanned one.
type NoItemsError struct {
	ContentType string
}

func (e *NoItemsError) Error() string {
	switch e.ContentType {
	case "scanned_images":
		return "no line items found: the document appears to be scanned images without a text layer; " +
			"run OCR or export a text-searchable PDF and try again"
	case "no_content":
		return "no line items found: the document contains no extractable text"
	default:
		return "no line items found: the document has text but none of it matches a parts listing"
	}
}

// Convert runs the full pipeline for one request.
func (s *Service) Convert(req ConvertRequest) (*ConvertResult, error) {
	if vr, err := s.validator.ValidateBOM(req.BOMPath); err != nil {
		return nil, fmt.Errorf("failed to validate listing: %w", err)
	} else if !vr.Valid {
		return nil, fmt.Errorf("invalid listing file: %s", vr.Message)
	}

	if vr, err := s.validator.ValidateTemplate(req.TemplatePath); err != nil {
		return nil, fmt.Errorf("failed to validate template: %w", err)
	} else if !vr.Valid {
		return nil, fmt.Errorf("invalid template file: %s", vr.Message)
	}

	geometry, err := form.LookupProfile(req.Profile)
	if err != nil {
		return nil, err
	}

	lines, err := s.reader.PageLines(req.BOMPath, req.StartPage)
	if err != nil {
		return nil, fmt.Errorf("failed to read listing: %w", err)
	}

	records := bom.NewExtractor(s.extractCfg).Extract(lines.Pages)
	if len(records) == 0 {
		return nil, &NoItemsError{ContentType: lines.ContentType}
	}

	log.Printf("[generate] extracted %d items from %s (%d pages, %s)",
		len(records), req.BOMPath, len(lines.Pages), lines.ContentType)

	label := req.Label
	if label == "" {
		label = "NSN"
	}

	renderer := form.NewRenderer(geometry, label)
	out, pageCount, err := renderer.Render(records, req.TemplatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to render form: %w", err)
	}

	return &ConvertResult{
		PDF:         out,
		Items:       records,
		ItemCount:   len(records),
		PageCount:   pageCount,
		ContentType: lines.ContentType,
	}, nil
}

// ExtractOnly runs validation and extraction without rendering. The CLI uses
// it for dry runs and JSON output.
func (s *Service) ExtractOnly(bomPath string, startPage int) (*ConvertResult, error) {
	if vr, err := s.validator.ValidateBOM(bomPath); err != nil {
		return nil, fmt.Errorf("failed to validate listing: %w", err)
	} else if !vr.Valid {
		return nil, fmt.Errorf("invalid listing file: %s", vr.Message)
	}

	lines, err := s.reader.PageLines(bomPath, startPage)
	if err != nil {
		return nil, fmt.Errorf("failed to read listing: %w", err)
	}

	records := bom.NewExtractor(s.extractCfg).Extract(lines.Pages)

	return &ConvertResult{
		Items:       records,
		ItemCount:   len(records),
		ContentType: lines.ContentType,
	}, nil
}

// GetMaxFileSize returns the maximum file size limit
func (s *Service) GetMaxFileSize() int64 {
	return s.maxFileSize
}
