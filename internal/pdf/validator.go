package pdf

import (
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Validator handles PDF file validation operations
type Validator struct {
	maxFileSize int64
	conf        *model.Configuration
}

// NewValidator creates a new PDF validator with the specified constraints
func NewValidator(maxFileSize int64) *Validator {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	return &Validator{
		maxFileSize: maxFileSize,
		conf:        conf,
	}
}

// ValidationResult reports the outcome of validating one file.
type ValidationResult struct {
	Path    string
	Valid   bool
	Message string
}

// ValidateBOM checks that a bill-of-materials upload is a readable PDF.
// Validation failures are reported in the result, not as a processing error.
func (v *Validator) ValidateBOM(path string) (*ValidationResult, error) {
	result := &ValidationResult{
		Path:  path,
		Valid: false,
	}

	if err := v.validateBOMFile(path); err != nil {
		result.Message = err.Error()
		return result, nil //nolint:nilerr // Return result with validation error, not a processing error
	}

	result.Valid = true
	return result, nil
}

func (v *Validator) validateBOMFile(path string) error {
	fileInfo, err := v.statPDF(path)
	if err != nil {
		return err
	}
	if err := v.ValidateFileInfo(path, fileInfo); err != nil {
		return err
	}

	// Open with the text extraction library so a template that validates
	// here is guaranteed readable by the extraction pass.
	f, _, err := pdf.Open(path)
	if err != nil {
		return fmt.Errorf("invalid PDF file: %w", err)
	}
	defer f.Close()

	return nil
}

// ValidateTemplate checks that a form template is a structurally valid PDF
// with at least one page. The first page is the one the renderer stamps.
func (v *Validator) ValidateTemplate(path string) (*ValidationResult, error) {
	result := &ValidationResult{
		Path:  path,
		Valid: false,
	}

	if err := v.validateTemplateFile(path); err != nil {
		result.Message = err.Error()
		return result, nil //nolint:nilerr // Return result with validation error, not a processing error
	}

	result.Valid = true
	return result, nil
}

func (v *Validator) validateTemplateFile(path string) error {
	fileInfo, err := v.statPDF(path)
	if err != nil {
		return err
	}
	if err := v.ValidateFileInfo(path, fileInfo); err != nil {
		return err
	}

	if err := api.ValidateFile(path, v.conf); err != nil {
		return fmt.Errorf("invalid PDF file: %w", err)
	}

	pages, err := api.PageCountFile(path)
	if err != nil {
		return fmt.Errorf("cannot determine page count: %w", err)
	}
	if pages < 1 {
		return fmt.Errorf("template has no pages: %s", path)
	}

	return nil
}

func (v *Validator) statPDF(path string) (os.FileInfo, error) {
	if path == "" {
		return nil, fmt.Errorf("path cannot be empty")
	}

	fileInfo, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("file does not exist: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot access file: %w", err)
	}

	return fileInfo, nil
}

// IsValidPDF performs a quick check to see if a file is a readable PDF
func (v *Validator) IsValidPDF(path string) bool {
	return v.validateBOMFile(path) == nil
}

// ValidateFileInfo performs basic validation on file info without opening the PDF
func (v *Validator) ValidateFileInfo(filePath string, fileInfo os.FileInfo) error {
	if fileInfo.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", filePath)
	}

	if !strings.HasSuffix(strings.ToLower(filePath), ".pdf") {
		return fmt.Errorf("file is not a PDF: %s", filePath)
	}

	if fileInfo.Size() == 0 {
		return fmt.Errorf("file is empty: %s", filePath)
	}

	if fileInfo.Size() > v.maxFileSize {
		return fmt.Errorf("file too large: %d bytes (max: %d bytes)",
			fileInfo.Size(), v.maxFileSize)
	}

	return nil
}
