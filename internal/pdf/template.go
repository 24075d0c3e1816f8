package pdf

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// TemplateInfo describes a form template on disk.
type TemplateInfo struct {
	Path   string
	Pages  int
	Width  float64
	Height float64
}

// InspectTemplate reports the page count and first-page dimensions of a
// template PDF. Dimensions are in points.
func InspectTemplate(path string) (*TemplateInfo, error) {
	pages, err := api.PageCountFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot determine page count: %w", err)
	}
	if pages < 1 {
		return nil, fmt.Errorf("template has no pages: %s", path)
	}

	dims, err := api.PageDimsFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot determine page dimensions: %w", err)
	}
	if len(dims) == 0 {
		return nil, fmt.Errorf("template has no page dimensions: %s", path)
	}

	return &TemplateInfo{
		Path:   path,
		Pages:  pages,
		Width:  dims[0].Width,
		Height: dims[0].Height,
	}, nil
}
