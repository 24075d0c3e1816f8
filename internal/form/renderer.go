package form

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/canopyforms/dd1750/internal/bom"
)

// Renderer composites laid-out overlay pages onto the blank form template.
type Renderer struct {
	geometry Geometry
	label    string
	conf     *model.Configuration
}

// NewRenderer creates a renderer for one geometry profile. label is the
// identifier sub-label prefix, e.g. "NSN" or "SN".
func NewRenderer(g Geometry, label string) *Renderer {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Renderer{geometry: g, label: label, conf: conf}
}

// Geometry returns the renderer's geometry profile.
func (r *Renderer) Geometry() Geometry {
	return r.geometry
}

// Render lays out the records, writes the text overlay, and stamps each
// overlay page onto a freshly materialized copy of the template's first
// page. Zero records still produce a single blank form page. Returns the
// merged document bytes and the output page count.
func (r *Renderer) Render(records []bom.ItemRecord, templatePath string) ([]byte, int, error) {
	pages := BuildPages(records, r.geometry, NewHelveticaMeasurer(), r.label)

	workDir, err := os.MkdirTemp("", "dd1750-render-")
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create work directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	overlayPath := filepath.Join(workDir, "overlay.pdf")
	if err := r.writeOverlayFile(pages, overlayPath); err != nil {
		return nil, 0, err
	}

	stamped := make([]string, 0, len(pages))
	for i := range pages {
		outPath, err := r.stampPage(templatePath, overlayPath, workDir, i)
		if err != nil {
			return nil, 0, err
		}
		stamped = append(stamped, outPath)
	}

	mergedPath := filepath.Join(workDir, "merged.pdf")
	if err := api.MergeCreateFile(stamped, mergedPath, false, r.conf); err != nil {
		return nil, 0, fmt.Errorf("failed to merge output pages: %w", err)
	}

	out, err := os.ReadFile(mergedPath)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read merged output: %w", err)
	}
	return out, len(pages), nil
}

func (r *Renderer) writeOverlayFile(pages []Page, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create overlay file: %w", err)
	}
	if err := WriteOverlay(pages, r.geometry, f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close overlay file: %w", err)
	}
	return nil
}

// stampPage materializes an independent copy of the template page and
// stamps overlay page i onto it. Reusing one template copy across pages
// would bleed the last overlay into every output page, since stamping
// mutates the page it is applied to.
func (r *Renderer) stampPage(templatePath, overlayPath, workDir string, i int) (string, error) {
	basePath := filepath.Join(workDir, fmt.Sprintf("base_%03d.pdf", i+1))
	if err := api.TrimFile(templatePath, basePath, []string{"1"}, r.conf); err != nil {
		return "", fmt.Errorf("failed to copy template page: %w", err)
	}

	wm, err := api.PDFWatermark(fmt.Sprintf("%s:%d", overlayPath, i+1),
		"pos:c, scale:1 abs, rot:0", true, false, types.POINTS)
	if err != nil {
		return "", fmt.Errorf("failed to build overlay stamp: %w", err)
	}

	outPath := filepath.Join(workDir, fmt.Sprintf("page_%03d.pdf", i+1))
	if err := api.AddWatermarksFile(basePath, outPath, nil, wm, r.conf); err != nil {
		return "", fmt.Errorf("failed to stamp page %d: %w", i+1, err)
	}
	return outPath, nil
}
