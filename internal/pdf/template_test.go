package pdf

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestInspectTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "template.pdf")
	writeListingPDF(t, path, "DD FORM 1750")

	info, err := InspectTemplate(path)
	if err != nil {
		t.Fatalf("InspectTemplate failed: %v", err)
	}
	if info.Pages != 1 {
		t.Errorf("expected 1 page, got %d", info.Pages)
	}
	// Letter in points.
	if math.Abs(info.Width-612) > 1 {
		t.Errorf("expected width 612, got %v", info.Width)
	}
	if math.Abs(info.Height-792) > 1 {
		t.Errorf("expected height 792, got %v", info.Height)
	}
}

func TestInspectTemplate_Errors(t *testing.T) {
	notAPDF := filepath.Join(t.TempDir(), "template.pdf")
	if err := os.WriteFile(notAPDF, []byte("not a pdf"), 0o600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	tests := []struct {
		name string
		path string
	}{
		{name: "non-existent file", path: "/non/existent/template.pdf"},
		{name: "not a PDF", path: notAPDF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := InspectTemplate(tt.path)
			if err == nil {
				t.Errorf("expected error but got none")
			}
			if info != nil {
				t.Errorf("expected nil info on error")
			}
		})
	}
}
