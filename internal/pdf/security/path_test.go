package security

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewTemplateGuard(t *testing.T) {
	if _, err := NewTemplateGuard(""); err == nil {
		t.Errorf("expected error for empty template directory")
	}

	guard, err := NewTemplateGuard("/opt/templates")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if guard.TemplateDir() != "/opt/templates" {
		t.Errorf("expected template dir /opt/templates, got %s", guard.TemplateDir())
	}
}

func TestTemplateGuard_Resolve(t *testing.T) {
	tempDir := t.TempDir()
	guard, err := NewTemplateGuard(tempDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	formPath := filepath.Join(tempDir, "dd1750.pdf")
	if err := os.WriteFile(formPath, []byte("%PDF-1.4"), 0o600); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	tests := []struct {
		name      string
		template  string
		expectErr bool
	}{
		{name: "plain name resolves", template: "dd1750.pdf", expectErr: false},
		{name: "missing file still resolves", template: "other.pdf", expectErr: false},
		{name: "empty name rejected", template: "", expectErr: true},
		{name: "separator rejected", template: "sub/dd1750.pdf", expectErr: true},
		{name: "parent reference rejected", template: "../dd1750.pdf", expectErr: true},
		{name: "dotfile rejected", template: ".hidden.pdf", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := guard.Resolve(tt.template)

			if tt.expectErr {
				if err == nil {
					t.Errorf("expected error but got none")
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.HasPrefix(path, tempDir) {
				t.Errorf("resolved path %s escapes template directory %s", path, tempDir)
			}
			if filepath.Base(path) != tt.template {
				t.Errorf("expected base %s, got %s", tt.template, filepath.Base(path))
			}
		})
	}
}

func TestTemplateGuard_ValidatePath(t *testing.T) {
	tempDir := t.TempDir()
	guard, err := NewTemplateGuard(tempDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name      string
		path      string
		expectErr bool
	}{
		{name: "inside directory", path: filepath.Join(tempDir, "dd1750.pdf"), expectErr: false},
		{name: "the directory itself", path: tempDir, expectErr: false},
		{name: "outside directory", path: "/etc/passwd", expectErr: true},
		{name: "escape via parent segments", path: filepath.Join(tempDir, "..", "escape.pdf"), expectErr: true},
		{name: "empty path", path: "", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := guard.ValidatePath(tt.path)
			if tt.expectErr && err == nil {
				t.Errorf("expected error but got none")
			}
			if !tt.expectErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestTemplateGuard_MissingDirectorySkipsConfinement(t *testing.T) {
	guard, err := NewTemplateGuard("/does/not/exist/yet")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := guard.ValidatePath("/anywhere/at/all.pdf"); err != nil {
		t.Errorf("expected validation to pass while directory is absent: %v", err)
	}
}

func TestTemplateGuard_SymlinkEscape(t *testing.T) {
	tempDir := t.TempDir()
	outsideDir := t.TempDir()

	outsideFile := filepath.Join(outsideDir, "secret.pdf")
	if err := os.WriteFile(outsideFile, []byte("%PDF-1.4"), 0o600); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	link := filepath.Join(tempDir, "link.pdf")
	if err := os.Symlink(outsideFile, link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	guard, err := NewTemplateGuard(tempDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := guard.ValidatePath(link); err == nil {
		t.Errorf("expected symlink escaping the template directory to be rejected")
	}
}
