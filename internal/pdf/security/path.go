package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// TemplateGuard confines template lookups to a single configured directory.
// The server resolves user-supplied template names through the guard so a
// request can never read a PDF from outside the template directory.
type TemplateGuard struct {
	templateDir string
}

// NewTemplateGuard creates a guard for the given template directory.
// The directory does not have to exist yet; confinement is enforced once it
// does.
func NewTemplateGuard(templateDir string) (*TemplateGuard, error) {
	if templateDir == "" {
		return nil, fmt.Errorf("template directory cannot be empty")
	}

	return &TemplateGuard{
		templateDir: templateDir,
	}, nil
}

// Resolve turns a template name into an absolute path inside the template
// directory. Names carrying separators or parent references are rejected
// before the path is ever formed.
func (g *TemplateGuard) Resolve(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("template name cannot be empty")
	}
	if name != filepath.Base(name) {
		return "", fmt.Errorf("template name must not contain path separators: %s", name)
	}
	if strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("template name must not start with a dot: %s", name)
	}

	path := filepath.Join(g.templateDir, name)
	if err := g.ValidatePath(path); err != nil {
		return "", err
	}

	return filepath.Abs(path)
}

// ValidatePath checks that a path lies within the template directory.
func (g *TemplateGuard) ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	// Skip confinement until the template directory exists.
	if _, err := os.Stat(g.templateDir); os.IsNotExist(err) {
		return nil
	}

	isWithin, err := g.isWithinTemplateDir(path)
	if err != nil {
		return fmt.Errorf("path validation failed: %w", err)
	}
	if !isWithin {
		return fmt.Errorf("path is outside template directory: %s", path)
	}

	return nil
}

// isWithinTemplateDir reports whether a path stays inside the template
// directory after cleaning and symlink resolution. Both the literal path and
// its symlink target have to land inside the directory.
func (g *TemplateGuard) isWithinTemplateDir(path string) (bool, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("failed to resolve path: %w", err)
	}

	absDir, err := filepath.Abs(g.templateDir)
	if err != nil {
		return false, fmt.Errorf("failed to resolve template directory: %w", err)
	}

	cleanPath := filepath.Clean(absPath)
	cleanDir := filepath.Clean(absDir)

	realPath := cleanPath
	if info, err := os.Lstat(cleanPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
		if resolved, err := filepath.EvalSymlinks(cleanPath); err == nil {
			realPath = resolved
		}
	}

	realDir := cleanDir
	if resolved, err := filepath.EvalSymlinks(cleanDir); err == nil {
		realDir = resolved
	}

	return within(cleanPath, cleanDir, realDir) && within(realPath, cleanDir, realDir), nil
}

func within(path, dir, realDir string) bool {
	dirSep := dir + string(filepath.Separator)
	realDirSep := realDir + string(filepath.Separator)

	return strings.HasPrefix(path, dirSep) || path == dir ||
		strings.HasPrefix(path, realDirSep) || path == realDir
}

// TemplateDir returns the configured template directory.
func (g *TemplateGuard) TemplateDir() string {
	return g.templateDir
}
