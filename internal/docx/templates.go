package docx

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// errTemplateNotFound is returned when a named template is not installed.
var errTemplateNotFound = errors.New("template not found")

// TemplateInfo describes an installed template.
type TemplateInfo struct {
	Name         string        `json:"name"`
	Path         string        `json:"path"`
	Placeholders *Placeholders `json:"placeholders,omitempty"`
}

// ListTemplates returns names of all installed templates (sorted).
// Names are derived from .docx filenames with the extension stripped.
func ListTemplates(templatesDir string) ([]string, error) {
	entries, err := os.ReadDir(templatesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("read templates dir: %w", err)
	}

	var names []string

	for _, e := range entries {
		if e.IsDir() {
			continue
		}

		name := e.Name()
		if strings.HasSuffix(strings.ToLower(name), ".docx") {
			names = append(names, strings.TrimSuffix(name, filepath.Ext(name)))
		}
	}

	sort.Strings(names)

	return names, nil
}

// AddTemplate installs a DOCX file into the templates directory under the
// given name, stored as <name>.docx. The source must open as a usable
// template; a corrupt file is rejected before anything is written.
func AddTemplate(templatesDir, name, sourcePath string) error {
	data, err := os.ReadFile(sourcePath) //nolint:gosec // user-provided template path
	if err != nil {
		return fmt.Errorf("read source %s: %w", sourcePath, err)
	}

	if _, err := Open(data); err != nil {
		return fmt.Errorf("source %s: %w", sourcePath, err)
	}

	if err := os.MkdirAll(templatesDir, 0o750); err != nil {
		return fmt.Errorf("ensure templates dir: %w", err)
	}

	destPath := filepath.Join(templatesDir, name+".docx")

	if err := os.WriteFile(destPath, data, 0o644); err != nil { //nolint:gosec // template files are not sensitive
		return fmt.Errorf("write template %s: %w", destPath, err)
	}

	return nil
}

// RemoveTemplate deletes an installed template by name.
func RemoveTemplate(templatesDir, name string) error {
	path := filepath.Join(templatesDir, name+".docx")

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %q", errTemplateNotFound, name)
		}

		return fmt.Errorf("remove template %s: %w", path, err)
	}

	return nil
}

// ResolveTemplatePath returns the full path for a template name.
// If the name is already a file path (contains / or \) or ends in .docx, it
// is returned directly. Otherwise it resolves to <templatesDir>/<name>.docx.
func ResolveTemplatePath(templatesDir, name string) string {
	if strings.ContainsAny(name, `/\`) || strings.HasSuffix(strings.ToLower(name), ".docx") {
		return name
	}

	return filepath.Join(templatesDir, name+".docx")
}

// TemplatePlaceholders opens a template by name and returns its placeholder
// inventory.
func TemplatePlaceholders(templatesDir, name string) (*Placeholders, error) {
	path := ResolveTemplatePath(templatesDir, name)

	a, err := OpenFile(path)
	if err != nil {
		return nil, err
	}

	return ScanPlaceholders(a)
}

// ListTemplateInfos returns detailed info for all installed templates.
// If withPlaceholders is true, each template is opened and inspected; ones
// that fail to open are listed without placeholders.
func ListTemplateInfos(templatesDir string, withPlaceholders bool) ([]TemplateInfo, error) {
	names, err := ListTemplates(templatesDir)
	if err != nil {
		return nil, err
	}

	infos := make([]TemplateInfo, 0, len(names))

	for _, name := range names {
		info := TemplateInfo{
			Name: name,
			Path: ResolveTemplatePath(templatesDir, name),
		}

		if withPlaceholders {
			if ph, err := TemplatePlaceholders(templatesDir, name); err == nil {
				info.Placeholders = ph
			}
		}

		infos = append(infos, info)
	}

	return infos, nil
}
