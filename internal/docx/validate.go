package docx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/beevik/etree"
)

// ValidateResult contains the validation outcome.
type ValidateResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Validate checks template bytes for structural correctness:
//  1. ZIP is valid
//  2. Required parts exist ([Content_Types].xml, word/document.xml, _rels/.rels)
//  3. Content type overrides reference actual parts
//  4. Relationship targets resolve to existing parts
//  5. Media parts carry a content type
//  6. document.xml parses and has a w:document/w:body skeleton
//  7. Placeholder braces are well formed
//
// Errors make the template unusable for filling; warnings flag things a
// template author probably wants fixed.
func Validate(data []byte) *ValidateResult {
	result := &ValidateResult{Valid: true}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("not a valid ZIP archive: %v", err))

		return result
	}

	entries := make(map[string][]byte, len(zr.File))

	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("cannot open entry %s: %v", f.Name, err))

			continue
		}

		entry, err := io.ReadAll(rc)
		_ = rc.Close()

		if err != nil {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("cannot read entry %s: %v", f.Name, err))

			continue
		}

		entries[f.Name] = entry
	}

	for _, rp := range requiredParts {
		if _, ok := entries[rp]; !ok {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("missing required part: %s", rp))
		}
	}

	// Deeper checks need the critical parts in place.
	if !result.Valid {
		return result
	}

	result.Warnings = append(result.Warnings, checkContentTypes(entries)...)
	result.Warnings = append(result.Warnings, checkRelationships(entries)...)
	result.Warnings = append(result.Warnings, checkMediaTypes(entries)...)

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(entries[documentPart]); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("word/document.xml is not valid XML: %v", err))

		return result
	}

	root := doc.Root()
	if root == nil {
		result.Valid = false
		result.Errors = append(result.Errors, "word/document.xml has no root element")

		return result
	}

	if root.Tag != "document" {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("root element is <%s>, expected <w:document>", root.Tag))
	}

	if findBody(doc) == nil {
		result.Valid = false
		result.Errors = append(result.Errors, "no w:body element found in document.xml")
	}

	for name, entry := range entries {
		if name != documentPart && !isHeaderFooterPart(name) {
			continue
		}

		result.Warnings = append(result.Warnings, checkTokens(name, entry)...)
	}

	return result
}

// checkContentTypes flags Override entries in [Content_Types].xml that
// reference parts missing from the archive.
func checkContentTypes(entries map[string][]byte) []string {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(entries[contentTypesPart]); err != nil {
		return []string{fmt.Sprintf("[Content_Types].xml is not valid XML: %v", err)}
	}

	root := doc.Root()
	if root == nil {
		return []string{"[Content_Types].xml has no root element"}
	}

	var warnings []string

	for _, child := range root.ChildElements() {
		if child.Tag != "Override" {
			continue
		}

		partName := ""
		if a := child.SelectAttr("PartName"); a != nil {
			partName = a.Value
		}

		if partName == "" {
			continue
		}

		// PartName starts with "/", strip it for ZIP entry comparison.
		if _, ok := entries[strings.TrimPrefix(partName, "/")]; !ok {
			warnings = append(warnings, fmt.Sprintf("content type override references missing part: %s", partName))
		}
	}

	return warnings
}

// checkRelationships flags internal relationship targets that resolve to
// parts missing from the archive.
func checkRelationships(entries map[string][]byte) []string {
	var warnings []string

	for name, entry := range entries {
		if !strings.HasSuffix(name, ".rels") {
			continue
		}

		doc := etree.NewDocument()
		if err := doc.ReadFromBytes(entry); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s is not valid XML: %v", name, err))

			continue
		}

		root := doc.Root()
		if root == nil {
			continue
		}

		// Targets resolve relative to the directory that owns _rels.
		baseDir := path.Dir(path.Dir(name))

		for _, rel := range root.ChildElements() {
			if rel.Tag != "Relationship" {
				continue
			}

			if mode := rel.SelectAttr("TargetMode"); mode != nil && mode.Value == "External" {
				continue
			}

			target := ""
			if a := rel.SelectAttr("Target"); a != nil {
				target = a.Value
			}

			if target == "" {
				continue
			}

			resolved := path.Clean(path.Join(baseDir, target))
			resolved = strings.TrimPrefix(resolved, "/")

			if _, ok := entries[resolved]; !ok {
				warnings = append(warnings, fmt.Sprintf("%s references missing part: %s", name, target))
			}
		}
	}

	return warnings
}

// checkMediaTypes flags media parts whose extension has neither a Default
// content type nor an Override entry.
func checkMediaTypes(entries map[string][]byte) []string {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(entries[contentTypesPart]); err != nil {
		// Already reported by checkContentTypes.
		return nil
	}

	root := doc.Root()
	if root == nil {
		return nil
	}

	declaredExts := make(map[string]bool)
	declaredParts := make(map[string]bool)

	for _, child := range root.ChildElements() {
		switch child.Tag {
		case "Default":
			if a := child.SelectAttr("Extension"); a != nil {
				declaredExts[strings.ToLower(a.Value)] = true
			}
		case "Override":
			if a := child.SelectAttr("PartName"); a != nil {
				declaredParts[strings.TrimPrefix(a.Value, "/")] = true
			}
		}
	}

	var warnings []string

	for name := range entries {
		if !strings.HasPrefix(name, "word/media/") {
			continue
		}

		ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
		if declaredExts[ext] || declaredParts[name] {
			continue
		}

		warnings = append(warnings, fmt.Sprintf("media part has no content type: %s", name))
	}

	return warnings
}

// checkTokens flags brace sequences that look like placeholders but do not
// scan as one, e.g. an unclosed {{ or a lowercase name.
func checkTokens(partName string, entry []byte) []string {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(entry); err != nil {
		return []string{fmt.Sprintf("%s is not valid XML: %v", partName, err)}
	}

	root := doc.Root()
	if root == nil {
		return nil
	}

	var warnings []string

	checkTokenElement(root, partName, &warnings)

	return warnings
}

func checkTokenElement(elem *etree.Element, partName string, warnings *[]string) {
	for _, child := range elem.ChildElements() {
		if child.Tag != "p" {
			checkTokenElement(child, partName, warnings)

			continue
		}

		text := collectRuns(child).fullText()

		for i := 0; i+1 < len(text); i++ {
			if text[i] != '{' || text[i+1] != '{' {
				continue
			}

			if loc := tokenRe.FindStringIndex(text[i:]); loc != nil && loc[0] == 0 {
				// A well-formed token starts here; skip past it.
				i += loc[1] - 1

				continue
			}

			*warnings = append(*warnings, fmt.Sprintf("%s: malformed placeholder near %q", partName, snippet(text, i)))
		}
	}
}

// snippet pulls a short context window around position i for a warning.
func snippet(text string, i int) string {
	end := i + 20
	if end > len(text) {
		end = len(text)
	}

	return text[i:end]
}
