package docx

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// Result summarizes one fill operation.
type Result struct {
	Replacements int      `json:"replacements"`
	ImagesPlaced int      `json:"images_placed"`
	Unresolved   []string `json:"unresolved,omitempty"`
}

// Fill substitutes text values and injects images into every token-bearing
// container of the archive: the document body, tables, headers, and footers.
// values maps token names to replacement text; images maps recognized image
// token names to base64 payloads (a data URI wrapper is accepted).
//
// Tokens found in the template but absent from both mappings are left as
// literal text and reported in Result.Unresolved. Any decode or archive
// failure aborts the whole operation; no partially filled archive is
// observable because all work happens on the in-memory copy.
func Fill(a *Archive, values map[string]string, images map[string]string) (*Result, error) {
	f := &filler{
		archive:    a,
		values:     values,
		images:     make(map[string]decodedImage, len(images)),
		result:     &Result{},
		unresolved: make(map[string]bool),
	}

	// Decode every recognized image payload up front. A bad payload must
	// surface before any part is touched.
	for name, payload := range images {
		if !IsImageToken(name) {
			continue
		}

		img, err := decodeImage(name, payload)
		if err != nil {
			return nil, err
		}

		f.images[name] = img
	}

	parts := []string{documentPart}

	for _, name := range a.ListParts() {
		if isHeaderFooterPart(name) {
			parts = append(parts, name)
		}
	}

	for _, partName := range parts {
		if err := f.fillPart(partName); err != nil {
			return nil, fmt.Errorf("fill %s: %w", partName, err)
		}
	}

	for name := range f.unresolved {
		f.result.Unresolved = append(f.result.Unresolved, name)
	}

	sort.Strings(f.result.Unresolved)

	return f.result, nil
}

// isHeaderFooterPart checks if a part name is a header or footer XML file.
func isHeaderFooterPart(name string) bool {
	return (strings.HasPrefix(name, "word/header") || strings.HasPrefix(name, "word/footer")) &&
		strings.HasSuffix(name, ".xml")
}

// filler carries the state of one fill operation.
type filler struct {
	archive    *Archive
	values     map[string]string
	images     map[string]decodedImage
	result     *Result
	unresolved map[string]bool
	docPrID    int
}

// fillPart processes all containers of a single XML part and marks the part
// dirty when anything changed.
func (f *filler) fillPart(name string) error {
	doc, err := f.archive.Part(name)
	if err != nil {
		return err
	}

	root := doc.Root()
	if root == nil {
		return nil
	}

	// New drawings must not reuse ids of pictures already in the template.
	if id := maxDocPrID(root); id > f.docPrID {
		f.docPrID = id
	}

	changed, err := f.fillElement(name, root)
	if err != nil {
		return err
	}

	if changed {
		f.archive.MarkDirty(name)
	}

	return nil
}

// fillElement finds paragraphs anywhere under elem and fills their tokens.
// Tables, rows, cells, and any other structural wrapper just recurse.
func (f *filler) fillElement(partName string, elem *etree.Element) (bool, error) {
	changed := false

	for _, child := range elem.ChildElements() {
		if child.Tag == "p" {
			c, err := f.fillParagraph(partName, child)
			if err != nil {
				return changed, err
			}

			changed = changed || c
		} else {
			c, err := f.fillElement(partName, child)
			if err != nil {
				return changed, err
			}

			changed = changed || c
		}
	}

	return changed, nil
}

// fillParagraph scans one paragraph and applies image injection or text
// substitution to its token spans.
func (f *filler) fillParagraph(partName string, p *etree.Element) (bool, error) {
	c := collectRuns(p)
	if len(c.runs) == 0 {
		return false, nil
	}

	spans := scanTokens(c)
	if len(spans) == 0 {
		return false, nil
	}

	// An image injection replaces the whole container, so the first span
	// with a supplied payload wins and everything else in the paragraph is
	// discarded. Image tokens are laid out one per paragraph in real
	// templates.
	for _, sp := range spans {
		img, ok := f.images[sp.name]
		if !ok {
			continue
		}

		f.docPrID++

		if err := injectImage(f.archive, partName, &c, sp.name, img, f.docPrID); err != nil {
			return false, err
		}

		f.result.ImagesPlaced++

		return true, nil
	}

	changed := false

	// Back to front so earlier span offsets stay valid.
	for i := len(spans) - 1; i >= 0; i-- {
		sp := spans[i]

		// Recognized image tokens are only ever filled by image payloads.
		if IsImageToken(sp.name) {
			f.unresolved[sp.name] = true

			continue
		}

		value, ok := f.values[sp.name]
		if !ok {
			f.unresolved[sp.name] = true

			continue
		}

		substituteSpan(&c, sp, value)

		f.result.Replacements++

		changed = true
	}

	return changed, nil
}

// maxDocPrID returns the highest wp:docPr id in the element tree.
func maxDocPrID(elem *etree.Element) int {
	maxID := 0

	for _, child := range elem.ChildElements() {
		if child.Tag == "docPr" {
			if attr := child.SelectAttr("id"); attr != nil {
				if n, err := strconv.Atoi(attr.Value); err == nil && n > maxID {
					maxID = n
				}
			}

			continue
		}

		if n := maxDocPrID(child); n > maxID {
			maxID = n
		}
	}

	return maxID
}
