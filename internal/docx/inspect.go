package docx

import (
	"fmt"
	"strconv"

	"github.com/beevik/etree"
)

// Placeholders lists the distinct tokens of a template in document order,
// split into text tokens and recognized image tokens.
type Placeholders struct {
	Text   []string `json:"text"`
	Images []string `json:"images"`
}

// Metadata holds document properties extracted from docProps/core.xml and
// docProps/app.xml.
type Metadata struct {
	Title    string `json:"title,omitempty"`
	Author   string `json:"author,omitempty"`
	Created  string `json:"created,omitempty"`
	Modified string `json:"modified,omitempty"`
	Pages    int    `json:"pages,omitempty"`
}

// Inspection bundles what `inspect` reports about a template.
type Inspection struct {
	Placeholders Placeholders `json:"placeholders"`
	Metadata     Metadata     `json:"metadata"`
}

// Inspect scans a template for placeholders and reads its document
// properties.
func Inspect(a *Archive) (*Inspection, error) {
	ph, err := ScanPlaceholders(a)
	if err != nil {
		return nil, err
	}

	meta := ReadMetadata(a)

	return &Inspection{Placeholders: *ph, Metadata: *meta}, nil
}

// ScanPlaceholders collects every distinct {{TOKEN}} name in the document
// body, tables, headers, and footers, in document order.
func ScanPlaceholders(a *Archive) (*Placeholders, error) {
	parts := []string{documentPart}

	for _, name := range a.ListParts() {
		if isHeaderFooterPart(name) {
			parts = append(parts, name)
		}
	}

	seen := make(map[string]bool)
	ph := &Placeholders{}

	for _, partName := range parts {
		doc, err := a.Part(partName)
		if err != nil {
			return nil, fmt.Errorf("inspect %s: %w", partName, err)
		}

		root := doc.Root()
		if root == nil {
			continue
		}

		collectPlaceholders(root, seen, ph)
	}

	return ph, nil
}

// collectPlaceholders walks the element tree scanning each paragraph's
// concatenated run text, so tokens split across runs are still found.
func collectPlaceholders(elem *etree.Element, seen map[string]bool, ph *Placeholders) {
	for _, child := range elem.ChildElements() {
		if child.Tag != "p" {
			collectPlaceholders(child, seen, ph)

			continue
		}

		for _, sp := range scanTokens(collectRuns(child)) {
			if seen[sp.name] {
				continue
			}

			seen[sp.name] = true

			if IsImageToken(sp.name) {
				ph.Images = append(ph.Images, sp.name)
			} else {
				ph.Text = append(ph.Text, sp.name)
			}
		}
	}
}

// ReadMetadata extracts document properties. The docProps parts are optional,
// so missing or unparseable fields are left at their zero value.
func ReadMetadata(a *Archive) *Metadata {
	meta := &Metadata{}

	if doc, err := a.Part("docProps/core.xml"); err == nil {
		readCoreProps(doc, meta)
	}

	if doc, err := a.Part("docProps/app.xml"); err == nil {
		readAppProps(doc, meta)
	}

	return meta
}

// readCoreProps reads the Dublin Core elements under cp:coreProperties.
// etree strips namespace prefixes, so matching is on local names.
func readCoreProps(doc *etree.Document, meta *Metadata) {
	root := doc.Root()
	if root == nil {
		return
	}

	for _, child := range root.ChildElements() {
		switch child.Tag {
		case "title":
			meta.Title = child.Text()
		case "creator":
			meta.Author = child.Text()
		case "created":
			meta.Created = child.Text()
		case "modified":
			meta.Modified = child.Text()
		}
	}
}

func readAppProps(doc *etree.Document, meta *Metadata) {
	root := doc.Root()
	if root == nil {
		return
	}

	for _, child := range root.ChildElements() {
		if child.Tag == "Pages" {
			if n, err := strconv.Atoi(child.Text()); err == nil {
				meta.Pages = n
			}
		}
	}
}
