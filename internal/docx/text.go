package docx

import (
	"errors"
	"strings"

	"github.com/beevik/etree"
)

// errNoBody is returned when word/document.xml has no w:body element.
var errNoBody = errors.New("document has no body element")

// ExtractText renders the document body as readable text.
//   - Headings become # / ## / ### based on style
//   - Paragraphs become text blocks separated by blank lines
//   - Tables become markdown tables
func ExtractText(a *Archive) (string, error) {
	doc, err := a.Part(documentPart)
	if err != nil {
		return "", err
	}

	body := findBody(doc)
	if body == nil {
		return "", errNoBody
	}

	var sb strings.Builder

	for _, child := range body.ChildElements() {
		switch child.Tag {
		case "p":
			text := paragraphText(child)

			block := formatParagraphText(text, paragraphStyle(child))
			if block != "" {
				sb.WriteString(block)
				sb.WriteString("\n\n")
			}
		case "tbl":
			table := formatTableText(child)
			if table != "" {
				sb.WriteString(table)
				sb.WriteString("\n")
			}
		}
	}

	return strings.TrimRight(sb.String(), "\n") + "\n", nil
}

// findBody locates the w:body element in the document.
func findBody(doc *etree.Document) *etree.Element {
	root := doc.Root()
	if root == nil {
		return nil
	}

	// The root is w:document; body is a direct child.
	for _, child := range root.ChildElements() {
		if child.Tag == "body" {
			return child
		}
	}

	return nil
}

// paragraphText extracts all text from w:r/w:t elements within a paragraph.
func paragraphText(p *etree.Element) string {
	var sb strings.Builder

	for _, r := range p.ChildElements() {
		if r.Tag == "r" {
			sb.WriteString(runText(r))
		}
	}

	return sb.String()
}

// paragraphStyle extracts the style name from w:pPr/w:pStyle[@w:val].
func paragraphStyle(p *etree.Element) string {
	for _, child := range p.ChildElements() {
		if child.Tag != "pPr" {
			continue
		}

		for _, prop := range child.ChildElements() {
			if prop.Tag != "pStyle" {
				continue
			}

			val := prop.SelectAttr("val")
			if val == nil {
				// Try with namespace prefix.
				val = prop.SelectAttr("w:val")
			}

			if val != nil {
				return val.Value
			}
		}
	}

	return ""
}

// formatParagraphText converts a paragraph to a text block based on its style.
func formatParagraphText(text, style string) string {
	if text == "" {
		return ""
	}

	switch strings.ToLower(style) {
	case "title":
		return "# " + text
	case "heading1":
		return "## " + text
	case "heading2":
		return "### " + text
	case "heading3":
		return "#### " + text
	case "heading4":
		return "##### " + text
	case "heading5", "heading6":
		return "###### " + text
	default:
		return text
	}
}

// formatTableText renders a w:tbl element as a markdown table.
func formatTableText(tbl *etree.Element) string {
	var rows [][]string

	for _, tr := range tbl.ChildElements() {
		if tr.Tag != "tr" {
			continue
		}

		var cells []string

		for _, tc := range tr.ChildElements() {
			if tc.Tag != "tc" {
				continue
			}

			// A cell can contain multiple paragraphs; join with space.
			var cellText []string

			for _, p := range tc.ChildElements() {
				if p.Tag == "p" {
					if t := paragraphText(p); t != "" {
						cellText = append(cellText, t)
					}
				}
			}

			cells = append(cells, strings.Join(cellText, " "))
		}

		rows = append(rows, cells)
	}

	if len(rows) == 0 {
		return ""
	}

	maxCols := 0

	for _, row := range rows {
		if len(row) > maxCols {
			maxCols = len(row)
		}
	}

	for i := range rows {
		for len(rows[i]) < maxCols {
			rows[i] = append(rows[i], "")
		}
	}

	var sb strings.Builder

	sb.WriteString("| ")
	sb.WriteString(strings.Join(rows[0], " | "))
	sb.WriteString(" |\n")

	sep := make([]string, maxCols)
	for i := range sep {
		sep[i] = "---"
	}

	sb.WriteString("| ")
	sb.WriteString(strings.Join(sep, " | "))
	sb.WriteString(" |\n")

	for _, row := range rows[1:] {
		sb.WriteString("| ")
		sb.WriteString(strings.Join(row, " | "))
		sb.WriteString(" |\n")
	}

	return sb.String()
}
