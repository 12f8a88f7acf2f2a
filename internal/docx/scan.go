package docx

import (
	"regexp"
	"strings"

	"github.com/beevik/etree"
)

// tokenRe matches {{NAME}} placeholders in concatenated paragraph text.
// Names are uppercase letters, digits, and underscores; anything else,
// including an unclosed {{, stays literal.
var tokenRe = regexp.MustCompile(`\{\{([A-Z0-9_]+)\}\}`)

// run is one <w:r> element of a paragraph together with its extracted text
// and the text's start position in the concatenated paragraph string. All
// non-text children of the element (formatting, breaks, drawings) are opaque:
// they are kept or cloned whole, never inspected.
type run struct {
	elem  *etree.Element
	text  string
	start int
}

// container is the ordered run sequence of one paragraph-like unit.
type container struct {
	para *etree.Element
	runs []run
}

// span marks one token occurrence. Offsets are half-open: the token's text is
// runs[startRun].text[startOff:] through runs[endRun].text[:endOff]. When
// startRun == endRun the token sits inside a single run.
type span struct {
	name     string
	startRun int
	startOff int
	endRun   int
	endOff   int
}

// collectRuns builds the run model for a paragraph element.
func collectRuns(p *etree.Element) container {
	c := container{para: p}
	pos := 0

	for _, child := range p.ChildElements() {
		if child.Tag != "r" {
			continue
		}

		text := runText(child)
		c.runs = append(c.runs, run{elem: child, text: text, start: pos})
		pos += len(text)
	}

	return c
}

// fullText returns the concatenation of all run texts.
func (c container) fullText() string {
	var sb strings.Builder

	for _, r := range c.runs {
		sb.WriteString(r.text)
	}

	return sb.String()
}

// scanTokens finds every {{NAME}} occurrence in the container and maps each
// match back to run-relative offsets. Matching is left to right and
// non-overlapping; the returned spans are in document order and never
// overlap. Formatting boundaries may fall anywhere inside a token, including
// between the braces and the name, so matching always runs over the
// concatenated text, never over individual runs.
func scanTokens(c container) []span {
	if len(c.runs) == 0 {
		return nil
	}

	text := c.fullText()

	matches := tokenRe.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}

	spans := make([]span, 0, len(matches))

	for _, m := range matches {
		matchStart, matchEnd := m[0], m[1]
		sp := span{
			name:     text[m[2]:m[3]],
			startRun: -1,
			endRun:   -1,
		}

		// Locate the runs holding the first and last character of the match.
		for j, r := range c.runs {
			runEnd := r.start + len(r.text)

			if sp.startRun == -1 && matchStart >= r.start && matchStart < runEnd {
				sp.startRun = j
				sp.startOff = matchStart - r.start
			}

			if matchEnd > r.start && matchEnd <= runEnd {
				sp.endRun = j
				sp.endOff = matchEnd - r.start

				break
			}
		}

		if sp.startRun == -1 || sp.endRun == -1 {
			continue
		}

		spans = append(spans, sp)
	}

	return spans
}

// runText extracts the concatenated text from all w:t elements in a run.
func runText(r *etree.Element) string {
	var sb strings.Builder

	for _, child := range r.ChildElements() {
		if child.Tag == "t" {
			sb.WriteString(child.Text())
		}
	}

	return sb.String()
}

// setRunText sets the text of a run element. If multiple w:t elements exist,
// they are consolidated into one. The xml:space="preserve" attribute is set
// when the text has leading or trailing whitespace.
func setRunText(r *etree.Element, text string) {
	var toRemove []*etree.Element

	for _, child := range r.ChildElements() {
		if child.Tag == "t" {
			toRemove = append(toRemove, child)
		}
	}

	for _, child := range toRemove {
		r.RemoveChild(child)
	}

	t := r.CreateElement("w:t")
	t.SetText(text)

	if len(text) > 0 && (text[0] == ' ' || text[len(text)-1] == ' ') {
		t.CreateAttr("xml:space", "preserve")
	}
}
