package docx

import "github.com/beevik/etree"

// cloneRunWithText returns a detached deep copy of src with the same
// formatting children and a single w:t holding text.
func cloneRunWithText(src *etree.Element, text string) *etree.Element {
	dup := src.Copy()
	setRunText(dup, text)

	return dup
}

// substituteSpan rewrites one token occurrence in place. The prefix before
// the match keeps the start run's formatting, the suffix after the match
// keeps the end run's formatting, and the value goes into a new run cloned
// from the start run. Runs strictly between start and end are removed, and a
// start or end run left without text is dropped rather than kept empty.
//
// Spans are expected in document order and processed back to front, so the
// container entries at indexes below sp.startRun stay valid for earlier
// spans. The entry at sp.startRun itself is updated to the element now
// holding the prefix, which is all an earlier span in the same run can still
// touch.
func substituteSpan(c *container, sp span, value string) {
	if sp.startRun == sp.endRun {
		substituteWithinRun(c, sp, value)

		return
	}

	start := c.runs[sp.startRun]
	end := c.runs[sp.endRun]

	prefix := start.text[:sp.startOff]
	suffix := end.text[sp.endOff:]

	newRun := cloneRunWithText(start.elem, value)

	for j := sp.endRun - 1; j > sp.startRun; j-- {
		c.para.RemoveChild(c.runs[j].elem)
	}

	if suffix != "" {
		setRunText(end.elem, suffix)
	} else {
		c.para.RemoveChild(end.elem)
	}

	if prefix != "" {
		setRunText(start.elem, prefix)
		c.para.InsertChildAt(start.elem.Index()+1, newRun)
		c.runs[sp.startRun].text = prefix
	} else {
		idx := start.elem.Index()
		c.para.InsertChildAt(idx, newRun)
		c.para.RemoveChild(start.elem)
	}
}

// substituteWithinRun handles a span contained in a single run: the run is
// split around the match into up to three runs sharing its formatting.
func substituteWithinRun(c *container, sp span, value string) {
	r := c.runs[sp.startRun]

	prefix := r.text[:sp.startOff]
	suffix := r.text[sp.endOff:]

	newRun := cloneRunWithText(r.elem, value)

	switch {
	case prefix != "" && suffix != "":
		prefixRun := cloneRunWithText(r.elem, prefix)
		idx := r.elem.Index()
		c.para.InsertChildAt(idx, prefixRun)
		c.para.InsertChildAt(idx+1, newRun)
		setRunText(r.elem, suffix)
		c.runs[sp.startRun] = run{elem: prefixRun, text: prefix, start: r.start}
	case prefix != "":
		setRunText(r.elem, prefix)
		c.para.InsertChildAt(r.elem.Index()+1, newRun)
		c.runs[sp.startRun].text = prefix
	case suffix != "":
		c.para.InsertChildAt(r.elem.Index(), newRun)
		setRunText(r.elem, suffix)
	default:
		c.para.InsertChildAt(r.elem.Index(), newRun)
		c.para.RemoveChild(r.elem)
	}
}
