package docx

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/ColtonShawProctor/template-filler/internal/imagemeta"
)

// ErrInvalidImagePayload reports supplied image data that cannot be decoded,
// either as base64 or as an image of a supported format.
var ErrInvalidImagePayload = errors.New("invalid image payload")

// emuPerInch is the number of English Metric Units per inch, the length unit
// DrawingML extents are declared in.
const emuPerInch = 914400

// DrawingML namespaces. They are declared inline on the built elements so the
// reference stays valid even in parts whose root never mentions them.
const (
	nsOfficeRel  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsWPDrawing  = "http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"
	nsDrawing    = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsDrawingPic = "http://schemas.openxmlformats.org/drawingml/2006/picture"
)

// decodedImage is an image payload decoded and probed ahead of injection, so
// bad inputs surface before any part is touched.
type decodedImage struct {
	data []byte
	info imagemeta.Info
}

// decodeImage decodes one supplied payload and probes its header. The name is
// carried into error messages so callers can report which token failed.
func decodeImage(name, payload string) (decodedImage, error) {
	data, err := decodeImagePayload(payload)
	if err != nil {
		return decodedImage{}, fmt.Errorf("image %s: %w", name, err)
	}

	info, err := imagemeta.Probe(data)
	if err != nil {
		return decodedImage{}, fmt.Errorf("image %s: %w: %v", name, ErrInvalidImagePayload, err)
	}

	return decodedImage{data: data, info: info}, nil
}

// decodeImagePayload turns a base64 string, optionally wrapped in a data URI,
// into raw bytes. Whitespace inside the base64 body is tolerated.
func decodeImagePayload(payload string) ([]byte, error) {
	s := strings.TrimSpace(payload)

	if strings.HasPrefix(s, "data:") {
		_, rest, ok := strings.Cut(s, ";base64,")
		if !ok {
			return nil, fmt.Errorf("%w: data URI without base64 payload", ErrInvalidImagePayload)
		}

		s = rest
	}

	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return -1
		}

		return r
	}, s)

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImagePayload, err)
	}

	return data, nil
}

// emuExtent computes the drawing extent for an image scaled to widthInches,
// with height following the native aspect ratio.
func emuExtent(info imagemeta.Info, widthInches float64) (cx, cy int64) {
	cx = int64(widthInches*emuPerInch + 0.5)
	cy = cx * int64(info.Height) / int64(info.Width)

	return cx, cy
}

// injectImage replaces the whole run sequence of a container with a single
// run referencing a freshly registered media part. partName is the XML part
// holding the container; the relationship is scoped to that part.
func injectImage(a *Archive, partName string, c *container, name string, img decodedImage, docPrID int) error {
	mediaName, err := a.AddMediaPart(img.data, img.info.Ext)
	if err != nil {
		return fmt.Errorf("image %s: %w", name, err)
	}

	// Relationship targets resolve relative to the source part's directory.
	target := strings.TrimPrefix(mediaName, "word/")

	rID, err := a.AddImageRelationship(partName, target)
	if err != nil {
		return fmt.Errorf("image %s: %w", name, err)
	}

	cx, cy := emuExtent(img.info, imageWidths[name])
	imgRun := buildInlineImageRun(rID, strings.TrimPrefix(target, "media/"), cx, cy, docPrID)

	idx := c.runs[0].elem.Index()

	for _, r := range c.runs {
		c.para.RemoveChild(r.elem)
	}

	c.para.InsertChildAt(idx, imgRun)

	return nil
}

// buildInlineImageRun assembles the w:r/w:drawing/wp:inline element tree for
// an embedded picture at the given extent.
func buildInlineImageRun(rID, name string, cx, cy int64, id int) *etree.Element {
	cxs := strconv.FormatInt(cx, 10)
	cys := strconv.FormatInt(cy, 10)
	ids := strconv.Itoa(id)

	r := etree.NewElement("w:r")

	drawing := r.CreateElement("w:drawing")
	drawing.CreateAttr("xmlns:r", nsOfficeRel)

	inline := drawing.CreateElement("wp:inline")
	inline.CreateAttr("xmlns:wp", nsWPDrawing)
	inline.CreateAttr("distT", "0")
	inline.CreateAttr("distB", "0")
	inline.CreateAttr("distL", "0")
	inline.CreateAttr("distR", "0")

	extent := inline.CreateElement("wp:extent")
	extent.CreateAttr("cx", cxs)
	extent.CreateAttr("cy", cys)

	effect := inline.CreateElement("wp:effectExtent")
	effect.CreateAttr("l", "0")
	effect.CreateAttr("t", "0")
	effect.CreateAttr("r", "0")
	effect.CreateAttr("b", "0")

	docPr := inline.CreateElement("wp:docPr")
	docPr.CreateAttr("id", ids)
	docPr.CreateAttr("name", name)

	framePr := inline.CreateElement("wp:cNvGraphicFramePr")
	frameLocks := framePr.CreateElement("a:graphicFrameLocks")
	frameLocks.CreateAttr("xmlns:a", nsDrawing)
	frameLocks.CreateAttr("noChangeAspect", "1")

	graphic := inline.CreateElement("a:graphic")
	graphic.CreateAttr("xmlns:a", nsDrawing)

	graphicData := graphic.CreateElement("a:graphicData")
	graphicData.CreateAttr("uri", nsDrawingPic)

	pic := graphicData.CreateElement("pic:pic")
	pic.CreateAttr("xmlns:pic", nsDrawingPic)

	nvPicPr := pic.CreateElement("pic:nvPicPr")
	cNvPr := nvPicPr.CreateElement("pic:cNvPr")
	cNvPr.CreateAttr("id", ids)
	cNvPr.CreateAttr("name", name)
	cNvPicPr := nvPicPr.CreateElement("pic:cNvPicPr")
	picLocks := cNvPicPr.CreateElement("a:picLocks")
	picLocks.CreateAttr("noChangeAspect", "1")
	picLocks.CreateAttr("noChangeArrowheads", "1")

	blipFill := pic.CreateElement("pic:blipFill")
	blip := blipFill.CreateElement("a:blip")
	blip.CreateAttr("r:embed", rID)
	blip.CreateAttr("cstate", "print")
	stretch := blipFill.CreateElement("a:stretch")
	stretch.CreateElement("a:fillRect")

	spPr := pic.CreateElement("pic:spPr")
	spPr.CreateAttr("bwMode", "auto")
	xfrm := spPr.CreateElement("a:xfrm")
	off := xfrm.CreateElement("a:off")
	off.CreateAttr("x", "0")
	off.CreateAttr("y", "0")
	ext := xfrm.CreateElement("a:ext")
	ext.CreateAttr("cx", cxs)
	ext.CreateAttr("cy", cys)
	prstGeom := spPr.CreateElement("a:prstGeom")
	prstGeom.CreateAttr("prst", "rect")
	prstGeom.CreateElement("a:avLst")

	return r
}
