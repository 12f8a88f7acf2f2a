// Package docx fills OOXML (.docx) templates: it substitutes {{TOKEN}}
// placeholders with text values and replaces image tokens with embedded
// pictures, while preserving every untouched byte of the source archive.
//
// A DOCX file is a ZIP archive containing XML parts. The Archive type holds
// one fully in memory, lazily parses individual parts into etree Documents,
// caches them, and repacks the archive with unmodified entries copied
// verbatim from the original bytes.
package docx

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// Sentinel errors for archive operations.
var (
	// ErrCorruptArchive reports input that is not a readable DOCX package.
	ErrCorruptArchive = errors.New("corrupt docx archive")

	errPartNotFound = errors.New("part not found in docx")
)

// Mandatory parts of a minimal WordprocessingML package.
var requiredParts = []string{
	"[Content_Types].xml",
	"word/document.xml",
	"_rels/.rels",
}

const (
	contentTypesPart = "[Content_Types].xml"
	documentPart     = "word/document.xml"

	imageRelType = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
	relsXMLNS    = "http://schemas.openxmlformats.org/package/2006/relationships"
)

// xmlPart holds the parsed DOM for a single ZIP entry.
type xmlPart struct {
	doc *etree.Document
}

// Archive provides lazy, cached access to the XML parts of an in-memory DOCX
// package. Entries keep their original order on repack; parts never touched
// through a DOM round-trip byte-for-byte.
type Archive struct {
	names   []string            // entry names in original ZIP order
	rawData map[string][]byte   // raw bytes for all entries
	parts   map[string]*xmlPart // cached parsed XML DOMs
	dirty   map[string]bool     // parts that have been modified
}

// Open reads a DOCX package from memory. It fails with ErrCorruptArchive when
// the bytes are not a ZIP archive or a mandatory part is missing.
func Open(data []byte) (*Archive, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptArchive, err)
	}

	names := make([]string, 0, len(zr.File))
	rawData := make(map[string][]byte, len(zr.File))

	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open entry %s: %w", f.Name, err)
		}

		entry, err := io.ReadAll(rc)
		_ = rc.Close()

		if err != nil {
			return nil, fmt.Errorf("read entry %s: %w", f.Name, err)
		}

		if _, seen := rawData[f.Name]; !seen {
			names = append(names, f.Name)
		}

		rawData[f.Name] = entry
	}

	for _, req := range requiredParts {
		if _, ok := rawData[req]; !ok {
			return nil, fmt.Errorf("%w: missing %s", ErrCorruptArchive, req)
		}
	}

	return &Archive{
		names:   names,
		rawData: rawData,
		parts:   make(map[string]*xmlPart),
		dirty:   make(map[string]bool),
	}, nil
}

// OpenFile reads a DOCX package from disk.
func OpenFile(filePath string) (*Archive, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read docx %s: %w", filePath, err)
	}

	a, err := Open(data)
	if err != nil {
		return nil, fmt.Errorf("open docx %s: %w", filePath, err)
	}

	return a, nil
}

// Part returns the parsed XML document for a given part path
// (e.g. "word/document.xml"). It lazily parses on first access and caches
// the result for subsequent calls.
func (a *Archive) Part(name string) (*etree.Document, error) {
	if xp, ok := a.parts[name]; ok && xp.doc != nil {
		return xp.doc, nil
	}

	raw, ok := a.rawData[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", errPartNotFound, name)
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, fmt.Errorf("parse xml %s: %w", name, err)
	}

	a.parts[name] = &xmlPart{doc: doc}

	return doc, nil
}

// RawPart returns the raw bytes for a ZIP entry without parsing XML.
func (a *Archive) RawPart(name string) ([]byte, error) {
	raw, ok := a.rawData[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", errPartNotFound, name)
	}

	return raw, nil
}

// HasPart reports whether the archive contains an entry with the given name.
func (a *Archive) HasPart(name string) bool {
	_, ok := a.rawData[name]

	return ok
}

// MarkDirty marks a part as modified. Dirty parts are re-serialized from
// their etree Document when the archive is repacked.
func (a *Archive) MarkDirty(name string) {
	a.dirty[name] = true
}

// ListParts returns all entry names in their original ZIP order.
func (a *Archive) ListParts() []string {
	names := make([]string, len(a.names))
	copy(names, a.names)

	return names
}

// addEntry injects a new ZIP entry with the given raw bytes, appended after
// the existing entries. An existing entry of the same name is overwritten in
// place.
func (a *Archive) addEntry(name string, data []byte) {
	if _, seen := a.rawData[name]; !seen {
		a.names = append(a.names, name)
	}

	a.rawData[name] = data
}

// addPartDoc registers a freshly built DOM under a new entry name and marks
// it dirty so the repack serializes it.
func (a *Archive) addPartDoc(name string, doc *etree.Document) {
	a.addEntry(name, nil)
	a.parts[name] = &xmlPart{doc: doc}
	a.dirty[name] = true
}

// errDirtyPartNoParsed is returned when a dirty part has no parsed document.
var errDirtyPartNoParsed = errors.New("dirty part has no parsed document")

// Bytes repacks the archive. Unmodified entries are copied verbatim from the
// original bytes; dirty parts are serialized from their cached DOM without
// re-indentation, so text nodes survive untouched.
func (a *Archive) Bytes() ([]byte, error) {
	var buf bytes.Buffer

	zw := zip.NewWriter(&buf)

	for _, name := range a.names {
		w, err := zw.Create(name)
		if err != nil {
			return nil, fmt.Errorf("create zip entry %s: %w", name, err)
		}

		if a.dirty[name] {
			xp, ok := a.parts[name]
			if !ok || xp.doc == nil {
				return nil, fmt.Errorf("%w: %s", errDirtyPartNoParsed, name)
			}

			b, err := xp.doc.WriteToBytes()
			if err != nil {
				return nil, fmt.Errorf("serialize %s: %w", name, err)
			}

			if _, err := w.Write(b); err != nil {
				return nil, fmt.Errorf("write %s: %w", name, err)
			}
		} else {
			if _, err := w.Write(a.rawData[name]); err != nil {
				return nil, fmt.Errorf("copy %s: %w", name, err)
			}
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close zip writer: %w", err)
	}

	return buf.Bytes(), nil
}

// WriteFile repacks the archive and writes it to outputPath atomically:
// the bytes go to a temp file in the target directory first, then a rename
// moves them into place, so an existing file is never partially overwritten.
func (a *Archive) WriteFile(outputPath string) error {
	data, err := a.Bytes()
	if err != nil {
		return err
	}

	dir := filepath.Dir(outputPath)

	tmp, err := os.CreateTemp(dir, ".docx-fill-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)

		return fmt.Errorf("write temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)

		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, outputPath); err != nil {
		_ = os.Remove(tmpPath)

		return fmt.Errorf("rename to %s: %w", outputPath, err)
	}

	return nil
}

// AddMediaPart stores image bytes under a fresh word/media/imageN.<ext> entry
// and registers a content-type default for the extension. It returns the new
// entry name.
func (a *Archive) AddMediaPart(data []byte, ext string) (string, error) {
	name := ""

	for n := 1; ; n++ {
		candidate := fmt.Sprintf("word/media/image%d.%s", n, ext)
		if !a.HasPart(candidate) {
			name = candidate

			break
		}
	}

	if err := a.ensureContentType(ext); err != nil {
		return "", err
	}

	a.addEntry(name, data)

	return name, nil
}

// mimeByExt maps media extensions to the MIME types declared in
// [Content_Types].xml.
var mimeByExt = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
	"tif":  "image/tiff",
	"tiff": "image/tiff",
}

// errUnknownMediaType is returned for extensions with no MIME mapping.
var errUnknownMediaType = errors.New("no content type for extension")

// ensureContentType adds a <Default> declaration for ext to
// [Content_Types].xml unless one is already present.
func (a *Archive) ensureContentType(ext string) error {
	mime, ok := mimeByExt[ext]
	if !ok {
		return fmt.Errorf("%w: %q", errUnknownMediaType, ext)
	}

	doc, err := a.Part(contentTypesPart)
	if err != nil {
		return err
	}

	root := doc.Root()
	if root == nil {
		return fmt.Errorf("%w: empty %s", ErrCorruptArchive, contentTypesPart)
	}

	for _, def := range root.ChildElements() {
		if def.Tag != "Default" {
			continue
		}

		if attr := def.SelectAttr("Extension"); attr != nil && strings.EqualFold(attr.Value, ext) {
			return nil
		}
	}

	def := root.CreateElement("Default")
	def.CreateAttr("Extension", ext)
	def.CreateAttr("ContentType", mime)

	a.MarkDirty(contentTypesPart)

	return nil
}

// relsPartFor returns the relationships part that belongs to a document part,
// e.g. word/_rels/document.xml.rels for word/document.xml.
func relsPartFor(partName string) string {
	return path.Dir(partName) + "/_rels/" + path.Base(partName) + ".rels"
}

// AddImageRelationship appends an image relationship from the given document
// part to a media target and returns the allocated relationship ID. The
// relationships part is created when the document part has none yet.
func (a *Archive) AddImageRelationship(partName, target string) (string, error) {
	relsName := relsPartFor(partName)

	if !a.HasPart(relsName) {
		doc := etree.NewDocument()
		doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)
		rels := doc.CreateElement("Relationships")
		rels.CreateAttr("xmlns", relsXMLNS)
		a.addPartDoc(relsName, doc)
	}

	doc, err := a.Part(relsName)
	if err != nil {
		return "", err
	}

	root := doc.Root()
	if root == nil {
		return "", fmt.Errorf("%w: empty %s", ErrCorruptArchive, relsName)
	}

	// Relationship IDs are rN with numeric suffixes; allocate max+1.
	maxID := 0

	for _, rel := range root.ChildElements() {
		if rel.Tag != "Relationship" {
			continue
		}

		attr := rel.SelectAttr("Id")
		if attr == nil {
			continue
		}

		n, err := strconv.Atoi(strings.TrimPrefix(attr.Value, "rId"))
		if err == nil && n > maxID {
			maxID = n
		}
	}

	rID := fmt.Sprintf("rId%d", maxID+1)

	rel := root.CreateElement("Relationship")
	rel.CreateAttr("Id", rID)
	rel.CreateAttr("Type", imageRelType)
	rel.CreateAttr("Target", target)

	a.MarkDirty(relsName)

	return rID, nil
}
