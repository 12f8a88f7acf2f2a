package docx_test

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"sort"
	"testing"
)

// buildDOCXBytes assembles an in-memory DOCX archive from part name to XML
// content. Entries are written in sorted name order so fixtures are
// deterministic.
func buildDOCXBytes(t *testing.T, entries map[string]string) []byte {
	t.Helper()

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}

	sort.Strings(names)

	var buf bytes.Buffer

	zw := zip.NewWriter(&buf)

	for _, name := range names {
		ew, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}

		if _, err := ew.Write([]byte(entries[name])); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}

	return buf.Bytes()
}

// buildDOCXFromXML assembles a minimal DOCX with custom document XML.
func buildDOCXFromXML(t *testing.T, documentContent string) []byte {
	t.Helper()

	return buildDOCXBytes(t, map[string]string{
		"[Content_Types].xml": contentTypesXML,
		"_rels/.rels":         relsXML,
		"word/document.xml":   documentContent,
	})
}

// readZipParts extracts every entry of an archive into a map for comparison.
func readZipParts(t *testing.T, data []byte) map[string][]byte {
	t.Helper()

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}

	parts := make(map[string][]byte, len(zr.File))

	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open entry %s: %v", f.Name, err)
		}

		var buf bytes.Buffer
		if _, err := buf.ReadFrom(rc); err != nil {
			t.Fatalf("read entry %s: %v", f.Name, err)
		}

		_ = rc.Close()
		parts[f.Name] = buf.Bytes()
	}

	return parts
}

// pngPayload encodes a width x height PNG and returns it as base64, the way
// callers supply image payloads.
func pngPayload(t *testing.T, width, height int) string {
	t.Helper()

	return base64.StdEncoding.EncodeToString(pngBytes(t, width, height))
}

// pngBytes encodes a width x height PNG with a filled diagonal so the image
// has real content.
func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))

	for i := 0; i < width && i < height; i++ {
		img.Set(i, i, color.RGBA{R: 0x1f, G: 0x4e, B: 0x79, A: 0xff})
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}

	return buf.Bytes()
}

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
  <Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
  <Default Extension="xml" ContentType="application/xml"/>
  <Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const relsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

// templateDocumentXML is a deal summary document with text placeholders, one
// of them formatted bold at size 48.
const templateDocumentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p>
      <w:pPr><w:pStyle w:val="Title"/></w:pPr>
      <w:r><w:rPr><w:b/><w:sz w:val="48"/></w:rPr><w:t>{{DEAL_NAME}}</w:t></w:r>
    </w:p>
    <w:p>
      <w:r><w:t>Loan: {{LOAN_AMOUNT}} at {{PROPERTY_ADDRESS}}</w:t></w:r>
    </w:p>
    <w:p>
      <w:r><w:t>Sponsor: {{SPONSOR_NAME}}</w:t></w:r>
    </w:p>
  </w:body>
</w:document>`

// fragmentedDocumentXML has placeholders split across runs, including a break
// between the braces and the name.
const fragmentedDocumentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p>
      <w:r><w:rPr><w:b/></w:rPr><w:t>{{</w:t></w:r>
      <w:r><w:t>DEAL_NAME</w:t></w:r>
      <w:r><w:t>}}</w:t></w:r>
    </w:p>
    <w:p>
      <w:r><w:t>Rate: </w:t></w:r>
      <w:r><w:t>{{RA</w:t></w:r>
      <w:r><w:t>TE}}</w:t></w:r>
      <w:r><w:t> fixed</w:t></w:r>
    </w:p>
  </w:body>
</w:document>`

// imageDocumentXML has a dedicated image placeholder paragraph between two
// text paragraphs.
const imageDocumentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p>
      <w:r><w:t>Site plan follows:</w:t></w:r>
    </w:p>
    <w:p>
      <w:r><w:rPr><w:b/></w:rPr><w:t>{{IMAGE_SITE_PLAN}}</w:t></w:r>
    </w:p>
    <w:p>
      <w:r><w:t>End of section.</w:t></w:r>
    </w:p>
  </w:body>
</w:document>`

// headeredDocumentXML plus headerXML exercise fills outside the body part.
const headeredDocumentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Body for {{BORROWER}}</w:t></w:r></w:p>
  </w:body>
</w:document>`

const headerXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:hdr xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:p><w:r><w:t>{{DEAL_NAME}} - Confidential</w:t></w:r></w:p>
</w:hdr>`

const footerXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:ftr xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:p><w:r><w:t>Prepared for {{BORROWER}}</w:t></w:r></w:p>
</w:ftr>`

// tableDocumentXML holds placeholders inside table cells.
const tableDocumentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:tbl>
      <w:tblPr><w:tblStyle w:val="TableGrid"/></w:tblPr>
      <w:tr>
        <w:tc><w:p><w:r><w:t>Loan Amount</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>{{LOAN_AMOUNT}}</w:t></w:r></w:p></w:tc>
      </w:tr>
      <w:tr>
        <w:tc><w:p><w:r><w:t>Address</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>{{PROPERTY_ADDRESS}}</w:t></w:r></w:p></w:tc>
      </w:tr>
    </w:tbl>
  </w:body>
</w:document>`

const coreXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties"
                   xmlns:dc="http://purl.org/dc/elements/1.1/"
                   xmlns:dcterms="http://purl.org/dc/terms/"
                   xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">
  <dc:title>Deal Summary Template</dc:title>
  <dc:creator>Underwriting</dc:creator>
  <dcterms:created xsi:type="dcterms:W3CDTF">2026-01-15T10:30:00Z</dcterms:created>
  <dcterms:modified xsi:type="dcterms:W3CDTF">2026-02-20T14:45:00Z</dcterms:modified>
</cp:coreProperties>`

const appXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties">
  <Pages>2</Pages>
  <Application>Test</Application>
</Properties>`
