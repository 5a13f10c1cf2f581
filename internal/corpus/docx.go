package corpus

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
)

const (
	docxDefaultDocument = "word/document.xml"
	contentTypesPath    = "[Content_Types].xml"
	docxMainContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
)

var (
	// <w:p> and <w:p w:rsidR="..."> but not <w:pPr>
	paragraphTag = regexp.MustCompile(`(?s)<w:p(?:\s[^>]*)?>(.*?)</w:p>`)
	textTag      = regexp.MustCompile(`<w:t(?:\s[^>]*)?>([^<]*)</w:t>`)

	partNameFirst = regexp.MustCompile(`<Override[^>]+PartName="([^"]+)"[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"`)
	partNameLast  = regexp.MustCompile(`<Override[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"[^>]+PartName="([^"]+)"`)

	xmlEntities = strings.NewReplacer("&lt;", "<", "&gt;", ">", "&quot;", `"`, "&apos;", "'", "&amp;", "&")
)

func readZipFile(zr *zip.Reader, name string) ([]byte, bool, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, true, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, true, fmt.Errorf("read %s: %w", name, err)
		}
		return data, true, nil
	}
	return nil, false, nil
}

// docxMainDocument resolves the main document part from [Content_Types].xml.
func docxMainDocument(zr *zip.Reader) string {
	data, ok, err := readZipFile(zr, contentTypesPath)
	if !ok || err != nil {
		return docxDefaultDocument
	}
	for _, re := range []*regexp.Regexp{partNameFirst, partNameLast} {
		if m := re.FindSubmatch(data); len(m) > 1 {
			return strings.TrimPrefix(string(m[1]), "/")
		}
	}
	return docxDefaultDocument
}

// docxParagraphs returns the text of every <w:p> element, runs joined without separators.
func docxParagraphs(content []byte) ([]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("DOCX is not a zip: %w", err)
	}
	docPath := docxMainDocument(zr)
	doc, ok, err := readZipFile(zr, docPath)
	if err != nil {
		return nil, fmt.Errorf("DOCX: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("DOCX: %s not found", docPath)
	}

	var paragraphs []string
	for _, p := range paragraphTag.FindAllSubmatch(doc, -1) {
		var b strings.Builder
		for _, run := range textTag.FindAllSubmatch(p[1], -1) {
			b.WriteString(xmlEntities.Replace(string(run[1])))
		}
		paragraphs = append(paragraphs, b.String())
	}
	return paragraphs, nil
}
