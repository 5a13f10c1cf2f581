// Package e2e provides end-to-end tests; this file builds minimal corpus files for supported types.
package e2e

import (
	"archive/zip"
	"bytes"
	"strings"

	"github.com/xuri/excelize/v2"
)

// SupportedFileExtensions is the list of corpus file extensions covered by the E2E tests.
// PDF is not generated here (no minimal PDF with extractable text).
var SupportedFileExtensions = []string{".txt", ".md", ".docx", ".xlsx"}

// WriteMinimalFile returns the bytes of a file of the given extension holding one unit
// (paragraph or row) per entry of texts.
func WriteMinimalFile(ext string, texts ...string) ([]byte, error) {
	switch ext {
	case ".docx":
		return minimalDocx(texts), nil
	case ".xlsx":
		return minimalXlsx(texts)
	default:
		return []byte(strings.Join(texts, "\n\n")), nil
	}
}

func minimalDocx(texts []string) []byte {
	var body strings.Builder
	for _, t := range texts {
		body.WriteString(`<w:p w:rsidR="00E2E"><w:r><w:t>` + t + `</w:t></w:r></w:p>`)
	}
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	fw, _ := w.Create("word/document.xml")
	_, _ = fw.Write([]byte(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` + body.String() + `</w:body></w:document>`))
	_ = w.Close()
	return buf.Bytes()
}

func minimalXlsx(texts []string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	for i, t := range texts {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue("Sheet1", cell, t); err != nil {
			return nil, err
		}
	}
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
