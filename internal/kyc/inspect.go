package kyc

import (
	"bytes"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"

	pdf "github.com/ledongthuc/pdf"

	"github.com/mentordesk/mentordesk/internal/shared"
)

var pdfMagic = []byte("%PDF-")

// Inspection is what Inspect learns from an upload.
type Inspection struct {
	ContentType string
	Pages       int
}

// Inspect sniffs the content type and counts PDF pages. Non-PDF payloads are
// accepted with zero pages; a payload claiming to be a PDF that cannot be
// parsed is rejected.
func Inspect(fileName string, content []byte) (Inspection, error) {
	if bytes.HasPrefix(content, pdfMagic) {
		pages, err := countPages(content)
		if err != nil {
			return Inspection{}, shared.NewValidationError("file", "unreadable pdf")
		}
		return Inspection{ContentType: "application/pdf", Pages: pages}, nil
	}
	ct := mime.TypeByExtension(filepath.Ext(fileName))
	if ct == "" {
		ct = http.DetectContentType(content)
	}
	return Inspection{ContentType: ct}, nil
}

// countPages reads the page tree. The parser panics on some malformed
// inputs, so panics are turned into errors.
func countPages(content []byte) (pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("kyc: parse pdf: %v", r)
		}
	}()
	doc, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return 0, fmt.Errorf("kyc: parse pdf: %w", err)
	}
	return doc.NumPage(), nil
}
