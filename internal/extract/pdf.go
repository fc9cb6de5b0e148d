// Package extract provides the convenience PDF segmentation used by the CLI
// and directory watcher: one plain-text section per non-empty page.
// Layout-aware segmentation (real per-block bounding boxes) is an external
// collaborator; sections produced here carry a full-page bounding box.
package extract

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/hyperjump/tsunagu/internal/models"
)

// PDFPages reads the PDF at path and returns one PageSection per page with
// extractable text. Pages with no text are skipped; a PDF yielding no text
// at all returns an empty slice, not an error (scanned documents).
func PDFPages(path string) ([]*models.PageSection, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read PDF: %w", err)
	}
	return pdfPagesFromBytes(content)
}

func pdfPagesFromBytes(content []byte) ([]*models.PageSection, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}
	numPages := r.NumPage()
	sections := make([]*models.PageSection, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract page %d: %w", i, err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		box := models.BoundingBox{}
		if media := page.V.Key("MediaBox"); media.Len() == 4 {
			box = models.BoundingBox{
				X0: media.Index(0).Float64(),
				Y0: media.Index(1).Float64(),
				X1: media.Index(2).Float64(),
				Y1: media.Index(3).Float64(),
			}
		}
		sections = append(sections, &models.PageSection{
			PageNumber:  i,
			BoundingBox: box,
			Text:        text,
		})
	}
	return sections, nil
}
