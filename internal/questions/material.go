package questions

import (
	"bytes"
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/voxscholar/voxscholar/internal/model"
	"rsc.io/pdf"
)

// Library is the slice of the item store the generated source needs:
// subject listings and full item fetches.
type Library interface {
	GetAllBySubject(ctx context.Context, subject string) ([]model.Item, error)
	Get(ctx context.Context, id string) (*model.Item, error)
}

// IsPDF reports whether an item looks like a PDF, by MIME type or by
// file extension.
func IsPDF(name string, mimeType *string) bool {
	if mimeType != nil && *mimeType == "application/pdf" {
		return true
	}
	return strings.HasSuffix(strings.ToLower(name), ".pdf")
}

// ExtractPDFText pulls the text runs out of every page of a PDF. Only
// text-based PDFs yield anything; scanned images come back empty.
func ExtractPDFText(data []byte) (string, error) {
	doc, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	var pages []string
	for i := 1; i <= doc.NumPage(); i++ {
		p := doc.Page(i)
		if p.V.IsNull() {
			continue
		}
		content := p.Content()
		parts := make([]string, 0, len(content.Text))
		for _, text := range content.Text {
			if strings.TrimSpace(text.S) == "" {
				continue
			}
			parts = append(parts, text.S)
		}
		if pageText := strings.Join(parts, " "); strings.TrimSpace(pageText) != "" {
			pages = append(pages, strings.TrimSpace(pageText))
		}
	}
	return strings.Join(pages, "\n\n"), nil
}

// BuildMaterial concatenates a subject's note text and PDF text into one
// block of study material. A PDF that cannot be read is skipped with a
// warning rather than failing the whole subject.
func BuildMaterial(ctx context.Context, lib Library, subject string, log zerolog.Logger) (string, error) {
	items, err := lib.GetAllBySubject(ctx, subject)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	appendPart := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(s)
	}

	for _, item := range items {
		switch {
		case item.Type == model.ItemTypeNote:
			full, err := lib.Get(ctx, item.ID)
			if err != nil {
				return "", err
			}
			appendPart(full.NoteContent())
		case item.Type == model.ItemTypeFile && IsPDF(item.Name, item.MimeType):
			full, err := lib.Get(ctx, item.ID)
			if err != nil {
				return "", err
			}
			text, err := ExtractPDFText(full.Content)
			if err != nil {
				log.Warn().Err(err).Str("item", item.Name).Msg("PDF text extraction failed")
				continue
			}
			appendPart(text)
		}
	}
	return b.String(), nil
}
