package reports

import (
	"strings"
	"unicode"

	"github.com/jung-kurt/gofpdf"
)

var diacritics = strings.NewReplacer(
	"ą", "a", "ć", "c", "ę", "e", "ł", "l", "ń", "n", "ó", "o", "ś", "s", "ź", "z", "ż", "z",
	"Ą", "A", "Ć", "C", "Ę", "E", "Ł", "L", "Ń", "N", "Ó", "O", "Ś", "S", "Ź", "Z", "Ż", "Z",
)

// sanitizeTextForPDF folds text to the ASCII subset the core PDF fonts
// render reliably. It is used when no UTF-8 font is configured.
func sanitizeTextForPDF(text string) string {
	if text == "" {
		return text
	}
	text = diacritics.Replace(text)

	var result strings.Builder
	result.Grow(len(text))
	for _, r := range text {
		switch r {
		case '\u2013':
			result.WriteString("-")
		case '\u2014':
			result.WriteString("--")
		case '\u2018', '\u2019', '\u201A':
			result.WriteString("'")
		case '\u201C', '\u201D', '\u201E':
			result.WriteString("\"")
		case '\u2026':
			result.WriteString("...")
		case '\u200B', '\u200C', '\u200D', '\uFEFF':
			continue
		default:
			switch {
			case r == '\n' || r == '\t':
				result.WriteRune(r)
			case r < 128 && unicode.IsPrint(r):
				result.WriteRune(r)
			case unicode.IsSpace(r):
				result.WriteString(" ")
			default:
				result.WriteString("?")
			}
		}
	}
	return result.String()
}

// text prepares txt for the active font. Only the core fonts need folding.
func (g *Generator) text(txt string) string {
	if g.font.embedded() {
		return txt
	}
	return sanitizeTextForPDF(txt)
}

func (g *Generator) cellFormat(pdf *gofpdf.Fpdf, w, h float64, txt, borderStr string, ln int, alignStr string, fill bool) {
	pdf.CellFormat(w, h, g.text(txt), borderStr, ln, alignStr, fill, 0, "")
}

func (g *Generator) multiCell(pdf *gofpdf.Fpdf, w, h float64, txt, borderStr, alignStr string, fill bool) {
	pdf.MultiCell(w, h, g.text(txt), borderStr, alignStr, fill)
}
