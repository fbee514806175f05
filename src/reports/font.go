package reports

import (
	"fmt"
	"os"

	"github.com/jung-kurt/gofpdf"
)

const (
	coreFamily = "Arial"
	utf8Family = "ProtocolSans"
)

// Font is a TrueType face embedded into protocols so Polish text keeps its
// diacritics. The zero value selects the core Arial font.
type Font struct {
	Regular []byte
	Bold    []byte
}

// LoadFont reads TrueType files. An empty regular path yields the zero Font;
// an empty bold path reuses the regular face for bold text.
func LoadFont(regularPath, boldPath string) (Font, error) {
	if regularPath == "" {
		return Font{}, nil
	}
	regular, err := os.ReadFile(regularPath)
	if err != nil {
		return Font{}, fmt.Errorf("read protocol font: %w", err)
	}
	f := Font{Regular: regular, Bold: regular}
	if boldPath != "" {
		if f.Bold, err = os.ReadFile(boldPath); err != nil {
			return Font{}, fmt.Errorf("read protocol bold font: %w", err)
		}
	}
	return f, nil
}

func (f Font) embedded() bool { return len(f.Regular) > 0 }

func (f Font) family() string {
	if f.embedded() {
		return utf8Family
	}
	return coreFamily
}

// register adds the face to pdf under every style the protocol uses.
func (f Font) register(pdf *gofpdf.Fpdf) error {
	if !f.embedded() {
		return nil
	}
	bold := f.Bold
	if len(bold) == 0 {
		bold = f.Regular
	}
	pdf.AddUTF8FontFromBytes(utf8Family, "", f.Regular)
	pdf.AddUTF8FontFromBytes(utf8Family, "I", f.Regular)
	pdf.AddUTF8FontFromBytes(utf8Family, "B", bold)
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("load protocol font: %w", err)
	}
	return nil
}
