package reports

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/esir-council/esir/src/council"
	"github.com/esir-council/esir/src/types"
	"github.com/jung-kurt/gofpdf"
)

// Generator renders session protocols.
type Generator struct {
	councilName string
	font        Font
	now         func() time.Time
}

type Option func(*Generator)

// WithFont embeds f instead of the core Arial font.
func WithFont(f Font) Option {
	return func(g *Generator) { g.font = f }
}

func NewGenerator(councilName string, opts ...Option) *Generator {
	g := &Generator{councilName: councilName, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// WriteProtocol renders the protocol PDF to w.
func (g *Generator) WriteProtocol(w io.Writer, p council.Protocol) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 20, 15)
	pdf.SetAutoPageBreak(true, 20)
	if err := g.font.register(pdf); err != nil {
		return err
	}
	pdf.SetTitle("Protokół - "+p.Session.Name, true)
	pdf.SetHeaderFunc(func() {
		pdf.SetFont(g.font.family(), "B", 14)
		pdf.SetTextColor(30, 64, 120)
		g.cellFormat(pdf, 0, 10, g.councilName, "", 0, "C", false)
		pdf.Ln(12)
		pdf.SetTextColor(0, 0, 0)
	})
	generatedAt := g.now().Format("2006-01-02 15:04")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(g.font.family(), "I", 8)
		pdf.SetTextColor(128, 128, 128)
		g.cellFormat(pdf, 0, 10, fmt.Sprintf("Wygenerowano %s - strona %d", generatedAt, pdf.PageNo()), "", 0, "C", false)
	})

	pdf.AddPage()
	g.addHeading(pdf, p)
	g.addQuorum(pdf, p.Quorum)
	g.addAttendance(pdf, p.Attendance)
	g.addAgenda(pdf, p.Items)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render protocol: %w", err)
	}
	return nil
}

// SaveProtocol writes the protocol into dir and returns the file path.
func (g *Generator) SaveProtocol(dir string, p council.Protocol) (string, error) {
	name := fmt.Sprintf("protokol-sesji-%d-%s.pdf", p.Session.ID, g.now().Format("20060102-150405"))
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	if err := g.WriteProtocol(f, p); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("save PDF: %w", err)
	}
	log.Printf("reports: generated protocol: %s", path)
	return path, nil
}

func (g *Generator) addHeading(pdf *gofpdf.Fpdf, p council.Protocol) {
	pdf.SetFont(g.font.family(), "B", 16)
	g.multiCell(pdf, 0, 8, "Protokół z sesji: "+p.Session.Name, "", "L", false)
	pdf.SetFont(g.font.family(), "", 10)
	g.cellFormat(pdf, 0, 6, "Termin: "+p.Session.ScheduledAt.Format("2006-01-02 15:04"), "", 1, "L", false)
	status := "otwarta"
	if p.Session.Closed {
		status = "zamknięta"
	}
	g.cellFormat(pdf, 0, 6, "Status sesji: "+status, "", 1, "L", false)
	pdf.Ln(4)
}

func (g *Generator) addQuorum(pdf *gofpdf.Fpdf, q council.Quorum) {
	g.sectionTitle(pdf, "Kworum")
	verdict := "nieosiągnięte"
	fill := [3]int{255, 220, 220}
	if q.Met {
		verdict = "osiągnięte"
		fill = [3]int{220, 255, 220}
	}
	pdf.SetFillColor(fill[0], fill[1], fill[2])
	g.cellFormat(pdf, 0, 8,
		fmt.Sprintf("Obecni: %d z %d uprawnionych, wymagane %d - kworum %s", q.Present, q.Eligible, q.Threshold, verdict),
		"1", 1, "L", true)
	pdf.Ln(4)
}

func (g *Generator) addAttendance(pdf *gofpdf.Fpdf, rows []council.AttendanceRow) {
	g.sectionTitle(pdf, "Lista obecności")
	pdf.SetFont(g.font.family(), "B", 9)
	pdf.SetFillColor(235, 235, 235)
	g.cellFormat(pdf, 10, 6, "Lp.", "1", 0, "C", true)
	g.cellFormat(pdf, 110, 6, "Imię i nazwisko", "1", 0, "L", true)
	g.cellFormat(pdf, 60, 6, "Obecność", "1", 1, "L", true)

	pdf.SetFont(g.font.family(), "", 9)
	for i, r := range rows {
		state := "brak wpisu"
		if r.Recorded {
			state = "nieobecny"
			if r.Present {
				state = "obecny"
			}
		}
		g.cellFormat(pdf, 10, 6, fmt.Sprintf("%d", i+1), "1", 0, "C", false)
		g.cellFormat(pdf, 110, 6, r.Voter.FullName(), "1", 0, "L", false)
		g.cellFormat(pdf, 60, 6, state, "1", 1, "L", false)
	}
	pdf.Ln(4)
}

func (g *Generator) addAgenda(pdf *gofpdf.Fpdf, items []council.ProtocolItem) {
	g.sectionTitle(pdf, "Porządek obrad")
	if len(items) == 0 {
		pdf.SetFont(g.font.family(), "I", 10)
		g.cellFormat(pdf, 0, 6, "Brak punktów porządku obrad.", "", 1, "L", false)
		return
	}
	for _, it := range items {
		pdf.SetFont(g.font.family(), "B", 11)
		g.multiCell(pdf, 0, 6, fmt.Sprintf("%d. %s", it.Item.Ordinal, it.Item.Title), "", "L", false)
		if it.Item.Description != "" {
			pdf.SetFont(g.font.family(), "", 9)
			g.multiCell(pdf, 0, 5, it.Item.Description, "", "L", false)
		}
		if it.Poll != nil && it.Result != nil {
			g.addPollResult(pdf, *it.Poll, *it.Result)
		}
		pdf.Ln(3)
	}
}

func (g *Generator) addPollResult(pdf *gofpdf.Fpdf, poll types.Poll, r council.Result) {
	pdf.SetFont(g.font.family(), "", 9)
	kind := "jawne"
	if poll.Secret() {
		kind = "tajne"
	}
	g.cellFormat(pdf, 0, 5, fmt.Sprintf("Głosowanie %s: %s", kind, poll.Name), "", 1, "L", false)

	if r.Withheld {
		g.cellFormat(pdf, 0, 5, fmt.Sprintf("Głosowanie w toku, oddano %d głosów.", r.Cast), "", 1, "L", false)
		return
	}
	g.cellFormat(pdf, 0, 5,
		fmt.Sprintf("Za: %d   Przeciw: %d   Wstrzymało się: %d   Razem: %d", deref(r.For), deref(r.Against), deref(r.Abstain), r.Cast),
		"", 1, "L", false)
	rule := "zwykła większość"
	if r.Threshold != nil {
		rule = fmt.Sprintf("bezwzględna większość (wymagane %d)", *r.Threshold)
	}
	outcome := "odrzucona"
	if r.Passed != nil && *r.Passed {
		outcome = "przyjęta"
	}
	if r.Open {
		outcome += " (głosowanie otwarte)"
	}
	pdf.SetFont(g.font.family(), "B", 9)
	g.cellFormat(pdf, 0, 5, fmt.Sprintf("Uchwała %s, %s.", outcome, rule), "", 1, "L", false)
}

func (g *Generator) sectionTitle(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont(g.font.family(), "B", 12)
	pdf.SetTextColor(30, 64, 120)
	g.cellFormat(pdf, 0, 8, title, "", 1, "L", false)
	pdf.SetTextColor(0, 0, 0)
}

func deref(n *int) int {
	if n == nil {
		return 0
	}
	return *n
}
