package report

import (
	"bytes"
	"fmt"
	"strings"

	"affibot/internal/repo"

	"github.com/go-pdf/fpdf"
)

// Stat is one named value in the attribution summary section.
type Stat struct {
	Name  string
	Value string
}

// AttributionSummary aggregates freshly fetched attribution data for the
// report document.
type AttributionSummary struct {
	Campaigns []string
	Stats     []Stat
}

// Data collects everything the marketing report renders.
type Data struct {
	Campaigns   []string
	Offers      []repo.Offer
	Attribution *AttributionSummary
}

// Build renders the marketing report as a PDF document.
func Build(data Data) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Marketing Report", false)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Marketing Report", "", 1, "L", false, 0, "")
	pdf.Ln(4)

	if len(data.Campaigns) > 0 {
		section(pdf, "Active Campaigns:")
		for _, name := range data.Campaigns {
			line(pdf, 1, "- "+orUnnamed(name, "Unnamed Campaign"))
		}
		pdf.Ln(4)
	}

	if len(data.Offers) > 0 {
		section(pdf, "Active Offers:")
		for _, offer := range data.Offers {
			line(pdf, 1, fmt.Sprintf("- %s (Payout: $%.2f)", offer.Name, offer.Payout))
			if offer.KPI != "" {
				line(pdf, 2, "KPI: "+offer.KPI)
			}
		}
		pdf.Ln(4)
	}

	if data.Attribution != nil {
		section(pdf, "Attribution Report:")
		line(pdf, 1, "Campaigns:")
		for _, name := range data.Attribution.Campaigns {
			line(pdf, 2, "- "+orUnnamed(name, "Unnamed Campaign"))
		}
		line(pdf, 1, "Stats:")
		for _, stat := range data.Attribution.Stats {
			line(pdf, 2, fmt.Sprintf("- %s: %s", orUnnamed(stat.Name, "Unnamed Stat"), orUnnamed(stat.Value, "N/A")))
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render report pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// Summarize derives a record-count stat from one raw CSV report.
func Summarize(name string, csvData []byte) Stat {
	trimmed := strings.TrimRight(string(csvData), "\r\n")
	records := 0
	if trimmed != "" {
		records = len(strings.Split(strings.ReplaceAll(trimmed, "\r\n", "\n"), "\n")) - 1
		if records < 0 {
			records = 0
		}
	}
	return Stat{Name: name, Value: fmt.Sprintf("%d records", records)}
}

func section(pdf *fpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
}

func line(pdf *fpdf.Fpdf, indent int, text string) {
	pdf.SetX(pdf.GetX() + float64(indent)*6)
	pdf.CellFormat(0, 6, text, "", 1, "L", false, 0, "")
}

func orUnnamed(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
