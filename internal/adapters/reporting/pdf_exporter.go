package reporting

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/lcalzada-xor/photomap/internal/core/domain"
)

// MarkerReport is the content of a printable marker summary.
type MarkerReport struct {
	Title       string
	GeneratedAt time.Time
	Projection  string
	Markers     []domain.Marker
	Errors      []string
}

// PDFExporter exports marker reports to PDF format
type PDFExporter struct{}

// NewPDFExporter creates a new PDF exporter instance
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// ExportMarkers renders the report as an A4 PDF.
func (e *PDFExporter) ExportMarkers(report MarkerReport) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	e.addHeader(pdf, tr, report)
	e.addStatistics(pdf, report)
	e.addMarkers(pdf, tr, report)
	e.addErrors(pdf, tr, report)
	e.addFooter(pdf)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *PDFExporter) addHeader(pdf *gofpdf.Fpdf, tr func(string) string, report MarkerReport) {
	title := report.Title
	if title == "" {
		title = "Photo Locations"
	}
	pdf.SetFont("Arial", "B", 24)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 15, tr(title), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(120, 120, 120)
	generated := report.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	pdf.CellFormat(0, 6, "Generated: "+generated.Format("2006-01-02 15:04"), "", 1, "L", false, 0, "")
	if report.Projection != "" {
		pdf.CellFormat(0, 6, "View projection: "+report.Projection, "", 1, "L", false, 0, "")
	}
	pdf.Ln(8)
}

func (e *PDFExporter) addStatistics(pdf *gofpdf.Fpdf, report MarkerReport) {
	pdf.SetFont("Arial", "B", 14)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 10, "Overview", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	stats := []struct {
		label string
		value int
		color []int
	}{
		{"Located photos", len(report.Markers), []int{0, 102, 204}},
		{"Errors", len(report.Errors), []int{220, 53, 69}},
	}

	for i, stat := range stats {
		x := 20.0
		if i%2 == 1 {
			x = 105.0
		}
		pdf.SetXY(x, pdf.GetY())

		pdf.SetFont("Arial", "", 10)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(50, 7, stat.label+":", "", 0, "L", false, 0, "")

		pdf.SetFont("Arial", "B", 11)
		pdf.SetTextColor(stat.color[0], stat.color[1], stat.color[2])
		pdf.CellFormat(35, 7, fmt.Sprintf("%d", stat.value), "", 0, "R", false, 0, "")
	}
	pdf.Ln(17)
}

func (e *PDFExporter) addMarkers(pdf *gofpdf.Fpdf, tr func(string) string, report MarkerReport) {
	pdf.SetFont("Arial", "B", 14)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 10, "Markers", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	if len(report.Markers) == 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(0, 7, "No photos placed on the map", "", 1, "L", false, 0, "")
		pdf.Ln(5)
		return
	}

	header := func() {
		pdf.SetFillColor(240, 240, 240)
		pdf.SetFont("Arial", "B", 10)
		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(12, 8, "#", "1", 0, "C", true, 0, "")
		pdf.CellFormat(68, 8, "Photo", "1", 0, "L", true, 0, "")
		pdf.CellFormat(30, 8, "Latitude", "1", 0, "R", true, 0, "")
		pdf.CellFormat(30, 8, "Longitude", "1", 0, "R", true, 0, "")
		pdf.CellFormat(40, 8, "Placed", "1", 1, "C", true, 0, "")
		pdf.SetFont("Arial", "", 9)
	}
	header()

	for i, m := range report.Markers {
		if pdf.GetY() > 265 {
			pdf.AddPage()
			header()
		}
		lat, lng := "-", "-"
		if m.Position != nil {
			lat = fmt.Sprintf("%.6f", m.Position.Latitude)
			lng = fmt.Sprintf("%.6f", m.Position.Longitude)
		}
		pdf.CellFormat(12, 7, fmt.Sprintf("%d", i+1), "1", 0, "C", false, 0, "")
		pdf.CellFormat(68, 7, tr(truncate(m.Source, 38)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 7, lat, "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 7, lng, "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 7, m.CreatedAt.Format("2006-01-02 15:04:05"), "1", 1, "C", false, 0, "")
	}
	pdf.Ln(8)
}

func (e *PDFExporter) addErrors(pdf *gofpdf.Fpdf, tr func(string) string, report MarkerReport) {
	if len(report.Errors) == 0 {
		return
	}
	if pdf.GetY() > 250 {
		pdf.AddPage()
	}
	pdf.SetFont("Arial", "B", 14)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 10, "Errors", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 9)
	pdf.SetTextColor(220, 53, 69)
	for _, msg := range report.Errors {
		pdf.MultiCell(0, 5, tr(msg), "", "L", false)
	}
}

func (e *PDFExporter) addFooter(pdf *gofpdf.Fpdf) {
	pdf.SetY(-20)

	pdf.SetDrawColor(200, 200, 200)
	pdf.Line(20, pdf.GetY(), 190, pdf.GetY())
	pdf.Ln(3)

	pdf.SetFont("Arial", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 5, fmt.Sprintf("Generated by photomap | Page %d", pdf.PageNo()), "", 1, "C", false, 0, "")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
