package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Field is one label/value pair rendered in a report block.
type Field struct {
	Label string
	Value string
}

// Section is a titled key/value block appended after the results table,
// used for per-item failure details.
type Section struct {
	Title  string
	Fields []Field
}

// Report describes a rendered compliance report: a header block with the
// job details, a summary block, the results table and optional detail
// sections for failed items.
type Report struct {
	Title    string
	Header   []Field
	Summary  []Field
	Table    Dataset
	Sections []Section
}

// PDFExporter renders compliance reports into PDF documents.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document for the report.
func (e *PDFExporter) Render(report Report) ([]byte, error) {
	if len(report.Table.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one table header")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if report.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(report.Title), "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}

	e.renderFieldBlock(pdf, report.Header)
	e.renderFieldBlock(pdf, report.Summary)

	pdf.SetFont("Arial", "B", 9)
	colWidth := 190.0 / float64(len(report.Table.Headers))
	for _, header := range report.Table.Headers {
		pdf.CellFormat(colWidth, 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for _, row := range report.Table.Rows {
		for _, header := range report.Table.Headers {
			pdf.CellFormat(colWidth, 7, row[header], "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	for _, section := range report.Sections {
		pdf.Ln(5)
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(0, 8, section.Title, "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 9)
		for _, field := range section.Fields {
			pdf.CellFormat(45, 6, field.Label, "", 0, "L", false, 0, "")
			pdf.MultiCell(145, 6, field.Value, "", "L", false)
		}
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *PDFExporter) renderFieldBlock(pdf *gofpdf.Fpdf, fields []Field) {
	if len(fields) == 0 {
		return
	}
	pdf.SetFont("Arial", "", 10)
	for _, field := range fields {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(45, 6, field.Label, "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 6, field.Value, "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)
}
