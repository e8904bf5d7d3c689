package reporting

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"dstech-dashboard/internal/analytics/application"
)

const (
	pdfPageWidth = 190.0
	pdfRowHeight = 6.0
)

// BuildPDF renders the executive report.
func BuildPDF(r application.Report) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Relatório Executivo DSTech", true)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 6, fmt.Sprintf("%d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 8, tr("Relatório Executivo DSTech"))
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, tr(fmt.Sprintf("Período: %s", periodLabel(r))))
	pdf.Ln(5)
	if r.ClientName != "" {
		pdf.Cell(0, 6, tr(fmt.Sprintf("Cliente: %s", r.ClientName)))
		pdf.Ln(5)
	}
	pdf.Cell(0, 6, tr(fmt.Sprintf("Gerado em: %s", r.GeneratedAt.Format("02/01/2006 15:04:05"))))
	pdf.Ln(8)

	for _, table := range Tables(r) {
		writePDFTable(pdf, tr, table)
	}

	if err := pdf.Error(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writePDFTable(pdf *gofpdf.Fpdf, tr func(string) string, table Table) {
	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(0, 7, tr(table.Title))
	pdf.Ln(8)
	if len(table.Rows) == 0 {
		pdf.SetFont("Arial", "I", 9)
		pdf.Cell(0, pdfRowHeight, tr("Sem dados no período"))
		pdf.Ln(9)
		return
	}

	width := pdfPageWidth / float64(len(table.Headers))
	pdf.SetFont("Arial", "B", 8)
	pdf.SetFillColor(68, 114, 196)
	pdf.SetTextColor(255, 255, 255)
	for _, header := range table.Headers {
		pdf.CellFormat(width, pdfRowHeight, tr(header), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	pdf.SetTextColor(0, 0, 0)
	for _, row := range table.Rows {
		for _, cell := range row {
			align := "L"
			switch cell.(type) {
			case float64, int, int64:
				align = "R"
			}
			pdf.CellFormat(width, pdfRowHeight, tr(truncate(formatCell(cell), int(width/1.6))), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(4)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if max <= 3 || len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

// periodLabel renders the inclusive calendar days of the report period.
func periodLabel(r application.Report) string {
	last := r.Period.End.Add(-1)
	return fmt.Sprintf("%s a %s", r.Period.Start.Format("02/01/2006"), last.Format("02/01/2006"))
}
