package reporting

import (
	"archive/zip"
	"bytes"
	"encoding/json"

	"dstech-dashboard/internal/analytics/application"
)

// BuildBundle zips the PDF, the workbook, every section as CSV and the
// report as JSON.
func BuildBundle(r application.Report) ([]byte, error) {
	pdf, err := BuildPDF(r)
	if err != nil {
		return nil, err
	}
	xlsx, err := BuildXLSX(r)
	if err != nil {
		return nil, err
	}
	raw, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, err
	}

	entries := []struct {
		name string
		data []byte
	}{
		{"report.pdf", pdf},
		{"report.xlsx", xlsx},
		{"report.json", raw},
	}
	for _, table := range Tables(r) {
		data, err := tableCSV(table)
		if err != nil {
			return nil, err
		}
		entries = append(entries, struct {
			name string
			data []byte
		}{table.Dataset + ".csv", data})
	}

	var buf bytes.Buffer
	zipWriter := zip.NewWriter(&buf)
	for _, entry := range entries {
		fw, err := zipWriter.Create(entry.name)
		if err != nil {
			return nil, err
		}
		if _, err := fw.Write(entry.data); err != nil {
			return nil, err
		}
	}
	if err := zipWriter.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
