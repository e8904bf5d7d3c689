package reporting

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"dstech-dashboard/internal/analytics/application"
)

// DefaultCSVDataset is exported when no dataset is requested.
const DefaultCSVDataset = DatasetWaterChemicals

// BuildCSV renders one report section as CSV.
func BuildCSV(r application.Report, dataset string) ([]byte, error) {
	if dataset == "" {
		dataset = DefaultCSVDataset
	}
	table, ok := TableFor(r, dataset)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDataset, dataset)
	}
	return tableCSV(table)
}

func tableCSV(table Table) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(table.Headers); err != nil {
		return nil, err
	}
	record := make([]string, len(table.Headers))
	for _, row := range table.Rows {
		for i, cell := range row {
			record[i] = formatCell(cell)
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
