package reporting

import (
	"bytes"

	"github.com/xuri/excelize/v2"

	"dstech-dashboard/internal/analytics/application"
)

const (
	numFmtInteger = 3 // #,##0
	numFmtDecimal = 4 // #,##0.00
)

// BuildXLSX renders the report as a workbook with one sheet per section.
func BuildXLSX(r application.Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
		Border:    borders(),
	})
	if err != nil {
		return nil, err
	}
	decimalStyle, err := f.NewStyle(&excelize.Style{NumFmt: numFmtDecimal, Border: borders()})
	if err != nil {
		return nil, err
	}
	integerStyle, err := f.NewStyle(&excelize.Style{NumFmt: numFmtInteger, Border: borders()})
	if err != nil {
		return nil, err
	}
	textStyle, err := f.NewStyle(&excelize.Style{Border: borders()})
	if err != nil {
		return nil, err
	}

	for i, table := range Tables(r) {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", table.Sheet); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(table.Sheet); err != nil {
			return nil, err
		}
		for col, header := range table.Headers {
			cell, _ := excelize.CoordinatesToCellName(col+1, 1)
			_ = f.SetCellValue(table.Sheet, cell, header)
			_ = f.SetCellStyle(table.Sheet, cell, cell, headerStyle)
		}
		for row, values := range table.Rows {
			for col, value := range values {
				cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
				style := textStyle
				switch value.(type) {
				case float64:
					style = decimalStyle
				case int, int64:
					style = integerStyle
				}
				if value != nil {
					_ = f.SetCellValue(table.Sheet, cell, value)
				}
				_ = f.SetCellStyle(table.Sheet, cell, cell, style)
			}
		}
		last, _ := excelize.ColumnNumberToName(len(table.Headers))
		_ = f.SetColWidth(table.Sheet, "A", last, 18)
		_ = f.SetPanes(table.Sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
	}
	f.SetActiveSheet(0)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func borders() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: "D9D9D9", Style: 1},
		{Type: "right", Color: "D9D9D9", Style: 1},
		{Type: "top", Color: "D9D9D9", Style: 1},
		{Type: "bottom", Color: "D9D9D9", Style: 1},
	}
}
