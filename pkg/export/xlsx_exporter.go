package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const xlsxSheet = "Transcript"

// XLSXExporter renders datasets into a single sheet workbook.
type XLSXExporter struct{}

// NewXLSXExporter constructs an XLSX exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// ContentType implements Renderer.
func (e *XLSXExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Extension implements Renderer.
func (e *XLSXExporter) Extension() string { return "xlsx" }

// Render writes meta rows, a bold header row and the table body.
func (e *XLSXExporter) Render(data Dataset) ([]byte, error) {
	if err := data.validate("xlsx"); err != nil {
		return nil, err
	}
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	bold, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	row := 1
	if data.Title != "" {
		if err := file.SetCellValue(xlsxSheet, "A1", data.Title); err != nil {
			return nil, fmt.Errorf("write title: %w", err)
		}
		if err := file.SetCellStyle(xlsxSheet, "A1", "A1", bold); err != nil {
			return nil, fmt.Errorf("style title: %w", err)
		}
		row += 2
	}
	for _, meta := range data.Meta {
		if err := writeRow(file, row, meta[:]); err != nil {
			return nil, err
		}
		row++
	}
	if len(data.Meta) > 0 {
		row++
	}

	headerRow := row
	if err := writeRow(file, row, data.Headers); err != nil {
		return nil, err
	}
	first, _ := excelize.CoordinatesToCellName(1, headerRow)
	last, _ := excelize.CoordinatesToCellName(len(data.Headers), headerRow)
	if err := file.SetCellStyle(xlsxSheet, first, last, bold); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}
	row++

	for _, values := range data.Rows {
		if err := writeRow(file, row, values); err != nil {
			return nil, err
		}
		row++
	}

	lastCol, _ := excelize.ColumnNumberToName(len(data.Headers))
	if err := file.SetColWidth(xlsxSheet, "A", lastCol, 18); err != nil {
		return nil, fmt.Errorf("set column width: %w", err)
	}

	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(file *excelize.File, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("resolve cell: %w", err)
	}
	cells := make([]interface{}, len(values))
	for i, value := range values {
		cells[i] = value
	}
	if err := file.SetSheetRow(xlsxSheet, cell, &cells); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	return nil
}
