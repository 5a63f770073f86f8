package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Sheet is one worksheet of an export workbook.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]interface{}
}

// WaterSheet lays out water rows.
func WaterSheet(name string, rows []WaterRow) Sheet {
	s := Sheet{Name: name, Header: []string{"Serie", "Timestamp", "Totalizador"}}
	for _, r := range rows {
		s.Rows = append(s.Rows, []interface{}{r.Series, r.Timestamp, r.Value})
	}
	return s
}

// DowntimeSheet lays out downtime rows.
func DowntimeSheet(name string, rows []DowntimeRow) Sheet {
	s := Sheet{Name: name, Header: []string{
		"Fecha", "Área", "Sección", "TPM", "Turno", "Detención",
		"Hora Inicio", "Hora Término", "Minutos", "Observación",
	}}
	for _, r := range rows {
		obs := ""
		if r.Observation != nil {
			obs = *r.Observation
		}
		s.Rows = append(s.Rows, []interface{}{
			r.Fecha, r.Area, r.Section, r.TPM, r.Shift, r.Detention,
			r.StartHour, r.EndHour, r.Minutes, obs,
		})
	}
	return s
}

// WriteXLSX writes each sheet with a header row.
func WriteXLSX(sheets []Sheet, outputPath string) error {
	if len(sheets) == 0 {
		return fmt.Errorf("no sheets to export")
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	defaultSheet := f.GetSheetName(0)
	for i, sheet := range sheets {
		idx, err := f.NewSheet(sheet.Name)
		if err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", sheet.Name, err)
		}
		if i == 0 {
			f.SetActiveSheet(idx)
		}

		header := make([]interface{}, len(sheet.Header))
		for j, h := range sheet.Header {
			header[j] = h
		}
		if err := f.SetSheetRow(sheet.Name, "A1", &header); err != nil {
			return fmt.Errorf("failed to write header of %s: %w", sheet.Name, err)
		}
		for j, row := range sheet.Rows {
			cell, err := excelize.CoordinatesToCellName(1, j+2)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(sheet.Name, cell, &row); err != nil {
				return fmt.Errorf("failed to write row %d of %s: %w", j+1, sheet.Name, err)
			}
		}
	}

	if defaultSheet != "" && !hasSheet(sheets, defaultSheet) {
		if err := f.DeleteSheet(defaultSheet); err != nil {
			return fmt.Errorf("failed to remove default sheet: %w", err)
		}
	}

	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func hasSheet(sheets []Sheet, name string) bool {
	for _, s := range sheets {
		if s.Name == name {
			return true
		}
	}
	return false
}
