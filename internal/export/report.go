// Package export renders a yearly report as an XLSX workbook or a PDF.
// Reports are expected to be rounded for presentation already.
package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"energylog/internal/core"
)

const (
	SheetSummary  = "Summary"
	SheetTrend    = "FuelPriceTrend"
	SheetCharging = "Charging"

	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypePDF  = "application/pdf"
)

type summaryLine struct {
	label string
	value any
}

func summaryLines(r core.YearlyReport) []summaryLine {
	return []summaryLine{
		{"Year", r.Year},
		{"Total cost", r.TotalCost},
		{"Total mileage (km)", r.TotalMileage},
		{"Average cost per 100 km", r.AvgCostPer100Km},
		{"Total fuel (L)", r.TotalOil},
		{"Total electricity (kWh)", r.TotalElectric},
		{"Refuelings", r.RefuelingCount},
		{"Charges", r.ChargingCount},
		{"Average fuel price", r.AvgFuelPrice},
		{"Estimated battery capacity (kWh)", r.EstimatedCapacity},
	}
}

type extremum struct {
	label  string
	record *core.ReportRecord
}

func extrema(r core.YearlyReport) []extremum {
	return []extremum{
		{"Highest fuel price", r.MaxPriceRecord},
		{"Lowest fuel price", r.MinPriceRecord},
		{"Largest refueling", r.MaxVolumeRecord},
		{"Largest charge", r.MaxElectricRecord},
	}
}

// BuildYearlyXLSX writes three sheets: the summary with extrema, the fuel
// price trend, and the charge amounts used for the capacity estimate.
func BuildYearlyXLSX(r core.YearlyReport, loc *time.Location) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetTrend, SheetCharging} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	row := 1
	for _, line := range summaryLines(r) {
		_ = f.SetCellValue(SheetSummary, cell("A", row), line.label)
		_ = f.SetCellValue(SheetSummary, cell("B", row), line.value)
		row++
	}
	row++
	_ = f.SetSheetRow(SheetSummary, cell("A", row), &[]any{"Extremum", "Date", "Fuel (L)", "Electricity (kWh)", "Cost", "Unit price"})
	for _, e := range extrema(r) {
		row++
		values := []any{e.label}
		if e.record != nil {
			values = append(values, formatDate(e.record.Date, loc), e.record.Oil, e.record.Electric, e.record.Cost)
			if e.record.UnitPrice != nil {
				values = append(values, *e.record.UnitPrice)
			}
		}
		_ = f.SetSheetRow(SheetSummary, cell("A", row), &values)
	}

	_ = f.SetSheetRow(SheetTrend, "A1", &[]any{"Date", "Price"})
	for i, p := range r.FuelPriceTrend {
		_ = f.SetSheetRow(SheetTrend, cell("A", i+2), &[]any{formatDate(p.Date, loc), p.Price})
	}

	_ = f.SetCellValue(SheetCharging, "A1", "Electricity (kWh)")
	for i, v := range r.ElectricValues {
		_ = f.SetCellValue(SheetCharging, cell("A", i+2), v)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// BuildYearlyPDF renders the summary table, the extrema and the price trend.
func BuildYearlyPDF(r core.YearlyReport, loc *time.Location) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Energy report %d", r.Year), false)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, fmt.Sprintf("Energy report %d", r.Year))
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 10)
	for _, line := range summaryLines(r)[1:] {
		pdf.CellFormat(80, 6, line.label, "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 6, formatValue(line.value), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(6)
	pdf.SetFont("Arial", "B", 10)
	for _, h := range []struct {
		w     float64
		title string
	}{{45, "Extremum"}, {30, "Date"}, {25, "Fuel (L)"}, {30, "Electricity"}, {25, "Cost"}, {25, "Unit price"}} {
		pdf.CellFormat(h.w, 6, h.title, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, e := range extrema(r) {
		pdf.CellFormat(45, 6, e.label, "1", 0, "L", false, 0, "")
		if e.record == nil {
			pdf.CellFormat(135, 6, "-", "1", 0, "C", false, 0, "")
			pdf.Ln(-1)
			continue
		}
		unit := "-"
		if e.record.UnitPrice != nil {
			unit = core.FormatFixed2(*e.record.UnitPrice)
		}
		pdf.CellFormat(30, 6, formatDate(e.record.Date, loc), "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, core.FormatFixed2(e.record.Oil), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, core.FormatFixed2(e.record.Electric), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, core.FormatFixed2(e.record.Cost), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, unit, "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	if len(r.FuelPriceTrend) > 0 {
		pdf.Ln(6)
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(40, 6, "Date", "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, "Price", "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 10)
		for _, p := range r.FuelPriceTrend {
			pdf.CellFormat(40, 6, formatDate(p.Date, loc), "1", 0, "C", false, 0, "")
			pdf.CellFormat(30, 6, core.FormatFixed2(p.Price), "1", 0, "R", false, 0, "")
			pdf.Ln(-1)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// Filename is the download name of a report document, e.g. "vehicle_2024_report.pdf".
func Filename(vehicleID string, year int, ext string) string {
	if vehicleID == "" {
		vehicleID = "vehicle"
	}
	return fmt.Sprintf("%s_%d_report.%s", vehicleID, year, ext)
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

func formatDate(d core.RecordDate, loc *time.Location) string {
	if t, ok := d.Time(loc); ok {
		return t.Format("2006-01-02")
	}
	return d.String()
}

func formatValue(v any) string {
	switch x := v.(type) {
	case float64:
		return core.FormatFixed2(x)
	default:
		return fmt.Sprint(x)
	}
}
