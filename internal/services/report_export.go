// internal/services/report_export.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/javajoker/lease-backend/internal/models"
)

var leaseExportHeaders = []string{
	"ID", "Agreement Number", "Landlord", "Site", "Commencement Date", "Expiry Date", "Status",
	"Rental Type", "Rental Value", "Commencement Amount", "Lease Type", "Operational Status",
	"Auto Renewal", "Renewal Period (Months)", "Category",
}

var leaseExportWidths = []float64{8, 22, 24, 24, 18, 14, 18, 14, 16, 20, 16, 20, 14, 22, 20}

// Export builds the report and renders it as an .xlsx workbook.
func (s *ReportService) Export(ctx context.Context, req *ReportRequest) ([]byte, error) {
	req.ReportType = models.ReportType(strings.ToUpper(string(req.ReportType)))
	data, err := s.Build(ctx, req)
	if err != nil {
		return nil, err
	}
	return RenderWorkbook(data)
}

// RenderWorkbook writes one sheet: a lease register, or key/count rows for summaries.
func RenderWorkbook(data *ReportData) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(data.Type)
	if _, err := f.NewSheet(sheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to remove default sheet: %w", err)
	}
	index, err := f.GetSheetIndex(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to locate sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	headers := leaseExportHeaders
	widths := leaseExportWidths
	var rows [][]interface{}
	if data.Summary != nil {
		headers = []string{"Group", "Lease Count"}
		widths = []float64{28, 14}
		for _, r := range data.Summary {
			rows = append(rows, []interface{}{r.Key, r.Count})
		}
	} else {
		for i := range data.Leases {
			rows = append(rows, leaseRow(&data.Leases[i]))
		}
	}

	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return nil, fmt.Errorf("failed to set header style: %w", err)
	}

	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("failed to freeze header: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func leaseRow(l *models.Lease) []interface{} {
	landlord, site := "", ""
	if l.Landlord != nil {
		landlord = l.Landlord.FullName
	}
	if l.Site != nil {
		site = l.Site.SiteName
	}
	rentalValue := ""
	if l.RentalValue != nil {
		rentalValue = *l.RentalValue
	}
	var renewal interface{}
	if l.RenewalPeriodMonths != nil {
		renewal = *l.RenewalPeriodMonths
	}
	autoRenewal := "No"
	if l.AutoRenewalOption {
		autoRenewal = "Yes"
	}

	return []interface{}{
		l.ID,
		l.AgreementNumber,
		landlord,
		site,
		l.CommencementDate.String(),
		l.ExpiryDate.String(),
		string(l.Status),
		string(l.RentalType),
		rentalValue,
		l.CommencementAmount.StringFixed(2),
		string(l.LeaseType),
		string(l.OperationalStatus),
		autoRenewal,
		renewal,
		l.LeaseCategory,
	}
}

// sheetName turns CATEGORY_SUMMARY into "Category Summary"; Excel caps names at 31 characters.
func sheetName(t models.ReportType) string {
	words := strings.Split(strings.ToLower(string(t)), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	name := strings.Join(words, " ")
	if name == "" {
		name = "Report"
	}
	if len(name) > 31 {
		name = name[:31]
	}
	return name
}
