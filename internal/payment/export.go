package payment

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Payments"

var exportHeader = []string{"Due date", "Tenant", "Property", "Description", "Amount", "Status", "Paid date"}

// ExportXLSX renders the views as a spreadsheet with one row per payment.
func ExportXLSX(views []View) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return nil, fmt.Errorf("amount style: %w", err)
	}

	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(exportSheet, "A1", "G1", bold); err != nil {
		return nil, err
	}

	for i, v := range views {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		paid := ""
		if v.PaidDate != nil {
			paid = v.PaidDate.Format(time.DateOnly)
		}
		row := []any{
			v.DueDate.Format(time.DateOnly),
			v.TenantName,
			v.PropertyName,
			v.Description,
			v.Amount,
			string(v.Status),
			paid,
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, err
		}
		amountCell, _ := excelize.CoordinatesToCellName(5, i+2)
		if err := f.SetCellStyle(exportSheet, amountCell, amountCell, money); err != nil {
			return nil, err
		}
	}

	if err := f.SetColWidth(exportSheet, "A", "G", 18); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf, nil
}
