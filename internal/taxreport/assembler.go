package taxreport

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"

	"github.com/garyjia/sales-tax-reports/internal/domain/entity"
	"github.com/xuri/excelize/v2"
)

// DateLayout is the format of the Date column
const DateLayout = "2006-01-02"

// WorkbookSheet names the sheet of the xlsx companion artifact
const WorkbookSheet = "India Sales"

// ReportHeader lists the report columns in order
var ReportHeader = []string{
	"ID",
	"Date",
	"Place of Supply (State)",
	"Zip Tax Rate (%) (Rate from Database)",
	"Taxable Value (cents)",
	"Integrated Tax Amount (cents)",
	"Tax Rate (%) (Calculated From Tax Collected)",
	"Expected Tax (cents, rounded)",
	"Expected Tax (cents, floored)",
	"Tax Difference (rounded)",
	"Tax Difference (floored)",
}

// SortRows orders rows by ledger identity so output is reproducible
func SortRows(rows []entity.ReportRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].ID != rows[j].ID {
			return rows[i].ID < rows[j].ID
		}
		return rows[i].TransactionID < rows[j].TransactionID
	})
}

// RenderCSV writes the header and one record per row
func RenderCSV(rows []entity.ReportRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(ReportHeader); err != nil {
		return nil, fmt.Errorf("%w: failed to write header: %w", ErrRenderReport, err)
	}
	for _, row := range rows {
		if err := w.Write(csvRecord(row)); err != nil {
			return nil, fmt.Errorf("%w: failed to write row %s: %w", ErrRenderReport, row.TransactionID, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRenderReport, err)
	}
	return buf.Bytes(), nil
}

func csvRecord(row entity.ReportRow) []string {
	return []string{
		row.TransactionID,
		row.Date.Format(DateLayout),
		row.PlaceOfSupply,
		row.AppliedRatePercent.String(),
		strconv.FormatInt(row.TaxableValueCents, 10),
		strconv.FormatInt(row.CollectedTaxCents, 10),
		row.ImpliedRatePercent.String(),
		strconv.FormatInt(row.ExpectedTaxRoundedCents, 10),
		strconv.FormatInt(row.ExpectedTaxFlooredCents, 10),
		strconv.FormatInt(row.DifferenceRounded, 10),
		strconv.FormatInt(row.DifferenceFloored, 10),
	}
}

// RenderWorkbook renders the same table as an xlsx workbook. Money columns
// are written as numbers so spreadsheet totals work.
func RenderWorkbook(rows []entity.ReportRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", WorkbookSheet); err != nil {
		return nil, fmt.Errorf("%w: failed to name sheet: %w", ErrRenderReport, err)
	}

	header := make([]interface{}, len(ReportHeader))
	for i, label := range ReportHeader {
		header[i] = label
	}
	if err := f.SetSheetRow(WorkbookSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("%w: failed to write header: %w", ErrRenderReport, err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrRenderReport, err)
		}
		values := []interface{}{
			row.TransactionID,
			row.Date.Format(DateLayout),
			row.PlaceOfSupply,
			row.AppliedRatePercent.InexactFloat64(),
			row.TaxableValueCents,
			row.CollectedTaxCents,
			row.ImpliedRatePercent.InexactFloat64(),
			row.ExpectedTaxRoundedCents,
			row.ExpectedTaxFlooredCents,
			row.DifferenceRounded,
			row.DifferenceFloored,
		}
		if err := f.SetSheetRow(WorkbookSheet, cell, &values); err != nil {
			return nil, fmt.Errorf("%w: failed to write row %s: %w", ErrRenderReport, row.TransactionID, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to serialize workbook: %w", ErrRenderReport, err)
	}
	return buf.Bytes(), nil
}
