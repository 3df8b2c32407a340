package interfaces

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	billing "medibill-ai/internal/billing/domain"
)

const disclaimer = "MediBill AI | Educational Tool Only | Not Medical/Financial Advice"

// BuildBillPDF renders an itemized bill for an admission.
func BuildBillPDF(adm *billing.Admission, generatedAt time.Time) ([]byte, error) {
	if adm == nil {
		return nil, billing.ErrNilAdmission
	}
	summary := billing.Summarize(adm.Items)

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Hospital Bill")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, tr(fmt.Sprintf("Patient: %s", adm.PatientName)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Admission: %s", adm.ID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Admitted: %s", adm.StartTime.Format(time.RFC3339)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", generatedAt.Format(time.RFC3339)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(40, 6, "Time", "1", 0, "C", false, 0, "")
	pdf.CellFormat(70, 6, "Description", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Category", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Amount", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, item := range adm.Items {
		pdf.CellFormat(40, 6, item.Timestamp.Format("2006-01-02 15:04"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(70, 6, tr(item.Description), "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, string(item.Category), "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 6, item.Amount.StringFixed(2)+" "+item.Currency, "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(140, 6, fmt.Sprintf("Total (%d items)", summary.Count), "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 6, summary.Total.StringFixed(2)+" "+summary.Currency, "1", 0, "R", false, 0, "")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 8)
	pdf.Cell(0, 5, disclaimer)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildBillXLSX renders the bill as a workbook with summary and items sheets.
func BuildBillXLSX(adm *billing.Admission, generatedAt time.Time) ([]byte, error) {
	if adm == nil {
		return nil, billing.ErrNilAdmission
	}
	summary := billing.Summarize(adm.Items)

	f := excelize.NewFile()
	defer f.Close()
	summarySheet := "summary"
	itemsSheet := "items"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(itemsSheet); err != nil {
		return nil, err
	}

	_ = f.SetCellValue(summarySheet, "A1", "Hospital Bill")
	_ = f.SetCellValue(summarySheet, "A3", "Patient")
	_ = f.SetCellValue(summarySheet, "B3", adm.PatientName)
	_ = f.SetCellValue(summarySheet, "A4", "Admission")
	_ = f.SetCellValue(summarySheet, "B4", adm.ID)
	_ = f.SetCellValue(summarySheet, "A5", "Admitted")
	_ = f.SetCellValue(summarySheet, "B5", adm.StartTime.Format(time.RFC3339))
	_ = f.SetCellValue(summarySheet, "A6", "Items")
	_ = f.SetCellValue(summarySheet, "B6", summary.Count)
	_ = f.SetCellValue(summarySheet, "A7", "Total")
	_ = f.SetCellValue(summarySheet, "B7", summary.Total.InexactFloat64())
	_ = f.SetCellValue(summarySheet, "A8", "Currency")
	_ = f.SetCellValue(summarySheet, "B8", summary.Currency)
	_ = f.SetCellValue(summarySheet, "A9", "Generated")
	_ = f.SetCellValue(summarySheet, "B9", generatedAt.Format(time.RFC3339))

	_ = f.SetCellValue(itemsSheet, "A1", "Time")
	_ = f.SetCellValue(itemsSheet, "B1", "Description")
	_ = f.SetCellValue(itemsSheet, "C1", "Category")
	_ = f.SetCellValue(itemsSheet, "D1", "Amount")
	_ = f.SetCellValue(itemsSheet, "E1", "Currency")
	_ = f.SetCellValue(itemsSheet, "F1", "Running Total")
	running := decimal.Zero
	for i, item := range adm.Items {
		row := i + 2
		running = running.Add(item.Amount)
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("A%d", row), item.Timestamp.Format(time.RFC3339))
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("B%d", row), item.Description)
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("C%d", row), string(item.Category))
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("D%d", row), item.Amount.InexactFloat64())
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("E%d", row), item.Currency)
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("F%d", row), running.InexactFloat64())
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
