package interfaces

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	billing "medibill-ai/internal/billing/domain"
)

func sampleAdmission() *billing.Admission {
	start := time.Date(2026, 1, 2, 8, 0, 0, 0, time.UTC)
	return &billing.Admission{
		ID:          "adm-1",
		PatientName: "Demo Patient",
		StartTime:   start,
		Items: []billing.Item{
			{ID: "a", AdmissionID: "adm-1", Description: "IV fluids", Category: billing.CategoryMedicine, Amount: decimal.NewFromInt(40), Currency: "INR", Timestamp: start.Add(time.Hour)},
			{ID: "b", AdmissionID: "adm-1", Description: "X-ray", Category: billing.CategoryTest, Amount: decimal.NewFromInt(120), Currency: "INR", Timestamp: start.Add(2 * time.Hour)},
		},
	}
}

func TestBuildBillPDF(t *testing.T) {
	data, err := BuildBillPDF(sampleAdmission(), time.Now())
	if err != nil {
		t.Fatalf("build pdf: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("expected pdf header")
	}
}

func TestBuildBillXLSX(t *testing.T) {
	data, err := BuildBillXLSX(sampleAdmission(), time.Now())
	if err != nil {
		t.Fatalf("build xlsx: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer f.Close()
	total, err := f.GetCellValue("summary", "B7")
	if err != nil {
		t.Fatalf("read total: %v", err)
	}
	if total != "160" {
		t.Fatalf("expected total 160, got %q", total)
	}
	running, err := f.GetCellValue("items", "F3")
	if err != nil {
		t.Fatalf("read running total: %v", err)
	}
	if running != "160" {
		t.Fatalf("expected running total 160, got %q", running)
	}
}

func TestBuildBillRejectsNil(t *testing.T) {
	if _, err := BuildBillPDF(nil, time.Now()); err == nil {
		t.Fatalf("expected error for nil admission")
	}
	if _, err := BuildBillXLSX(nil, time.Now()); err == nil {
		t.Fatalf("expected error for nil admission")
	}
}
