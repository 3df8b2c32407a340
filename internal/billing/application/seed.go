package application

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	billing "medibill-ai/internal/billing/domain"
)

// DemoCharges are the opening charges of the demo admission.
var DemoCharges = []Charge{
	{Description: "IV fluids", Category: billing.CategoryMedicine, Amount: decimal.NewFromInt(40)},
	{Description: "X-ray", Category: billing.CategoryTest, Amount: decimal.NewFromInt(120)},
}

// SeedDemo creates the demo admission when it does not exist yet and adds
// the opening charges when it has none. It reports whether anything was written.
func SeedDemo(ctx context.Context, service *Service, admissionID, patientName string, charges []Charge) (bool, error) {
	if service == nil {
		return false, errors.New("seed: nil service")
	}
	if len(charges) == 0 {
		charges = DemoCharges
	}

	_, err := service.repo.GetAdmission(ctx, admissionID)
	switch {
	case errors.Is(err, billing.ErrNotFound):
		if err := service.CreateAdmission(ctx, &billing.Admission{ID: admissionID, PatientName: patientName}); err != nil {
			return false, err
		}
	case err != nil:
		return false, err
	}

	items, err := service.ListItems(ctx, admissionID)
	if err != nil {
		return false, err
	}
	if len(items) > 0 {
		return false, nil
	}
	now := service.clock.Now()
	for i, charge := range charges {
		if _, err := service.AddItem(ctx, admissionID, NewItem{
			Description: charge.Description,
			Category:    charge.Category,
			Amount:      charge.Amount,
			Timestamp:   now.Add(time.Duration(i-len(charges)) * time.Minute),
		}); err != nil {
			return false, err
		}
	}
	return true, nil
}
