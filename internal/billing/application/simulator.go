package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	billing "medibill-ai/internal/billing/domain"
	"medibill-ai/internal/observability/metrics"
)

// Charge is a template for a simulated charge.
type Charge struct {
	Description string
	Category    billing.Category
	Amount      decimal.Decimal
}

// DefaultCharges is the catalog the simulator cycles through.
var DefaultCharges = []Charge{
	{Description: "Complete blood count (CBC)", Category: billing.CategoryTest, Amount: decimal.NewFromInt(350)},
	{Description: "Paracetamol 500mg tablets", Category: billing.CategoryMedicine, Amount: decimal.NewFromInt(20)},
	{Description: "General ward bed (per day)", Category: billing.CategoryRoom, Amount: decimal.NewFromInt(1500)},
	{Description: "Doctor consultation", Category: billing.CategoryProcedure, Amount: decimal.NewFromInt(800)},
	{Description: "ECG", Category: billing.CategoryTest, Amount: decimal.NewFromInt(300)},
	{Description: "Ceftriaxone injection", Category: billing.CategoryMedicine, Amount: decimal.NewFromInt(95)},
	{Description: "Patient toiletries kit", Category: billing.CategoryOther, Amount: decimal.NewFromInt(150)},
	{Description: "Ultrasound abdomen", Category: billing.CategoryTest, Amount: decimal.NewFromInt(1200)},
}

// Simulator mimics new charges appearing on the running bill.
// It is the single writer of the billing store while the server runs.
type Simulator struct {
	service     *Service
	admissionID string
	interval    time.Duration
	charges     []Charge
	logger      zerolog.Logger

	mu   sync.Mutex
	next int
}

// NewSimulator constructs a simulator. An empty catalog uses DefaultCharges.
func NewSimulator(service *Service, admissionID string, interval time.Duration, logger zerolog.Logger, charges []Charge) (*Simulator, error) {
	if service == nil {
		return nil, errors.New("simulator: nil service")
	}
	if admissionID == "" {
		return nil, billing.ErrEmptyAdmissionID
	}
	if len(charges) == 0 {
		charges = DefaultCharges
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Simulator{
		service:     service,
		admissionID: admissionID,
		interval:    interval,
		charges:     charges,
		logger:      logger,
	}, nil
}

// Step appends the next charge from the catalog.
func (s *Simulator) Step(ctx context.Context) (billing.Item, error) {
	s.mu.Lock()
	charge := s.charges[s.next%len(s.charges)]
	s.next++
	s.mu.Unlock()

	item, err := s.service.AddItem(ctx, s.admissionID, NewItem{
		Description: charge.Description,
		Category:    charge.Category,
		Amount:      charge.Amount,
	})
	if err != nil {
		return billing.Item{}, err
	}
	metrics.IncSimulatedCharge(string(item.Category))
	s.logger.Info().
		Str("admission_id", item.AdmissionID).
		Str("item_id", item.ID).
		Str("description", item.Description).
		Str("amount", item.Amount.StringFixed(2)).
		Msg("simulated charge added")
	return item, nil
}

// Start runs Step on every tick until ctx is done.
func (s *Simulator) Start(ctx context.Context) {
	if s == nil {
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Step(ctx); err != nil {
				s.logger.Error().Err(err).Str("admission_id", s.admissionID).Msg("simulator step failed")
			}
		}
	}
}
