package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	billing "medibill-ai/internal/billing/domain"
)

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// ItemNotifier is told about every charge appended to an admission.
type ItemNotifier interface {
	ItemAdded(ctx context.Context, item billing.Item)
}

// NewItem is the input for appending a charge.
type NewItem struct {
	ID          string
	Description string
	Category    billing.Category
	Amount      decimal.Decimal
	Currency    string
	Timestamp   time.Time
}

// Service exposes billing store use cases.
type Service struct {
	repo     billing.Repository
	clock    Clock
	notifier ItemNotifier
	currency string
	newID    func() string
}

// Option configures the service.
type Option func(*Service)

// WithClock overrides the default clock.
func WithClock(clock Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithNotifier registers a listener for appended items.
func WithNotifier(notifier ItemNotifier) Option {
	return func(s *Service) {
		if notifier != nil {
			s.notifier = notifier
		}
	}
}

// WithDefaultCurrency sets the currency used when an item has none.
func WithDefaultCurrency(currency string) Option {
	return func(s *Service) {
		if currency != "" {
			s.currency = strings.ToUpper(currency)
		}
	}
}

// WithIDGenerator overrides item id generation.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// NewService constructs the billing service.
func NewService(repo billing.Repository, opts ...Option) (*Service, error) {
	if repo == nil {
		return nil, errors.New("billing service: nil repository")
	}
	s := &Service{
		repo:     repo,
		clock:    SystemClock{},
		currency: "INR",
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// GetAdmission loads an admission with its ordered items.
func (s *Service) GetAdmission(ctx context.Context, admissionID string) (*billing.Admission, error) {
	adm, err := s.repo.GetAdmission(ctx, admissionID)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListItems(ctx, admissionID)
	if err != nil {
		return nil, err
	}
	adm.Items = items
	return adm, nil
}

// ListItems returns the admission items in non-decreasing timestamp order.
func (s *Service) ListItems(ctx context.Context, admissionID string) ([]billing.Item, error) {
	items, err := s.repo.ListItems(ctx, admissionID)
	if err != nil {
		return nil, err
	}
	billing.SortItems(items)
	return items, nil
}

// FindItem returns one item of an admission.
func (s *Service) FindItem(ctx context.Context, admissionID, itemID string) (billing.Item, error) {
	items, err := s.repo.ListItems(ctx, admissionID)
	if err != nil {
		return billing.Item{}, err
	}
	for _, item := range items {
		if item.ID == itemID {
			return item, nil
		}
	}
	return billing.Item{}, billing.ErrNotFound
}

// Summary totals the admission.
func (s *Service) Summary(ctx context.Context, admissionID string) (billing.Summary, error) {
	items, err := s.repo.ListItems(ctx, admissionID)
	if err != nil {
		return billing.Summary{}, err
	}
	summary := billing.Summarize(items)
	if summary.Currency == "" {
		summary.Currency = s.currency
	}
	return summary, nil
}

// CreateAdmission stores an admission. Used by the seeder.
func (s *Service) CreateAdmission(ctx context.Context, admission *billing.Admission) error {
	if admission == nil {
		return billing.ErrNilAdmission
	}
	if admission.StartTime.IsZero() {
		admission.StartTime = s.clock.Now()
	}
	return s.repo.CreateAdmission(ctx, admission)
}

// AddItem appends a charge to an admission.
func (s *Service) AddItem(ctx context.Context, admissionID string, input NewItem) (billing.Item, error) {
	if admissionID == "" {
		return billing.Item{}, billing.ErrEmptyAdmissionID
	}
	item := billing.Item{
		ID:          input.ID,
		AdmissionID: admissionID,
		Description: strings.TrimSpace(input.Description),
		Category:    input.Category,
		Amount:      input.Amount.Round(2),
		Currency:    strings.ToUpper(input.Currency),
		Timestamp:   input.Timestamp,
	}
	if item.ID == "" {
		item.ID = s.newID()
	}
	if item.Currency == "" {
		item.Currency = s.currency
	}
	if item.Timestamp.IsZero() {
		item.Timestamp = s.clock.Now()
	}
	item.Timestamp = item.Timestamp.UTC()
	if err := item.Validate(); err != nil {
		return billing.Item{}, err
	}
	existing, err := s.repo.ListItems(ctx, admissionID)
	if err != nil {
		return billing.Item{}, err
	}
	if len(existing) > 0 && existing[0].Currency != item.Currency {
		return billing.Item{}, fmt.Errorf("%w: admission %s is billed in %s, got %s", billing.ErrCurrencyMismatch, admissionID, existing[0].Currency, item.Currency)
	}
	if err := s.repo.AddItem(ctx, item); err != nil {
		return billing.Item{}, err
	}
	if s.notifier != nil {
		s.notifier.ItemAdded(ctx, item)
	}
	return item, nil
}
