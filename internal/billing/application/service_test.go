package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	billing "medibill-ai/internal/billing/domain"
	"medibill-ai/internal/billing/infrastructure/memory"
)

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type recordingNotifier struct {
	mu    sync.Mutex
	items []billing.Item
}

func (n *recordingNotifier) ItemAdded(_ context.Context, item billing.Item) {
	n.mu.Lock()
	n.items = append(n.items, item)
	n.mu.Unlock()
}

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	clock := &fixedClock{now: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)}
	svc, err := NewService(memory.NewRepository(), append([]Option{WithClock(clock)}, opts...)...)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestServiceAddItemDefaults(t *testing.T) {
	notifier := &recordingNotifier{}
	svc := newTestService(t, WithNotifier(notifier), WithDefaultCurrency("usd"))
	ctx := context.Background()
	if err := svc.CreateAdmission(ctx, &billing.Admission{ID: "adm-1", PatientName: "Asha Rao"}); err != nil {
		t.Fatalf("create admission: %v", err)
	}

	item, err := svc.AddItem(ctx, "adm-1", NewItem{
		Description: "  X-ray ",
		Category:    billing.CategoryTest,
		Amount:      decimal.RequireFromString("120.004"),
	})
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	if item.ID == "" {
		t.Fatalf("expected generated id")
	}
	if item.Description != "X-ray" {
		t.Fatalf("expected trimmed description, got %q", item.Description)
	}
	if item.Currency != "USD" {
		t.Fatalf("expected USD, got %s", item.Currency)
	}
	if !item.Amount.Equal(decimal.NewFromInt(120)) {
		t.Fatalf("expected amount rounded to cents, got %s", item.Amount)
	}
	if item.Timestamp.IsZero() {
		t.Fatalf("expected timestamp")
	}
	if len(notifier.items) != 1 || notifier.items[0].ID != item.ID {
		t.Fatalf("expected notifier to see the item")
	}
}

func TestServiceAddItemRejectsInvalid(t *testing.T) {
	notifier := &recordingNotifier{}
	svc := newTestService(t, WithNotifier(notifier))
	ctx := context.Background()
	_ = svc.CreateAdmission(ctx, &billing.Admission{ID: "adm-1", PatientName: "Asha Rao"})

	_, err := svc.AddItem(ctx, "adm-1", NewItem{Description: "Refund", Category: billing.CategoryOther, Amount: decimal.NewFromInt(-10)})
	if !errors.Is(err, billing.ErrNegativeAmount) {
		t.Fatalf("expected negative amount error, got %v", err)
	}
	_, err = svc.AddItem(ctx, "adm-missing", NewItem{Description: "X-ray", Category: billing.CategoryTest, Amount: decimal.NewFromInt(1)})
	if !errors.Is(err, billing.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(notifier.items) != 0 {
		t.Fatalf("notifier must not see rejected items")
	}
}

func TestServiceFindItemAndSummary(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	seeded, err := SeedDemo(ctx, svc, "adm-1", "Asha Rao", nil)
	if err != nil || !seeded {
		t.Fatalf("seed: seeded=%v err=%v", seeded, err)
	}

	items, err := svc.ListItems(ctx, "adm-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 || items[0].Description != "IV fluids" || items[1].Description != "X-ray" {
		t.Fatalf("unexpected seeded items: %+v", items)
	}

	found, err := svc.FindItem(ctx, "adm-1", items[1].ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found.Description != "X-ray" {
		t.Fatalf("found wrong item: %s", found.Description)
	}
	if _, err := svc.FindItem(ctx, "adm-1", "nope"); !errors.Is(err, billing.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	summary, err := svc.Summary(ctx, "adm-1")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if !summary.Total.Equal(decimal.NewFromInt(160)) {
		t.Fatalf("expected total 160, got %s", summary.Total)
	}

	again, err := SeedDemo(ctx, svc, "adm-1", "Asha Rao", nil)
	if err != nil || again {
		t.Fatalf("second seed should be a no-op: seeded=%v err=%v", again, err)
	}
}

func TestSimulatorStepCyclesCatalog(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_ = svc.CreateAdmission(ctx, &billing.Admission{ID: "adm-1", PatientName: "Asha Rao"})

	catalog := []Charge{
		{Description: "ECG", Category: billing.CategoryTest, Amount: decimal.NewFromInt(300)},
		{Description: "Bed", Category: billing.CategoryRoom, Amount: decimal.NewFromInt(1500)},
	}
	sim, err := NewSimulator(svc, "adm-1", time.Minute, zerolog.Nop(), catalog)
	if err != nil {
		t.Fatalf("new simulator: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := sim.Step(ctx); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	items, _ := svc.ListItems(ctx, "adm-1")
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0].Description != "ECG" || items[1].Description != "Bed" || items[2].Description != "ECG" {
		t.Fatalf("unexpected cycle: %s %s %s", items[0].Description, items[1].Description, items[2].Description)
	}
}

func TestSimulatorStartStopsOnCancel(t *testing.T) {
	svc := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	_ = svc.CreateAdmission(ctx, &billing.Admission{ID: "adm-1", PatientName: "Asha Rao"})
	sim, err := NewSimulator(svc, "adm-1", 5*time.Millisecond, zerolog.Nop(), nil)
	if err != nil {
		t.Fatalf("new simulator: %v", err)
	}

	done := make(chan struct{})
	go func() {
		sim.Start(ctx)
		close(done)
	}()
	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("simulator did not stop")
	}
	items, _ := svc.ListItems(context.Background(), "adm-1")
	if len(items) == 0 {
		t.Fatalf("expected simulated charges")
	}
}

func TestServiceAddItemRejectsCurrencyMismatch(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	if err := svc.CreateAdmission(ctx, &billing.Admission{ID: "adm-1", PatientName: "Asha Rao"}); err != nil {
		t.Fatalf("create admission: %v", err)
	}
	if _, err := svc.AddItem(ctx, "adm-1", NewItem{Description: "IV fluids", Category: billing.CategoryMedicine, Amount: decimal.NewFromInt(40)}); err != nil {
		t.Fatalf("add item: %v", err)
	}
	_, err := svc.AddItem(ctx, "adm-1", NewItem{Description: "X-ray", Category: billing.CategoryTest, Amount: decimal.NewFromInt(120), Currency: "usd"})
	if !errors.Is(err, billing.ErrCurrencyMismatch) {
		t.Fatalf("expected ErrCurrencyMismatch, got %v", err)
	}
	items, err := svc.ListItems(ctx, "adm-1")
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected rejected item to be absent, got %d items", len(items))
	}
}
