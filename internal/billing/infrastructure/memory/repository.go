package memory

import (
	"context"
	"sync"

	billing "medibill-ai/internal/billing/domain"
)

// Repository is an in-memory billing store for demo/testing.
type Repository struct {
	mu         sync.RWMutex
	admissions map[string]*billing.Admission
	items      map[string][]billing.Item
	itemIDs    map[string]struct{}
}

// NewRepository constructs a repository.
func NewRepository() *Repository {
	return &Repository{
		admissions: make(map[string]*billing.Admission),
		items:      make(map[string][]billing.Item),
		itemIDs:    make(map[string]struct{}),
	}
}

// GetAdmission loads an admission without items.
func (r *Repository) GetAdmission(ctx context.Context, id string) (*billing.Admission, error) {
	_ = ctx
	if id == "" {
		return nil, billing.ErrEmptyAdmissionID
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	adm, ok := r.admissions[id]
	if !ok {
		return nil, billing.ErrNotFound
	}
	copied := *adm
	copied.Items = nil
	return &copied, nil
}

// CreateAdmission stores an admission, replacing an existing record with the same id.
func (r *Repository) CreateAdmission(ctx context.Context, admission *billing.Admission) error {
	_ = ctx
	if admission == nil {
		return billing.ErrNilAdmission
	}
	if err := admission.Validate(); err != nil {
		return err
	}
	copied := *admission
	copied.Items = nil
	r.mu.Lock()
	r.admissions[admission.ID] = &copied
	r.mu.Unlock()
	return nil
}

// ListItems returns the admission items ordered by timestamp.
func (r *Repository) ListItems(ctx context.Context, admissionID string) ([]billing.Item, error) {
	_ = ctx
	if admissionID == "" {
		return nil, billing.ErrEmptyAdmissionID
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.admissions[admissionID]; !ok {
		return nil, billing.ErrNotFound
	}
	stored := r.items[admissionID]
	result := make([]billing.Item, len(stored))
	copy(result, stored)
	billing.SortItems(result)
	return result, nil
}

// AddItem appends an item to its admission.
func (r *Repository) AddItem(ctx context.Context, item billing.Item) error {
	_ = ctx
	if err := item.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.admissions[item.AdmissionID]; !ok {
		return billing.ErrNotFound
	}
	if _, dup := r.itemIDs[item.ID]; dup {
		return billing.ErrDuplicateItem
	}
	r.itemIDs[item.ID] = struct{}{}
	r.items[item.AdmissionID] = append(r.items[item.AdmissionID], item)
	return nil
}
