package billing

import (
	"context"
	"strings"
	"time"
)

// Admission is one simulated hospital stay.
type Admission struct {
	ID          string    `json:"id"`
	PatientName string    `json:"patient_name"`
	StartTime   time.Time `json:"start_time"`
	Items       []Item    `json:"items,omitempty"`
}

// Validate checks admission invariants.
func (a Admission) Validate() error {
	if a.ID == "" {
		return ErrEmptyAdmissionID
	}
	if strings.TrimSpace(a.PatientName) == "" {
		return ErrEmptyPatientName
	}
	return nil
}

// Repository persists admissions and their append-only items.
// There is no update or delete.
type Repository interface {
	GetAdmission(ctx context.Context, id string) (*Admission, error)
	CreateAdmission(ctx context.Context, admission *Admission) error
	ListItems(ctx context.Context, admissionID string) ([]Item, error)
	AddItem(ctx context.Context, item Item) error
}
