package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	billing "medibill-ai/internal/billing/domain"
)

const (
	defaultAdmissionsTable = "admissions"
	defaultItemsTable      = "billing_items"
)

// Repository is a Postgres implementation of the billing store.
type Repository struct {
	db              DBTX
	admissionsTable string
	itemsTable      string
}

// Option configures the repository.
type Option func(*Repository)

// WithAdmissionsTable overrides the default admissions table name.
func WithAdmissionsTable(table string) Option {
	return func(repo *Repository) {
		if table != "" {
			repo.admissionsTable = table
		}
	}
}

// WithItemsTable overrides the default billing items table name.
func WithItemsTable(table string) Option {
	return func(repo *Repository) {
		if table != "" {
			repo.itemsTable = table
		}
	}
}

// NewRepository constructs a repository.
func NewRepository(db DBTX, opts ...Option) *Repository {
	repo := &Repository{db: db, admissionsTable: defaultAdmissionsTable, itemsTable: defaultItemsTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// GetAdmission loads an admission without items.
func (r *Repository) GetAdmission(ctx context.Context, id string) (*billing.Admission, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("billing repo: nil db")
	}
	if id == "" {
		return nil, billing.ErrEmptyAdmissionID
	}

	query := fmt.Sprintf(`
SELECT id, patient_name, start_time
FROM %s
WHERE id = $1
LIMIT 1`, r.admissionsTable)

	var adm billing.Admission
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&adm.ID, &adm.PatientName, &adm.StartTime); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, billing.ErrNotFound
		}
		return nil, err
	}
	adm.StartTime = adm.StartTime.UTC()
	return &adm, nil
}

// CreateAdmission upserts an admission.
func (r *Repository) CreateAdmission(ctx context.Context, admission *billing.Admission) error {
	if r == nil || r.db == nil {
		return errors.New("billing repo: nil db")
	}
	if admission == nil {
		return billing.ErrNilAdmission
	}
	if err := admission.Validate(); err != nil {
		return err
	}

	query := fmt.Sprintf(`
INSERT INTO %s (id, patient_name, start_time)
VALUES ($1, $2, $3)
ON CONFLICT (id)
DO UPDATE SET
	patient_name = EXCLUDED.patient_name,
	start_time = EXCLUDED.start_time`, r.admissionsTable)

	_, err := r.db.ExecContext(ctx, query, admission.ID, admission.PatientName, admission.StartTime.UTC())
	return err
}

// ListItems returns the admission items ordered by timestamp.
func (r *Repository) ListItems(ctx context.Context, admissionID string) ([]billing.Item, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("billing repo: nil db")
	}
	if admissionID == "" {
		return nil, billing.ErrEmptyAdmissionID
	}
	if _, err := r.GetAdmission(ctx, admissionID); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
SELECT id, admission_id, description, category, amount, currency, charged_at
FROM %s
WHERE admission_id = $1
ORDER BY charged_at ASC, id ASC`, r.itemsTable)

	rows, err := r.db.QueryContext(ctx, query, admissionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]billing.Item, 0)
	for rows.Next() {
		var item billing.Item
		var category string
		if err := rows.Scan(
			&item.ID,
			&item.AdmissionID,
			&item.Description,
			&category,
			&item.Amount,
			&item.Currency,
			&item.Timestamp,
		); err != nil {
			return nil, err
		}
		item.Category = billing.Category(category)
		item.Timestamp = item.Timestamp.UTC()
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// AddItem inserts an item. Existing items are never updated.
func (r *Repository) AddItem(ctx context.Context, item billing.Item) error {
	if r == nil || r.db == nil {
		return errors.New("billing repo: nil db")
	}
	if err := item.Validate(); err != nil {
		return err
	}

	query := fmt.Sprintf(`
INSERT INTO %s (id, admission_id, description, category, amount, currency, charged_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`, r.itemsTable)

	_, err := r.db.ExecContext(
		ctx,
		query,
		item.ID,
		item.AdmissionID,
		item.Description,
		string(item.Category),
		item.Amount,
		item.Currency,
		item.Timestamp.UTC(),
	)
	switch pgErrorCode(err) {
	case "":
		return err
	case pgUniqueViolation:
		return billing.ErrDuplicateItem
	case pgForeignKeyViolation:
		return billing.ErrNotFound
	default:
		return err
	}
}
