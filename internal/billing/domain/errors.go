package billing

import "errors"

var (
	// ErrNotFound is returned for an unknown admission or item.
	ErrNotFound = errors.New("billing: not found")
	// ErrEmptyAdmissionID is returned when an admission id is empty.
	ErrEmptyAdmissionID = errors.New("billing: empty admission id")
	// ErrEmptyDescription is returned when an item has no description.
	ErrEmptyDescription = errors.New("billing: empty description")
	// ErrEmptyPatientName is returned when an admission has no patient name.
	ErrEmptyPatientName = errors.New("billing: empty patient name")
	// ErrInvalidCategory is returned for a category outside the known set.
	ErrInvalidCategory = errors.New("billing: invalid category")
	// ErrNegativeAmount is returned when an item amount is below zero.
	ErrNegativeAmount = errors.New("billing: negative amount")
	// ErrNilAdmission is returned when saving a nil admission.
	ErrNilAdmission = errors.New("billing: nil admission")
	// ErrDuplicateItem is returned when an item id already exists.
	ErrDuplicateItem = errors.New("billing: duplicate item")
	// ErrCurrencyMismatch is returned when an item's currency differs from
	// the admission's existing charges.
	ErrCurrencyMismatch = errors.New("billing: currency mismatch")
)
