package store

import (
	"errors"

	"advocacia.app/internal/dialect"
)

var (
	ErrNotFound = errors.New("store: not found")
	// ErrConflict is a uniqueness violation.
	ErrConflict = errors.New("store: conflict")
	// ErrInvalidReference is a write pointing at a missing client or sector.
	ErrInvalidReference = errors.New("store: invalid reference")
	// ErrInUse is a delete blocked by dependent rows.
	ErrInUse       = errors.New("store: record in use")
	ErrAlreadyPaid = errors.New("store: invoice already paid")
)

// classifyWrite maps constraint failures on insert/update.
func classifyWrite(err error) error {
	switch {
	case err == nil:
		return nil
	case dialect.IsUniqueViolation(err):
		return ErrConflict
	case dialect.IsForeignKeyViolation(err):
		return ErrInvalidReference
	}
	return err
}

// classifyDelete maps constraint failures on delete.
func classifyDelete(err error) error {
	if dialect.IsForeignKeyViolation(err) {
		return ErrInUse
	}
	return err
}
