// Package repository implements the service store interfaces on top of gorm.
package repository

import (
	"errors"

	"dailydog/internal/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// validID reports whether id can be compared against a uuid column.
// Postgres rejects malformed uuids with an error instead of matching nothing.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// translate maps gorm errors onto the application's error kinds. The
// connection must be opened with TranslateError so unique violations
// surface as gorm.ErrDuplicatedKey.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperr.ErrDuplicate
	default:
		return err
	}
}
