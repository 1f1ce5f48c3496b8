package database

import (
	"strings"

	"github.com/lib/pq"

	"github.com/docintake/docintake-backend/pkg/errors"
)

// MapPQError converts a PostgreSQL error to an AppError with meaningful messages.
// Returns nil if the error is not a pq.Error.
func MapPQError(err error) *errors.AppError {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return nil
	}

	switch pqErr.Code {
	// Check constraint violation (23514)
	case "23514":
		return mapCheckConstraint(pqErr)

	// Unique constraint violation (23505)
	case "23505":
		return errors.Conflict("a record with these values already exists")

	// Not null violation (23502)
	case "23502":
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Validation(map[string]string{
			col: "must not be empty",
		})

	// Invalid datetime format (22007) and datetime field overflow (22008)
	case "22007", "22008":
		return errors.Validation(map[string]string{
			"valid_until": "must be a calendar date in YYYY-MM-DD format",
		})

	default:
		return nil
	}
}

// mapCheckConstraint maps identity_documents CHECK constraints to field messages
func mapCheckConstraint(pqErr *pq.Error) *errors.AppError {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "personal_code_format"):
		return errors.Validation(map[string]string{
			"personal_code": "must be exactly 13 digits",
		})

	case strings.Contains(constraint, "document_pair"):
		return errors.Validation(map[string]string{
			"document_series": "series and number must be set together",
		})

	default:
		return errors.BadRequest("data validation failed: " + constraint)
	}
}
