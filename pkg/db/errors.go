package db

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	pkgerrors "github.com/angelmondragon/quoteengine-backend/pkg/errors"
)

// IsUniqueViolation reports whether err is a unique constraint failure. A
// non-empty constraint narrows the match to that constraint.
func IsUniqueViolation(err error, constraint string) bool {
	if err == nil {
		return false
	}
	if pg, ok := pkgerrors.Postgres(err); ok {
		return pg.Code == pkgerrors.SQLStateUniqueViolation &&
			(constraint == "" || pg.Constraint == constraint)
	}
	// sqlite only reports the failing columns, not the index name
	msg := err.Error()
	if !strings.Contains(msg, "UNIQUE constraint failed") {
		return false
	}
	return constraint == "" || strings.Contains(msg, constraint)
}

// IsForeignKeyViolation reports whether err is a foreign key failure on either dialect.
func IsForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	if pg, ok := pkgerrors.Postgres(err); ok {
		return pg.Code == pkgerrors.SQLStateForeignKeyViolation
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// IsRetryable reports whether the transaction lost a serialization race.
func IsRetryable(err error) bool {
	pg, ok := pkgerrors.Postgres(err)
	return ok && (pg.Code == pkgerrors.SQLStateSerialization || pg.Code == pkgerrors.SQLStateDeadlock)
}

// IsNotFound reports whether err is gorm's record-not-found sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
