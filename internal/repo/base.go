// Package repo holds the pieces every aggregate repository shares.
package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Base wraps the connection a repository was built with. Repositories built
// from a transaction handle run every query inside that transaction.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB binds ctx to the underlying handle. A nil ctx returns the raw handle.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Locked adds SELECT ... FOR UPDATE so guard checks re-read rows another
// transaction cannot change until commit. SQLite has a single writer and no
// row locks, so the clause is skipped there.
func (b Base) Locked(ctx context.Context) *gorm.DB {
	conn := b.DB(ctx)
	if dialect(conn) == "sqlite" {
		return conn
	}
	return conn.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
}

func (b Base) Count(ctx context.Context, model any, query string, args ...any) (int64, error) {
	var n int64
	err := b.DB(ctx).Model(model).Where(query, args...).Count(&n).Error
	return n, err
}

// Exists reports whether any row of model matches query without counting them all.
func (b Base) Exists(ctx context.Context, model any, query string, args ...any) (bool, error) {
	var found int
	err := b.DB(ctx).Model(model).Select("1").Where(query, args...).Limit(1).Scan(&found).Error
	return found == 1, err
}

// FindByID loads one row by primary key. A missing row is (nil, nil) so
// services decide which not-found error the caller sees.
func FindByID[T any](query *gorm.DB, id uuid.UUID) (*T, error) {
	return First[T](query, "id = ?", id)
}

// First is FindByID for an arbitrary condition.
func First[T any](query *gorm.DB, conds ...any) (*T, error) {
	var out T
	if err := query.First(&out, conds...).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

func dialect(conn *gorm.DB) string {
	if conn == nil || conn.Dialector == nil {
		return ""
	}
	return conn.Dialector.Name()
}
