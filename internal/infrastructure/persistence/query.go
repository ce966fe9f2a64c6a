package persistence

import (
	"errors"
	"strings"

	"github.com/vendorbill/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// applyPaging applies ordering and pagination from a shared.Filter.
// orderable maps API sort keys to column names; unknown keys fall back to defaultOrder.
func applyPaging(query *gorm.DB, filter shared.Filter, orderable map[string]string, defaultOrder string) *gorm.DB {
	if column, ok := orderable[filter.OrderBy]; ok {
		query = query.Order(column + " " + ValidateSortOrder(filter.OrderDir))
	} else {
		query = query.Order(defaultOrder)
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	return query
}

// searchPattern builds a case-insensitive LIKE pattern
func searchPattern(search string) string {
	return "%" + strings.ToLower(strings.TrimSpace(search)) + "%"
}

// translateNotFound maps gorm.ErrRecordNotFound to the given domain error
func translateNotFound(err error, notFound error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return err
}

// isUniqueViolation reports whether err is a unique constraint violation on Postgres or SQLite
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLSTATE 23505") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
