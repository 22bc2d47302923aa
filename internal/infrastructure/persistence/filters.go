package persistence

import (
	"strings"

	"gorm.io/gorm"

	"github.com/epicerie/backend/internal/domain/shared"
)

// applyDocumentFilter applies search, status/customer filters, ordering
// and pagination shared by all document repositories. sortFields is the
// model's whitelist of sortable columns; searchColumns are the columns
// the free-text search matches against.
func applyDocumentFilter(query *gorm.DB, filter shared.Filter, sortFields map[string]bool, searchColumns ...string) *gorm.DB {
	query = applyDocumentFilterWithoutPagination(query, filter, searchColumns...)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	sortField := ValidateSortField(filter.OrderBy, sortFields, "created_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	return query.Order(sortField + " " + sortOrder)
}

// applyDocumentFilterWithoutPagination applies filter options without
// pagination, used for counting.
func applyDocumentFilterWithoutPagination(query *gorm.DB, filter shared.Filter, searchColumns ...string) *gorm.DB {
	if filter.Search != "" && len(searchColumns) > 0 {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		clauses := make([]string, 0, len(searchColumns))
		args := make([]interface{}, 0, len(searchColumns))
		for _, col := range searchColumns {
			// LOWER+LIKE instead of ILIKE so SQLite behaves like PostgreSQL
			clauses = append(clauses, "LOWER("+col+") LIKE ?")
			args = append(args, pattern)
		}
		query = query.Where(strings.Join(clauses, " OR "), args...)
	}

	for key, value := range filter.Filters {
		switch key {
		case "customer_id":
			query = query.Where("customer_id = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		case "order_id":
			query = query.Where("order_id = ?", value)
		}
	}

	return query
}
