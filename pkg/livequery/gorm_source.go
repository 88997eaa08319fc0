package livequery

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// GormSource reads pages from a single table, ordered by the search
// field then id so the ordering is total.
type GormSource[T any] struct {
	db       *gorm.DB
	table    string
	field    string
	cursorOf func(T) Cursor
}

// NewGormSource builds a source over table, filtering and ordering on
// field. cursorOf extracts the (value, id) cursor from a row.
func NewGormSource[T any](db *gorm.DB, table, field string, cursorOf func(T) Cursor) (*GormSource[T], error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	if table == "" || field == "" {
		return nil, fmt.Errorf("table and field are required")
	}
	if cursorOf == nil {
		return nil, fmt.Errorf("cursorOf is required")
	}
	return &GormSource[T]{db: db, table: table, field: field, cursorOf: cursorOf}, nil
}

// FetchPage runs the page query with a limit+1 probe. The extra row
// only decides HasMore and is never returned.
func (s *GormSource[T]) FetchPage(ctx context.Context, q Query) (Page[T], error) {
	if q.Limit <= 0 {
		return Page[T]{}, fmt.Errorf("limit must be positive")
	}

	tx := s.db.WithContext(ctx).Table(s.table)
	if q.Term != "" {
		tx = tx.Where(
			fmt.Sprintf("%s >= ? AND %s < ?", s.field, s.field),
			q.Term, q.Term+PrefixUpperBound,
		)
	}
	if q.StartAfter != nil {
		tx = tx.Where(
			fmt.Sprintf("(%s, id) > (?, ?)", s.field),
			q.StartAfter.Value, q.StartAfter.ID,
		)
	}

	var rows []T
	err := tx.Order(fmt.Sprintf("%s ASC, id ASC", s.field)).
		Limit(q.Limit + 1).
		Find(&rows).Error
	if err != nil {
		return Page[T]{}, fmt.Errorf("fetching %s page: %w", s.table, err)
	}

	page := Page[T]{HasMore: len(rows) > q.Limit}
	if page.HasMore {
		rows = rows[:q.Limit]
	}
	page.Items = rows
	if len(rows) > 0 {
		last := s.cursorOf(rows[len(rows)-1])
		page.Last = &last
	}
	return page, nil
}
