package postgres

import (
	"fmt"
	"strings"
)

// query accumulates WHERE conditions with numbered placeholders.
type query struct {
	conds []string
	args  []any
}

func newQuery() *query {
	return &query{}
}

func (q *query) next(value any) string {
	q.args = append(q.args, value)
	return fmt.Sprintf("$%d", len(q.args))
}

// eq adds "column = value" unless value is empty.
func (q *query) eq(column, value string) {
	if value == "" {
		return
	}
	q.conds = append(q.conds, column+" = "+q.next(value))
}

// in adds "column IN (...)" unless values is empty.
func (q *query) in(column string, values []string) {
	if len(values) == 0 {
		return
	}
	marks := make([]string, 0, len(values))
	for _, v := range values {
		marks = append(marks, q.next(v))
	}
	q.conds = append(q.conds, column+" IN ("+strings.Join(marks, ", ")+")")
}

func (q *query) where() string {
	if len(q.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(q.conds, " AND ")
}
