package repository

import (
	"fmt"
	"strings"
)

// whereBuilder accumulates equality clauses with positional arguments.
type whereBuilder struct {
	clauses []string
	args    []any
}

func newWhere() *whereBuilder {
	return &whereBuilder{}
}

func (w *whereBuilder) add(column string, value any) {
	w.args = append(w.args, value)
	w.clauses = append(w.clauses, fmt.Sprintf("%s=$%d", column, len(w.args)))
}

func (w *whereBuilder) sql() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}
