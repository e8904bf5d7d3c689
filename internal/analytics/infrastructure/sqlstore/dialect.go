package sqlstore

import (
	"fmt"
	"strings"

	"dstech-dashboard/internal/platform/database"
)

// selectQuery accumulates WHERE conditions and their arguments.
type selectQuery struct {
	dialect    database.Dialect
	base       string
	conditions []string
	args       []any
	suffix     string
}

// where appends a condition whose single %s is replaced by the placeholder
// of arg.
func (q *selectQuery) where(cond string, arg any) {
	q.args = append(q.args, arg)
	q.conditions = append(q.conditions, fmt.Sprintf(cond, q.dialect.Placeholder(len(q.args))))
}

func (q *selectQuery) String() string {
	var b strings.Builder
	b.WriteString(q.base)
	if len(q.conditions) > 0 {
		b.WriteString("\nWHERE ")
		b.WriteString(strings.Join(q.conditions, " AND "))
	}
	if q.suffix != "" {
		b.WriteString("\n")
		b.WriteString(q.suffix)
	}
	return b.String()
}
