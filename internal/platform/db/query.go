package db

import (
	"fmt"
	"strings"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ListQuery builds the filtered COUNT and page SELECT used by list endpoints.
// Clauses are joined with AND and use positional pgx placeholders.
type ListQuery struct {
	table   string
	cols    string
	where   string
	args    []interface{}
	idx     int
	orderBy string
}

func NewListQuery(table, cols string) *ListQuery {
	return &ListQuery{table: table, cols: cols, idx: 1}
}

// Idx returns the next available placeholder index.
func (q *ListQuery) Idx() int { return q.idx }

// Add appends a raw WHERE fragment (without leading "AND").
func (q *ListQuery) Add(clause string, args ...interface{}) {
	q.where += " AND " + clause
	q.args = append(q.args, args...)
	q.idx += len(args)
}

// Eq adds "column = $n".
func (q *ListQuery) Eq(column string, value interface{}) {
	q.Add(fmt.Sprintf("%s = $%d", column, q.idx), value)
}

// Contains adds a case-insensitive substring match over one or more columns,
// OR-ed together and sharing a single placeholder. LIKE wildcards in value
// match literally.
func (q *ListQuery) Contains(value string, columns ...string) {
	if len(columns) == 0 {
		return
	}
	clause := "("
	for i, col := range columns {
		if i > 0 {
			clause += " OR "
		}
		clause += fmt.Sprintf(`%s ILIKE $%d ESCAPE '\'`, col, q.idx)
	}
	clause += ")"
	q.Add(clause, "%"+likeEscaper.Replace(value)+"%")
}

func (q *ListQuery) OrderBy(orderBy string) { q.orderBy = orderBy }

func (q *ListQuery) CountSQL() string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE 1=1%s", q.table, q.where)
}

func (q *ListQuery) CountArgs() []interface{} { return q.args }

// DataSQL returns the page query with ORDER BY and LIMIT/OFFSET.
func (q *ListQuery) DataSQL() string {
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE 1=1%s", q.cols, q.table, q.where)
	if q.orderBy != "" {
		sql += " ORDER BY " + q.orderBy
	}
	sql += fmt.Sprintf(" LIMIT $%d OFFSET $%d", q.idx, q.idx+1)
	return sql
}

// DataArgs returns the filter args followed by limit and offset.
func (q *ListQuery) DataArgs(limit, offset int) []interface{} {
	result := make([]interface{}, len(q.args)+2)
	copy(result, q.args)
	result[len(q.args)] = limit
	result[len(q.args)+1] = offset
	return result
}
