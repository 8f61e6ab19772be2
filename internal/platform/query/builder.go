// Package query builds parameterised SQL filter expressions from optional
// search criteria. All clauses AND together; absent criteria contribute
// nothing. The count and page queries share the same WHERE clause but run
// independently.
package query

import (
	"fmt"
)

// Builder accumulates WHERE clause fragments with positional arguments.
type Builder struct {
	table   string
	cols    string
	where   string
	args    []interface{}
	idx     int
	orderBy string
}

// New creates a Builder for the given table and select column list.
func New(table, cols string) *Builder {
	return &Builder{
		table: table,
		cols:  cols,
		idx:   1,
	}
}

// Idx returns the next available positional parameter index.
func (b *Builder) Idx() int { return b.idx }

// Add appends a raw WHERE clause fragment (without leading "AND").
func (b *Builder) Add(clause string, args ...interface{}) {
	b.where += " AND " + clause
	b.args = append(b.args, args...)
	b.idx += len(args)
}

// AddContains appends a case-insensitive substring match on a column.
func (b *Builder) AddContains(column, value string) {
	b.Add(fmt.Sprintf("%s ILIKE $%d", column, b.idx), "%"+EscapeLike(value)+"%")
}

// AddFullText appends a full-text match against a tsvector column.
func (b *Builder) AddFullText(tsvColumn, value string) {
	b.Add(fmt.Sprintf("%s @@ plainto_tsquery('simple', $%d)", tsvColumn, b.idx), value)
}

// OrderBy sets the ORDER BY clause (without the "ORDER BY" keyword).
func (b *Builder) OrderBy(orderBy string) {
	b.orderBy = orderBy
}

// CountSQL returns the count query SQL.
func (b *Builder) CountSQL() string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE 1=1%s", b.table, b.where)
}

// CountArgs returns the arguments for the count query.
func (b *Builder) CountArgs() []interface{} {
	return b.args
}

// DataSQL returns the page query SQL with ORDER BY and LIMIT/OFFSET.
func (b *Builder) DataSQL() string {
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE 1=1%s", b.cols, b.table, b.where)
	if b.orderBy != "" {
		sql += " ORDER BY " + b.orderBy
	}
	sql += fmt.Sprintf(" LIMIT $%d OFFSET $%d", b.idx, b.idx+1)
	return sql
}

// DataArgs returns the arguments for the page query (filter args + limit + offset).
func (b *Builder) DataArgs(limit, offset int) []interface{} {
	result := make([]interface{}, len(b.args)+2)
	copy(result, b.args)
	result[len(b.args)] = limit
	result[len(b.args)+1] = offset
	return result
}

// EscapeLike neutralises LIKE metacharacters in user input so a filter value
// of "100%" matches literally.
func EscapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
