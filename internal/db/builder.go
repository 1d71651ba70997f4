// Package db provides a small fluent builder for SQL SELECT plans. A plan
// is assembled incrementally by the query executor, the filter registry,
// and the permission predicate, then rendered to a statement plus its
// ordered argument list.
package db

import (
	"strconv"
	"strings"
)

type clause struct {
	sql  string
	args []any
}

// SelectBuilder accumulates the pieces of one SELECT statement. The zero
// value is not usable; start with NewSelect.
type SelectBuilder struct {
	table   string
	alias   string
	columns []string
	joins   []clause
	wheres  []clause
	orders  []clause
	limit   int
	offset  int
}

// NewSelect starts a plan over table, addressed by alias in every clause.
func NewSelect(table, alias string) *SelectBuilder {
	return &SelectBuilder{table: table, alias: alias, columns: []string{alias + ".*"}}
}

// Alias returns the table alias, for callers composing raw clauses.
func (b *SelectBuilder) Alias() string { return b.alias }

// Columns replaces the select list.
func (b *SelectBuilder) Columns(cols ...string) *SelectBuilder {
	b.columns = cols
	return b
}

// Join appends a join clause, given verbatim with its placeholders.
func (b *SelectBuilder) Join(join string, args ...any) *SelectBuilder {
	b.joins = append(b.joins, clause{sql: join, args: args})
	return b
}

// Where appends a condition; all conditions are AND-ed. A plan only ever
// narrows: there is no OR at the top level and no way to remove a condition.
func (b *SelectBuilder) Where(cond string, args ...any) *SelectBuilder {
	b.wheres = append(b.wheres, clause{sql: cond, args: args})
	return b
}

// WhereNever adds a condition no row satisfies. Used by actor-dependent
// filters when no actor is present: they match nothing instead of erroring.
func (b *SelectBuilder) WhereNever() *SelectBuilder {
	return b.Where("1 = 0")
}

// OrderBy appends an ordering expression; earlier calls take precedence.
func (b *SelectBuilder) OrderBy(expr string, args ...any) *SelectBuilder {
	b.orders = append(b.orders, clause{sql: expr, args: args})
	return b
}

// Limit caps the row count. Zero means no limit.
func (b *SelectBuilder) Limit(n int) *SelectBuilder {
	b.limit = n
	return b
}

// Offset skips leading rows. Only rendered together with a limit.
func (b *SelectBuilder) Offset(n int) *SelectBuilder {
	b.offset = n
	return b
}

// SQL renders the full statement and its ordered arguments.
func (b *SelectBuilder) SQL() (string, []any) {
	var sb strings.Builder
	var args []any

	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(b.columns, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(b.table)
	sb.WriteString(" AS ")
	sb.WriteString(b.alias)

	for _, j := range b.joins {
		sb.WriteString(" ")
		sb.WriteString(j.sql)
		args = append(args, j.args...)
	}

	args = b.renderWhere(&sb, args)

	if len(b.orders) > 0 {
		exprs := make([]string, len(b.orders))
		for i, o := range b.orders {
			exprs[i] = o.sql
			args = append(args, o.args...)
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(exprs, ", "))
	}

	if b.limit > 0 {
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.Itoa(b.limit))
		if b.offset > 0 {
			sb.WriteString(" OFFSET ")
			sb.WriteString(strconv.Itoa(b.offset))
		}
	}

	return sb.String(), args
}

// CountSQL renders a COUNT(*) variant of the plan: same joins and
// conditions, no select list, ordering, or windowing.
func (b *SelectBuilder) CountSQL() (string, []any) {
	var sb strings.Builder
	var args []any

	sb.WriteString("SELECT COUNT(*) FROM ")
	sb.WriteString(b.table)
	sb.WriteString(" AS ")
	sb.WriteString(b.alias)

	for _, j := range b.joins {
		sb.WriteString(" ")
		sb.WriteString(j.sql)
		args = append(args, j.args...)
	}

	args = b.renderWhere(&sb, args)
	return sb.String(), args
}

func (b *SelectBuilder) renderWhere(sb *strings.Builder, args []any) []any {
	if len(b.wheres) == 0 {
		return args
	}
	conds := make([]string, len(b.wheres))
	for i, w := range b.wheres {
		conds[i] = "(" + w.sql + ")"
		args = append(args, w.args...)
	}
	sb.WriteString(" WHERE ")
	sb.WriteString(strings.Join(conds, " AND "))
	return args
}

// likeEscaper doubles the characters LIKE treats specially, under ESCAPE '\'.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes a literal for use inside a LIKE pattern with ESCAPE '\'.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}
