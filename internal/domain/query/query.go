// Package query holds the parsed representation of a search string and the
// codec between the two forms. A query is terms, exact phrases, tag
// expressions, filters, and the resolved target entity types.
//
// Parsing fails open everywhere: an unterminated quote, bracket, or brace
// simply does not match its pattern and the text falls through to the plain
// terms. No input string is a parse error.
package query

import (
	"regexp"
	"sort"
	"strings"

	"github.com/folioworks/folio/internal/domain/entity"
)

// TypeFilter is the reserved filter key that narrows the target entity types.
const TypeFilter = "type"

var (
	exactPattern  = regexp.MustCompile(`"(.*?)"`)
	tagPattern    = regexp.MustCompile(`\[(.*?)\]`)
	filterPattern = regexp.MustCompile(`\{(.*?)\}`)
)

// Query is a parsed search string. Immutable after construction.
type Query struct {
	terms   []string
	exacts  []string
	tags    []string
	filters map[string]string
	types   []entity.Type
}

// Parse builds a Query from a raw search string.
//
// Extraction order matters: quoted phrases, then [tag] expressions, then
// {filter} clauses are cut out of the working string before the remainder is
// split into plain terms, so their contents never leak into the terms.
// defaults supplies the target types when the string carries no type filter;
// nil or empty means the full type universe.
func Parse(raw string, defaults []entity.Type) Query {
	q := Query{filters: map[string]string{}}

	working := exactPattern.ReplaceAllStringFunc(raw, func(m string) string {
		if inner := m[1 : len(m)-1]; inner != "" {
			q.exacts = append(q.exacts, inner)
		}
		return " "
	})
	working = tagPattern.ReplaceAllStringFunc(working, func(m string) string {
		if inner := m[1 : len(m)-1]; inner != "" {
			q.tags = append(q.tags, inner)
		}
		return " "
	})
	working = filterPattern.ReplaceAllStringFunc(working, func(m string) string {
		key, value, _ := strings.Cut(m[1:len(m)-1], ":")
		if key != "" {
			q.filters[key] = value
		}
		return " "
	})

	for _, token := range strings.Fields(working) {
		q.terms = append(q.terms, token)
	}

	q.types = resolveTypes(q.filters, defaults)
	return q
}

// New builds a Query from already-structured parts, as submitted by the
// advanced search form. Semantics match Parse: the type filter wins over
// typeTokens, unknown types are dropped, filters with empty keys ignored.
func New(terms, exacts, tags []string, filters map[string]string, typeTokens []string) Query {
	q := Query{filters: map[string]string{}}
	for _, t := range terms {
		if t != "" {
			q.terms = append(q.terms, t)
		}
	}
	for _, e := range exacts {
		if e != "" {
			q.exacts = append(q.exacts, e)
		}
	}
	for _, t := range tags {
		if t != "" {
			q.tags = append(q.tags, t)
		}
	}
	for k, v := range filters {
		if k != "" {
			q.filters[k] = v
		}
	}
	if _, hasTypeFilter := q.filters[TypeFilter]; !hasTypeFilter && len(typeTokens) > 0 {
		q.filters[TypeFilter] = strings.Join(typeTokens, "|")
	}
	q.types = resolveTypes(q.filters, nil)
	return q
}

// resolveTypes fixes the target type set once at construction time.
func resolveTypes(filters map[string]string, defaults []entity.Type) []entity.Type {
	if v, ok := filters[TypeFilter]; ok && v != "" {
		return entity.Resolve(strings.Split(v, "|"))
	}
	if len(defaults) > 0 {
		valid := defaults[:0:0]
		for _, t := range defaults {
			if t.IsValid() {
				valid = append(valid, t)
			}
		}
		if len(valid) > 0 {
			return valid
		}
	}
	return append([]entity.Type(nil), entity.All...)
}

// Terms returns the bare keywords, prefix-matched at query time.
func (q *Query) Terms() []string { return q.terms }

// Exacts returns the exact phrases, substring-matched against name and body.
func (q *Query) Exacts() []string { return q.exacts }

// Tags returns the raw, unparsed tag clauses.
func (q *Query) Tags() []string { return q.tags }

// Filters returns the filter key/value pairs. An empty value means the
// filter is present without an argument.
func (q *Query) Filters() map[string]string { return q.filters }

// Filter returns one filter value and whether the key is present.
func (q *Query) Filter(key string) (string, bool) {
	v, ok := q.filters[key]
	return v, ok
}

// Types returns the resolved target entity types. Always a subset of the
// type universe; may legitimately be empty.
func (q *Query) Types() []entity.Type { return q.types }

// IsEmpty reports whether the query carries no clause of any kind.
func (q *Query) IsEmpty() bool {
	return len(q.terms) == 0 && len(q.exacts) == 0 && len(q.tags) == 0 && len(q.filters) == 0
}

// String serializes the query back to its text form: plain terms, then
// "phrase", [tag], and {key}/{key:value} clauses. Filters are emitted in
// sorted key order so the output is canonical; parsing it back yields the
// same structured fields (type resolution aside, which depends on caller
// context rather than the string).
func (q *Query) String() string {
	parts := make([]string, 0, len(q.terms)+len(q.exacts)+len(q.tags)+len(q.filters))
	parts = append(parts, q.terms...)
	for _, e := range q.exacts {
		parts = append(parts, `"`+e+`"`)
	}
	for _, t := range q.tags {
		parts = append(parts, "["+t+"]")
	}
	keys := make([]string, 0, len(q.filters))
	for k := range q.filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if v := q.filters[k]; v != "" {
			parts = append(parts, "{"+k+":"+v+"}")
		} else {
			parts = append(parts, "{"+k+"}")
		}
	}
	return strings.Join(parts, " ")
}
