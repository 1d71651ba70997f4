package query

import (
	"strconv"
	"strings"
)

// tagOperators are the recognized comparison operators, longest match first
// so that "<=" is never read as "<" followed by a stray "=".
var tagOperators = []string{"<=", ">=", "!=", "like", "=", "<", ">"}

// TagPredicate is a parsed tag clause: a tag name plus an optional
// comparison against the tag's value.
type TagPredicate struct {
	name     string
	operator string
	value    string
	hasValue bool
	numeric  float64
	isNum    bool
}

// ParseTagPredicate parses one raw tag clause such as "age>3", "status", or
// "city=berlin". The first operator occurrence wins; anything after it is
// the value ("a=b=c" compares tag "a" against "b=c"). A clause with no
// operator, an empty value, or an unrecognized operator degrades to a bare
// name-equality predicate with no value constraint. Parsing never fails.
func ParseTagPredicate(raw string) TagPredicate {
	for i := 0; i < len(raw); i++ {
		for _, op := range tagOperators {
			if !strings.HasPrefix(raw[i:], op) {
				continue
			}
			name := raw[:i]
			value := raw[i+len(op):]
			if name == "" || value == "" {
				return TagPredicate{name: raw}
			}
			p := TagPredicate{name: name, operator: op, value: value, hasValue: true}
			if op != "like" {
				if n, err := strconv.ParseFloat(value, 64); err == nil {
					p.numeric = n
					p.isNum = true
				}
			}
			return p
		}
	}
	return TagPredicate{name: raw}
}

// Name returns the tag name to match.
func (p TagPredicate) Name() string { return p.name }

// Operator returns the comparison operator; empty for a bare name predicate.
func (p TagPredicate) Operator() string { return p.operator }

// Value returns the comparison value.
func (p TagPredicate) Value() string { return p.value }

// HasValue reports whether the predicate constrains the tag value at all.
func (p TagPredicate) HasValue() bool { return p.hasValue }

// IsNumeric reports whether the comparison value parses as a number and the
// operator compares numerically.
func (p TagPredicate) IsNumeric() bool { return p.isNum }

// NumericValue returns the parsed numeric comparison value.
func (p TagPredicate) NumericValue() float64 { return p.numeric }

// Matches evaluates the predicate against one tag value. A numeric
// predicate compares numerically when the tag value is itself numeric and
// falls back to string comparison otherwise; it never errors.
func (p TagPredicate) Matches(value string) bool {
	if !p.hasValue {
		return true
	}
	if p.isNum {
		if n, err := strconv.ParseFloat(value, 64); err == nil {
			return compareNumeric(n, p.operator, p.numeric)
		}
	}
	return compareString(value, p.operator, p.value)
}

func compareNumeric(a float64, op string, b float64) bool {
	switch op {
	case "=":
		return a == b
	case "!=":
		return a != b
	case "<":
		return a < b
	case ">":
		return a > b
	case "<=":
		return a <= b
	case ">=":
		return a >= b
	default:
		return false
	}
}

func compareString(a, op, b string) bool {
	switch op {
	case "=":
		return a == b
	case "!=":
		return a != b
	case "like":
		return strings.Contains(a, b)
	case "<":
		return a < b
	case ">":
		return a > b
	case "<=":
		return a <= b
	case ">=":
		return a >= b
	default:
		return false
	}
}
