package query

import "testing"

func TestParseTagPredicate(t *testing.T) {
	cases := []struct {
		raw      string
		name     string
		operator string
		value    string
		hasValue bool
		isNum    bool
	}{
		{raw: "age>3", name: "age", operator: ">", value: "3", hasValue: true, isNum: true},
		{raw: "count<=10", name: "count", operator: "<=", value: "10", hasValue: true, isNum: true},
		{raw: "rating!=4.5", name: "rating", operator: "!=", value: "4.5", hasValue: true, isNum: true},
		{raw: "city=berlin", name: "city", operator: "=", value: "berlin", hasValue: true},
		{raw: "namelikepart", name: "name", operator: "like", value: "part", hasValue: true},
		{raw: "status", name: "status"},
		{raw: "color:red", name: "color:red"},
		{raw: "a=b=c", name: "a", operator: "=", value: "b=c", hasValue: true},
		{raw: "x<", name: "x<"},
		{raw: "=5", name: "=5"},
		{raw: "", name: ""},
	}

	for _, tc := range cases {
		p := ParseTagPredicate(tc.raw)
		if p.Name() != tc.name {
			t.Errorf("ParseTagPredicate(%q).Name() = %q, want %q", tc.raw, p.Name(), tc.name)
		}
		if p.Operator() != tc.operator {
			t.Errorf("ParseTagPredicate(%q).Operator() = %q, want %q", tc.raw, p.Operator(), tc.operator)
		}
		if p.Value() != tc.value {
			t.Errorf("ParseTagPredicate(%q).Value() = %q, want %q", tc.raw, p.Value(), tc.value)
		}
		if p.HasValue() != tc.hasValue {
			t.Errorf("ParseTagPredicate(%q).HasValue() = %v, want %v", tc.raw, p.HasValue(), tc.hasValue)
		}
		if p.IsNumeric() != tc.isNum {
			t.Errorf("ParseTagPredicate(%q).IsNumeric() = %v, want %v", tc.raw, p.IsNumeric(), tc.isNum)
		}
	}
}

func TestParseTagPredicate_FirstOperatorWins(t *testing.T) {
	p := ParseTagPredicate("a<=b>c")

	if p.Name() != "a" || p.Operator() != "<=" || p.Value() != "b>c" {
		t.Errorf("got name=%q op=%q value=%q, want a <= b>c", p.Name(), p.Operator(), p.Value())
	}
}

func TestMatches_Numeric(t *testing.T) {
	p := ParseTagPredicate("age>3")

	if !p.Matches("5") {
		t.Error("age>3 should match 5")
	}
	if p.Matches("2") {
		t.Error("age>3 should not match 2")
	}
	if p.Matches("3") {
		t.Error("age>3 should not match 3")
	}
}

func TestMatches_NumericFallsBackToString(t *testing.T) {
	// Non-numeric tag value against a numeric predicate compares as strings.
	p := ParseTagPredicate("age>3")

	if !p.Matches("banana") {
		t.Error(`age>3 should match "banana" under string comparison`)
	}
}

func TestMatches_BareNameMatchesAnything(t *testing.T) {
	p := ParseTagPredicate("status")

	if !p.Matches("") || !p.Matches("whatever") {
		t.Error("bare name predicate should match any value")
	}
}

func TestMatches_Like(t *testing.T) {
	p := ParseTagPredicate("citylikeber")

	if !p.Matches("berlin") {
		t.Error("like predicate should substring-match")
	}
	if p.Matches("munich") {
		t.Error("like predicate matched a non-substring")
	}
}
