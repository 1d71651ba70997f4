package index

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	got := Tokenize("Cats, cats! cats; dogs.", 1.0)

	want := map[string]float64{"Cats": 1, "cats": 2, "dogs": 1}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize = %v, want %v", got, want)
	}
}

func TestTokenize_Weight(t *testing.T) {
	got := Tokenize("alpha alpha beta", 2.5)

	want := map[string]float64{"alpha": 5.0, "beta": 2.5}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize = %v, want %v", got, want)
	}
}

func TestTokenize_Delimiters(t *testing.T) {
	got := Tokenize("a.b,c!d?e:f;g(h)i[j]k{l}m<n>o`p'q\"r\ts\nu", 1.0)

	if len(got) != 20 {
		t.Errorf("expected 20 distinct single-letter tokens, got %d: %v", len(got), got)
	}
	for token, score := range got {
		if len(token) != 1 || score != 1.0 {
			t.Errorf("unexpected token %q with score %v", token, score)
		}
	}
}

func TestTokenize_Empty(t *testing.T) {
	if got := Tokenize("", 1.0); len(got) != 0 {
		t.Errorf("Tokenize(\"\") = %v, want empty", got)
	}
	if got := Tokenize("  \n\t ", 1.0); len(got) != 0 {
		t.Errorf("Tokenize(whitespace) = %v, want empty", got)
	}
}
