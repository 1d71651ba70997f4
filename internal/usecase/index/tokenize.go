package index

import "strings"

// delimiters are the characters a text is split on. Tokens are counted
// exactly as they appear: no stemming, no case folding, no stop words.
const delimiters = " \n\t.,!?:;()[]{}<>`'\""

// Tokenize splits text into terms and scores each distinct term as its
// occurrence count times weight.
func Tokenize(text string, weight float64) map[string]float64 {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return strings.ContainsRune(delimiters, r)
	})
	scores := make(map[string]float64, len(fields))
	for _, token := range fields {
		scores[token] += weight
	}
	return scores
}
