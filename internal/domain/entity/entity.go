// Package entity defines the searchable entity types of the wiki and the
// per-type metadata the search subsystem needs: storage table, text field,
// and relevance weight.
package entity

// Type is a searchable entity type.
type Type string

// Entity type constants.
const (
	Bookshelf Type = "bookshelf"
	Book      Type = "book"
	Chapter   Type = "chapter"
	Page      Type = "page"
)

// All lists every searchable type, container-first.
var All = []Type{Bookshelf, Book, Chapter, Page}

// IsValid checks if the type is one of the supported values.
func (t Type) IsValid() bool {
	_, ok := descriptors[t]
	return ok
}

// Ref is a polymorphic entity reference: type discriminator plus row id.
// It stands in for a foreign key that spans four tables.
type Ref struct {
	Type Type
	ID   int64
}

// Content is the indexable text of one entity, as handed to the term indexer.
type Content struct {
	ID   int64
	Name string
	Text string
}

// Descriptor carries the storage-level metadata for one entity type.
type Descriptor struct {
	Type Type
	// Table is the entity's storage table.
	Table string
	// TextField is the column holding the entity's body text.
	TextField string
	// SearchFactor biases term scores so container matches can outrank
	// page matches across types.
	SearchFactor float64
	// HasBookID / HasChapterID report whether the table carries the
	// corresponding containment column, for scoped search.
	HasBookID    bool
	HasChapterID bool
}

var descriptors = map[Type]Descriptor{
	Bookshelf: {Type: Bookshelf, Table: "bookshelves", TextField: "description", SearchFactor: 1.5},
	Book:      {Type: Book, Table: "books", TextField: "description", SearchFactor: 1.4},
	Chapter:   {Type: Chapter, Table: "chapters", TextField: "description", SearchFactor: 1.3, HasBookID: true},
	Page:      {Type: Page, Table: "pages", TextField: "text", SearchFactor: 1.0, HasBookID: true, HasChapterID: true},
}

// Lookup returns the descriptor for a type.
func Lookup(t Type) (Descriptor, bool) {
	d, ok := descriptors[t]
	return d, ok
}

// ParseType resolves a type token. Unknown tokens report false.
func ParseType(token string) (Type, bool) {
	t := Type(token)
	if t.IsValid() {
		return t, true
	}
	return "", false
}

// Resolve maps type tokens to valid types, dropping unknown tokens and
// duplicates while preserving order. Unknown tokens never error: an input
// that resolves to nothing is a legitimate empty target set.
func Resolve(tokens []string) []Type {
	seen := make(map[Type]struct{}, len(tokens))
	var types []Type
	for _, token := range tokens {
		t, ok := ParseType(token)
		if !ok {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		types = append(types, t)
	}
	return types
}
