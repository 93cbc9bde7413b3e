// internal/docstore/filter.go
package docstore

// Filter is a closed set of query conditions. The dynamic operator
// objects of the wire protocol ({field: {$regex: ...}}, {$or: [...]})
// map onto these variants, which gives the matcher compile-time
// exhaustiveness instead of runtime shape-sniffing.
type Filter interface {
	filter()
}

// Eq matches documents whose field equals Value.
type Eq struct {
	Field string
	Value any
}

// Regex matches documents whose string field matches Pattern.
// Matching a non-string field is a programmer error (ErrBadFilter).
type Regex struct {
	Field           string
	Pattern         string
	CaseInsensitive bool
}

// Gte matches documents whose field is greater than or equal to Value.
// Supported value kinds: numbers, strings, and time.Time.
type Gte struct {
	Field string
	Value any
}

// In matches documents whose field equals any of Values.
type In struct {
	Field  string
	Values []any
}

// And matches documents satisfying every sub-filter. An empty And
// matches everything.
type And []Filter

// Or matches documents satisfying at least one sub-filter.
type Or []Filter

func (Eq) filter()    {}
func (Regex) filter() {}
func (Gte) filter()   {}
func (In) filter()    {}
func (And) filter()   {}
func (Or) filter()    {}

// Update describes a partial modification of one document.
// Set merge-assigns the listed fields; Inc adds to numeric fields,
// treating a missing field as zero.
type Update struct {
	Set Document
	Inc map[string]int
}
