package cellgrid

import "strings"

// HandlingResult tells the sheet what a structural edit did to a formula's
// references.
type HandlingResult int

const (
	// NothingChanged means no reference was touched.
	NothingChanged HandlingResult = iota

	// ReferencesRenamedOnly means references moved with the grid; the
	// formula's value is unaffected, only its text changed.
	ReferencesRenamedOnly

	// ReferencesChanged means at least one reference now points at removed
	// cells; the formula's value may differ and caches must be dropped.
	ReferencesChanged
)

// Formula is a built AST together with the reference cache its leaves
// alias. It evaluates against a sheet, rebuilds its canonical text, and
// absorbs row/column structural edits in O(affected references).
type Formula struct {
	root  *Node
	cache *CellRefCache
}

// ParseFormula lexes and parses an expression (without the leading '=')
// into a formula. Syntax failures and out-of-range cell names surface as
// *FormulaSyntaxError.
func ParseFormula(expression string) (*Formula, error) {
	tokens, err := NewLexer(expression).Tokenize()
	if err != nil {
		return nil, &FormulaSyntaxError{Expression: expression, Message: err.Error()}
	}

	builder := NewTreeBuilder()
	if err := NewParser(tokens, builder).Parse(); err != nil {
		return nil, &FormulaSyntaxError{Expression: expression, Message: err.Error()}
	}

	return builder.Build(), nil
}

// Evaluate computes the formula's value against a sheet, yielding a
// float64 or a *SpreadsheetError.
func (f *Formula) Evaluate(sh *Sheet) Primitive {
	return f.root.evaluate(sh)
}

// Expression rebuilds the canonical text, without the leading '='
func (f *Formula) Expression() string {
	var sb strings.Builder
	f.root.writeExpression(&sb)
	return sb.String()
}

// GetReferencedCells returns the live referenced positions in ascending
// (row, col) order.
func (f *Formula) GetReferencedCells() []Position {
	return f.cache.GetReferencedCells()
}

// HandleInsertedRows renames references after a row insertion
func (f *Formula) HandleInsertedRows(before, count int) HandlingResult {
	if f.cache.HandleInsertedRows(before, count) > 0 {
		return ReferencesRenamedOnly
	}
	return NothingChanged
}

// HandleInsertedCols renames references after a column insertion
func (f *Formula) HandleInsertedCols(before, count int) HandlingResult {
	if f.cache.HandleInsertedCols(before, count) > 0 {
		return ReferencesRenamedOnly
	}
	return NothingChanged
}

// HandleDeletedRows degrades references into the deleted rows to #REF! and
// renames the ones below them.
func (f *Formula) HandleDeletedRows(first, count int) HandlingResult {
	deleted, renamed := f.cache.HandleDeletedRows(first, count)
	if deleted > 0 {
		return ReferencesChanged
	}
	if renamed > 0 {
		return ReferencesRenamedOnly
	}
	return NothingChanged
}

// HandleDeletedCols degrades references into the deleted columns to #REF!
// and renames the ones right of them.
func (f *Formula) HandleDeletedCols(first, count int) HandlingResult {
	deleted, renamed := f.cache.HandleDeletedCols(first, count)
	if deleted > 0 {
		return ReferencesChanged
	}
	if renamed > 0 {
		return ReferencesRenamedOnly
	}
	return NothingChanged
}
