package cellgrid

import "github.com/emirpasic/gods/sets/hashset"

// Primitive represents basic cell value types.
// types:
//   - float64: numeric values (always the result of formula evaluation)
//   - string: text values
//   - *SpreadsheetError: error values (#REF!, #VALUE!, #DIV/0!)
type Primitive any

const (
	formulaPrefix = '='
	escapePrefix  = '\''
)

// Cell holds either plain text or a formula, a memoized value, and both
// sides of its dependency-graph adjacency. The sheet owns the cell; the
// edge sets hold plain handles to sibling cells and are scrubbed before a
// cell is destroyed.
type Cell struct {
	sheet   *Sheet
	text    string
	formula *Formula

	value    Primitive
	hasValue bool

	inEdges  *hashset.Set // cells whose formulas reference this cell
	outEdges *hashset.Set // cells this cell's formula references
}

func newCell(sheet *Sheet) *Cell {
	return &Cell{
		sheet:    sheet,
		inEdges:  hashset.New(),
		outEdges: hashset.New(),
	}
}

// GetText returns the stored text. For formula cells this is '=' followed
// by the canonical rebuilt expression.
func (c *Cell) GetText() string {
	return c.text
}

// GetValue returns the cell's value, computing and memoizing it on first
// use. Text cells yield their text with a leading escape apostrophe
// stripped; formula cells yield a float64 or a *SpreadsheetError. The
// sheet drops the memo whenever an input changes.
func (c *Cell) GetValue() Primitive {
	if c.hasValue {
		return c.value
	}

	if c.formula != nil {
		c.value = c.formula.Evaluate(c.sheet)
	} else if len(c.text) > 0 && c.text[0] == escapePrefix {
		c.value = c.text[1:]
	} else {
		c.value = c.text
	}

	c.hasValue = true
	return c.value
}

// GetReferencedCells returns the positions the cell's formula currently
// references, ascending by (row, col); nil for text cells.
func (c *Cell) GetReferencedCells() []Position {
	if c.formula == nil {
		return nil
	}
	return c.formula.GetReferencedCells()
}

func (c *Cell) invalidate() {
	c.value = nil
	c.hasValue = false
}

// isEmpty reports whether the cell is a blank placeholder. Empty cells
// exist only to serve as graph vertices and are excluded from the
// printable area.
func (c *Cell) isEmpty() bool {
	return c.text == "" && c.formula == nil
}
