package cellgrid

import (
	"io"
	"strconv"
	"strings"
)

// Sheet is a ragged two-dimensional grid of cells. It owns every cell,
// keeps the dependency graph consistent across mutations, rejects cyclic
// formulas before installing them, and propagates cache invalidation to
// dependents. Rows and columns materialize on demand and shrink only
// through DeleteRows / DeleteCols.
//
// Single-threaded: the sheet supports no concurrent mutation.
type Sheet struct {
	cells [][]*Cell
}

// NewSheet creates an empty sheet
func NewSheet() *Sheet {
	return &Sheet{}
}

// SetCell assigns text to the cell at pos, growing the grid to fit. A
// leading '=' makes the text a formula: it is parsed, checked for cycles
// against the dependency graph, and stored in canonical rebuilt form.
// Anything else is plain text. On any rejection the sheet is left
// unchanged, beyond possibly materialized empty placeholder cells.
func (sh *Sheet) SetCell(pos Position, text string) error {
	if !pos.IsValid() {
		return &InvalidPositionError{Pos: pos}
	}

	cell := sh.ensureCell(pos)
	if cell.text == text {
		return nil
	}

	if len(text) > 0 && text[0] == formulaPrefix {
		formula, err := ParseFormula(text[1:])
		if err != nil {
			return err
		}

		// materialize every referenced cell so the graph has its vertices
		refs := formula.GetReferencedCells()
		outNew := make([]*Cell, 0, len(refs))
		for _, ref := range refs {
			outNew = append(outNew, sh.ensureCell(ref))
		}

		if sh.wouldCreateCycle(cell, outNew) {
			return &CircularDependencyError{Pos: pos}
		}

		sh.invalidateUpstream(cell)
		sh.disconnectOutEdges(cell)

		cell.formula = formula
		for _, target := range outNew {
			cell.outEdges.Add(target)
			target.inEdges.Add(cell)
		}
		cell.text = "=" + formula.Expression()
		return nil
	}

	sh.invalidateUpstream(cell)
	sh.disconnectOutEdges(cell)
	cell.formula = nil
	cell.text = text
	return nil
}

// GetCell returns the cell at pos, or nil if no cell exists there (never
// materialized, or destroyed by ClearCell or a row/column deletion).
func (sh *Sheet) GetCell(pos Position) (*Cell, error) {
	if !pos.IsValid() {
		return nil, &InvalidPositionError{Pos: pos}
	}
	return sh.cellAt(pos), nil
}

// ClearCell empties the cell at pos. The cell object survives as a blank
// placeholder while other formulas still reference it; otherwise it is
// destroyed.
func (sh *Sheet) ClearCell(pos Position) error {
	if !pos.IsValid() {
		return &InvalidPositionError{Pos: pos}
	}

	cell := sh.cellAt(pos)
	if cell == nil {
		return nil
	}

	sh.invalidateUpstream(cell)
	sh.disconnectOutEdges(cell)
	cell.formula = nil
	cell.text = ""
	cell.invalidate()

	if cell.inEdges.Empty() {
		sh.cells[pos.Row][pos.Col] = nil
	}
	return nil
}

// InsertRows inserts count empty rows at index before. Every formula
// reference at or below the insertion point is renamed in place through
// its shared slot; values are unaffected, so caches survive.
func (sh *Sheet) InsertRows(before, count int) error {
	if count <= 0 {
		return nil
	}
	if before < 0 {
		before = 0
	}
	if len(sh.cells)+count > MaxRows {
		return &TableTooBigError{Rows: len(sh.cells) + count, Cols: sh.maxColCount()}
	}

	sh.eachFormulaCell(func(cell *Cell) {
		if cell.formula.HandleInsertedRows(before, count) == ReferencesRenamedOnly {
			cell.text = "=" + cell.formula.Expression()
		}
	})

	if before < len(sh.cells) {
		updated := make([][]*Cell, 0, len(sh.cells)+count)
		updated = append(updated, sh.cells[:before]...)
		updated = append(updated, make([][]*Cell, count)...)
		updated = append(updated, sh.cells[before:]...)
		sh.cells = updated
	}
	return nil
}

// InsertCols inserts count empty columns at index before, symmetric to
// InsertRows. The limit check runs against the widest materialized row.
func (sh *Sheet) InsertCols(before, count int) error {
	if count <= 0 {
		return nil
	}
	if before < 0 {
		before = 0
	}
	if sh.maxColCount()+count > MaxCols {
		return &TableTooBigError{Rows: len(sh.cells), Cols: sh.maxColCount() + count}
	}

	sh.eachFormulaCell(func(cell *Cell) {
		if cell.formula.HandleInsertedCols(before, count) == ReferencesRenamedOnly {
			cell.text = "=" + cell.formula.Expression()
		}
	})

	for r, row := range sh.cells {
		if before >= len(row) {
			continue
		}
		updated := make([]*Cell, 0, len(row)+count)
		updated = append(updated, row[:before]...)
		updated = append(updated, make([]*Cell, count)...)
		updated = append(updated, row[before:]...)
		sh.cells[r] = updated
	}
	return nil
}

// DeleteRows destroys every cell in rows [first, first+count) and shifts
// the rows below up. Formulas referencing the deleted band degrade those
// references to #REF! and have their caches (and their dependents')
// dropped; formulas whose references merely moved keep their caches.
func (sh *Sheet) DeleteRows(first, count int) {
	if first < 0 || count <= 0 || first >= len(sh.cells) {
		return
	}
	last := min(len(sh.cells), first+count)

	for r := first; r < last; r++ {
		for _, cell := range sh.cells[r] {
			if cell != nil {
				sh.unlink(cell)
			}
		}
	}

	for r, row := range sh.cells {
		if r >= first && r < last {
			continue
		}
		for _, cell := range row {
			if cell == nil || cell.formula == nil {
				continue
			}
			result := cell.formula.HandleDeletedRows(first, count)
			if result == ReferencesChanged {
				sh.invalidateUpstream(cell)
			}
			if result != NothingChanged {
				cell.text = "=" + cell.formula.Expression()
			}
		}
	}

	sh.cells = append(sh.cells[:first], sh.cells[last:]...)
}

// DeleteCols destroys every cell in columns [first, first+count) and
// shifts the columns right of them left, symmetric to DeleteRows.
func (sh *Sheet) DeleteCols(first, count int) {
	if first < 0 || count <= 0 || first >= sh.maxColCount() {
		return
	}

	for _, row := range sh.cells {
		cut := min(len(row), first+count)
		for c := first; c < cut; c++ {
			if row[c] != nil {
				sh.unlink(row[c])
				row[c] = nil
			}
		}
	}

	sh.eachFormulaCell(func(cell *Cell) {
		result := cell.formula.HandleDeletedCols(first, count)
		if result == ReferencesChanged {
			sh.invalidateUpstream(cell)
		}
		if result != NothingChanged {
			cell.text = "=" + cell.formula.Expression()
		}
	})

	for r, row := range sh.cells {
		if first >= len(row) {
			continue
		}
		cut := min(len(row), first+count)
		sh.cells[r] = append(row[:first], row[cut:]...)
	}
}

// GetPrintableSize returns the tight bounding box of cells with non-empty
// text. Blank placeholder cells do not count.
func (sh *Sheet) GetPrintableSize() Size {
	size := Size{}
	for r, row := range sh.cells {
		for c, cell := range row {
			if cell == nil || cell.isEmpty() {
				continue
			}
			if r+1 > size.Rows {
				size.Rows = r + 1
			}
			if c+1 > size.Cols {
				size.Cols = c + 1
			}
		}
	}
	return size
}

// PrintValues writes computed cell values over the printable rectangle,
// tab-separated within a row, one row per line. Missing cells print empty.
func (sh *Sheet) PrintValues(out io.Writer) error {
	return sh.print(out, func(cell *Cell) string {
		return formatPrimitive(cell.GetValue())
	})
}

// PrintTexts writes stored cell texts over the printable rectangle in the
// same layout as PrintValues.
func (sh *Sheet) PrintTexts(out io.Writer) error {
	return sh.print(out, func(cell *Cell) string {
		return cell.GetText()
	})
}

func (sh *Sheet) print(out io.Writer, render func(*Cell) string) error {
	size := sh.GetPrintableSize()
	var sb strings.Builder

	for r := 0; r < size.Rows; r++ {
		sb.Reset()
		for c := 0; c < size.Cols; c++ {
			if c > 0 {
				sb.WriteByte(charTab)
			}
			if cell := sh.cellAt(Position{Row: r, Col: c}); cell != nil {
				sb.WriteString(render(cell))
			}
		}
		sb.WriteByte(charNewline)
		if _, err := io.WriteString(out, sb.String()); err != nil {
			return err
		}
	}
	return nil
}

func formatPrimitive(value Primitive) string {
	switch v := value.(type) {
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case string:
		return v
	case *SpreadsheetError:
		return v.String()
	default:
		return ""
	}
}

// maxColCount is the widest materialized row, the column analogue of
// len(sh.cells) for a ragged grid.
func (sh *Sheet) maxColCount() int {
	widest := 0
	for _, row := range sh.cells {
		if len(row) > widest {
			widest = len(row)
		}
	}
	return widest
}

// cellAt is the bounds-checked read the evaluator uses; nil means no cell
// exists at the position.
func (sh *Sheet) cellAt(pos Position) *Cell {
	if pos.Row < 0 || pos.Row >= len(sh.cells) {
		return nil
	}
	row := sh.cells[pos.Row]
	if pos.Col < 0 || pos.Col >= len(row) {
		return nil
	}
	return row[pos.Col]
}

// ensureCell grows the ragged grid to cover pos and materializes a blank
// cell there if none exists.
func (sh *Sheet) ensureCell(pos Position) *Cell {
	for len(sh.cells) <= pos.Row {
		sh.cells = append(sh.cells, nil)
	}
	row := sh.cells[pos.Row]
	for len(row) <= pos.Col {
		row = append(row, nil)
	}
	sh.cells[pos.Row] = row

	if row[pos.Col] == nil {
		row[pos.Col] = newCell(sh)
	}
	return row[pos.Col]
}

func (sh *Sheet) eachFormulaCell(fn func(*Cell)) {
	for _, row := range sh.cells {
		for _, cell := range row {
			if cell != nil && cell.formula != nil {
				fn(cell)
			}
		}
	}
}

// wouldCreateCycle reports whether installing a formula with out-edges
// outNew on target would make target reachable from its own references.
// The forward subgraph of the formula being replaced is pre-seeded into
// the visited set: nothing there can reach target while the graph is
// acyclic, so the search skips it.
func (sh *Sheet) wouldCreateCycle(target *Cell, outNew []*Cell) bool {
	for _, c := range outNew {
		if c == target {
			return true
		}
	}

	visited := make(map[*Cell]struct{})
	for _, v := range target.outEdges.Values() {
		collectReachable(v.(*Cell), visited)
	}

	stack := make([]*Cell, 0, len(outNew))
	for _, c := range outNew {
		if _, seen := visited[c]; !seen {
			stack = append(stack, c)
		}
	}

	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if c == target {
			return true
		}
		if _, seen := visited[c]; seen {
			continue
		}
		visited[c] = struct{}{}

		for _, v := range c.outEdges.Values() {
			stack = append(stack, v.(*Cell))
		}
	}
	return false
}

func collectReachable(c *Cell, visited map[*Cell]struct{}) {
	if _, seen := visited[c]; seen {
		return
	}
	visited[c] = struct{}{}
	for _, v := range c.outEdges.Values() {
		collectReachable(v.(*Cell), visited)
	}
}

// invalidateUpstream drops the memoized value of start and of every cell
// transitively reachable from it via in-edges. Descent stops at cells
// whose cache is already gone: their dependents went stale with them, so
// work is bounded by what was previously materialized.
func (sh *Sheet) invalidateUpstream(start *Cell) {
	queue := []*Cell{start}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]

		if !c.hasValue {
			continue
		}
		c.invalidate()

		for _, v := range c.inEdges.Values() {
			queue = append(queue, v.(*Cell))
		}
	}
}

// disconnectOutEdges detaches a cell from everything its formula
// references, ahead of replacing or dropping the formula.
func (sh *Sheet) disconnectOutEdges(cell *Cell) {
	for _, v := range cell.outEdges.Values() {
		v.(*Cell).inEdges.Remove(cell)
	}
	cell.outEdges.Clear()
}

// unlink scrubs both sides of a cell's adjacency before the cell is
// destroyed by a structural edit.
func (sh *Sheet) unlink(cell *Cell) {
	for _, v := range cell.outEdges.Values() {
		v.(*Cell).inEdges.Remove(cell)
	}
	for _, v := range cell.inEdges.Values() {
		v.(*Cell).outEdges.Remove(cell)
	}
	cell.outEdges.Clear()
	cell.inEdges.Clear()
}
