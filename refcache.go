package cellgrid

import "github.com/emirpasic/gods/maps/treemap"

// CellSlot is a shared, mutable position holder. Every AST leaf that
// mentions the same address within one formula aliases the same slot, so a
// structural edit renames a reference once for all leaves. A deleted slot
// stands for a reference into removed rows or columns; it evaluates to
// #REF! and rebuilds to the literal #REF!.
type CellSlot struct {
	pos     Position
	deleted bool
}

// Position returns the current address the slot points at. Meaningless for
// deleted slots.
func (s *CellSlot) Position() Position {
	return s.pos
}

// IsDeleted reports whether the referenced cell was removed by a
// structural edit.
func (s *CellSlot) IsDeleted() bool {
	return s.deleted
}

// CellRefCache owns the slots of one formula, keyed by row then column in
// ordered maps so lookup is O(log n) and iteration yields ascending
// (row, col) order. The AST borrows the slots; the cache is the single
// writer during structural edits.
type CellRefCache struct {
	rows *treemap.Map // int row -> *treemap.Map of int col -> *CellSlot
}

// NewCellRefCache creates an empty cache
func NewCellRefCache() *CellRefCache {
	return &CellRefCache{rows: treemap.NewWithIntComparator()}
}

// GetOrInsert returns the slot for a position, creating a live slot on
// first sight of the address.
func (c *CellRefCache) GetOrInsert(pos Position) *CellSlot {
	var cols *treemap.Map
	if v, found := c.rows.Get(pos.Row); found {
		cols = v.(*treemap.Map)
	} else {
		cols = treemap.NewWithIntComparator()
		c.rows.Put(pos.Row, cols)
	}

	if v, found := cols.Get(pos.Col); found {
		return v.(*CellSlot)
	}

	slot := &CellSlot{pos: pos}
	cols.Put(pos.Col, slot)
	return slot
}

// HandleInsertedRows shifts every reference at or below the insertion point
// down by count rows. Returns how many slots were renamed.
func (c *CellRefCache) HandleInsertedRows(before, count int) int {
	renamed := 0

	// descending, so re-keying never lands on a not-yet-moved entry
	for _, row := range c.rowKeysDescendingFrom(before) {
		v, _ := c.rows.Get(row)
		cols := v.(*treemap.Map)

		cols.Each(func(_ interface{}, value interface{}) {
			slot := value.(*CellSlot)
			if !slot.deleted {
				slot.pos.Row = row + count
				renamed++
			}
		})

		c.rows.Remove(row)
		c.rows.Put(row+count, cols)
	}

	return renamed
}

// HandleInsertedCols shifts every reference at or right of the insertion
// point by count columns. Returns how many slots were renamed.
func (c *CellRefCache) HandleInsertedCols(before, count int) int {
	renamed := 0

	c.rows.Each(func(_ interface{}, v interface{}) {
		cols := v.(*treemap.Map)

		for _, col := range colKeysDescendingFrom(cols, before) {
			cv, _ := cols.Get(col)
			slot := cv.(*CellSlot)

			if !slot.deleted {
				slot.pos.Col = col + count
				renamed++
			}

			cols.Remove(col)
			cols.Put(col+count, slot)
		}
	})

	return renamed
}

// HandleDeletedRows clears every reference into the deleted band and shifts
// references below it up by count rows. Returns (deleted, renamed) slot
// counts; already-deleted slots count toward neither.
func (c *CellRefCache) HandleDeletedRows(first, count int) (int, int) {
	deleted := 0
	renamed := 0

	var toDelete, toRename []int
	it := c.rows.Iterator()
	for it.End(); it.Prev(); {
		row := it.Key().(int)
		if row < first {
			break
		}
		if row >= first+count {
			toRename = append(toRename, row)
		} else {
			toDelete = append(toDelete, row)
		}
	}

	for _, row := range toDelete {
		v, _ := c.rows.Get(row)
		v.(*treemap.Map).Each(func(_ interface{}, value interface{}) {
			slot := value.(*CellSlot)
			if !slot.deleted {
				slot.deleted = true
				deleted++
			}
		})
		c.rows.Remove(row)
	}

	// ascending, so the downshift never collides with a pending entry
	for i := len(toRename) - 1; i >= 0; i-- {
		row := toRename[i]
		v, _ := c.rows.Get(row)
		cols := v.(*treemap.Map)

		cols.Each(func(_ interface{}, value interface{}) {
			slot := value.(*CellSlot)
			if !slot.deleted {
				slot.pos.Row = row - count
				renamed++
			}
		})

		c.rows.Remove(row)
		c.rows.Put(row-count, cols)
	}

	return deleted, renamed
}

// HandleDeletedCols clears every reference into the deleted band and shifts
// references right of it left by count columns. Returns (deleted, renamed)
// slot counts.
func (c *CellRefCache) HandleDeletedCols(first, count int) (int, int) {
	deleted := 0
	renamed := 0

	var emptyRows []int

	c.rows.Each(func(rowKey interface{}, v interface{}) {
		cols := v.(*treemap.Map)

		var toDelete, toRename []int
		it := cols.Iterator()
		for it.End(); it.Prev(); {
			col := it.Key().(int)
			if col < first {
				break
			}
			if col >= first+count {
				toRename = append(toRename, col)
			} else {
				toDelete = append(toDelete, col)
			}
		}

		for _, col := range toDelete {
			cv, _ := cols.Get(col)
			slot := cv.(*CellSlot)
			if !slot.deleted {
				slot.deleted = true
				deleted++
			}
			cols.Remove(col)
		}

		for i := len(toRename) - 1; i >= 0; i-- {
			col := toRename[i]
			cv, _ := cols.Get(col)
			slot := cv.(*CellSlot)
			if !slot.deleted {
				slot.pos.Col = col - count
				renamed++
			}
			cols.Remove(col)
			cols.Put(col-count, slot)
		}

		if cols.Empty() {
			emptyRows = append(emptyRows, rowKey.(int))
		}
	})

	for _, row := range emptyRows {
		c.rows.Remove(row)
	}

	return deleted, renamed
}

// GetReferencedCells yields all live referenced positions in ascending
// (row, col) order.
func (c *CellRefCache) GetReferencedCells() []Position {
	var result []Position
	c.rows.Each(func(rowKey interface{}, v interface{}) {
		v.(*treemap.Map).Each(func(colKey interface{}, _ interface{}) {
			result = append(result, Position{Row: rowKey.(int), Col: colKey.(int)})
		})
	})
	return result
}

func (c *CellRefCache) rowKeysDescendingFrom(first int) []int {
	var keys []int
	it := c.rows.Iterator()
	for it.End(); it.Prev(); {
		row := it.Key().(int)
		if row < first {
			break
		}
		keys = append(keys, row)
	}
	return keys
}

func colKeysDescendingFrom(cols *treemap.Map, first int) []int {
	var keys []int
	it := cols.Iterator()
	for it.End(); it.Prev(); {
		col := it.Key().(int)
		if col < first {
			break
		}
		keys = append(keys, col)
	}
	return keys
}
