package cellgrid

import "fmt"

// RunnableSheet provides a chainable interface for sheet operations.
// wraps a Sheet, addresses cells by their A1 names, and tracks errors
// internally so a chain can be assembled without checking every call.
type RunnableSheet struct {
	sheet   *Sheet
	err     error
	printLn func(string)
}

// NewRunnableSheet creates a new RunnableSheet. printLn is required and
// will be used for all logging operations (Log, CheckError)
func NewRunnableSheet(printLn func(string)) *RunnableSheet {
	return &RunnableSheet{
		sheet:   NewSheet(),
		printLn: printLn,
	}
}

func (r *RunnableSheet) resolve(address string) (Position, bool) {
	pos := PositionFromString(address)
	if !pos.IsValid() {
		r.err = &InvalidPositionError{Pos: pos}
		return pos, false
	}
	return pos, true
}

// Set assigns text to a cell (chainable)
func (r *RunnableSheet) Set(address string, text string) *RunnableSheet {
	if r.err != nil {
		return r // no-op if there's already an error
	}
	pos, ok := r.resolve(address)
	if !ok {
		return r
	}
	r.err = r.sheet.SetCell(pos, text)
	return r
}

// Clear empties a cell (chainable)
func (r *RunnableSheet) Clear(address string) *RunnableSheet {
	if r.err != nil {
		return r // no-op if there's already an error
	}
	pos, ok := r.resolve(address)
	if !ok {
		return r
	}
	r.err = r.sheet.ClearCell(pos)
	return r
}

// InsertRows inserts empty rows (chainable)
func (r *RunnableSheet) InsertRows(before, count int) *RunnableSheet {
	if r.err != nil {
		return r // no-op if there's already an error
	}
	r.err = r.sheet.InsertRows(before, count)
	return r
}

// InsertCols inserts empty columns (chainable)
func (r *RunnableSheet) InsertCols(before, count int) *RunnableSheet {
	if r.err != nil {
		return r // no-op if there's already an error
	}
	r.err = r.sheet.InsertCols(before, count)
	return r
}

// DeleteRows deletes rows (chainable)
func (r *RunnableSheet) DeleteRows(first, count int) *RunnableSheet {
	if r.err != nil {
		return r // no-op if there's already an error
	}
	r.sheet.DeleteRows(first, count)
	return r
}

// DeleteCols deletes columns (chainable)
func (r *RunnableSheet) DeleteCols(first, count int) *RunnableSheet {
	if r.err != nil {
		return r // no-op if there's already an error
	}
	r.sheet.DeleteCols(first, count)
	return r
}

// Value is a helper to get a single computed value from the chain.
// example: v := NewRunnableSheet(printLn).Set("A1", "10").Set("A2", "=A1*2").Value("A2")
func (r *RunnableSheet) Value(address string) Primitive {
	if r.err != nil {
		return nil
	}
	pos, ok := r.resolve(address)
	if !ok {
		return nil
	}
	cell, err := r.sheet.GetCell(pos)
	if err != nil {
		r.err = err
		return nil
	}
	if cell == nil {
		return nil
	}
	return cell.GetValue()
}

// Text returns a cell's stored text
func (r *RunnableSheet) Text(address string) string {
	if r.err != nil {
		return ""
	}
	pos, ok := r.resolve(address)
	if !ok {
		return ""
	}
	cell, err := r.sheet.GetCell(pos)
	if err != nil {
		r.err = err
		return ""
	}
	if cell == nil {
		return ""
	}
	return cell.GetText()
}

// Log logs the value of a cell using the provided printLn function (chainable)
func (r *RunnableSheet) Log(address string) *RunnableSheet {
	if r.err != nil {
		return r // no-op if there's already an error
	}

	value := r.Value(address)
	if r.err != nil {
		return r
	}

	var output string
	if value == nil {
		output = fmt.Sprintf("%s: <empty>", address)
	} else {
		output = fmt.Sprintf("%s: %v", address, value)
	}

	r.printLn(output)
	return r
}

// CheckError logs the current error state using the printLn function (chainable)
func (r *RunnableSheet) CheckError() *RunnableSheet {
	if r.err != nil {
		r.printLn(fmt.Sprintf("ERROR: %v", r.err))
	} else {
		r.printLn("No errors")
	}
	return r
}

// Error returns the current error state
func (r *RunnableSheet) Error() error {
	return r.err
}

// Reset clears the error state (chainable)
func (r *RunnableSheet) Reset() *RunnableSheet {
	r.err = nil
	return r
}

// Must panics if there's an error (chainable). useful for ensuring
// critical operations succeed
func (r *RunnableSheet) Must() *RunnableSheet {
	if r.err != nil {
		panic(r.err)
	}
	return r
}

// Then allows conditional execution based on current error state
func (r *RunnableSheet) Then(fn func(*RunnableSheet) *RunnableSheet) *RunnableSheet {
	if r.err != nil {
		return r // skip if there's an error
	}
	return fn(r)
}

// OnError allows error handling in the chain
func (r *RunnableSheet) OnError(fn func(error) error) *RunnableSheet {
	if r.err != nil {
		r.err = fn(r.err)
	}
	return r
}

// Sheet returns the underlying sheet. use with caution as it bypasses
// error tracking.
func (r *RunnableSheet) Sheet() *Sheet {
	return r.sheet
}
