package table

// Subset returns the sub-table restricted to the given row and column keys. A
// nil slice means no restriction on that axis. The result keeps the original
// relative order of t regardless of the order of the request, and repeated
// keys collapse. If any requested key is absent, a *MissingKeyError naming all
// of the absent keys is returned.
func (t *Table) Subset(rows, cols []string) (*Table, error) {
	rowPos, err := positions(Rows, t.rowIdx, len(t.rows), rows)
	if err != nil {
		return nil, err
	}
	colPos, err := positions(Columns, t.colIdx, len(t.cols), cols)
	if err != nil {
		return nil, err
	}

	return t.take(rowPos, colPos), nil
}

// DropRows returns a table without the given row keys. Keys that are not
// present are ignored.
func (t *Table) DropRows(keys []string) *Table {
	drop := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		drop[k] = struct{}{}
	}

	rowPos := make([]int, 0, len(t.rows))
	for i, k := range t.rows {
		if _, exists := drop[k]; !exists {
			rowPos = append(rowPos, i)
		}
	}

	return t.take(rowPos, nil)
}

// DropColumns returns a table without the given column keys. Keys that are not
// present are ignored.
func (t *Table) DropColumns(keys []string) *Table {
	drop := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		drop[k] = struct{}{}
	}

	colPos := make([]int, 0, len(t.cols))
	for j, k := range t.cols {
		if _, exists := drop[k]; !exists {
			colPos = append(colPos, j)
		}
	}

	return t.take(nil, colPos)
}

// positions maps requested keys onto sorted table positions. A nil request
// yields nil, meaning every position.
func positions(axis Axis, idx map[string]int, n int, keys []string) ([]int, error) {
	if keys == nil {
		return nil, nil
	}

	wanted := make([]bool, n)
	var missing []string
	for _, k := range keys {
		i, ok := idx[k]
		if !ok {
			missing = append(missing, k)
			continue
		}
		wanted[i] = true
	}
	if len(missing) > 0 {
		return nil, &MissingKeyError{Axis: axis, Keys: missing}
	}

	out := make([]int, 0, len(keys))
	for i, w := range wanted {
		if w {
			out = append(out, i)
		}
	}
	return out, nil
}

// take assembles a table from row and column positions. nil means all.
func (t *Table) take(rowPos, colPos []int) *Table {
	out := &Table{
		rows:   t.rows,
		rowIdx: t.rowIdx,
		cols:   t.cols,
		colIdx: t.colIdx,
	}

	if rowPos != nil {
		out.rows = make([]string, len(rowPos))
		out.rowIdx = make(map[string]int, len(rowPos))
		for i, p := range rowPos {
			out.rows[i] = t.rows[p]
			out.rowIdx[t.rows[p]] = i
		}
	}

	if colPos == nil {
		colPos = make([]int, len(t.cols))
		for j := range colPos {
			colPos[j] = j
		}
	} else {
		out.cols = make([]string, len(colPos))
		out.colIdx = make(map[string]int, len(colPos))
		for j, p := range colPos {
			out.cols[j] = t.cols[p]
			out.colIdx[t.cols[p]] = j
		}
	}

	out.data = make([]column, len(colPos))
	for j, p := range colPos {
		if rowPos == nil {
			out.data[j] = t.data[p]
			continue
		}
		out.data[j] = t.data[p].pick(rowPos)
	}

	return out
}
