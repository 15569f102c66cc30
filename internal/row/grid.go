package row

import "strings"

// Parse turns a sheet grid into rows. Line 0 is the header and is ignored;
// line i becomes Position i+1. Blank lines still consume a position.
func Parse(grid [][]string) []Row {
	if len(grid) < 2 {
		return nil
	}
	rows := make([]Row, 0, len(grid)-1)
	for i, line := range grid[1:] {
		r := Row{Position: i + 2}
		for c := 0; c < TotalCols; c++ {
			if c < len(line) {
				r.Set(Field(c), strings.TrimSpace(line[c]))
			}
		}
		if r.Blank() {
			continue
		}
		rows = append(rows, r)
	}
	return rows
}

// Values serialises r into the 15 cells of its sheet line.
func Values(r Row) []string {
	out := make([]string, TotalCols)
	for c := 0; c < TotalCols; c++ {
		out[c] = r.Get(Field(c))
	}
	return out
}

// ColumnLetter returns the A1 column letter for a 1-based column number.
func ColumnLetter(n int) string {
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}
