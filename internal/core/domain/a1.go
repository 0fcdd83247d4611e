package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// ColumnLetter converts a 0-based column index to A1 letters (0 -> A, 26 -> AA).
// Negative indexes return an empty string.
func ColumnLetter(index int) string {
	if index < 0 {
		return ""
	}
	var b []byte
	for n := index + 1; n > 0; n = (n - 1) / 26 {
		b = append([]byte{byte('A' + (n-1)%26)}, b...)
	}
	return string(b)
}

// ColumnIndex converts A1 column letters to a 0-based index.
func ColumnIndex(letters string) (int, error) {
	letters = strings.ToUpper(strings.TrimSpace(letters))
	if letters == "" {
		return 0, fmt.Errorf("%w: empty column", ErrInvalidInput)
	}
	n := 0
	for _, r := range letters {
		if r < 'A' || r > 'Z' {
			return 0, fmt.Errorf("%w: column %q", ErrInvalidInput, letters)
		}
		n = n*26 + int(r-'A'+1)
	}
	return n - 1, nil
}

// QuoteSheet quotes a sheet name for use in A1 notation.
func QuoteSheet(sheet string) string {
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
}

// SheetRange addresses a whole sheet.
func SheetRange(sheet string) string {
	return QuoteSheet(sheet)
}

// CellAddress returns the A1 address of a single cell, e.g. 'Daily Plan'!C12.
// col is 0-based, row is the 1-based sheet row.
func CellAddress(sheet string, col, row int) string {
	return fmt.Sprintf("%s!%s%d", QuoteSheet(sheet), ColumnLetter(col), row)
}

// CellWrite is a single cell value destined for an A1 address.
type CellWrite struct {
	Range string
	Value string
}

// RangeStartRow returns the 1-based row of the first cell of an A1 range,
// e.g. 7 for 'Daily Plan'!A7:C7.
func RangeStartRow(rng string) (int, error) {
	cell := rng
	if i := strings.LastIndex(cell, "!"); i >= 0 {
		cell = cell[i+1:]
	}
	if i := strings.Index(cell, ":"); i >= 0 {
		cell = cell[:i]
	}
	digits := strings.TrimLeft(strings.ToUpper(cell), "ABCDEFGHIJKLMNOPQRSTUVWXYZ")
	row, err := strconv.Atoi(digits)
	if err != nil || row < 1 {
		return 0, fmt.Errorf("%w: range %q", ErrInvalidInput, rng)
	}
	return row, nil
}
