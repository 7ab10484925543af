package xlsx

import (
	"io"
	"strings"

	"github.com/chop-dbhi/content-importer/profile"
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// Options selects the sheet to read.
type Options struct {
	SheetIndex int    // default 0
	SheetName  string // if set, overrides SheetIndex
}

// Source yields the rows of one sheet as records. The first row names the
// columns; cells are read as their formatted text. Rows without any
// non-blank cell are skipped.
type Source struct {
	header *profile.Header
	rows   []*xlsx.Row
	pos    int
}

// OpenFile opens the workbook at path.
func OpenFile(path string, opts Options) (*Source, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}
	return newSource(f, opts)
}

// Open reads a whole workbook from r.
func Open(r io.Reader, opts Options) (*Source, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: read workbook")
	}

	f, err := xlsx.OpenBinary(b)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open workbook")
	}
	return newSource(f, opts)
}

func newSource(f *xlsx.File, opts Options) (*Source, error) {
	sheet, err := getSheet(f, opts)
	if err != nil {
		return nil, err
	}

	s := &Source{rows: sheet.Rows}

	// Header is the first non-blank row.
	for s.pos < len(s.rows) {
		cells := rowToStrings(s.rows[s.pos])
		s.pos++

		if !blankRow(cells) {
			s.header = profile.NewHeader(cells)
			break
		}
	}

	return s, nil
}

func getSheet(f *xlsx.File, opts Options) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("xlsx: sheet %q not found", opts.SheetName)
		}
		return sheet, nil
	}

	if opts.SheetIndex < 0 || opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("xlsx: sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(f.Sheets))
	}

	return f.Sheets[opts.SheetIndex], nil
}

// Columns returns the header names, or nil for an empty sheet.
func (s *Source) Columns() []string {
	if s.header == nil {
		return nil
	}
	return s.header.Names()
}

func (s *Source) Next() (profile.Record, error) {
	if s.header == nil {
		return nil, io.EOF
	}

	for s.pos < len(s.rows) {
		index := s.pos
		cells := rowToStrings(s.rows[index])
		s.pos++

		if blankRow(cells) {
			continue
		}

		return s.header.Row(index, cells), nil
	}

	return nil, io.EOF
}

func rowToStrings(row *xlsx.Row) []string {
	if row == nil {
		return nil
	}

	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}

func blankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
