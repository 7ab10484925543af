package csv

import (
	"errors"
	"fmt"
	"io"

	"github.com/chop-dbhi/content-importer/profile"
	"github.com/rotisserie/eris"
)

// Source yields the rows of delimited text as records. The first row names
// the columns unless Header is false, in which case columns are named c0, c1
// and so on. Record indexes are the position of the row in the input, so
// with a header the first data row has index 1.
type Source struct {
	Delimiter byte
	Header    bool

	in     io.Reader
	sc     *Scanner
	header *profile.Header
}

// NewSource returns a comma separated source with a header row.
func NewSource(r io.Reader) *Source {
	return &Source{
		Delimiter: ',',
		Header:    true,
		in:        r,
	}
}

// Columns returns the column names once the first record has been read.
func (x *Source) Columns() []string {
	if x.header == nil {
		return nil
	}
	return x.header.Names()
}

func (x *Source) init() (profile.Record, error) {
	x.sc = NewScanner(x.in, x.Delimiter)

	row, err := x.sc.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, eris.Wrap(err, "csv: read header")
	}

	if x.Header {
		x.header = profile.NewHeader(row)
		return nil, nil
	}

	names := make([]string, len(row))
	for i := range row {
		names[i] = fmt.Sprintf("c%d", i)
	}
	x.header = profile.NewHeader(names)

	return x.header.Row(x.sc.LineNumber()-1, row), nil
}

// Next returns the next row. Malformed rows and rows with more fields than
// columns are returned as a *profile.ContentError; short rows leave their
// trailing fields absent.
func (x *Source) Next() (profile.Record, error) {
	if x.sc == nil {
		rec, err := x.init()
		if err != nil || rec != nil {
			return rec, err
		}
	}

	row, err := x.sc.Read()
	index := x.sc.LineNumber() - 1

	if err == io.EOF {
		return nil, io.EOF
	}

	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			return nil, &profile.ContentError{
				Index:   index,
				Message: perr.Error(),
				Err:     err,
			}
		}
		return nil, eris.Wrap(err, "csv: read row")
	}

	if n := len(x.header.Names()); len(row) > n {
		return nil, &profile.ContentError{
			Index:   index,
			Message: fmt.Sprintf("wrong number of fields: expected %d, got %d", n, len(row)),
			Err:     ErrExtraColumns,
		}
	}

	return x.header.Row(index, row), nil
}
