package csv

import (
	"bufio"
	"fmt"
	"io"

	"github.com/rotisserie/eris"
)

var (
	ErrUnquotedField     = eris.New("csv: quote in unquoted field")
	ErrBareQuote         = eris.New("csv: bare quote in quoted field")
	ErrUnterminatedField = eris.New("csv: unterminated quoted field")
	ErrExtraColumns      = eris.New("csv: extra columns")
)

// ParseError locates a malformed field.
type ParseError struct {
	Line   int
	Column int
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Scanner reads RFC 4180 delimited text field by field, with a configurable
// separator. Each call to Scan advances to the next field; EndOfRecord
// reports whether the field ended its line. Records span a single line and
// blank lines are skipped.
type Scanner struct {
	sc *bufio.Scanner

	// ContinueOnError keeps scanning after a malformed field. The rest of
	// the offending line is skipped and Err reports the problem until the
	// next field is scanned.
	ContinueOnError bool

	sep byte

	// eor is true when the last field was terminated by the end of its line.
	eor bool

	// line counts non-blank lines, column is the 1-based field position.
	lineno int
	column int

	eof bool
	err error

	// Current line, last field and the unscanned remainder of the line.
	line  string
	token []byte
	data  []byte

	// pending is set when a separator ended the line so an empty final field follows.
	pending bool
}

// NewScanner returns a scanner reading fields separated by sep.
func NewScanner(r io.Reader, sep byte) *Scanner {
	return &Scanner{
		ContinueOnError: true,
		sc:              bufio.NewScanner(r),
		sep:             sep,
		eor:             true,
	}
}

// Line returns the line being scanned.
func (s *Scanner) Line() string {
	return s.line
}

// Text returns the last scanned field.
func (s *Scanner) Text() string {
	return string(s.token)
}

func (s *Scanner) LineNumber() int {
	return s.lineno
}

func (s *Scanner) ColumnNumber() int {
	return s.column
}

func (s *Scanner) EndOfRecord() bool {
	return s.eor
}

// Err returns the error of the last scanned field, io.EOF once input is
// exhausted, or nil.
func (s *Scanner) Err() error {
	if err := s.sc.Err(); err != nil {
		return err
	}
	if s.err != nil {
		return s.err
	}
	if s.eof {
		return io.EOF
	}
	return nil
}

func (s *Scanner) located(err error) error {
	if err == io.EOF {
		return err
	}
	return &ParseError{Line: s.lineno, Column: s.column, Err: err}
}

// Read returns the fields of the next record. Malformed fields are returned
// as a *ParseError and the remainder of their line is dropped.
func (s *Scanner) Read() ([]string, error) {
	var row []string

	for s.Scan() {
		if err := s.Err(); err != nil {
			return nil, s.located(err)
		}

		row = append(row, s.Text())

		if s.EndOfRecord() {
			break
		}
	}

	if err := s.Err(); err != nil {
		if err == io.EOF && len(row) > 0 {
			return row, nil
		}
		return nil, s.located(err)
	}

	return row, nil
}

// ScanLine scans the next record into row. Unused trailing positions are
// cleared on error.
func (s *Scanner) ScanLine(row []string) error {
	for i := 0; s.Scan(); i++ {
		if i == len(row) {
			return s.located(ErrExtraColumns)
		}

		if err := s.Err(); err != nil {
			for j := i; j < len(row); j++ {
				row[j] = ""
			}
			return s.located(err)
		}

		row[i] = s.Text()

		if s.EndOfRecord() {
			break
		}
	}

	if err := s.Err(); err != nil {
		return s.located(err)
	}
	return nil
}

// nextLine loads the next non-blank line.
func (s *Scanner) nextLine() {
	s.line = ""
	s.data = nil
	s.token = nil

	for s.sc.Scan() {
		s.line = s.sc.Text()
		if s.line != "" {
			s.data = s.sc.Bytes()
			return
		}
	}

	if s.sc.Err() == nil {
		s.eof = true
	}
}

// Scan advances to the next field and returns false when there are no more.
func (s *Scanner) Scan() bool {
	if s.err != nil && !s.ContinueOnError {
		return false
	}

	if s.eof && len(s.data) == 0 {
		return false
	}

	if s.eor {
		s.nextLine()
		if s.sc.Err() != nil {
			return false
		}
	}

	adv, token, sep, err := s.scanField(s.data)

	s.data = s.data[adv:]
	s.err = err

	if sep && len(s.data) == 0 {
		s.pending = true
	}

	if err != nil {
		if !s.ContinueOnError {
			return false
		}
		s.token = s.data
		s.eor = true
	} else {
		s.token = token
	}

	if !s.pending && s.eof && len(s.data) == 0 {
		return false
	}

	return true
}

// scanField returns the bytes to advance, the field value and whether the
// field was terminated by a separator.
func (s *Scanner) scanField(data []byte) (int, []byte, bool, error) {
	if s.pending {
		s.column++
		s.eor = true
		s.pending = false
		return 0, data, false, nil
	}

	if len(data) == 0 {
		return 0, nil, false, nil
	}

	if s.eor {
		s.column = 0
		s.lineno++
	}

	s.column++
	s.eor = false

	if data[0] == '"' {
		return s.scanQuoted(data)
	}

	for i, c := range data {
		if c == s.sep {
			return i + 1, data[:i], true, nil
		}
		if c == '"' {
			return 0, nil, false, ErrUnquotedField
		}
	}

	s.eor = true

	return len(data), data, false, nil
}

// scanQuoted scans a field starting with a quote. Doubled quotes are escapes.
func (s *Scanner) scanQuoted(data []byte) (int, []byte, bool, error) {
	var (
		escaped int
		open    bool
		c, prev byte
	)

	for i := 1; i < len(data); i++ {
		c = data[i]

		if c == '"' {
			if prev == '"' {
				// Reset so a third quote does not pair with the second.
				prev = 0
				open = false
				escaped++
				continue
			}

			if open {
				return 0, nil, false, ErrBareQuote
			}

			open = true
		}

		if prev == '"' && c == s.sep {
			return i + 1, unescapeQuotes(data[1:i-1], escaped), true, nil
		}

		prev = c
	}

	s.eor = true

	if c == '"' {
		return len(data), unescapeQuotes(data[1:len(data)-1], escaped), false, nil
	}

	return 0, nil, false, ErrUnterminatedField
}

// unescapeQuotes collapses count doubled quotes in place.
func unescapeQuotes(b []byte, count int) []byte {
	if count == 0 {
		return b
	}

	for i, j := 0, 0; i < len(b); i, j = i+1, j+1 {
		b[j] = b[i]

		if b[i] == '"' && i < len(b)-1 && b[i+1] == '"' {
			i++
		}
	}

	return b[:len(b)-count]
}
