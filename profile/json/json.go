package json

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/chop-dbhi/content-importer/profile"
	"github.com/rotisserie/eris"
)

const (
	// JSON is a top-level array of objects or a single object.
	JSON = "json"

	// LDJSON is one object per line.
	LDJSON = "ldjson"
)

// Source yields the objects of a JSON document as records. Numbers are
// decoded as json.Number so integer precision is kept. Elements that are not
// objects are reported as a *profile.ContentError and skipped.
type Source struct {
	format string
	in     io.Reader

	// Array elements or top-level values.
	dec   *json.Decoder
	array bool

	// Lines of line delimited input.
	lines *bufio.Scanner

	index int
	done  bool
}

// NewSource returns a source for the given format.
func NewSource(in io.Reader, format string) (*Source, error) {
	switch format {
	case JSON, LDJSON:
	default:
		return nil, eris.Errorf("json: unsupported format %q", format)
	}

	return &Source{
		format: format,
		in:     in,
	}, nil
}

func (s *Source) init() error {
	if s.format == LDJSON {
		s.lines = bufio.NewScanner(s.in)
		s.lines.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
		return nil
	}

	br := bufio.NewReader(s.in)
	s.dec = json.NewDecoder(br)
	s.dec.UseNumber()

	c, err := firstByte(br)
	if err != nil {
		return err
	}

	if c == '[' {
		tok, err := s.dec.Token()
		if err != nil {
			return eris.Wrap(err, "json: read array")
		}
		if tok != json.Delim('[') {
			return eris.Errorf("json: expected array, got: %v", tok)
		}
		s.array = true
	}

	return nil
}

// firstByte peeks at the first non-space byte.
func firstByte(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}

		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}

		return b, br.UnreadByte()
	}
}

func (s *Source) Next() (profile.Record, error) {
	if s.done {
		return nil, io.EOF
	}

	if s.lines == nil && s.dec == nil {
		if err := s.init(); err != nil {
			s.done = true
			return nil, err
		}
	}

	var (
		v   interface{}
		err error
	)

	if s.format == LDJSON {
		v, err = s.nextLine()
	} else {
		v, err = s.nextValue()
	}

	if err != nil {
		if err == io.EOF {
			s.done = true
		}
		return nil, err
	}

	index := s.index
	s.index++

	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, &profile.ContentError{
			Index:   index,
			Message: fmt.Sprintf("expected an object, got %T", v),
		}
	}

	return profile.NewMapRecord(index, m), nil
}

func (s *Source) nextValue() (interface{}, error) {
	if s.array && !s.dec.More() {
		// Closing bracket.
		if _, err := s.dec.Token(); err != nil {
			return nil, eris.Wrap(err, "json: read array")
		}
		return nil, io.EOF
	}

	var v interface{}
	if err := s.dec.Decode(&v); err != nil {
		if err == io.EOF && !s.array {
			return nil, io.EOF
		}
		s.done = true
		return nil, eris.Wrapf(err, "json: decode element %d", s.index)
	}

	return v, nil
}

// nextLine decodes the next non-blank line. Malformed lines and lines with
// content after their value are content errors since the following lines can
// still be read.
func (s *Source) nextLine() (interface{}, error) {
	for s.lines.Scan() {
		line := bytes.TrimSpace(s.lines.Bytes())
		if len(line) == 0 {
			continue
		}

		dec := json.NewDecoder(bytes.NewReader(line))
		dec.UseNumber()

		var v interface{}
		err := dec.Decode(&v)
		if err == nil && len(bytes.TrimSpace(line[dec.InputOffset():])) > 0 {
			err = eris.New("trailing content after value")
		}

		if err != nil {
			index := s.index
			s.index++

			return nil, &profile.ContentError{
				Index:   index,
				Message: fmt.Sprintf("malformed line: %s", err),
				Err:     err,
			}
		}

		return v, nil
	}

	if err := s.lines.Err(); err != nil {
		return nil, eris.Wrap(err, "json: read line")
	}

	return nil, io.EOF
}
