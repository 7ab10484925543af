package profile

import (
	"errors"
	"io"

	"github.com/rotisserie/eris"
)

// ErrNoRecords is returned when a source yields no records to build a model from.
var ErrNoRecords = eris.New("profile: no records")

// Source yields records in order. Next returns io.EOF when the source is
// exhausted. A *ContentError is reported and the source is read again; any
// other error stops the stream.
type Source interface {
	Next() (Record, error)
}

// Consumer receives each destination record together with the index of the
// source record and the model it was transformed with. Returning false stops
// the stream.
type Consumer func(dest Content, index int, m *Model) bool

// Stream drives a source through model building and transformation.
type Stream struct {
	Guesser     *Guesser
	Transformer *Transformer
	Errors      ErrorHandler
}

// NewStream returns a stream with a new guesser for opts. Problems are sent
// to h and destination keys are passed through rename.
func NewStream(opts *Options, h ErrorHandler, rename func(string) string) *Stream {
	if h == nil {
		h = Discard
	}

	g := NewGuesser(opts)

	return &Stream{
		Guesser:     g,
		Transformer: NewTransformer(g, h, rename),
		Errors:      h,
	}
}

// Consume builds the root model from the first record, unless the stream
// already has one, and transforms every record against it. With a nil
// consumer records are only validated. The returned model reflects every
// refinement made while consuming.
func (s *Stream) Consume(src Source, fn Consumer) (*Model, error) {
	var m *Model

	for {
		rec, err := src.Next()

		if err == io.EOF {
			break
		}

		if err != nil {
			var cerr *ContentError
			if errors.As(err, &cerr) {
				s.Errors.ReportContentError(cerr)
				continue
			}
			return m, eris.Wrap(err, "profile: read record")
		}

		if m == nil {
			m = s.Guesser.Build(rec)
		}

		if fn == nil {
			s.Transformer.Validate(m, rec)
			continue
		}

		if !fn(s.Transformer.Transform(m, rec), rec.Index(), m) {
			break
		}
	}

	if m == nil {
		if root, ok := s.Guesser.Model(""); ok {
			return root, nil
		}
		return nil, ErrNoRecords
	}

	return m, nil
}
