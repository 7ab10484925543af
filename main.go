package sqlimporter

import (
	"context"
	"database/sql"
	"io"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/chop-dbhi/content-importer/profile"
	"github.com/chop-dbhi/content-importer/profile/csv"
	"github.com/chop-dbhi/content-importer/profile/json"
	"github.com/chop-dbhi/content-importer/profile/xlsx"
	"github.com/chop-dbhi/content-importer/reader"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

type Request struct {
	// Input path. Stdin is read when empty.
	Path string

	// Target database.
	Driver   string
	Database string
	Schema   string
	Table    string

	// Behavior
	AppendTable bool
	CStore      bool
	CamelCase   bool

	// File specifics, detected from the path when empty.
	Format      string
	Compression string

	// CSV
	Delimiter string
	Header    bool

	// XLSX sheet name or index.
	Sheet string

	// Guess configures content model inference.
	Guess *profile.Options
}

// Result summarizes an import.
type Result struct {
	Schema string
	Table  string
	Rows   int64

	// Problems reported while loading.
	FieldErrors   int
	ContentErrors int

	Model *profile.Model
}

func (r *Request) rename() func(string) string {
	if r.CamelCase {
		return profile.CamelCase
	}
	return nil
}

func (r *Request) detect() error {
	fileType, fileComp := reader.DetectType(r.Path)

	if r.Format == "" {
		r.Format = fileType
	}
	if r.Format == "" {
		r.Format = "csv"
	}

	switch r.Format {
	case "csv", "tsv", "json", "ldjson", "xlsx":
	default:
		return eris.Errorf("sqlimporter: file type not supported: %s", r.Format)
	}

	if r.Compression == "" {
		r.Compression = fileComp
	}

	return nil
}

// Open opens the input as a record source. The returned closer releases the input.
func (r *Request) Open() (profile.Source, io.Closer, error) {
	if err := r.detect(); err != nil {
		return nil, nil, err
	}

	if r.Format == "xlsx" {
		input, err := reader.OpenBinary(r.Path, r.Compression)
		if err != nil {
			return nil, nil, eris.Wrap(err, "sqlimporter: open input")
		}

		opts := xlsx.Options{SheetName: r.Sheet}
		if i, err := strconv.Atoi(r.Sheet); err == nil {
			opts = xlsx.Options{SheetIndex: i}
		}

		src, err := xlsx.Open(input, opts)
		if err != nil {
			input.Close()
			return nil, nil, err
		}
		return src, input, nil
	}

	input, err := reader.Open(r.Path, r.Compression)
	if err != nil {
		return nil, nil, eris.Wrap(err, "sqlimporter: open input")
	}

	switch r.Format {
	case "json", "ldjson":
		src, err := json.NewSource(input, r.Format)
		if err != nil {
			input.Close()
			return nil, nil, err
		}
		return src, input, nil
	}

	src := csv.NewSource(input)
	src.Header = r.Header
	src.Delimiter = ','

	switch {
	case r.Format == "tsv":
		src.Delimiter = '\t'
	case r.Delimiter != "":
		src.Delimiter = r.Delimiter[0]
	}

	return src, input, nil
}

// spool copies stdin to a temporary file so it can be read twice.
func (r *Request) spool() (func(), error) {
	f, err := os.CreateTemp("", "sql-importer-*")
	if err != nil {
		return nil, eris.Wrap(err, "sqlimporter: create spool file")
	}

	if _, err := io.Copy(f, os.Stdin); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, eris.Wrap(err, "sqlimporter: spool stdin")
	}
	f.Close()

	r.Path = f.Name()

	return func() { os.Remove(f.Name()) }, nil
}

// Model consumes the whole input to settle its content model: the first
// record builds it and later records refine fields first seen blank.
func Model(r *Request) (*profile.Guesser, *profile.Model, error) {
	src, closer, err := r.Open()
	if err != nil {
		return nil, nil, err
	}
	defer closer.Close()

	s := profile.NewStream(r.Guess, profile.Discard, r.rename())

	m, err := s.Consume(src, nil)
	if err != nil {
		return nil, nil, eris.Wrap(err, "sqlimporter: build model")
	}

	return s.Guesser, m, nil
}

// Import loads the input into a table. The input is read twice: the first
// pass settles the content model the table is created from and the second
// streams the transformed records into it.
func Import(ctx context.Context, r *Request) (*Result, error) {
	if r.Path == "" {
		if r.Table == "" {
			return nil, eris.New("sqlimporter: table name required when reading stdin")
		}

		cleanup, err := r.spool()
		if err != nil {
			return nil, err
		}
		defer cleanup()
	}

	if r.Table == "" {
		_, base := path.Split(r.Path)
		r.Table = strings.Split(base, ".")[0]
	}

	if r.Driver == "" {
		r.Driver = "postgres"
	}

	if r.Schema == "" && r.Driver == "postgres" {
		r.Schema = "public"
	}

	log := zap.L().With(
		zap.String("path", r.Path),
		zap.String("schema", r.Schema),
		zap.String("table", r.Table),
	)

	g, m, err := Model(r)
	if err != nil {
		return nil, err
	}

	log.Debug("content model built", zap.Int("fields", m.Len()))

	var loader Loader

	db, err := sql.Open(r.Driver, r.Database)
	if err != nil {
		return nil, eris.Wrap(err, "sqlimporter: open db connection")
	}
	defer db.Close()

	switch r.Driver {
	case "postgres":
		loader = New(db)
	case "sqlite":
		loader = NewSQLite(db)
	default:
		return nil, eris.Errorf("sqlimporter: unsupported driver %s", r.Driver)
	}

	schema := NewSchema(m, r.rename())
	schema.Cstore = r.CStore

	src, closer, err := r.Open()
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	counter := &profile.Counter{Next: profile.NewLogErrorHandler(log)}
	s := &profile.Stream{
		Guesser:     g,
		Transformer: profile.NewTransformer(g, counter, r.rename()),
		Errors:      counter,
	}

	rows := func(emit func(profile.Content) error) error {
		var emitErr error

		_, err := s.Consume(src, func(dest profile.Content, _ int, _ *profile.Model) bool {
			if emitErr = ctx.Err(); emitErr != nil {
				return false
			}
			emitErr = emit(dest)
			return emitErr == nil
		})
		if err != nil {
			return err
		}
		return emitErr
	}

	log.Info("begin load")

	var n int64
	if r.AppendTable {
		n, err = loader.Append(ctx, r.Schema, r.Table, schema, rows)
	} else {
		n, err = loader.Replace(ctx, r.Schema, r.Table, schema, rows)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlimporter: load")
	}

	log.Info("records loaded",
		zap.Int64("rows", n),
		zap.Int("field_errors", counter.Fields),
		zap.Int("content_errors", counter.Contents),
	)

	return &Result{
		Schema:        r.Schema,
		Table:         r.Table,
		Rows:          n,
		FieldErrors:   counter.Fields,
		ContentErrors: counter.Contents,
		Model:         m,
	}, nil
}
