package reader

import (
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"io"
	"os"
	"path"
	"strings"

	"github.com/rotisserie/eris"
)

var bom = []byte{0xef, 0xbb, 0xbf}

// UniversalReader normalizes text input: a leading UTF-8 byte order mark is
// dropped and carriage returns become newlines so line oriented parsers
// delimit old Mac and Windows line endings.
type UniversalReader struct {
	r     io.Reader
	start bool
}

func NewUniversalReader(r io.Reader) *UniversalReader {
	return &UniversalReader{r: r, start: true}
}

func (r *UniversalReader) Read(buf []byte) (int, error) {
	n, err := r.r.Read(buf)

	if r.start && n > 0 {
		r.start = false

		if bytes.HasPrefix(buf[:n], bom) {
			copy(buf, buf[len(bom):n])
			n -= len(bom)
		}
	}

	for i, b := range buf[:n] {
		if b == '\r' {
			buf[i] = '\n'
		}
	}

	return n, err
}

func (r *UniversalReader) Close() error {
	if rc, ok := r.r.(io.Closer); ok {
		return rc.Close()
	}
	return nil
}

// Decompress takes a compression type and a reader and returns a reader
// that decompresses the input if the type is supported.
func Decompress(t string, r io.Reader) (io.Reader, error) {
	switch t {
	case "":
		return r, nil

	case "gzip", "gz":
		gr, err := gzip.NewReader(r)
		if err != nil {
			return nil, eris.Wrap(err, "reader: open gzip stream")
		}
		return gr, nil

	case "bz2", "bzip2":
		return bzip2.NewReader(r), nil
	}

	return nil, eris.Errorf("reader: compression type not supported: %s", t)
}

// DetectType detects the file format and compression types from the file
// path extensions. Either result is empty when undetected.
func DetectType(url string) (string, string) {
	_, name := path.Split(url)

	// Leading dot files have no extension to detect.
	exts := strings.Split(strings.TrimPrefix(name, "."), ".")[1:]

	var (
		compression string
		format      string
	)

	for _, ext := range exts {
		switch strings.ToLower(ext) {
		case "gz", "gzip":
			compression = "gzip"

		case "bz2", "bzip2":
			compression = "bzip2"

		case "json":
			format = "json"

		case "ldjson", "ndjson", "jsonl":
			format = "ldjson"

		case "csv":
			format = "csv"

		case "tsv", "tab":
			format = "tsv"

		case "xlsx":
			format = "xlsx"
		}
	}

	return format, compression
}

// Reader is an opened input, a file or stdin, with decompression applied.
type Reader struct {
	Name        string
	Compression string

	reader io.Reader
	file   *os.File
}

// Read implements the io.Reader interface.
func (r *Reader) Read(buf []byte) (int, error) {
	return r.reader.Read(buf)
}

// Close closes the underlying file. Stdin is left open.
func (r *Reader) Close() error {
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// Open opens a text input by name with optional compression. If no name is
// specified, stdin is used. The compression is detected from the name when
// empty. Text is normalized with a UniversalReader.
func Open(name, compr string) (*Reader, error) {
	return open(name, compr, true)
}

// OpenBinary opens an input like Open without normalizing its bytes.
func OpenBinary(name, compr string) (*Reader, error) {
	return open(name, compr, false)
}

func open(name, compr string, text bool) (*Reader, error) {
	if compr == "" {
		_, compr = DetectType(name)
	}

	switch compr {
	case "bzip2", "gzip", "":
	default:
		return nil, eris.Errorf("reader: unknown compression type %s", compr)
	}

	r := &Reader{
		Name:        name,
		Compression: compr,
	}

	if name == "" {
		r.reader = os.Stdin
	} else {
		file, err := os.Open(name)
		if err != nil {
			return nil, eris.Wrapf(err, "reader: open %s", name)
		}

		r.file = file
		r.reader = file
	}

	dr, err := Decompress(compr, r.reader)
	if err != nil {
		r.Close()
		return nil, err
	}
	r.reader = dr

	if text {
		r.reader = NewUniversalReader(r.reader)
	}

	return r, nil
}
