package reader

import (
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniversalReader(t *testing.T) {
	s := "\xef\xbb\xbfhello world!\r"

	ur := NewUniversalReader(bytes.NewBufferString(s))

	buf := make([]byte, 20)
	n, err := ur.Read(buf)
	require.NoError(t, err)

	assert.Equal(t, len(s)-3, n)
	assert.Equal(t, "hello world!\n", string(buf[:n]))
}

func TestUniversalReaderBOMOnlyAtStart(t *testing.T) {
	s := "a,b\r\n\xef\xbb\xbfc"

	b, err := io.ReadAll(NewUniversalReader(bytes.NewBufferString(s)))
	require.NoError(t, err)
	assert.Equal(t, "a,b\n\n\xef\xbb\xbfc", string(b))
}

func TestDetectType(t *testing.T) {
	tests := map[string][2]string{
		"data.csv":               {"csv", ""},
		"data.csv.gz":            {"csv", "gzip"},
		"/tmp/dir/data.json":     {"json", ""},
		"events.ndjson.bz2":      {"ldjson", "bzip2"},
		"events.jsonl":           {"ldjson", ""},
		"Workbook.XLSX":          {"xlsx", ""},
		"table.tsv":              {"tsv", ""},
		"README":                 {"", ""},
		".hidden":                {"", ""},
		"s3://bucket/key.ldjson": {"ldjson", ""},
	}

	for name, exp := range tests {
		t.Run(name, func(t *testing.T) {
			format, compression := DetectType(name)
			assert.Equal(t, exp[0], format)
			assert.Equal(t, exp[1], compression)
		})
	}
}

func TestDecompress(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte("zipped"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	r, err := Decompress("gz", &buf)
	require.NoError(t, err)

	b, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "zipped", string(b))

	_, err = Decompress("zip", &buf)
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	plain := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(plain, []byte("a\r1\r"), 0o644))

	r, err := Open(plain, "")
	require.NoError(t, err)
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, "a\n1\n", string(b))

	zipped := filepath.Join(dir, "data.csv.gz")
	f, err := os.Create(zipped)
	require.NoError(t, err)
	zw := gzip.NewWriter(f)
	_, err = zw.Write([]byte("x\r"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	r, err = OpenBinary(zipped, "")
	require.NoError(t, err)
	assert.Equal(t, "gzip", r.Compression)
	b, err = io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, "x\r", string(b))

	_, err = Open(plain, "lzma")
	assert.Error(t, err)

	_, err = Open(filepath.Join(dir, "missing.csv"), "")
	assert.Error(t, err)
}
