package sqlimporter

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/chop-dbhi/content-importer/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const peopleCSV = `id,name,score,active
1,Ann,1.5,yes
2,Bob,,no
3,Cy,2,true
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func openSQLite(t *testing.T) (*sql.DB, string) {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db, dsn
}

func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()

	var n int
	require.NoError(t, db.QueryRow(`select count(*) from "`+table+`"`).Scan(&n))
	return n
}

func sliceRows(records ...profile.Content) Rows {
	return func(emit func(profile.Content) error) error {
		for _, r := range records {
			if err := emit(r); err != nil {
				return err
			}
		}
		return nil
	}
}

func TestSQLiteTable(t *testing.T) {
	assert.Equal(t, "people", sqliteTable("", "people"))
	assert.Equal(t, "people", sqliteTable("public", "people"))
	assert.Equal(t, "people", sqliteTable("main", "people"))
	assert.Equal(t, "staff_people", sqliteTable("staff", "people"))
}

func TestSQLiteReplaceAppend(t *testing.T) {
	db, _ := openSQLite(t)
	ctx := context.Background()

	s := &Schema{
		Fields: []*Field{
			{Name: "id", Key: "id", Column: "id", Kind: profile.IntKind},
			{Name: "name", Key: "name", Column: "name", Kind: profile.TextKind},
		},
	}

	c := NewSQLite(db)

	n, err := c.Replace(ctx, "", "people", s, sliceRows(
		profile.Content{"id": int64(1), "name": "Ann"},
		profile.Content{"id": int64(2)},
	))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, 2, countRows(t, db, "people"))

	// Replacing drops the previous rows.
	n, err = c.Replace(ctx, "", "people", s, sliceRows(
		profile.Content{"id": int64(3), "name": "Cy"},
	))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 1, countRows(t, db, "people"))

	n, err = c.Append(ctx, "", "people", s, sliceRows(
		profile.Content{"id": int64(4), "name": "Di"},
	))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 2, countRows(t, db, "people"))

	var name string
	require.NoError(t, db.QueryRow(`select name from people where id = 4`).Scan(&name))
	assert.Equal(t, "Di", name)
}

func TestSQLiteReplaceRollback(t *testing.T) {
	db, _ := openSQLite(t)
	ctx := context.Background()

	s := &Schema{
		Fields: []*Field{
			{Name: "id", Key: "id", Column: "id", Kind: profile.IntKind},
		},
	}

	c := NewSQLite(db)

	_, err := c.Replace(ctx, "", "people", s, sliceRows(profile.Content{"id": int64(1)}))
	require.NoError(t, err)

	failing := func(emit func(profile.Content) error) error {
		if err := emit(profile.Content{"id": int64(2)}); err != nil {
			return err
		}
		return context.Canceled
	}

	_, err = c.Replace(ctx, "", "people", s, failing)
	require.ErrorIs(t, err, context.Canceled)

	// The existing table is untouched.
	assert.Equal(t, 1, countRows(t, db, "people"))
}

func TestImportCSV(t *testing.T) {
	db, dsn := openSQLite(t)
	path := writeFile(t, "people.csv", peopleCSV)

	res, err := Import(context.Background(), &Request{
		Path:     path,
		Driver:   "sqlite",
		Database: dsn,
		Header:   true,
	})
	require.NoError(t, err)

	assert.Equal(t, "people", res.Table)
	assert.Equal(t, int64(3), res.Rows)
	assert.Equal(t, 0, res.FieldErrors)
	assert.Equal(t, 0, res.ContentErrors)

	d, ok := res.Model.Definition("score")
	require.True(t, ok)
	assert.Equal(t, profile.FloatKind, d.Kind)

	var (
		score  sql.NullFloat64
		active bool
	)
	require.NoError(t, db.QueryRow(`select score, active from people where id = 2`).Scan(&score, &active))
	assert.False(t, score.Valid)
	assert.False(t, active)

	require.NoError(t, db.QueryRow(`select score, active from people where id = 3`).Scan(&score, &active))
	assert.Equal(t, 2.0, score.Float64)
	assert.True(t, active)
}

func TestImportRefinesBlankColumn(t *testing.T) {
	db, dsn := openSQLite(t)
	path := writeFile(t, "visits.csv", "id,count\n1,\n2,\n3,7\n")

	res, err := Import(context.Background(), &Request{
		Path:     path,
		Driver:   "sqlite",
		Database: dsn,
		Header:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Rows)

	d, _ := res.Model.Definition("count")
	assert.Equal(t, profile.IntKind, d.Kind)

	var count int64
	require.NoError(t, db.QueryRow(`select "count" from visits where id = 3`).Scan(&count))
	assert.Equal(t, int64(7), count)
}

func TestImportLDJSON(t *testing.T) {
	db, dsn := openSQLite(t)
	path := writeFile(t, "orders.ldjson", `{"id": 1, "customer": {"name": "Ann"}}
not json
{"id": 2, "customer": {"name": "Bob"}}
`)

	res, err := Import(context.Background(), &Request{
		Path:      path,
		Driver:    "sqlite",
		Database:  dsn,
		Schema:    "shop",
		CamelCase: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "orders", res.Table)
	assert.Equal(t, int64(2), res.Rows)
	assert.Equal(t, 1, res.ContentErrors)

	var customer string
	require.NoError(t, db.QueryRow(`select customer from shop_orders where id = 2`).Scan(&customer))
	assert.JSONEq(t, `{"name": "Bob"}`, customer)
}

func TestImportAppend(t *testing.T) {
	db, dsn := openSQLite(t)
	path := writeFile(t, "people.csv", peopleCSV)

	for i := 0; i < 2; i++ {
		_, err := Import(context.Background(), &Request{
			Path:        path,
			Driver:      "sqlite",
			Database:    dsn,
			Header:      true,
			AppendTable: true,
		})
		require.NoError(t, err)
	}

	assert.Equal(t, 6, countRows(t, db, "people"))
}

func TestImportUnsupported(t *testing.T) {
	_, err := Import(context.Background(), &Request{
		Path:   writeFile(t, "people.csv", peopleCSV),
		Driver: "oracle",
		Header: true,
	})
	require.Error(t, err)
}
