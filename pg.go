package sqlimporter

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strings"
	"text/template"

	"github.com/chop-dbhi/content-importer/profile"
	"github.com/lib/pq"
	"github.com/rotisserie/eris"
	uuid "github.com/satori/go.uuid"
)

var (
	sqlTmpl = template.New("sql")

	queryTmpls = map[string]string{
		"createSchema":      `create schema if not exists {{ident .Schema}}`,
		"createTable":       `create table if not exists {{ident .Schema}}.{{ident .Table}} ( {{.Columns}} )`,
		"createCstoreTable": `create foreign table if not exists {{ident .Schema}}.{{ident .Table}} ( {{.Columns}} ) server cstore_server options (compression 'pglz')`,
		"dropTable":         `drop table if exists {{ident .Schema}}.{{ident .Table}}`,
		"renameTable":       `alter table {{ident .Schema}}.{{ident .TempTable}} rename to {{ident .Table}}`,
		"analyzeTable":      `analyze {{ident .Schema}}.{{ident .Table}}`,
	}
)

func init() {
	sqlTmpl.Funcs(template.FuncMap{
		"ident": pq.QuoteIdentifier,
	})

	for name, tmpl := range queryTmpls {
		template.Must(sqlTmpl.New(name).Parse(tmpl))
	}
}

type tableData struct {
	Schema    string
	TempTable string
	Table     string
	Columns   string
}

func render(name string, data *tableData) (string, error) {
	var b bytes.Buffer
	if err := sqlTmpl.ExecuteTemplate(&b, name, data); err != nil {
		return "", eris.Wrapf(err, "sqlimporter: render %s", name)
	}
	return b.String(), nil
}

// Rows streams destination records to emit until the source is exhausted or
// emit fails.
type Rows func(emit func(profile.Content) error) error

// Loader writes destination records into a table.
type Loader interface {
	// Replace loads into a new table that takes the place of any existing one.
	Replace(ctx context.Context, schemaName, tableName string, tableSchema *Schema, rows Rows) (int64, error)

	// Append loads into the table, creating it if needed.
	Append(ctx context.Context, schemaName, tableName string, tableSchema *Schema, rows Rows) (int64, error)
}

// Client loads tables into Postgres with COPY.
type Client struct {
	db *sql.DB
}

func New(db *sql.DB) *Client {
	return &Client{
		db: db,
	}
}

// execTx calls a function within a transaction.
func execTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlimporter: begin transaction")
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return eris.Wrap(tx.Commit(), "sqlimporter: commit")
}

// Replace loads into a randomly named table, then drops the existing table
// and renames the new one in its place.
func (c *Client) Replace(ctx context.Context, schemaName, tableName string, tableSchema *Schema, rows Rows) (int64, error) {
	tempTableName := uuid.NewV4().String()

	if err := c.createSchema(ctx, schemaName); err != nil {
		return 0, err
	}

	if err := c.createTable(ctx, schemaName, tempTableName, tableSchema); err != nil {
		return 0, err
	}

	n, err := c.copyData(ctx, schemaName, tempTableName, tableSchema, rows)
	if err != nil {
		return 0, err
	}

	if err := c.renameTable(ctx, schemaName, tempTableName, tableName); err != nil {
		return n, err
	}

	return n, c.analyzeTable(ctx, schemaName, tableName)
}

func (c *Client) Append(ctx context.Context, schemaName, tableName string, tableSchema *Schema, rows Rows) (int64, error) {
	if err := c.createSchema(ctx, schemaName); err != nil {
		return 0, err
	}

	if err := c.createTable(ctx, schemaName, tableName, tableSchema); err != nil {
		return 0, err
	}

	n, err := c.copyData(ctx, schemaName, tableName, tableSchema, rows)
	if err != nil {
		return 0, err
	}

	return n, c.analyzeTable(ctx, schemaName, tableName)
}

func (c *Client) exec(ctx context.Context, action string, names []string, data *tableData) error {
	return execTx(ctx, c.db, func(tx *sql.Tx) error {
		for _, name := range names {
			stmt, err := render(name, data)
			if err != nil {
				return err
			}

			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return eris.Wrapf(err, "sqlimporter: %s: %s", action, stmt)
			}
		}
		return nil
	})
}

func (c *Client) createSchema(ctx context.Context, schemaName string) error {
	return c.exec(ctx, "create schema", []string{"createSchema"}, &tableData{
		Schema: schemaName,
	})
}

// columnDefs returns the column definitions of a schema for a dialect.
// Columns are nullable since rejected values are loaded as null.
func columnDefs(tableSchema *Schema, typeOf func(profile.Kind) string) string {
	columns := make([]string, len(tableSchema.Fields))

	for i, f := range tableSchema.Fields {
		columns[i] = fmt.Sprintf("%s %s", pq.QuoteIdentifier(f.Column), typeOf(f.Kind))
	}

	return strings.Join(columns, ", ")
}

func (c *Client) createTable(ctx context.Context, schemaName, tableName string, tableSchema *Schema) error {
	name := "createTable"
	if tableSchema.Cstore {
		name = "createCstoreTable"
	}

	return c.exec(ctx, "create table", []string{name}, &tableData{
		Schema:  schemaName,
		Table:   tableName,
		Columns: columnDefs(tableSchema, postgresType),
	})
}

func (c *Client) renameTable(ctx context.Context, schemaName, tempTableName, tableName string) error {
	return c.exec(ctx, "rename table", []string{"dropTable", "renameTable"}, &tableData{
		Schema:    schemaName,
		TempTable: tempTableName,
		Table:     tableName,
	})
}

func (c *Client) analyzeTable(ctx context.Context, schemaName, tableName string) error {
	return c.exec(ctx, "analyze table", []string{"analyzeTable"}, &tableData{
		Schema: schemaName,
		Table:  tableName,
	})
}

func (c *Client) copyData(ctx context.Context, schemaName, tableName string, tableSchema *Schema, rows Rows) (int64, error) {
	var n int64

	err := execTx(ctx, c.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, pq.CopyInSchema(schemaName, tableName, tableSchema.Columns()...))
		if err != nil {
			return eris.Wrap(err, "sqlimporter: prepare copy")
		}

		var args []interface{}

		err = rows(func(dest profile.Content) error {
			var verr error
			if args, verr = tableSchema.Values(dest, args); verr != nil {
				return verr
			}

			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				return eris.Wrap(err, "sqlimporter: send row")
			}

			n++
			return nil
		})
		if err != nil {
			return err
		}

		// Empty exec to flush the buffer.
		if _, err := stmt.ExecContext(ctx); err != nil {
			return eris.Wrap(err, "sqlimporter: execute copy")
		}

		return stmt.Close()
	})

	if err != nil {
		return 0, err
	}

	return n, nil
}
