package sqlimporter

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/chop-dbhi/content-importer/profile"
	"github.com/lib/pq"
	"github.com/rotisserie/eris"
	uuid "github.com/satori/go.uuid"

	_ "modernc.org/sqlite"
)

// SQLiteClient loads tables into SQLite with batched inserts in a single
// transaction. SQLite has no schemas, so a schema name other than "main"
// or "public" prefixes the table name.
type SQLiteClient struct {
	db *sql.DB
}

func NewSQLite(db *sql.DB) *SQLiteClient {
	return &SQLiteClient{
		db: db,
	}
}

func sqliteTable(schemaName, tableName string) string {
	switch schemaName {
	case "", "main", "public":
		return tableName
	}
	return schemaName + "_" + tableName
}

// Replace loads into a randomly named table and renames it in place of the
// existing table within the same transaction.
func (c *SQLiteClient) Replace(ctx context.Context, schemaName, tableName string, tableSchema *Schema, rows Rows) (int64, error) {
	table := sqliteTable(schemaName, tableName)
	temp := uuid.NewV4().String()

	var n int64

	err := execTx(ctx, c.db, func(tx *sql.Tx) error {
		if err := createSQLiteTable(ctx, tx, temp, tableSchema); err != nil {
			return err
		}

		var err error
		if n, err = insertRows(ctx, tx, temp, tableSchema, rows); err != nil {
			return err
		}

		stmts := []string{
			fmt.Sprintf("drop table if exists %s", pq.QuoteIdentifier(table)),
			fmt.Sprintf("alter table %s rename to %s", pq.QuoteIdentifier(temp), pq.QuoteIdentifier(table)),
		}

		for _, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return eris.Wrapf(err, "sqlimporter: rename table: %s", stmt)
			}
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return n, c.analyze(ctx, table)
}

func (c *SQLiteClient) Append(ctx context.Context, schemaName, tableName string, tableSchema *Schema, rows Rows) (int64, error) {
	table := sqliteTable(schemaName, tableName)

	var n int64

	err := execTx(ctx, c.db, func(tx *sql.Tx) error {
		if err := createSQLiteTable(ctx, tx, table, tableSchema); err != nil {
			return err
		}

		var err error
		n, err = insertRows(ctx, tx, table, tableSchema, rows)
		return err
	})
	if err != nil {
		return 0, err
	}

	return n, c.analyze(ctx, table)
}

func (c *SQLiteClient) analyze(ctx context.Context, table string) error {
	if _, err := c.db.ExecContext(ctx, "analyze "+pq.QuoteIdentifier(table)); err != nil {
		return eris.Wrap(err, "sqlimporter: analyze table")
	}
	return nil
}

func createSQLiteTable(ctx context.Context, tx *sql.Tx, table string, tableSchema *Schema) error {
	stmt := fmt.Sprintf("create table if not exists %s ( %s )", pq.QuoteIdentifier(table), columnDefs(tableSchema, sqliteType))

	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		return eris.Wrapf(err, "sqlimporter: create table: %s", stmt)
	}
	return nil
}

func insertRows(ctx context.Context, tx *sql.Tx, table string, tableSchema *Schema, rows Rows) (int64, error) {
	cols := tableSchema.Columns()

	quoted := make([]string, len(cols))
	params := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pq.QuoteIdentifier(c)
		params[i] = "?"
	}

	query := fmt.Sprintf("insert into %s (%s) values (%s)", pq.QuoteIdentifier(table), strings.Join(quoted, ", "), strings.Join(params, ", "))

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, eris.Wrap(err, "sqlimporter: prepare insert")
	}
	defer stmt.Close()

	var (
		n    int64
		args []interface{}
	)

	err = rows(func(dest profile.Content) error {
		var verr error
		if args, verr = tableSchema.Values(dest, args); verr != nil {
			return verr
		}

		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return eris.Wrap(err, "sqlimporter: insert row")
		}

		n++
		return nil
	})
	if err != nil {
		return 0, err
	}

	return n, nil
}
