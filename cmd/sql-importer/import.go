package main

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	sqlimporter "github.com/chop-dbhi/content-importer"
)

var (
	importDB          string
	importDriver      string
	importSchema      string
	importTable       string
	importAppend      bool
	importCStore      bool
	importConcurrency int
)

var importCmd = &cobra.Command{
	Use:   "import [path]",
	Short: "Load a file or a directory of files into tables",
	Long: `Loads a file into a table named after the file. When the path is a
directory every file below it is loaded, with the schema named after the
file's directory relative to the root, e.g. a/b/c.csv loads into "a_b"."c".

Examples:
  sql-importer import --db postgres://localhost/data people.csv
  sql-importer import --table people < people.csv
  sql-importer import --driver sqlite --db data.db exports/`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if cmd.Flags().Changed("db") {
			cfg.Database.URL = importDB
		}
		if cmd.Flags().Changed("driver") {
			cfg.Database.Driver = importDriver
		}
		if cmd.Flags().Changed("schema") {
			cfg.Database.Schema = importSchema
		}
		if cmd.Flags().Changed("append") {
			cfg.Import.Append = importAppend
		}
		if cmd.Flags().Changed("cstore") {
			cfg.Import.CStore = importCStore
		}
		if cmd.Flags().Changed("concurrency") {
			cfg.Import.Concurrency = importConcurrency
		}

		if cfg.Database.URL == "" {
			return eris.New("database url is required (--db or SQLIMPORTER_DATABASE_URL)")
		}

		path := inputPath(args)

		if path != "" {
			info, err := os.Stat(path)
			if err != nil {
				return eris.Wrap(err, "import: stat input")
			}
			if info.IsDir() {
				return importDir(ctx, cmd, path)
			}
		}

		r, err := newRequest(cmd, path)
		if err != nil {
			return err
		}
		r.Table = importTable

		res, err := sqlimporter.Import(ctx, r)
		if err != nil {
			return eris.Wrap(err, "import")
		}

		zap.L().Info("import complete",
			zap.String("schema", res.Schema),
			zap.String("table", res.Table),
			zap.Int64("rows", res.Rows),
		)
		return nil
	},
}

// dirTable returns the schema and table a file below root loads into.
func dirTable(root, path string) (string, string) {
	rpath, _ := filepath.Rel(root, path)
	dir, base := filepath.Split(filepath.ToSlash(rpath))

	tableName := strings.Split(base, ".")[0]
	schemaName := strings.ReplaceAll(strings.Trim(dir, "/"), "/", "_")

	return schemaName, tableName
}

// importDir loads every file below root. A failed file is logged and does
// not stop the others.
func importDir(ctx context.Context, cmd *cobra.Command, root string) error {
	g, gctx := errgroup.WithContext(ctx)

	limit := cfg.Import.Concurrency
	// SQLite allows a single writer.
	if limit < 1 || cfg.Database.Driver == "sqlite" {
		limit = 1
	}
	g.SetLimit(limit)

	var failed atomic.Int32

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}

		r, err := newRequest(cmd, path)
		if err != nil {
			return err
		}

		schemaName, tableName := dirTable(root, path)
		if schemaName != "" {
			r.Schema = schemaName
		}
		r.Table = tableName

		log := zap.L().With(zap.String("path", path))

		g.Go(func() error {
			log.Info("loading file", zap.String("schema", r.Schema), zap.String("table", r.Table))

			res, err := sqlimporter.Import(gctx, r)
			if err != nil {
				log.Error("import failed", zap.Error(err))
				failed.Add(1)
				return nil
			}

			log.Info("file loaded", zap.Int64("rows", res.Rows))
			return nil
		})

		return nil
	})

	if werr := g.Wait(); err == nil {
		err = werr
	}
	if err != nil {
		return eris.Wrap(err, "import: walk directory")
	}

	if n := failed.Load(); n > 0 {
		return eris.Errorf("import: %d files failed", n)
	}
	return nil
}

func init() {
	f := importCmd.Flags()
	f.StringVar(&importDB, "db", "", "database URL or SQLite file")
	f.StringVar(&importDriver, "driver", "", "database driver: postgres or sqlite")
	f.StringVar(&importSchema, "schema", "", "schema name (default: public)")
	f.StringVar(&importTable, "table", "", "table name (default: file name)")
	f.BoolVar(&importAppend, "append", false, "append to the table instead of replacing it")
	f.BoolVar(&importCStore, "cstore", false, "create a cstore foreign table")
	f.IntVar(&importConcurrency, "concurrency", 4, "max files loaded concurrently")
	rootCmd.AddCommand(importCmd)
}
