package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	sqlimporter "github.com/chop-dbhi/content-importer"
	"github.com/chop-dbhi/content-importer/config"
)

var (
	cfg     *config.Config
	cfgPath string
)

// Input flags shared by every command. Unset flags fall back to the config.
var (
	flagFormat      string
	flagCompression string
	flagDelimiter   string
	flagNoHeader    bool
	flagSheet       string
	flagCamelCase   bool
)

var rootCmd = &cobra.Command{
	Use:   "sql-importer",
	Short: "Infer the content model of a data file and load it into a database",
	Long: `Reads CSV, TSV, JSON, line delimited JSON or XLSX files, infers the
type of every field from the data and loads the records into a table
with matching column types.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(cfgPath)
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&cfgPath, "config", "", "path to config file (default: ./sql-importer.yaml)")
	f.StringVar(&flagFormat, "format", "", "input format: csv, tsv, json, ldjson or xlsx (default: detected)")
	f.StringVar(&flagCompression, "compression", "", "input compression: gzip or bzip2 (default: detected)")
	f.StringVar(&flagDelimiter, "delimiter", "", "CSV delimiter")
	f.BoolVar(&flagNoHeader, "no-header", false, "CSV file has no header row")
	f.StringVar(&flagSheet, "sheet", "", "XLSX sheet name or index")
	f.BoolVar(&flagCamelCase, "camel-case", false, "camel case destination field names")
}

// newRequest builds an import request for path from the config and the
// flags explicitly set on cmd.
func newRequest(cmd *cobra.Command, path string) (*sqlimporter.Request, error) {
	opts, err := cfg.Guess.Options()
	if err != nil {
		return nil, err
	}

	imp := cfg.Import
	flags := cmd.Flags()

	if flags.Changed("format") {
		imp.Format = flagFormat
	}
	if flags.Changed("compression") {
		imp.Compression = flagCompression
	}
	if flags.Changed("delimiter") {
		imp.Delimiter = flagDelimiter
	}
	if flags.Changed("no-header") {
		imp.Header = !flagNoHeader
	}
	if flags.Changed("sheet") {
		imp.Sheet = flagSheet
	}
	if flags.Changed("camel-case") {
		imp.CamelCase = flagCamelCase
	}

	delim, err := imp.DelimiterByte()
	if err != nil {
		return nil, err
	}

	return &sqlimporter.Request{
		Path: path,

		Driver:   cfg.Database.Driver,
		Database: cfg.Database.URL,
		Schema:   cfg.Database.Schema,

		AppendTable: imp.Append,
		CStore:      imp.CStore,
		CamelCase:   imp.CamelCase,

		Format:      imp.Format,
		Compression: imp.Compression,

		Delimiter: string(delim),
		Header:    imp.Header,
		Sheet:     imp.Sheet,

		Guess: opts,
	}, nil
}

// inputPath returns the single optional path argument. Stdin is read when
// none is given.
func inputPath(args []string) string {
	if len(args) == 0 || args[0] == "-" {
		return ""
	}
	return args[0]
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
