package main

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	sqlimporter "github.com/chop-dbhi/content-importer"
	"github.com/chop-dbhi/content-importer/profile"
)

var describeOutput string

// description is the report printed by describe.
type description struct {
	Fields  []*profile.Field     `json:"fields" yaml:"fields"`
	Columns []*sqlimporter.Field `json:"columns" yaml:"columns"`
}

var describeCmd = &cobra.Command{
	Use:   "describe [path]",
	Short: "Print the inferred content model of a file",
	Long: `Reads the whole file, refining fields first seen blank, and prints the
inferred definition of every field along with the table columns an import
would create.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := newRequest(cmd, inputPath(args))
		if err != nil {
			return err
		}

		g, m, err := sqlimporter.Model(r)
		if err != nil {
			return eris.Wrap(err, "describe")
		}

		var rename func(string) string
		if r.CamelCase {
			rename = profile.CamelCase
		}

		d := &description{
			Fields:  g.Describe(m),
			Columns: sqlimporter.NewSchema(m, rename).Fields,
		}

		return writeDescription(cmd.OutOrStdout(), describeOutput, d)
	},
}

func writeDescription(w io.Writer, format string, d *description) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	case "yaml", "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(d); err != nil {
			return eris.Wrap(err, "describe: encode yaml")
		}
		return enc.Close()
	}

	return eris.Errorf("describe: unknown output format %q", format)
}

func init() {
	describeCmd.Flags().StringVarP(&describeOutput, "output", "o", "yaml", "output format: yaml or json")
	rootCmd.AddCommand(describeCmd)
}
