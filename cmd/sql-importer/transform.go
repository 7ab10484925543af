package main

import (
	"bufio"
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chop-dbhi/content-importer/profile"
)

var transformLimit int

var transformCmd = &cobra.Command{
	Use:   "transform [path]",
	Short: "Print the converted records of a file as line delimited JSON",
	Long: `Models the file from its first record and prints every converted record
as one JSON object per line. Values that fail validation are logged and
left out of their record.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := newRequest(cmd, inputPath(args))
		if err != nil {
			return err
		}

		src, closer, err := r.Open()
		if err != nil {
			return err
		}
		defer closer.Close()

		var rename func(string) string
		if r.CamelCase {
			rename = profile.CamelCase
		}

		counter := &profile.Counter{Next: profile.NewLogErrorHandler(nil)}
		s := profile.NewStream(r.Guess, counter, rename)

		n, err := transform(cmd.OutOrStdout(), s, src, transformLimit)
		if err != nil {
			return err
		}

		zap.L().Info("transform complete",
			zap.Int("records", n),
			zap.Int("field_errors", counter.Fields),
			zap.Int("content_errors", counter.Contents),
		)
		return nil
	},
}

// transform writes up to limit converted records of src to w. A limit of
// zero writes every record.
func transform(w io.Writer, s *profile.Stream, src profile.Source, limit int) (int, error) {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)

	var (
		n    int
		werr error
	)

	_, err := s.Consume(src, func(dest profile.Content, _ int, _ *profile.Model) bool {
		if werr = enc.Encode(dest); werr != nil {
			return false
		}
		n++
		return limit == 0 || n < limit
	})
	if err != nil {
		return n, eris.Wrap(err, "transform")
	}
	if werr != nil {
		return n, eris.Wrap(werr, "transform: write record")
	}

	return n, eris.Wrap(bw.Flush(), "transform: flush")
}

func init() {
	transformCmd.Flags().IntVar(&transformLimit, "limit", 0, "max records to print (0 = all)")
	rootCmd.AddCommand(transformCmd)
}
