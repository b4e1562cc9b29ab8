package main

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"strings"
	"text/tabwriter"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/kosarica/store-recommender/internal/fetch"
	"github.com/kosarica/store-recommender/internal/importer"
)

var (
	importDelimiter string
	importEncoding  string
	importSheet     string
	importMaxErrors int
)

var importCmd = &cobra.Command{
	Use:   "import <stores|items|prices> <file|url>",
	Short: "Bulk-load stores, items or price reports from CSV or Excel",
	Long: `Import rows from a CSV, TSV or XLSX file into the configured catalog.
Columns are matched by header name. The delimiter and the text encoding
(UTF-8 or Windows-1250) are detected unless given. Rows that fail
validation are reported and skipped. http and https URLs are downloaded
with the retry and rate limit settings of the fetch config section.

Price columns hold decimal amounts such as 12,99 or 1.299,00 EUR.`,
	Example: `  recommender import stores stores.csv
  recommender import prices cijene.xlsx --sheet Sheet1
  recommender import items items.csv --delimiter ";" --encoding windows-1250
  recommender import prices https://example.com/cjenik.csv`,
	Args: cobra.ExactArgs(2),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVar(&importDelimiter, "delimiter", "", "CSV delimiter (detected when empty)")
	importCmd.Flags().StringVar(&importEncoding, "encoding", "", "text encoding: utf-8, windows-1250, iso-8859-2 (detected when empty)")
	importCmd.Flags().StringVar(&importSheet, "sheet", "", "worksheet to read from Excel files (first sheet when empty)")
	importCmd.Flags().IntVar(&importMaxErrors, "show-errors", 20, "number of row errors to print")
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	kind, err := importer.ParseKind(args[0])
	if err != nil {
		return err
	}

	opts := importer.ReadOptions{
		Encoding: importer.Encoding(importEncoding),
		Sheet:    importSheet,
	}
	if importDelimiter != "" {
		r, size := utf8.DecodeRuneInString(importDelimiter)
		if size != len(importDelimiter) {
			return fmt.Errorf("delimiter must be a single character, got %q", importDelimiter)
		}
		opts.Delimiter = r
	}

	backend, err := openCatalog(ctx, cfg.Storage.Migrate)
	if err != nil {
		return err
	}
	defer backend.Close()

	im := importer.New(backend)
	var result *importer.Result
	if isURL(args[1]) {
		data, ferr := fetch.NewClient(cfg.Fetch).GetBytes(ctx, args[1])
		if ferr != nil {
			return ferr
		}
		result, err = im.ImportBytes(ctx, kind, urlFileName(args[1]), data, opts)
	} else {
		result, err = im.ImportFile(ctx, kind, args[1], opts)
	}
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(os.Stdout, result)
	}

	fmt.Printf("Imported %d of %d %s rows in %s\n", result.Imported, result.Total, result.Kind, result.Duration.Round(time.Millisecond))
	if len(result.Errors) > 0 {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ROW\tERROR")
		for i, e := range result.Errors {
			if i == importMaxErrors {
				fmt.Fprintf(w, "...\t%d more\n", len(result.Errors)-i)
				break
			}
			fmt.Fprintf(w, "%d\t%s\n", e.Row, e.Message)
		}
		w.Flush()
	}

	if result.Imported == 0 && result.Total > 0 {
		return fmt.Errorf("no rows imported")
	}
	return nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// urlFileName is the last path segment of raw, used to pick the file format.
func urlFileName(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return path.Base(u.Path)
}
