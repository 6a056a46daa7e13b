// Command xlsx2csv converts one worksheet of an xlsx package to CSV.
package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/xlsxgrid/xlsxgrid-go/xlsxgrid"
)

var version = "dev"

type options struct {
	sheetIndex int
	sheetName  string
	header     bool
	parseDates bool
	delimiter  string
	list       bool
	verbose    bool
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:     "xlsx2csv [flags] FILE",
		Short:   "Convert an xlsx worksheet to CSV",
		Args:    cobra.ExactArgs(1),
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			if opts.verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
			return run(args[0], opts, out)
		},
	}

	cmd.Flags().IntVarP(&opts.sheetIndex, "sheet", "s", -1, "sheet number to convert, zero-based")
	cmd.Flags().StringVarP(&opts.sheetName, "sheetname", "n", "", "sheet name to convert")
	cmd.Flags().BoolVar(&opts.header, "header", false, "treat the first row as a header")
	cmd.Flags().BoolVar(&opts.parseDates, "parse-dates", false, "decode date-styled cells as timestamps")
	cmd.Flags().StringVarP(&opts.delimiter, "delimiter", "d", ",", "field delimiter")
	cmd.Flags().BoolVarP(&opts.list, "list", "l", false, "list sheet names and exit")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose diagnostics")
	return cmd
}

func run(path string, opts *options, out io.Writer) error {
	if opts.list {
		names, err := xlsxgrid.SheetNames(path)
		if err != nil {
			return err
		}
		for i, name := range names {
			fmt.Fprintf(out, "%d: %s\n", i, name)
		}
		return nil
	}

	openOpts := &xlsxgrid.Options{
		HeaderRow:  opts.header,
		ParseDates: opts.parseDates,
	}
	switch {
	case opts.sheetName != "":
		openOpts.Sheet = xlsxgrid.SheetByName(opts.sheetName)
	case opts.sheetIndex >= 0:
		openOpts.Sheet = xlsxgrid.SheetByIndex(opts.sheetIndex)
	}
	if opts.verbose {
		openOpts.Logfile = logrus.StandardLogger().WriterLevel(logrus.DebugLevel)
		openOpts.Verbosity = 2
	}

	sheet, err := xlsxgrid.Open(path, openOpts)
	if err != nil {
		return err
	}
	logrus.Debugf("sheet %q: %d rows x %d columns", sheet.Name, sheet.Height(), sheet.Width())

	w := csv.NewWriter(out)
	if len(opts.delimiter) > 0 {
		w.Comma = rune(opts.delimiter[0])
	}
	if header := sheet.Header(); header != nil {
		if err := w.Write(record(header)); err != nil {
			return err
		}
	}
	for row := range sheet.EachRow() {
		if err := w.Write(record(row)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func record(row []xlsxgrid.Value) []string {
	fields := make([]string, len(row))
	for i, v := range row {
		fields[i] = v.String()
	}
	return fields
}
