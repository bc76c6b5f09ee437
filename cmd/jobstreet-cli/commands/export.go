package commands

import (
	"fmt"

	"jobstreet-applied/internal/config"
	"jobstreet-applied/internal/export"
	"jobstreet-applied/internal/records"
	"jobstreet-applied/lib/util/serviceutil"

	"github.com/spf13/cobra"
)

var exportFlags struct {
	formats []string
	out     string
	table   bool
}

func init() {
	flags := exportCmd.Flags()
	flags.StringSliceVarP(&exportFlags.formats, "format", "f", []string{"all"}, "Export formats: json, csv, xlsx, sqlite or all.")
	flags.StringVarP(&exportFlags.out, "out", "o", "", "The directory exports are written to.")
	flags.BoolVar(&exportFlags.table, "table", false, "Print every job as a table.")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export <path/to/export.json>",
	Short: "Converts a previous json export into other formats.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		formats, err := config.ExpandFormats(exportFlags.formats)
		if err != nil {
			serviceutil.Fatal("invalid export format", err)
		}
		dir := cfg.ExportDir
		if exportFlags.out != "" {
			dir = exportFlags.out
		}

		jobs, err := export.ReadJSON(args[0])
		if err != nil {
			serviceutil.Fatal(fmt.Sprintf("failed to read %s", args[0]), err)
		}
		result := records.Result{Records: jobs, TotalJobs: len(jobs)}

		exporter := export.New(export.Options{Dir: dir, Database: cfg.Database})
		files, err := exporter.Export(cmd.Context(), result, formats)
		if err != nil {
			renderError(err, result, files)
			serviceutil.Fatal("export failed", err)
		}
		summarize(result, files, exportFlags.table)
	},
}
