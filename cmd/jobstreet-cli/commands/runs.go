package commands

import (
	"time"

	"jobstreet-applied/lib/jobstore"
	"jobstreet-applied/lib/jobstore/db"
	"jobstreet-applied/lib/util/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(runsCmd)
}

var runsCmd = &cobra.Command{
	Use:   "runs [run id]",
	Short: "Lists the runs stored in the configured database, or the jobs of one run.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		conn, err := cfg.Database.OpenDB()
		if err != nil {
			serviceutil.Fatal("failed to open database", err)
		}
		defer conn.Close()
		_, err = conn.ExecContext(cmd.Context(), db.Schema)
		if err != nil {
			serviceutil.Fatal("failed to apply schema", err)
		}
		store := jobstore.NewStore(conn)

		if len(args) == 1 {
			result, err := store.Pull(cmd.Context(), args[0])
			if err != nil {
				serviceutil.Fatal("failed to read run", err)
			}
			renderJobs(result)
			return
		}

		runs, err := store.Runs(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to list runs", err)
		}
		t := newTable()
		t.AppendHeader(table.Row{"Run", "Completed at", "Jobs"})
		for _, r := range runs {
			t.AppendRow(table.Row{r.ID, r.CompletedAt.Format(time.DateTime), r.TotalJobs})
		}
		t.Render()
	},
}
