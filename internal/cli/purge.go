package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var purgeDryRun bool

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete recordings past their retention expiry",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		c := requireClient()
		defer c.Close()

		if purgeDryRun {
			entries, err := c.ListRecordings()
			if err != nil {
				fmtErr("purge: %v", err)
				os.Exit(1)
			}
			var expired []string
			now := time.Now()
			for _, e := range entries {
				if e.Meta.Expired(now) {
					expired = append(expired, e.Folder)
				}
			}
			if jsonOutput {
				outputJSON(map[string]any{"wouldPurge": expired})
				return
			}
			for _, f := range expired {
				fmt.Printf("would purge %s\n", f)
			}
			return
		}

		report, err := c.PurgeExpired()
		if err != nil {
			fmtErr("purge: %v", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(report)
			return
		}

		for _, f := range report.Purged {
			fmt.Printf("purged %s\n", f)
		}
		for folder, msg := range report.Errors {
			fmt.Fprintf(os.Stderr, "failed %s: %s\n", folder, msg)
		}
		if len(report.Errors) > 0 {
			os.Exit(1)
		}
		if len(report.Purged) == 0 {
			fmt.Println("Nothing to purge.")
		}
	},
}

func init() {
	purgeCmd.Flags().BoolVar(&purgeDryRun, "dry-run", false, "report expired recordings without deleting")
	rootCmd.AddCommand(purgeCmd)
}
