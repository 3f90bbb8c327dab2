package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var detailsCmd = &cobra.Command{
	Use:   "details <folder>",
	Short: "Show a recording's metadata, events, and integrity state",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c := requireClient()
		defer c.Close()

		det, err := c.RecordingDetails(args[0])
		if err != nil {
			fmtErr("details: %v", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(det)
			return
		}

		fmt.Printf("Session: %s\n", det.Meta.SessionID)
		fmt.Printf("  Status: %s\n", det.Meta.Status)
		fmt.Printf("  Created: %s\n", det.Meta.CreatedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("  Duration: %.0fs\n", det.Meta.Duration)
		fmt.Printf("  Retention expiry: %s\n", det.Meta.RetentionExpiryDate.Format("2006-01-02"))
		fmt.Printf("  Chat messages: %d\n", len(det.Chat))
		fmt.Printf("  Timeline events: %d\n", len(det.Timeline))
		fmt.Printf("  Consent records: %d (%d acknowledged)\n",
			det.Meta.ConsentSummary.Total, det.Meta.ConsentSummary.Acknowledged)
		if det.Integrity != nil {
			status := "VALID"
			if !det.Integrity.Valid {
				status = "INVALID"
			}
			fmt.Printf("  Integrity: %s\n", status)
		}
	},
}

func init() {
	rootCmd.AddCommand(detailsCmd)
}
