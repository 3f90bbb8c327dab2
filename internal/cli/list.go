package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List recordings, newest first",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		c := requireClient()
		defer c.Close()

		entries, err := c.ListRecordings()
		if err != nil {
			fmtErr("list: %v", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(entries)
			return
		}

		if len(entries) == 0 {
			fmt.Println("No recordings.")
			return
		}

		for _, e := range entries {
			fmt.Printf("%s  %-10s  %7.0fs  expires %s\n",
				e.Folder,
				e.Meta.Status,
				e.Meta.Duration,
				e.Meta.RetentionExpiryDate.Format("2006-01-02"))
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
