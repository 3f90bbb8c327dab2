package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/recvault/recvault/internal/manifest"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [<folder>]",
	Short: "Verify recording integrity",
	Long: `Verify recording integrity.

Re-hashes a recording's files and compares against its sealed manifest.
Without a folder argument, every recording in the root is verified.

Examples:
  recvault verify                                # Verify all recordings
  recvault verify 2026-03-01_week-03_session-007 # Verify one recording`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c := requireClient()
		defer c.Close()

		folders := args
		if len(folders) == 0 {
			entries, err := c.ListRecordings()
			if err != nil {
				fmtErr("verify: %v", err)
				os.Exit(1)
			}
			for _, e := range entries {
				folders = append(folders, e.Folder)
			}
		}

		invalid := false
		results := make(map[string]*manifest.Result, len(folders))
		for _, folder := range folders {
			res, err := c.VerifyRecording(folder)
			if err != nil {
				fmtErr("verify %s: %v", folder, err)
				os.Exit(1)
			}
			results[folder] = res
			if !res.Valid {
				invalid = true
			}
		}

		if jsonOutput {
			outputJSON(results)
		} else {
			sort.Strings(folders)
			for _, folder := range folders {
				status := "OK"
				if !results[folder].Valid {
					status = "TAMPERED"
				}
				fmt.Printf("%s  %s\n", folder, status)
			}
		}

		if invalid {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
