package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var auditCmd = &cobra.Command{
	Use:   "audit <command>",
	Short: "Inspect the audit log",
}

var auditVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the audit log hash chain",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		c := requireClient()
		defer c.Close()

		if err := c.VerifyAuditChain(); err != nil {
			fmtErr("audit chain: %v", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(map[string]bool{"valid": true})
			return
		}
		fmt.Println("Audit chain intact.")
	},
}

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List audit records",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		c := requireClient()
		defer c.Close()

		records, err := c.AuditRecords()
		if err != nil {
			fmtErr("audit: %v", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(records)
			return
		}

		for _, r := range records {
			fmt.Printf("%s  %-18s  %s\n", r.Timestamp.Format("2006-01-02 15:04:05"), r.EventType, r.Folder)
		}
	},
}

func init() {
	auditCmd.AddCommand(auditVerifyCmd)
	auditCmd.AddCommand(auditListCmd)
	rootCmd.AddCommand(auditCmd)
}
