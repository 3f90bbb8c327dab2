package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/recvault/recvault/pkg/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config <command>",
	Short: "Manage recorder configuration",
	Long: `Manage recorder configuration stored in recvault.yaml under the
recordings root.

Configuration options:
  retention_days - Days recordings are kept before purge eligibility
  logging.level  - Log level (debug, info, warn, error)
  webhooks       - Lifecycle-event notification endpoints

Available commands:
  show - Show current configuration
  init - Write a default recvault.yaml`,
	DisableFlagsInUseLine: true,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(rootDir)
		if err != nil {
			fmtErr("load config: %v", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(cfg)
			return
		}

		fmt.Printf("# Location: %s\n\n", filepath.Join(rootDir, config.FileName))
		fmt.Printf("retention_days: %d\n", cfg.RetentionDays)
		fmt.Printf("logging.level: %s\n", cfg.Logging.Level)
		fmt.Printf("webhooks.enabled: %v\n", cfg.Webhooks.Enabled)
		for _, h := range cfg.Webhooks.Hooks {
			fmt.Printf("  hook: %s (enabled=%v)\n", h.URL, h.Enabled)
		}
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default recvault.yaml",
	Run: func(cmd *cobra.Command, args []string) {
		path := filepath.Join(rootDir, config.FileName)
		if _, err := os.Stat(path); err == nil {
			fmtErr("config already exists at %s", path)
			os.Exit(1)
		}

		if err := config.Save(rootDir, config.Default()); err != nil {
			fmtErr("write config: %v", err)
			os.Exit(1)
		}
		fmt.Printf("wrote %s\n", path)
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
