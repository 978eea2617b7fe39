package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/luma/keep/cmd/gen"
)

var RootCmd = &cobra.Command{
	Use:   "keep",
	Short: "Keep backs up local files to a keep server",
	Long: `Keep backs up local files to a keep server over a small binary
protocol, and can restore, delete, and list them again.`,

	SilenceUsage: true,
}

func init() {
	RootCmd.AddCommand(RunCmd)
	RootCmd.AddCommand(ServeCmd)
	RootCmd.AddCommand(BackupCmd)
	RootCmd.AddCommand(RestoreCmd)
	RootCmd.AddCommand(DeleteCmd)
	RootCmd.AddCommand(ListCmd)
	RootCmd.AddCommand(gen.RootCmd)
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
