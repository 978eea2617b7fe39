package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/luma/keep/client"
	"github.com/luma/keep/internal/env"
	"github.com/luma/keep/internal/info"
)

// withSession wires up config, logging, and a connected session, runs fn,
// and tears the connection down again. Every one-shot operation command
// is one exchange on a fresh session.
func withSession(ctx context.Context, fn func(ctx context.Context, session *client.Session) error) error {
	log, err := env.MakeLogger()
	if err != nil {
		return err
	}

	conf, err := env.LoadConfig(ctx)
	if err != nil {
		return err
	}

	addr, err := info.ServerAddr(conf.ServerInfoPath)
	if err != nil {
		return err
	}

	session := client.New(log.Named("session"))

	if err := session.Connect(ctx, addr); err != nil {
		return err
	}
	defer session.Close()

	return fn(ctx, session)
}

var BackupCmd = &cobra.Command{
	Use:   "backup <file>...",
	Short: "Back up local files to the server",
	Args:  cobra.MinimumNArgs(1),

	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(ctx context.Context, session *client.Session) error {
			for _, path := range args {
				resp, err := session.Backup(ctx, path)
				if err != nil {
					return err
				}

				fmt.Printf("%s: %s\n", path, resp.Status)
			}

			return nil
		})
	},
}

var restoreAs string

func init() {
	RestoreCmd.Flags().StringVarP(&restoreAs, "out", "o", "", "local path to write the restored file to (defaults to the name itself)")
}

var RestoreCmd = &cobra.Command{
	Use:   "restore <file>",
	Short: "Restore a backed up file from the server",
	Args:  cobra.ExactArgs(1),

	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(ctx context.Context, session *client.Session) error {
			name := args[0]

			dest := restoreAs
			if dest == "" {
				dest = name
			}

			result, err := session.Restore(ctx, name, dest)
			if err != nil {
				return err
			}

			switch result.Outcome {
			case client.Restored:
				fmt.Printf("Restored '%s' to '%s'.\n", name, dest)
			case client.RestoreNotFound:
				fmt.Printf("File '%s' not found on the server.\n", name)
			case client.RestoreServerFault:
				fmt.Println("Fatal error: server failed to restore file.")
			}

			return nil
		})
	},
}

var DeleteCmd = &cobra.Command{
	Use:   "delete <file>",
	Short: "Delete a backed up file from the server",
	Args:  cobra.ExactArgs(1),

	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(ctx context.Context, session *client.Session) error {
			result, err := session.Delete(ctx, args[0])
			if err != nil {
				return err
			}

			switch result.Outcome {
			case client.Deleted:
				fmt.Println("File deleted successfully.")
			case client.DeleteNotFound:
				fmt.Printf("File '%s' not found on the server.\n", args[0])
			case client.DeleteServerFault:
				fmt.Println("Fatal error: server failed to delete file.")
			}

			return nil
		})
	},
}

var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every file the server holds for this user",
	Args:  cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(ctx context.Context, session *client.Session) error {
			result, err := session.List(ctx)
			if err != nil {
				return err
			}

			switch result.Outcome {
			case client.Listed:
				fmt.Println("--- List of files ---")
				if len(result.Files) > 0 {
					fmt.Println(strings.Join(result.Files, "\n"))
				}
				fmt.Println("--- End of list ---")
			case client.ListNoFiles:
				fmt.Println("No files found on the server.")
			case client.ListServerFault:
				fmt.Println("Fatal error: server failed to list files.")
			}

			return nil
		})
	},
}
