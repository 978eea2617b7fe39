package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/luma/keep/client"
	"github.com/luma/keep/internal/env"
	"github.com/luma/keep/internal/info"
)

var RunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scripted backup exercise",
	Long: `Run the scripted backup exercise

Reads the server address from the server info file and the ordered list
of local files from the backup info file, then on a single connection:
lists the server's files, backs up the first two local files, lists
again, restores the first file to 'tmp', deletes it, and tries to
restore it once more (which is expected to fail with not-found).`,

	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

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

		files, err := info.ReadBackupList(conf.BackupInfoPath)
		if err != nil {
			return err
		}

		session := client.New(log.Named("session"))

		if err := session.Connect(ctx, addr); err != nil {
			return err
		}
		defer func() {
			session.Close()
			fmt.Println("Connection closed.")
		}()

		fmt.Printf("Connected to %s\n", addr)

		if err := runExercise(ctx, session, files); err != nil {
			return err
		}

		fmt.Println("Client work completed.")
		return nil
	},
}

func runExercise(ctx context.Context, session *client.Session, files []string) error {
	if err := printList(ctx, session); err != nil {
		return err
	}

	for i := 0; i < len(files) && i < 2; i++ {
		fmt.Printf("--- Saving file '%s' ---\n", files[i])

		resp, err := session.Backup(ctx, files[i])
		if err != nil {
			return err
		}

		fmt.Printf("Response: %s\n", resp.Status)
	}

	if err := printList(ctx, session); err != nil {
		return err
	}

	if len(files) == 0 {
		return nil
	}

	first := files[0]

	fmt.Printf("--- Restoring file '%s' ---\n", first)
	if err := printRestore(ctx, session, first, "tmp"); err != nil {
		return err
	}

	fmt.Printf("--- Deleting file '%s' ---\n", first)

	deleted, err := session.Delete(ctx, first)
	if err != nil {
		return err
	}

	switch deleted.Outcome {
	case client.Deleted:
		fmt.Println("File deleted successfully.")
	case client.DeleteNotFound:
		fmt.Printf("File '%s' not found on the server.\n", first)
	case client.DeleteServerFault:
		fmt.Println("Fatal error: server failed to delete file.")
	}

	// This restore is expected to come back not-found, proving the
	// delete took.
	fmt.Printf("--- Restoring file '%s' ---\n", first)
	return printRestore(ctx, session, first, first)
}

func printList(ctx context.Context, session *client.Session) error {
	fmt.Println("--- Requesting list of files ---")

	result, err := session.List(ctx)
	if err != nil {
		return err
	}

	switch result.Outcome {
	case client.Listed:
		fmt.Println("--- List of files ---")
		for _, name := range result.Files {
			fmt.Println(name)
		}
		fmt.Println("--- End of list ---")
	case client.ListNoFiles:
		fmt.Println("No files found on the server.")
	case client.ListServerFault:
		fmt.Println("Fatal error: server failed to list files.")
	}

	return nil
}

func printRestore(ctx context.Context, session *client.Session, name, dest string) error {
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
}
