package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/HaiFongPan/r2drive/internal/storage"
)

// mvCmd represents the mv command
var mvCmd = &cobra.Command{
	Use:   "mv <dest> <id>...",
	Short: "Move files and folders into a folder",
	Long: `Move files and folders into the folder <dest>. Use "/" for the root.
Folder ids end with a slash. Moving fails when the destination already has
an entry with the same name.

Examples:
  r2drive mv archive/ photos/a.jpg photos/b.jpg
  r2drive mv / photos/old/`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}

		dest := normalizeFolderID(args[0])
		files, folders := splitIDs(args[1:])

		result, err := a.store.MoveToFolder(cmd.Context(), storage.MoveArgs{
			FileIDs:   files,
			FolderIDs: folders,
			FolderID:  dest,
		})
		if err != nil {
			return fmt.Errorf("failed to move: %w", err)
		}

		for from, to := range result.Folders {
			fmt.Printf("%s -> %s\n", from, to)
		}
		for from, to := range result.Files {
			fmt.Printf("%s -> %s\n", from, to)
		}
		logrus.Infof("Moved %d item(s) to %q", len(files)+len(folders), dest)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mvCmd)
}
