package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/HaiFongPan/r2drive/internal/storage"
)

var trashForce bool

// trashCmd represents the trash command
var trashCmd = &cobra.Command{
	Use:     "trash <id>...",
	Aliases: []string{"delete", "rm"},
	Short:   "Move files and folders to the trash",
	Long: `Move files and folders to the trash folder. Folder ids end with a slash,
everything under a trashed folder is moved with it.

Examples:
  r2drive trash photos/a.jpg              # Trash a file
  r2drive trash photos/old/               # Trash a folder
  r2drive trash a.jpg b.jpg --force       # Trash without confirmation`,
	Args: cobra.MinimumNArgs(1),
	RunE: trashItems,
}

func init() {
	rootCmd.AddCommand(trashCmd)

	trashCmd.Flags().BoolVarP(&trashForce, "force", "f", false, "trash without confirmation")
}

func trashItems(cmd *cobra.Command, args []string) error {
	files, folders := splitIDs(args)

	if !trashForce && !confirm(os.Stdin, fmt.Sprintf("Move %d file(s) and %d folder(s) to the trash? (y/N): ", len(files), len(folders))) {
		fmt.Println("Trash cancelled.")
		return nil
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}

	if len(files) > 0 {
		logrus.Infof("Trashing %d file(s)", len(files))
		if err := a.store.TrashFiles(cmd.Context(), storage.TrashFilesArgs{IDs: files}); err != nil {
			return fmt.Errorf("failed to trash files: %w", err)
		}
	}
	if len(folders) > 0 {
		logrus.Infof("Trashing %d folder(s)", len(folders))
		if err := a.store.TrashFolders(cmd.Context(), storage.TrashFoldersArgs{IDs: folders}); err != nil {
			return fmt.Errorf("failed to trash folders: %w", err)
		}
	}

	logrus.Infof("Moved %d item(s) to the trash", len(files)+len(folders))
	return nil
}

// confirm prints prompt and reads a yes/no answer from in
func confirm(in io.Reader, prompt string) bool {
	fmt.Print(prompt)
	response, _ := bufio.NewReader(in).ReadString('\n')
	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes"
}
