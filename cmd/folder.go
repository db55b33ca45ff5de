package cmd

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/HaiFongPan/r2drive/internal/storage"
)

// mkdirCmd represents the mkdir command
var mkdirCmd = &cobra.Command{
	Use:   "mkdir <parent> <name>",
	Short: "Create a folder",
	Long: `Create a folder named <name> inside <parent>. Use "/" for the root.

Examples:
  r2drive mkdir / photos
  r2drive mkdir photos/ 2024`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}

		folder, err := a.store.CreateFolder(cmd.Context(), storage.CreateFolderArgs{
			ParentID: normalizeFolderID(args[0]),
			Name:     args[1],
		})
		if err != nil {
			return fmt.Errorf("failed to create folder: %w", err)
		}

		logrus.Infof("Created folder %s", folder.ID)
		fmt.Println(folder.ID)
		return nil
	},
}

// renameCmd represents the rename command
var renameCmd = &cobra.Command{
	Use:   "rename <folder> <name>",
	Short: "Rename a folder",
	Long: `Rename a folder. Every object under it is moved to the new prefix,
so the folder id changes.

Examples:
  r2drive rename photos/2024/ holidays`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}

		folder, err := a.store.UpdateFolder(cmd.Context(), storage.UpdateFolderArgs{
			ID:   normalizeFolderID(args[0]),
			Name: args[1],
		})
		if err != nil {
			return fmt.Errorf("failed to rename folder: %w", err)
		}

		logrus.Infof("Renamed %s to %s", args[0], folder.ID)
		fmt.Println(folder.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mkdirCmd)
	rootCmd.AddCommand(renameCmd)
}

// normalizeFolderID turns a user supplied folder path into a folder id:
// "" or "/" is the root, anything else ends with a single slash
func normalizeFolderID(path string) string {
	path = strings.Trim(path, "/")
	if path == "" {
		return ""
	}
	return path + "/"
}

// splitIDs separates folder ids (ending with a slash) from file ids
func splitIDs(ids []string) (files, folders []string) {
	for _, id := range ids {
		if strings.HasSuffix(id, "/") {
			folders = append(folders, normalizeFolderID(id))
		} else {
			files = append(files, strings.TrimPrefix(id, "/"))
		}
	}
	return files, folders
}
