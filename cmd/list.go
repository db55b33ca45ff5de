package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/HaiFongPan/r2drive/internal/storage"
	"github.com/HaiFongPan/r2drive/internal/utils"
)

var (
	showSize bool
	showDate bool
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list [folder]",
	Short: "List the folders and files of a folder",
	Long: `List the subfolders and files of a folder, the bucket root by default.
Folder ids end with a slash.

Examples:
  r2drive list                    # List the root
  r2drive list photos/            # List the photos folder
  r2drive list --size=false       # Hide file sizes`,
	Args: cobra.MaximumNArgs(1),
	RunE: listFolder,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().BoolVar(&showSize, "size", true, "show file sizes")
	listCmd.Flags().BoolVar(&showDate, "date", true, "show modification dates")
}

func listFolder(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}

	folderID := ""
	if len(args) > 0 {
		folderID = normalizeFolderID(args[0])
	}

	logrus.Debugf("Listing folder %q", folderID)
	data, err := a.store.GetFolderData(cmd.Context(), folderID)
	if err != nil {
		return fmt.Errorf("failed to list %q: %w", folderID, err)
	}
	return outputTable(os.Stdout, data)
}

func outputTable(out io.Writer, data *storage.FolderData) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	header := "NAME\tTYPE"
	if showSize {
		header += "\tSIZE"
	}
	if showDate {
		header += "\tMODIFIED"
	}
	fmt.Fprintln(w, header)

	for _, f := range data.Subfolders {
		line := f.Name + "/\tfolder"
		if showSize {
			line += "\t-"
		}
		if showDate {
			line += "\t" + formatDate(f.UpdatedAt)
		}
		fmt.Fprintln(w, line)
	}

	for _, f := range data.Files {
		line := f.Name + "\t" + string(f.Type)
		if showSize {
			line += "\t" + utils.FormatSize(f.Size)
		}
		if showDate {
			line += "\t" + formatDate(f.UpdatedAt)
		}
		fmt.Fprintln(w, line)
	}

	return w.Flush()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.RFC3339)
}
