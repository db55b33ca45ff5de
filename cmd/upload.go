package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/HaiFongPan/r2drive/internal/model"
	"github.com/HaiFongPan/r2drive/internal/session"
	"github.com/HaiFongPan/r2drive/internal/storage"
	"github.com/HaiFongPan/r2drive/internal/utils"
)

var (
	uploadTo         string
	uploadPublic     bool
	uploadOverwrite  bool
	uploadCompress   string
	uploadNoProgress bool
)

// uploadCmd represents the upload command
var uploadCmd = &cobra.Command{
	Use:   "upload <path>... [--to folder]",
	Short: "Upload files into a folder",
	Long: `Upload local files into a folder of the bucket. Directories are uploaded
recursively. Files whose type is not allowed or that are larger than the
configured limit are skipped. A destination folder that does not exist
yet is created by the upload.

Examples:
  r2drive upload image.jpg                     # Upload to the root
  r2drive upload image.jpg --to photos/        # Upload into photos/
  r2drive upload ./pictures --to photos/       # Upload a directory
  r2drive upload image.jpg --public            # Upload with public access
  r2drive upload image.jpg --compress high     # Upload with high compression`,
	Args: cobra.MinimumNArgs(1),
	RunE: uploadFiles,
}

func init() {
	rootCmd.AddCommand(uploadCmd)

	uploadCmd.Flags().StringVar(&uploadTo, "to", "", "destination folder (default is the root)")
	uploadCmd.Flags().BoolVar(&uploadPublic, "public", false, "make files publicly accessible")
	uploadCmd.Flags().BoolVar(&uploadOverwrite, "overwrite", false, "overwrite existing files")
	uploadCmd.Flags().StringVarP(&uploadCompress, "compress", "z", "", "image compression level (high, fine, normal, low)")
	uploadCmd.Flags().BoolVar(&uploadNoProgress, "no-progress", false, "disable progress bar")
}

func uploadFiles(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}

	// CLI flag > config > default
	if cmd.Flags().Changed("public") {
		a.cfg.Upload.DefaultPublic = uploadPublic
	}
	if cmd.Flags().Changed("overwrite") {
		a.cfg.Upload.DefaultOverwrite = uploadOverwrite
	}

	paths := args
	if uploadCompress != "" {
		tmp, err := os.MkdirTemp("", "r2drive-compress-")
		if err != nil {
			return fmt.Errorf("failed to create temp dir: %w", err)
		}
		defer os.RemoveAll(tmp)

		if paths, err = compressImages(args, tmp, uploadCompress); err != nil {
			return err
		}
	}

	deps := a.deps()
	if !uploadNoProgress && !quiet {
		deps.Uploader = progressUploader{next: deps.Uploader}
	}
	s, err := session.New(deps, session.OptionsFromConfig(a.cfg.Browser))
	if err != nil {
		return err
	}
	defer s.Close()

	if err := openDestination(ctx, s, normalizeFolderID(uploadTo)); err != nil {
		return err
	}

	queued, err := s.DropFiles(paths)
	if err != nil {
		return err
	}
	if queued == 0 {
		return fmt.Errorf("no files to upload")
	}

	logrus.Infof("Uploading %d file(s) to %q", queued, s.CurrentFolderID())
	return s.ProcessUploads(ctx)
}

// openDestination shows the upload destination. A missing folder is a prefix
// with no objects yet, uploads into it create it.
func openDestination(ctx context.Context, s *session.Session, folderID string) error {
	err := s.LoadFolder(ctx, folderID)
	if folderID != "" && errors.Is(err, storage.ErrNotFound) {
		logrus.Infof("Folder %q does not exist yet, uploading creates it", folderID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("destination folder: %w", err)
	}
	return nil
}

// progressUploader draws a progress bar for each upload
type progressUploader struct {
	next session.Uploader
}

func (p progressUploader) Upload(ctx context.Context, upload model.Upload, progress func(float64)) (model.File, error) {
	bar := utils.NewProgressReader(nil, upload.Size, "Uploading "+upload.Name)
	draw := bar.Callback()
	defer bar.Close()

	return p.next.Upload(ctx, upload, func(percentage float64) {
		progress(percentage)
		draw(int64(percentage/100*float64(upload.Size)), upload.Size, percentage)
	})
}

// compressImages expands paths and writes a compressed copy of every image
// into dir. Other files are returned unchanged.
func compressImages(paths []string, dir, quality string) ([]string, error) {
	files, err := utils.ExpandPaths(paths)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(files))
	for _, f := range files {
		if !isImageFile(f.Path) {
			out = append(out, f.Path)
			continue
		}

		data, err := compressImage(f.Path, quality)
		if err != nil {
			return nil, fmt.Errorf("failed to compress %s: %w", f.Path, err)
		}

		// 压缩结果是 JPEG，扩展名随之改变
		name := strings.TrimSuffix(filepath.Base(f.Path), filepath.Ext(f.Path)) + ".jpg"
		target := filepath.Join(dir, name)
		if err := os.WriteFile(target, data, 0644); err != nil {
			return nil, fmt.Errorf("failed to write compressed image: %w", err)
		}

		logrus.Infof("Compressed %s from %s to %s", f.Path, utils.FormatSize(f.Size), utils.FormatSize(int64(len(data))))
		out = append(out, target)
	}
	return out, nil
}

// isImageFile checks if the file is an image based on extension
func isImageFile(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg", ".png", ".bmp", ".tiff", ".webp":
		return true
	}
	return false
}

// jpegQuality maps a compression level to a JPEG quality
func jpegQuality(level string) (int, error) {
	switch level {
	case "high":
		return 95, nil
	case "fine":
		return 85, nil
	case "normal":
		return 75, nil
	case "low":
		return 60, nil
	}
	return 0, fmt.Errorf("invalid compression level: %s (use: high, fine, normal, low)", level)
}

// compressImage re-encodes an image as JPEG, larger images are fitted into 1920x1920
func compressImage(path, level string) ([]byte, error) {
	quality, err := jpegQuality(level)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	if b := img.Bounds(); b.Dx() > 1920 || b.Dy() > 1920 {
		img = imaging.Fit(img, 1920, 1920, imaging.Lanczos)
	}
	// JPEG 没有透明通道，先铺白底
	flat := imaging.New(img.Bounds().Dx(), img.Bounds().Dy(), image.White)
	flat = imaging.Overlay(flat, img, image.Point{}, 1.0)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, flat, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode compressed image: %w", err)
	}
	return buf.Bytes(), nil
}
