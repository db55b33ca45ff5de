package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/HaiFongPan/r2drive/internal/config"
	"github.com/HaiFongPan/r2drive/internal/metrics"
	"github.com/HaiFongPan/r2drive/internal/r2"
	"github.com/HaiFongPan/r2drive/internal/session"
	"github.com/HaiFongPan/r2drive/internal/tui"
	"github.com/HaiFongPan/r2drive/internal/tui/messaging"
	"github.com/HaiFongPan/r2drive/internal/utils"
)

const logDir = "/tmp/r2drive"

var (
	cfgFile      string
	verbose      bool
	quiet        bool
	metricsAddr  string
	globalConfig *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "r2drive",
	Short: "A file manager for Cloudflare R2 buckets",
	Long: `r2drive browses a Cloudflare R2 (or any S3 compatible) bucket as folders
and files. Changes show up immediately and are reconciled with the bucket
once it confirms them.

Example usage:
  r2drive                         # Interactive browser
  r2drive list photos/
  r2drive mkdir photos/ 2024
  r2drive mv archive/ photos/a.jpg photos/old/
  r2drive upload ./pictures --to photos/`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBrowser(cmd.Context())
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ~/.r2drive/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "enable quiet mode")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() error {
	var err error
	globalConfig, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	setupLogging()

	addr := globalConfig.Metrics.Addr
	if metricsAddr != "" {
		addr = metricsAddr
	}
	metrics.Serve(addr)
	return nil
}

// setupLogging configures the global logger based on config and flags
func setupLogging() {
	level := globalConfig.Log.Level
	if verbose {
		level = "debug"
	} else if quiet {
		level = "error"
	}

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logrus.Warnf("Invalid log level %s, using info", level)
		logLevel = logrus.InfoLevel
	}
	logrus.SetLevel(logLevel)

	if globalConfig.Log.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{
			DisableTimestamp: quiet,
			FullTimestamp:    verbose,
		})
	}
}

// redirectLogs sends logs to a file so they do not draw over the UI
func redirectLogs() {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		logrus.Warnf("Failed to create log directory %s: %v", logDir, err)
		return
	}

	logFile := filepath.Join(logDir, "app.log")
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		logrus.Warnf("Failed to open log file %s: %v", logFile, err)
		return
	}
	logrus.SetOutput(file)
}

// GetConfig returns the global configuration
func GetConfig() *config.Config {
	return globalConfig
}

// app holds the collaborators shared by the commands
type app struct {
	cfg       *config.Config
	client    *r2.Client
	store     *r2.Storage
	inspector *utils.FileInspector
}

func newApp(ctx context.Context) (*app, error) {
	cfg := GetConfig()
	client, err := r2.NewClient(ctx, &cfg.R2)
	if err != nil {
		return nil, fmt.Errorf("failed to create R2 client: %w", err)
	}
	return &app{
		cfg:       cfg,
		client:    client,
		store:     client.Storage(),
		inspector: utils.NewFileInspector(cfg.Upload),
	}, nil
}

func (a *app) uploader() *utils.QueueUploader {
	fu := utils.NewFileUploader(a.client.GetS3Client(), a.cfg, a.client.GetBucketName())
	return utils.NewQueueUploader(fu, utils.OptionsFromConfig(a.cfg))
}

// deps returns the session collaborators backed by the bucket
func (a *app) deps() session.Deps {
	return session.Deps{
		Storage:   a.store,
		Inspector: a.inspector,
		Uploader:  a.uploader(),
	}
}

// runBrowser runs the interactive browser
func runBrowser(ctx context.Context) error {
	redirectLogs()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}

	previews, err := utils.NewPreviewStore("")
	if err != nil {
		logrus.Warnf("Upload previews disabled: %v", err)
	}

	deps := a.deps()
	if userData, err := config.LoadUserData(); err != nil {
		logrus.Warnf("Failed to load user data: %v", err)
	} else {
		deps.History = userData
	}
	if previews != nil {
		deps.Previews = previews
		defer previews.Close()
	}

	status := messaging.NewStatusManager()
	opts := session.OptionsFromConfig(a.cfg.Browser)
	opts.Notifier = status

	s, err := session.New(deps, opts)
	if err != nil {
		return err
	}
	defer s.Close()

	bucket := a.client.GetBucketName()
	model := tui.NewBrowserModel(ctx, s, tui.Options{
		BucketName:    bucket,
		Links:         utils.NewURLGenerator(a.client.GetS3Client(), a.cfg, bucket),
		Downloader:    utils.NewFileDownloader(a.client.GetS3Client(), bucket, ""),
		TrashFolderID: r2.TrashPrefix,
		Status:        status,
	})

	program := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	model.SetProgram(program)

	if _, err := program.Run(); err != nil {
		return err
	}

	if s.Mode() == session.ModeSelection {
		files, folders := model.Selected()
		for _, f := range folders {
			fmt.Println(f.ID)
		}
		for _, f := range files {
			fmt.Println(f.ID)
		}
	}
	return nil
}
