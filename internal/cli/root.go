package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"notes-tui/internal/config"
	"notes-tui/internal/notestore"
	"notes-tui/internal/tui"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type App struct {
	v       *viper.Viper
	cfgFile string

	Config config.Config
	Log    *logrus.Logger

	logCloser io.Closer

	// Seams for tests.
	runTUI  func(ctx context.Context, opts tui.Options) error
	launch  func(args []string) (int, error)
	newHTTP func(cfg config.Config) *notestore.Client
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(&App{})
}

func newRootCmd(app *App) *cobra.Command {
	if app.v == nil {
		app.v = config.New()
	}
	if app.runTUI == nil {
		app.runTUI = tui.Run
	}
	if app.launch == nil {
		app.launch = launchDetached
	}
	if app.newHTTP == nil {
		app.newHTTP = func(cfg config.Config) *notestore.Client {
			return notestore.NewClient(cfg.BaseURL(), cfg.APITimeout)
		}
	}

	cmd := &cobra.Command{
		Use:          "notes",
		Short:        "Outline browser for a hierarchical note service",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Browse the notes served at localhost:37240
  notes

  # Point at another service and start the GUI preview alongside
  notes --api-host notes.lan --api-port 8080 --with-preview

  # Run a throwaway service with demo notes
  notes dev-server --seed
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBrowser(cmd, app)
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := config.ReadFile(app.v, app.cfgFile); err != nil {
			return writeErr(cmd, err)
		}
		cfg, err := config.Load(app.v)
		if err != nil {
			return writeErr(cmd, err)
		}
		app.Config = cfg

		// The browser owns the terminal; everything else may log to stderr.
		interactive := !cmd.HasParent()
		log, closer, err := newLogger(cfg, interactive, cmd.ErrOrStderr())
		if err != nil {
			return writeErr(cmd, err)
		}
		app.Log, app.logCloser = log, closer
		return nil
	}
	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if app.logCloser != nil {
			return app.logCloser.Close()
		}
		return nil
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&app.cfgFile, "config", "", "Config file (default $XDG_CONFIG_HOME/notes-tui/config.yaml)")
	pf.String("api-scheme", "http", "Note service scheme (http|https)")
	pf.String("api-host", "localhost", "Note service host")
	pf.Int("api-port", 37240, "Note service port")
	pf.String("socket-path", "/tmp/markdown_preview.sock", "Unix socket the GUI preview listens on")
	pf.String("preview-addr", "127.0.0.1:37241", "HTTP address of the GUI preview page")
	pf.Bool("dark-preview", false, "Use the dark stylesheet in the GUI preview")
	pf.String("log-file", "", "Write logs to this file (the browser discards logs otherwise)")
	pf.String("log-level", "warn", "Log level (trace|debug|info|warn|error)")
	cmd.Flags().Bool("with-preview", false, "Start the GUI preview in the background first")

	bind := map[string]string{
		config.KeyAPIScheme:   "api-scheme",
		config.KeyAPIHost:     "api-host",
		config.KeyAPIPort:     "api-port",
		config.KeySocketPath:  "socket-path",
		config.KeyPreviewAddr: "preview-addr",
		config.KeyDarkPreview: "dark-preview",
		config.KeyLogFile:     "log-file",
		config.KeyLogLevel:    "log-level",
	}
	for key, name := range bind {
		_ = app.v.BindPFlag(key, pf.Lookup(name))
	}
	_ = app.v.BindPFlag(config.KeyWithPreview, cmd.Flags().Lookup("with-preview"))

	cmd.AddCommand(newPreviewCmd(app))
	cmd.AddCommand(newDevServerCmd(app))
	cmd.AddCommand(newWebTUICmd(app))

	return cmd
}

func runBrowser(cmd *cobra.Command, app *App) error {
	cfg := app.Config
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	client := app.newHTTP(cfg)
	defer client.Close()

	// Refuse to start on a service we cannot read.
	if _, err := client.GetTree(ctx); err != nil {
		return writeErr(cmd, startupError{baseURL: cfg.BaseURL(), err: err})
	}

	if cfg.WithPreview {
		pid, err := app.launch(previewArgs(cfg))
		if err != nil {
			return writeErr(cmd, fmt.Errorf("start GUI preview: %w", err))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Started GUI preview (pid %d) at http://%s\n", pid, cfg.PreviewAddr)
	}

	return app.runTUI(ctx, tui.Options{
		Store:         client,
		SocketPath:    cfg.SocketPath,
		Editor:        cfg.Editor,
		GUIEditor:     cfg.GUIEditor,
		AutoSyncDelay: cfg.AutoSyncDelay,
		MarkdownStyle: cfg.MarkdownStyle,
		Log:           app.Log,
	})
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}

// openClient builds the note service client for subcommands.
func openClient(app *App) *notestore.Client {
	return app.newHTTP(app.Config)
}
