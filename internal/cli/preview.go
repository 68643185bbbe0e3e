package cli

import (
	"fmt"
	"strings"

	"notes-tui/internal/preview"

	"github.com/spf13/cobra"
)

func newPreviewCmd(app *App) *cobra.Command {
	var dark bool
	var window bool

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Serve the GUI preview that follows the outline browser",
		Long: strings.TrimSpace(`
Serve a local web page showing the note selected in the outline browser.

The browser sends set_note and refresh messages over --socket-path; the page
reloads itself whenever the shown note changes.
`),
		Example: strings.TrimSpace(`
  notes preview --preview-addr 127.0.0.1:37241
  notes preview --dark --socket-path /tmp/notes.sock
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.Config
			client := openClient(app)
			defer client.Close()

			srv, err := preview.New(preview.Options{
				SocketPath: cfg.SocketPath,
				Addr:       cfg.PreviewAddr,
				Dark:       cfg.DarkPreview || dark,
				Source:     client,
				Log:        app.Log,
			})
			if err != nil {
				return writeErr(cmd, err)
			}

			ctx := cmd.Context()
			if window {
				return runWindow(ctx, cmd, srv)
			}
			go func() {
				select {
				case <-srv.Bound():
					fmt.Fprintf(cmd.ErrOrStderr(), "GUI preview running at http://%s (socket %s)\n", srv.Addr(), cfg.SocketPath)
				case <-ctx.Done():
				}
			}()
			if err := srv.Run(ctx); err != nil {
				return writeErr(cmd, err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dark, "dark", false, "Use the dark stylesheet (same as --dark-preview)")
	cmd.Flags().BoolVar(&window, "window", false, "Show the preview in a native window (requires -tags webview)")
	return cmd
}
