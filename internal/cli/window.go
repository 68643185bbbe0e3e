//go:build webview

package cli

import (
	"context"

	"notes-tui/internal/preview"

	"github.com/spf13/cobra"
	webview "github.com/webview/webview_go"
)

const (
	windowTitle  = "Markdown Preview"
	windowWidth  = 800
	windowHeight = 600
)

// runWindow serves the preview and shows it in a native window. Closing the
// window stops the preview.
func runWindow(ctx context.Context, cmd *cobra.Command, srv *preview.Server) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(ctx) }()
	select {
	case <-srv.Bound():
	case err := <-errCh:
		return writeErr(cmd, err)
	}

	w := webview.New(false)
	defer w.Destroy()
	w.SetTitle(windowTitle)
	w.SetSize(windowWidth, windowHeight, webview.HintNone)
	w.Navigate("http://" + srv.Addr() + "/")

	closed := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			w.Dispatch(w.Terminate)
		case <-closed:
		}
	}()
	w.Run()
	close(closed)

	cancel()
	return <-errCh
}
