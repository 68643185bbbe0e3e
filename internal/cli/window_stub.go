//go:build !webview

package cli

import (
	"context"
	"errors"

	"notes-tui/internal/preview"

	"github.com/spf13/cobra"
)

func runWindow(ctx context.Context, cmd *cobra.Command, srv *preview.Server) error {
	return writeErr(cmd, errors.New("window support is not built in; rebuild with -tags webview"))
}
