package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"notes-tui/internal/devserver"

	"github.com/spf13/cobra"
)

func newDevServerCmd(app *App) *cobra.Command {
	var addr string
	var seed bool

	cmd := &cobra.Command{
		Use:   "dev-server",
		Short: "Run an in-memory note service for local use and demos",
		Long: strings.TrimSpace(`
Run a throwaway note service backed by an in-memory sqlite database.

It serves the routes the outline browser and the GUI preview use. Everything
is lost when it stops.
`),
		Example: strings.TrimSpace(`
  notes dev-server --seed
  notes dev-server --addr 127.0.0.1:8080
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := devserver.New(app.Log)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer srv.Close()

			ctx := cmd.Context()
			if seed {
				if err := srv.Seed(ctx); err != nil {
					return writeErr(cmd, fmt.Errorf("seed: %w", err))
				}
			}

			ln, err := net.Listen("tcp", strings.TrimSpace(addr))
			if err != nil {
				return writeErr(cmd, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Note service running at http://%s\n", ln.Addr())
			if err := serveUntilDone(ctx, ln, srv); err != nil {
				return writeErr(cmd, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:37240", "Bind address (host:port)")
	cmd.Flags().BoolVar(&seed, "seed", false, "Load a small demo outline")
	return cmd
}

// serveUntilDone serves h on ln and shuts down gracefully when ctx ends.
func serveUntilDone(ctx context.Context, ln net.Listener, h http.Handler) error {
	srv := &http.Server{Handler: h, ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	sctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
