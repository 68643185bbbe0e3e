package cli

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"notes-tui/internal/config"
	"notes-tui/internal/webtui"

	"github.com/spf13/cobra"
)

func newWebTUICmd(app *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "webtui",
		Short: "Run the outline browser in a web page (PTY + WebSocket, experimental)",
		Long: strings.TrimSpace(`
Run the outline browser over the web via a server-side PTY and a browser
terminal emulator.

Notes:
- Experimental; there is no authentication, so keep it on localhost.
- Each browser tab starts its own browser process with the current flags.
`),
		Example: strings.TrimSpace(`
  notes webtui --addr 127.0.0.1:3334
  notes --api-port 8080 webtui
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			exe, err := os.Executable()
			if err != nil {
				return writeErr(cmd, err)
			}
			srv, err := webtui.NewServer(webtui.ServerConfig{
				Addr:    strings.TrimSpace(addr),
				Command: exe,
				Args:    browserArgs(app.Config),
				Log:     app.Log,
			})
			if err != nil {
				return writeErr(cmd, err)
			}

			ln, err := net.Listen("tcp", srv.Addr())
			if err != nil {
				return writeErr(cmd, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "notes webtui running at http://%s\n", ln.Addr())
			if err := serveUntilDone(cmd.Context(), ln, srv.Handler()); err != nil {
				return writeErr(cmd, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:3334", "Bind address (host:port or :port)")
	return cmd
}

// browserArgs re-creates the resolved settings as flags for a browser child.
func browserArgs(cfg config.Config) []string {
	args := []string{
		"--api-scheme", cfg.APIScheme,
		"--api-host", cfg.APIHost,
		"--api-port", strconv.Itoa(cfg.APIPort),
		"--socket-path", cfg.SocketPath,
		"--log-level", cfg.LogLevel,
	}
	if cfg.LogFile != "" {
		args = append(args, "--log-file", cfg.LogFile)
	}
	return args
}
