package cli

import (
	"os"
	"os/exec"

	"notes-tui/internal/config"
)

// previewArgs re-creates the resolved settings as flags for `notes preview`.
func previewArgs(cfg config.Config) []string {
	args := append([]string{"preview"}, browserArgs(cfg)...)
	args = append(args, "--preview-addr", cfg.PreviewAddr)
	if cfg.DarkPreview {
		args = append(args, "--dark-preview")
	}
	return args
}

// launchDetached starts this binary with args in its own session, with stdio
// discarded, and returns its pid. The child outlives the browser.
func launchDetached(args []string) (int, error) {
	exe, err := os.Executable()
	if err != nil {
		return 0, err
	}
	cmd := exec.Command(exe, args...)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = nil, nil, nil
	detach(cmd)
	if err := cmd.Start(); err != nil {
		return 0, err
	}
	// Reap it if it exits while the browser is still running.
	go func() { _ = cmd.Wait() }()
	return cmd.Process.Pid, nil
}
