package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	t.Setenv("VISUAL", "")
	t.Setenv("EDITOR", "nano")
	t.Setenv("GUI_EDITOR", "")
	c, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:37240", c.BaseURL())
	assert.Equal(t, 10*time.Second, c.APITimeout)
	assert.Equal(t, "/tmp/markdown_preview.sock", c.SocketPath)
	assert.Equal(t, "127.0.0.1:37241", c.PreviewAddr)
	assert.Equal(t, "nano", c.Editor)
	assert.Empty(t, c.GUIEditor)
	assert.Equal(t, 150*time.Millisecond, c.AutoSyncDelay)
	assert.Equal(t, "warn", c.LogLevel)
	assert.Equal(t, "auto", c.MarkdownStyle)
	assert.False(t, c.WithPreview)
}

func TestEditorDefaultsFollowEnvironment(t *testing.T) {
	t.Setenv("VISUAL", "")
	t.Setenv("EDITOR", "")
	t.Setenv("GUI_EDITOR", "")
	c, err := Load(New())
	require.NoError(t, err)
	assert.Equal(t, "vim", c.Editor)
	assert.Empty(t, c.GUIEditor)

	t.Setenv("VISUAL", "hx")
	t.Setenv("EDITOR", "nano")
	t.Setenv("GUI_EDITOR", "code --wait")
	c, err = Load(New())
	require.NoError(t, err)
	assert.Equal(t, "hx", c.Editor)
	assert.Equal(t, "code --wait", c.GUIEditor)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api:\n  host: notes.lan\n  port: 9000\nsocket_path: /tmp/other.sock\n"), 0o600))
	t.Setenv("NOTES_API_PORT", "9100")

	v := New()
	require.NoError(t, ReadFile(v, path))
	c, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "http://notes.lan:9100", c.BaseURL())
	assert.Equal(t, "/tmp/other.sock", c.SocketPath)
}

func TestFlagsOverrideEnv(t *testing.T) {
	t.Setenv("NOTES_SOCKET_PATH", "/tmp/env.sock")
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("socket-path", "", "")
	require.NoError(t, fs.Parse([]string{"--socket-path", "/tmp/flag.sock"}))

	v := New()
	require.NoError(t, v.BindPFlag(KeySocketPath, fs.Lookup("socket-path")))
	c, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/flag.sock", c.SocketPath)
}

func TestReadFileMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	assert.NoError(t, ReadFile(New(), ""))
	assert.Error(t, ReadFile(New(), filepath.Join(t.TempDir(), "nope.yaml")))
}

func TestValidate(t *testing.T) {
	base := Config{APIScheme: "http", APIHost: "localhost", APIPort: 37240, SocketPath: "/tmp/s.sock", MarkdownStyle: "auto"}
	require.NoError(t, base.Validate())

	cases := map[string]func(*Config){
		"scheme":     func(c *Config) { c.APIScheme = "ftp" },
		"host":       func(c *Config) { c.APIHost = "" },
		"port low":   func(c *Config) { c.APIPort = 0 },
		"port high":  func(c *Config) { c.APIPort = 65536 },
		"socket":     func(c *Config) { c.SocketPath = "" },
		"style":      func(c *Config) { c.MarkdownStyle = "sepia" },
		"sync delay": func(c *Config) { c.AutoSyncDelay = -time.Second },
	}
	for name, mut := range cases {
		t.Run(name, func(t *testing.T) {
			c := base
			mut(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestBaseURLBracketsIPv6(t *testing.T) {
	c := Config{APIScheme: "https", APIHost: "::1", APIPort: 8443}
	assert.Equal(t, "https://[::1]:8443", c.BaseURL())
}
