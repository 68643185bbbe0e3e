// Package config resolves settings from flags, NOTES_* environment
// variables, an optional yaml file and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"notes-tui/internal/editor"

	"github.com/spf13/viper"
)

const (
	EnvPrefix = "NOTES"
	AppName   = "notes-tui"
)

// Keys shared by flags, env and the config file.
const (
	KeyAPIScheme     = "api.scheme"
	KeyAPIHost       = "api.host"
	KeyAPIPort       = "api.port"
	KeyAPITimeout    = "api.timeout"
	KeySocketPath    = "socket_path"
	KeyWithPreview   = "with_preview"
	KeyDarkPreview   = "dark_preview"
	KeyPreviewAddr   = "preview.addr"
	KeyEditor        = "editor"
	KeyGUIEditor     = "gui_editor"
	KeyAutoSyncDelay = "auto_sync_delay"
	KeyLogFile       = "log_file"
	KeyLogLevel      = "log_level"
	KeyMarkdownStyle = "markdown_style"
)

type Config struct {
	APIScheme  string
	APIHost    string
	APIPort    int
	APITimeout time.Duration

	SocketPath  string
	WithPreview bool
	DarkPreview bool
	PreviewAddr string

	Editor        string
	GUIEditor     string
	AutoSyncDelay time.Duration
	MarkdownStyle string

	LogFile  string
	LogLevel string
}

// New returns a viper instance with defaults and env lookup wired up.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyAPIScheme, "http")
	v.SetDefault(KeyAPIHost, "localhost")
	v.SetDefault(KeyAPIPort, 37240)
	v.SetDefault(KeyAPITimeout, 10*time.Second)
	v.SetDefault(KeySocketPath, "/tmp/markdown_preview.sock")
	v.SetDefault(KeyWithPreview, false)
	v.SetDefault(KeyDarkPreview, false)
	v.SetDefault(KeyPreviewAddr, "127.0.0.1:37241")
	v.SetDefault(KeyEditor, editor.DefaultCommand())
	v.SetDefault(KeyGUIEditor, editor.GUICommand())
	v.SetDefault(KeyAutoSyncDelay, 150*time.Millisecond)
	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyMarkdownStyle, "auto")
}

// DefaultPath is $XDG_CONFIG_HOME/notes-tui/config.yaml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName, "config.yaml"), nil
}

// ReadFile loads path into v. An empty path tries the default location and
// tolerates it being absent; an explicit path must exist.
func ReadFile(v *viper.Viper, path string) error {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil
		}
		path = p
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !explicit && (errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return nil
}

func Load(v *viper.Viper) (Config, error) {
	c := Config{
		APIScheme:     strings.ToLower(strings.TrimSpace(v.GetString(KeyAPIScheme))),
		APIHost:       strings.TrimSpace(v.GetString(KeyAPIHost)),
		APIPort:       v.GetInt(KeyAPIPort),
		APITimeout:    v.GetDuration(KeyAPITimeout),
		SocketPath:    strings.TrimSpace(v.GetString(KeySocketPath)),
		WithPreview:   v.GetBool(KeyWithPreview),
		DarkPreview:   v.GetBool(KeyDarkPreview),
		PreviewAddr:   strings.TrimSpace(v.GetString(KeyPreviewAddr)),
		Editor:        strings.TrimSpace(v.GetString(KeyEditor)),
		GUIEditor:     strings.TrimSpace(v.GetString(KeyGUIEditor)),
		AutoSyncDelay: v.GetDuration(KeyAutoSyncDelay),
		MarkdownStyle: strings.ToLower(strings.TrimSpace(v.GetString(KeyMarkdownStyle))),
		LogFile:       strings.TrimSpace(v.GetString(KeyLogFile)),
		LogLevel:      strings.TrimSpace(v.GetString(KeyLogLevel)),
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	switch c.APIScheme {
	case "http", "https":
	default:
		return fmt.Errorf("invalid api scheme %q (want http or https)", c.APIScheme)
	}
	if c.APIHost == "" {
		return errors.New("missing api host")
	}
	if c.APIPort < 1 || c.APIPort > 65535 {
		return fmt.Errorf("invalid api port %d (want 1-65535)", c.APIPort)
	}
	if c.SocketPath == "" {
		return errors.New("missing socket path")
	}
	switch c.MarkdownStyle {
	case "", "auto", "dark", "light", "notty":
	default:
		return fmt.Errorf("invalid markdown style %q (want auto, dark, light or notty)", c.MarkdownStyle)
	}
	if c.AutoSyncDelay < 0 {
		return fmt.Errorf("invalid auto sync delay %s", c.AutoSyncDelay)
	}
	return nil
}

// BaseURL is the note service root, e.g. http://localhost:37240.
func (c Config) BaseURL() string {
	u := url.URL{Scheme: c.APIScheme, Host: net.JoinHostPort(c.APIHost, strconv.Itoa(c.APIPort))}
	return u.String()
}
