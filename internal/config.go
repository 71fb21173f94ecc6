package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/techdocs/internal/clipboard"
	"github.com/starford/techdocs/internal/docstore"
	"github.com/starford/techdocs/internal/export"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Store drivers.
const (
	DriverPostgREST = "postgrest"
	DriverSQLite    = "sqlite"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Store     StoreConfig       `yaml:"store"`
	Search    SearchConfig      `yaml:"search"`
	Inbox     InboxConfig       `yaml:"inbox"`
	Export    ExportConfig      `yaml:"export"`
	Auth      AuthConfig        `yaml:"auth"`
	Clipboard ClipboardConfig   `yaml:"clipboard"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if err := c.Clipboard.Validate(); err != nil {
		return fmt.Errorf("clipboard: %w", err)
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
	CORS     CORSConfig `yaml:"cors"`
	Theme    string     `yaml:"theme"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if c.Theme == "" {
		c.Theme = string(export.ThemeLight)
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Theme, validation.In(string(export.ThemeLight), string(export.ThemeDark))),
	); err != nil {
		return err
	}
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// CORSConfig lists the browser origins allowed to call the API. Empty
// disables CORS headers.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// StoreConfig selects and configures the document store backend.
type StoreConfig struct {
	Driver     string        `yaml:"driver"`
	URL        string        `yaml:"url"`
	APIKey     string        `yaml:"api_key"`
	Collection string        `yaml:"collection"`
	Timeout    time.Duration `yaml:"timeout"`
	SQLitePath string        `yaml:"sqlite_path"`
}

// Validate validates the store configuration.
func (c *StoreConfig) Validate() error {
	if c.Collection == "" {
		c.Collection = docstore.DefaultCollection
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.Required, validation.In(DriverPostgREST, DriverSQLite)),
		validation.Field(&c.URL, validation.When(c.Driver == DriverPostgREST, validation.Required, is.URL)),
		validation.Field(&c.APIKey, validation.When(c.Driver == DriverPostgREST, validation.Required)),
		validation.Field(&c.SQLitePath, validation.When(c.Driver == DriverSQLite, validation.Required)),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	)
}

// SearchConfig holds full-text index configuration.
type SearchConfig struct {
	// IndexPath is the bleve index directory. Empty keeps the index in memory.
	IndexPath string `yaml:"index_path"`
}

// InboxConfig holds the watched import directory.
type InboxConfig struct {
	// Path is the directory to watch. Empty disables the inbox.
	Path string `yaml:"path"`
}

// Enabled reports whether an inbox directory is configured.
func (c *InboxConfig) Enabled() bool {
	return c.Path != ""
}

// ExportConfig holds the CLI export destination.
type ExportConfig struct {
	Path string `yaml:"path"`
}

// ClipboardConfig holds code-block copy settings.
type ClipboardConfig struct {
	AckTTL time.Duration `yaml:"ack_ttl"`
}

// Validate validates the clipboard configuration.
func (c *ClipboardConfig) Validate() error {
	if c.AckTTL == 0 {
		c.AckTTL = clipboard.DefaultAckTTL
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.AckTTL, validation.Min(time.Duration(1))),
	)
}

// AuthConfig holds authentication configuration for the local HTTP API.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
			Theme: string(export.ThemeLight),
		},
		Store: StoreConfig{
			Driver:     DriverSQLite,
			Collection: docstore.DefaultCollection,
			Timeout:    10 * time.Second,
			SQLitePath: "./techdocs.db",
		},
		Export: ExportConfig{
			Path: ".",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Clipboard: ClipboardConfig{
			AckTTL: clipboard.DefaultAckTTL,
		},
	}
}
