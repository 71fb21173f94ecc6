package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/techdocs/internal/clipboard"
	pkgconfig "github.com/starford/techdocs/pkg/config"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenMode(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}

	cfg.Token = ""
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("empty token: err = %v", err)
	}

	if err := (&AuthConfig{Mode: "magic", Token: "x"}).Validate(); err == nil {
		t.Error("invalid mode should fail validation")
	}
}

func TestStoreConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     StoreConfig
		wantErr bool
	}{
		{"sqlite", StoreConfig{Driver: DriverSQLite, SQLitePath: "x.db"}, false},
		{"sqlite without path", StoreConfig{Driver: DriverSQLite}, true},
		{"postgrest", StoreConfig{Driver: DriverPostgREST, URL: "https://abc.example.co", APIKey: "k"}, false},
		{"postgrest without key", StoreConfig{Driver: DriverPostgREST, URL: "https://abc.example.co"}, true},
		{"unknown driver", StoreConfig{Driver: "mongo"}, true},
		{"negative timeout", StoreConfig{Driver: DriverSQLite, SQLitePath: "x.db", Timeout: -time.Second}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestStoreConfig_DefaultCollection(t *testing.T) {
	cfg := StoreConfig{Driver: DriverSQLite, SQLitePath: "x.db"}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.Collection != "documents" {
		t.Errorf("collection = %q", cfg.Collection)
	}
}

func TestFullConfig_Defaults(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	if cfg.Clipboard.AckTTL != clipboard.DefaultAckTTL {
		t.Errorf("ack ttl = %v", cfg.Clipboard.AckTTL)
	}
	if cfg.Inbox.Enabled() {
		t.Error("inbox should be disabled by default")
	}

	cfg.App.Theme = "sepia"
	if err := cfg.Validate(); err == nil {
		t.Error("unknown theme should fail")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestLoad_YAMLWithEnv(t *testing.T) {
	t.Setenv("TECHDOCS_TEST_KEY", "secret-key")
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
app:
  log_level: debug
  http:
    port: 9090
  cors:
    allowed_origins: ["http://localhost:5173"]
store:
  driver: postgrest
  url: https://abc.example.co
  api_key: ${TECHDOCS_TEST_KEY}
  timeout: 3s
inbox:
  path: ./inbox
clipboard:
  ack_ttl: 1500ms
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.APIKey != "secret-key" || cfg.Store.Timeout != 3*time.Second {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.App.HTTP.Port != 9090 || len(cfg.App.CORS.AllowedOrigins) != 1 {
		t.Errorf("app = %+v", cfg.App)
	}
	if cfg.Clipboard.AckTTL != 1500*time.Millisecond || !cfg.Inbox.Enabled() {
		t.Errorf("clipboard = %v, inbox = %+v", cfg.Clipboard.AckTTL, cfg.Inbox)
	}
	if cfg.Store.SQLitePath != "./techdocs.db" {
		t.Error("unset keys should keep defaults")
	}
}
