package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/httpsvendor/pkg/cache"
	"github.com/matzehuels/httpsvendor/pkg/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), configFile)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), configFile), false)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg != defaultConfig() {
		t.Errorf("cfg = %+v, want defaults %+v", cfg, defaultConfig())
	}
}

func TestLoadConfigMissingRequired(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "nope.toml"), true)
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("err = %v, want INVALID_CONFIG", err)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfig(t, `
cache_dir = "vendor/https"
max_redirects = 3
timeout = "5s"
retries = 2
user_agent = "test-agent"
`)
	cfg, err := loadConfig(path, true)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	want := Config{
		CacheDir:     "vendor/https",
		MaxRedirects: 3,
		Timeout:      5 * time.Second,
		Retries:      2,
		UserAgent:    "test-agent",
	}
	if cfg != want {
		t.Errorf("cfg = %+v, want %+v", cfg, want)
	}
}

func TestLoadConfigPartial(t *testing.T) {
	cfg, err := loadConfig(writeConfig(t, "retries = 1\n"), true)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	want := defaultConfig()
	want.Retries = 1
	if cfg != want {
		t.Errorf("cfg = %+v, want %+v", cfg, want)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown key", "cache = \"x\"\n"},
		{"bad syntax", "max_redirects = \n"},
		{"bad duration", "timeout = \"soon\"\n"},
		{"zero redirects", "max_redirects = 0\n"},
		{"negative retries", "retries = -1\n"},
		{"zero timeout", "timeout = \"0s\"\n"},
		{"empty cache dir", "cache_dir = \"\"\n"},
		{"control character", "cache_dir = \"a\\u0001b\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadConfig(writeConfig(t, tt.body), true)
			if err == nil {
				t.Fatal("loadConfig succeeded, want error")
			}
		})
	}
}

func TestConfigCachePath(t *testing.T) {
	root := t.TempDir()
	cfg := defaultConfig()
	if got, want := cfg.cachePath(root), filepath.Join(root, cache.DefaultCacheDir); got != want {
		t.Errorf("cachePath = %q, want %q", got, want)
	}

	abs := filepath.Join(t.TempDir(), "elsewhere")
	cfg.CacheDir = abs
	if got := cfg.cachePath(root); got != abs {
		t.Errorf("cachePath = %q, want %q", got, abs)
	}
}

func TestApplyEnv(t *testing.T) {
	dir := t.TempDir()
	dotenv := filepath.Join(dir, envFile)
	body := "HTTPSVENDOR_RETRIES=3\nHTTPSVENDOR_TIMEOUT=2s\nHTTPSVENDOR_USER_AGENT=from-file\n"
	if err := os.WriteFile(dotenv, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HTTPSVENDOR_USER_AGENT", "from-env")
	t.Setenv("HTTPSVENDOR_MAX_REDIRECTS", "4")

	cfg := defaultConfig()
	if err := applyEnv(&cfg, dotenv); err != nil {
		t.Fatalf("applyEnv: %v", err)
	}
	want := defaultConfig()
	want.Retries = 3
	want.Timeout = 2 * time.Second
	want.UserAgent = "from-env"
	want.MaxRedirects = 4
	if cfg != want {
		t.Errorf("cfg = %+v, want %+v", cfg, want)
	}
}

func TestApplyEnvMissingFile(t *testing.T) {
	cfg := defaultConfig()
	if err := applyEnv(&cfg, filepath.Join(t.TempDir(), envFile)); err != nil {
		t.Fatalf("applyEnv: %v", err)
	}
	if cfg != defaultConfig() {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
}

func TestApplyEnvErrors(t *testing.T) {
	tests := []struct{ key, value string }{
		{"HTTPSVENDOR_RETRIES", "many"},
		{"HTTPSVENDOR_MAX_REDIRECTS", "1.5"},
		{"HTTPSVENDOR_TIMEOUT", "30"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			cfg := defaultConfig()
			err := applyEnv(&cfg, filepath.Join(t.TempDir(), envFile))
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("err = %v, want INVALID_CONFIG", err)
			}
		})
	}
}
