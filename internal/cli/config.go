package cli

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/matzehuels/httpsvendor/pkg/buildinfo"
	"github.com/matzehuels/httpsvendor/pkg/cache"
	"github.com/matzehuels/httpsvendor/pkg/crawl"
	"github.com/matzehuels/httpsvendor/pkg/errors"
	"github.com/matzehuels/httpsvendor/pkg/fetch"
)

const (
	// configFile is looked up in the project root when --config is not given.
	configFile = appName + ".toml"
	// envFile holds environment overrides, also in the project root.
	envFile = ".env"
	// envPrefix namespaces environment overrides, e.g. HTTPSVENDOR_TIMEOUT.
	envPrefix = "HTTPSVENDOR_"
)

// Config holds the settings a run can take from httpsvendor.toml.
type Config struct {
	// CacheDir is the cache directory, relative to the project root unless
	// absolute.
	CacheDir string `toml:"cache_dir"`
	// MaxRedirects caps redirect chains.
	MaxRedirects int `toml:"max_redirects"`
	// Timeout bounds each HTTP request, e.g. "30s".
	Timeout time.Duration `toml:"timeout"`
	// Retries is the number of extra attempts for transient network errors.
	Retries int `toml:"retries"`
	// UserAgent is sent with every request.
	UserAgent string `toml:"user_agent"`
}

// defaultConfig returns the built-in settings.
func defaultConfig() Config {
	return Config{
		CacheDir:     cache.DefaultCacheDir,
		MaxRedirects: crawl.DefaultMaxRedirects,
		Timeout:      fetch.DefaultTimeout,
		UserAgent:    buildinfo.UserAgent(),
	}
}

// loadConfig layers the TOML file at path over the defaults. A missing file
// is fine unless required is set, as it is for an explicit --config.
func loadConfig(path string, required bool) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return defaultConfig(), nil
		}
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return Config{}, errors.New(errors.ErrCodeInvalidConfig, "%s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return cfg, cfg.validate()
}

// applyEnv overrides cfg with HTTPSVENDOR_* variables from the process
// environment or, failing that, from the dotenv file at path. The file is
// read without touching the process environment.
func applyEnv(cfg *Config, path string) error {
	file, err := godotenv.Read(path)
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(envPrefix + key); ok {
			return v, true
		}
		v, ok := file[envPrefix+key]
		return v, ok
	}
	integer := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s%s", envPrefix, key)
		}
		*dst = n
		return nil
	}

	if v, ok := lookup("CACHE_DIR"); ok {
		cfg.CacheDir = v
	}
	if v, ok := lookup("USER_AGENT"); ok {
		cfg.UserAgent = v
	}
	if v, ok := lookup("TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "%sTIMEOUT", envPrefix)
		}
		cfg.Timeout = d
	}
	if err := integer("MAX_REDIRECTS", &cfg.MaxRedirects); err != nil {
		return err
	}
	return integer("RETRIES", &cfg.Retries)
}

func (c Config) validate() error {
	switch {
	case c.CacheDir == "":
		return errors.New(errors.ErrCodeInvalidConfig, "cache_dir must not be empty")
	case c.MaxRedirects < 1:
		return errors.New(errors.ErrCodeInvalidConfig, "max_redirects must be at least 1, got %d", c.MaxRedirects)
	case c.Timeout <= 0:
		return errors.New(errors.ErrCodeInvalidConfig, "timeout must be positive, got %s", c.Timeout)
	case c.Retries < 0:
		return errors.New(errors.ErrCodeInvalidConfig, "retries must not be negative, got %d", c.Retries)
	}
	return errors.ValidatePath(c.CacheDir)
}

// cachePath returns the absolute cache directory for the project at root.
func (c Config) cachePath(root string) string {
	if filepath.IsAbs(c.CacheDir) {
		return c.CacheDir
	}
	return filepath.Join(root, c.CacheDir)
}
