package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/brogergvhs/genrescrape/internal/genrecache"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

const (
	DefaultBaseURL   = "https://www.netflix.com/"
	DefaultLoginPath = "/login"

	envEmail    = "GENRESCRAPE_EMAIL"
	envPassword = "GENRESCRAPE_PASSWORD"
	envProfile  = "GENRESCRAPE_PROFILE"
)

type Config struct {
	Email string `yaml:"email"`
	// Password is never written to disk; it comes from the environment, a
	// flag or a prompt.
	Password string `yaml:"-"`
	Profile  string `yaml:"profile"`

	BaseURL   string `yaml:"base_url"`
	LoginPath string `yaml:"login_path"`

	CachePath    string `yaml:"cache_path"`
	CacheBackend string `yaml:"cache_backend"`

	UserAgent  string        `yaml:"user_agent"`
	Cookie     string        `yaml:"cookie"`
	CookieFile string        `yaml:"cookie_file"`
	Timeout    time.Duration `yaml:"timeout"`
	RateLimit  float64       `yaml:"rate_limit"`

	Progress    bool   `yaml:"progress"`
	MetricsAddr string `yaml:"metrics_addr"`
	Verbosity   int    `yaml:"verbosity"`
}

type Options struct {
	IgnoreConfig bool
	// Overrides holds values set on the command line. Zero values leave the
	// file and environment values alone.
	Overrides Config
}

func DefaultConfig() *Config {
	return &Config{
		BaseURL:      DefaultBaseURL,
		LoginPath:    DefaultLoginPath,
		CacheBackend: string(genrecache.BackendBadger),
	}
}

func SaveYAML(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func loadYAML(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return &c, nil
}

// localPath is the untracked sibling of a config file, e.g. us.local.yaml
// next to us.yaml.
func localPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".local" + ext
}

// LoadMerged layers, lowest first: defaults, the active config file, its
// .local sibling, environment variables and command line overrides. The
// returned string says where the file layer came from.
func LoadMerged(opts Options) (*Config, string, error) {
	cfg := DefaultConfig()
	used := "(ignored config)"

	if !opts.IgnoreConfig {
		var err error
		used, err = mergeFiles(cfg)
		if err != nil {
			return nil, "", err
		}
	}

	if err := mergo.Merge(cfg, fromEnv(), mergo.WithOverride); err != nil {
		return nil, "", err
	}
	if err := mergo.Merge(cfg, opts.Overrides, mergo.WithOverride); err != nil {
		return nil, "", err
	}
	normalizeDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}

	return cfg, used, nil
}

func mergeFiles(cfg *Config) (string, error) {
	activePath, err := ActiveConfigPath()
	if errors.Is(err, ErrNoConfig) {
		return "(default config in memory)\nRun `genrescrape config init` to create an actual config\n", nil
	}
	if err != nil {
		return "", err
	}

	for _, path := range []string{activePath, localPath(activePath)} {
		file, err := loadYAML(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to load config %s: %w", path, err)
		}
		if err := mergo.Merge(cfg, *file, mergo.WithOverride); err != nil {
			return "", err
		}
	}

	return activePath, nil
}

func fromEnv() Config {
	return Config{
		Email:    os.Getenv(envEmail),
		Password: os.Getenv(envPassword),
		Profile:  os.Getenv(envProfile),
	}
}

func normalizeDefaults(c *Config) {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.LoginPath == "" {
		c.LoginPath = DefaultLoginPath
	}
	if c.CacheBackend == "" {
		c.CacheBackend = string(genrecache.BackendBadger)
	}
	if c.CachePath == "" {
		c.CachePath = DefaultCachePath(genrecache.Backend(c.CacheBackend))
	}
}

func (c *Config) Validate() error {
	if _, err := genrecache.ParseBackend(c.CacheBackend); err != nil {
		return err
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate_limit must not be negative, got %g", c.RateLimit)
	}
	return nil
}

func (c *Config) Print(w io.Writer) {
	if c.Email != "" {
		fmt.Fprintf(w, " -email: %s\n", c.Email)
	}
	if c.Password != "" {
		fmt.Fprintf(w, " -password: %s\n", strings.Repeat("*", 8))
	}
	if c.Profile != "" {
		fmt.Fprintf(w, " -profile: %s\n", c.Profile)
	}
	fmt.Fprintf(w, " -base_url: %s\n", c.BaseURL)
	fmt.Fprintf(w, " -login_path: %s\n", c.LoginPath)
	fmt.Fprintf(w, " -cache_backend: %s\n", c.CacheBackend)
	if c.CachePath != "" {
		fmt.Fprintf(w, " -cache_path: %s\n", c.CachePath)
	}
	if c.UserAgent != "" {
		fmt.Fprintf(w, " -user_agent: %s\n", c.UserAgent)
	}
	if c.CookieFile != "" {
		fmt.Fprintf(w, " -cookie_file: %s\n", c.CookieFile)
	}
	if c.Timeout > 0 {
		fmt.Fprintf(w, " -timeout: %s\n", c.Timeout)
	}
	if c.RateLimit > 0 {
		fmt.Fprintf(w, " -rate_limit: %g\n", c.RateLimit)
	}
	if c.Progress {
		fmt.Fprintf(w, " -progress: %t\n", c.Progress)
	}
	if c.MetricsAddr != "" {
		fmt.Fprintf(w, " -metrics_addr: %s\n", c.MetricsAddr)
	}
	if c.Verbosity > 0 {
		fmt.Fprintf(w, " -verbosity: %d\n", c.Verbosity)
	}
}
