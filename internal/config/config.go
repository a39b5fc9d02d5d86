// Package config provides configuration loading and management for trackersync.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// EnvGitHubToken is the environment variable holding the content-store
	// token when no token file is configured.
	EnvGitHubToken = "TRACKERSYNC_GITHUB_TOKEN"

	// DefaultAPIBaseURL is the content-store API endpoint used when none is
	// configured. Tests point this at a local server.
	DefaultAPIBaseURL = "https://api.github.com"

	// DefaultTrackersPath is the primary artifact path in the target repo.
	DefaultTrackersPath = "trackers.txt"

	// DefaultBestTrackersPath is the best-subset artifact path.
	DefaultBestTrackersPath = "trackers_best.txt"

	// DefaultReadmePath is the dependent document patched after a primary update.
	DefaultReadmePath = "README.md"
)

const (
	defaultFetchTimeout   = "10s"
	defaultFetchRetries   = 3
	defaultFetchDelay     = "2s"
	defaultWorkers        = 4
	defaultProbeTimeout   = "5s"
	defaultTopN           = 4
	defaultSafetyFloor    = 50
	defaultPublishRetries = 3
	defaultPublishDelay   = "2s"
	defaultPublishTimeout = "10s"
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		// Validate the path to prevent path traversal attacks
		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure. It is read-only after
// Load returns; every component receives it and never mutates it.
type Config struct {
	// Sources is the list of tracker-list URLs aggregated each run
	Sources []string `yaml:"sources"`

	Fetch   FetchConfig   `yaml:"fetch,omitempty"`
	Probe   ProbeConfig   `yaml:"probe,omitempty"`
	Select  SelectConfig  `yaml:"select,omitempty"`
	Publish PublishConfig `yaml:"publish"`

	// SafetyFloor is the minimum aggregated endpoint count required before
	// any publish is attempted
	SafetyFloor int `yaml:"safetyFloor,omitempty"`

	// LogFile optionally tees structured log output to a file
	LogFile string `yaml:"logFile,omitempty"`
}

// FetchConfig defines source retrieval settings
type FetchConfig struct {
	// Timeout is the per-request timeout (Go duration string)
	Timeout string `yaml:"timeout,omitempty"`

	// Retries is the maximum attempt count per source
	Retries int `yaml:"retries,omitempty"`

	// RetryDelay is the base backoff delay, doubled per attempt
	RetryDelay string `yaml:"retryDelay,omitempty"`

	// Workers is the fetch worker-pool width
	Workers int `yaml:"workers,omitempty"`

	timeout    time.Duration
	retryDelay time.Duration
}

// ProbeConfig defines health-probe settings
type ProbeConfig struct {
	// Timeout is the per-probe timeout (Go duration string)
	Timeout string `yaml:"timeout,omitempty"`

	// Workers is the probe worker-pool width
	Workers int `yaml:"workers,omitempty"`

	timeout time.Duration
}

// SelectConfig defines best-subset selection settings
type SelectConfig struct {
	// TopN caps the size of the published best subset
	TopN int `yaml:"topN,omitempty"`
}

// PublishConfig defines the content-store target and write policy
type PublishConfig struct {
	// Owner and Repo identify the target repository
	Owner string `yaml:"owner"`
	Repo  string `yaml:"repo"`

	// APIBaseURL overrides the content-store endpoint (tests, GHE)
	APIBaseURL string `yaml:"apiBaseURL,omitempty"`

	// TrackersPath is the primary artifact; a missing version token is
	// tolerated only for this path (first-time creation)
	TrackersPath string `yaml:"trackersPath,omitempty"`

	// BestTrackersPath is the optional best-subset artifact
	BestTrackersPath string `yaml:"bestTrackersPath,omitempty"`

	// ReadmePath is the dependent document updated after the primary artifact
	ReadmePath string `yaml:"readmePath,omitempty"`

	// TokenFile is a file containing the API token. When set it takes
	// precedence over the environment variable.
	TokenFile string `yaml:"tokenFile,omitempty"`

	// Retries is the maximum attempt count per remote call
	Retries int `yaml:"retries,omitempty"`

	// RetryDelay is the base backoff delay, doubled per attempt
	RetryDelay string `yaml:"retryDelay,omitempty"`

	// Timeout is the per-request timeout (Go duration string)
	Timeout string `yaml:"timeout,omitempty"`

	retryDelay time.Duration
	timeout    time.Duration
}

// TimeoutDuration returns the parsed per-request fetch timeout.
func (f *FetchConfig) TimeoutDuration() time.Duration { return f.timeout }

// RetryDelayDuration returns the parsed base backoff delay.
func (f *FetchConfig) RetryDelayDuration() time.Duration { return f.retryDelay }

// TimeoutDuration returns the parsed per-probe timeout.
func (p *ProbeConfig) TimeoutDuration() time.Duration { return p.timeout }

// TimeoutDuration returns the parsed per-request publish timeout.
func (p *PublishConfig) TimeoutDuration() time.Duration { return p.timeout }

// RetryDelayDuration returns the parsed base backoff delay for publishes.
func (p *PublishConfig) RetryDelayDuration() time.Duration { return p.retryDelay }

// GetToken returns the content-store API token. It checks the token file
// first, then falls back to the environment variable. Returns an error if
// neither is available.
func (p *PublishConfig) GetToken() (string, error) {
	if p.TokenFile != "" {
		data, err := os.ReadFile(p.TokenFile)
		if err != nil {
			return "", fmt.Errorf("failed to read token file %s: %w", p.TokenFile, err)
		}
		token := strings.TrimSpace(string(data))
		if token == "" {
			return "", fmt.Errorf("token file %s is empty", p.TokenFile)
		}
		return token, nil
	}

	if token := os.Getenv(EnvGitHubToken); token != "" {
		return token, nil
	}

	return "", fmt.Errorf("no token available: set %s or configure tokenFile", EnvGitHubToken)
}

// Load reads, defaults, and validates a configuration
func Load(opts ...Option) (*Config, error) {
	loader := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loader); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if loader.path == "" {
		return nil, fmt.Errorf("no configuration source provided")
	}

	data, err := os.ReadFile(loader.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Fetch.Timeout == "" {
		c.Fetch.Timeout = defaultFetchTimeout
	}
	if c.Fetch.Retries == 0 {
		c.Fetch.Retries = defaultFetchRetries
	}
	if c.Fetch.RetryDelay == "" {
		c.Fetch.RetryDelay = defaultFetchDelay
	}
	if c.Fetch.Workers == 0 {
		c.Fetch.Workers = defaultWorkers
	}
	if c.Probe.Timeout == "" {
		c.Probe.Timeout = defaultProbeTimeout
	}
	if c.Probe.Workers == 0 {
		c.Probe.Workers = defaultWorkers
	}
	if c.Select.TopN == 0 {
		c.Select.TopN = defaultTopN
	}
	if c.SafetyFloor == 0 {
		c.SafetyFloor = defaultSafetyFloor
	}
	if c.Publish.APIBaseURL == "" {
		c.Publish.APIBaseURL = DefaultAPIBaseURL
	}
	if c.Publish.TrackersPath == "" {
		c.Publish.TrackersPath = DefaultTrackersPath
	}
	if c.Publish.BestTrackersPath == "" {
		c.Publish.BestTrackersPath = DefaultBestTrackersPath
	}
	if c.Publish.ReadmePath == "" {
		c.Publish.ReadmePath = DefaultReadmePath
	}
	if c.Publish.Retries == 0 {
		c.Publish.Retries = defaultPublishRetries
	}
	if c.Publish.RetryDelay == "" {
		c.Publish.RetryDelay = defaultPublishDelay
	}
	if c.Publish.Timeout == "" {
		c.Publish.Timeout = defaultPublishTimeout
	}
}

func (c *Config) validate() error {
	if len(c.Sources) == 0 {
		return fmt.Errorf("at least one source URL is required")
	}
	for _, src := range c.Sources {
		u, err := url.Parse(src)
		if err != nil {
			return fmt.Errorf("invalid source URL %q: %w", src, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("source URL %q must use http or https", src)
		}
	}

	if c.Fetch.Retries < 1 {
		return fmt.Errorf("fetch retries must be at least 1, got %d", c.Fetch.Retries)
	}
	if c.Fetch.Workers < 1 {
		return fmt.Errorf("fetch workers must be at least 1, got %d", c.Fetch.Workers)
	}
	if c.Probe.Workers < 1 {
		return fmt.Errorf("probe workers must be at least 1, got %d", c.Probe.Workers)
	}
	if c.Select.TopN < 1 {
		return fmt.Errorf("select topN must be at least 1, got %d", c.Select.TopN)
	}
	if c.SafetyFloor < 0 {
		return fmt.Errorf("safetyFloor must not be negative, got %d", c.SafetyFloor)
	}
	if c.Publish.Owner == "" {
		return fmt.Errorf("publish owner is required")
	}
	if c.Publish.Repo == "" {
		return fmt.Errorf("publish repo is required")
	}
	if c.Publish.Retries < 1 {
		return fmt.Errorf("publish retries must be at least 1, got %d", c.Publish.Retries)
	}
	if _, err := url.Parse(c.Publish.APIBaseURL); err != nil {
		return fmt.Errorf("invalid publish apiBaseURL: %w", err)
	}

	var err error
	if c.Fetch.timeout, err = time.ParseDuration(c.Fetch.Timeout); err != nil {
		return fmt.Errorf("invalid fetch timeout: %w", err)
	}
	if c.Fetch.retryDelay, err = time.ParseDuration(c.Fetch.RetryDelay); err != nil {
		return fmt.Errorf("invalid fetch retryDelay: %w", err)
	}
	if c.Probe.timeout, err = time.ParseDuration(c.Probe.Timeout); err != nil {
		return fmt.Errorf("invalid probe timeout: %w", err)
	}
	if c.Publish.retryDelay, err = time.ParseDuration(c.Publish.RetryDelay); err != nil {
		return fmt.Errorf("invalid publish retryDelay: %w", err)
	}
	if c.Publish.timeout, err = time.ParseDuration(c.Publish.Timeout); err != nil {
		return fmt.Errorf("invalid publish timeout: %w", err)
	}

	for _, d := range []struct {
		name  string
		value time.Duration
	}{
		{"fetch timeout", c.Fetch.timeout},
		{"fetch retryDelay", c.Fetch.retryDelay},
		{"probe timeout", c.Probe.timeout},
		{"publish retryDelay", c.Publish.retryDelay},
		{"publish timeout", c.Publish.timeout},
	} {
		if d.value <= 0 {
			return fmt.Errorf("%s must be positive, got %s", d.name, d.value)
		}
	}

	return nil
}
