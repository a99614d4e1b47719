package config

import (
	"time"

	"github.com/conn-castle/scaffold/internal/catalog"
)

// Prompt styles accepted by the prompt key.
const (
	PromptPlain = "plain"
	PromptForm  = "form"
)

// MaxRetries bounds fetch.retries.
const MaxRetries = 5

// DefaultTemplates is the built-in list of starter templates.
var DefaultTemplates = []string{
	"basic-auth",
	"create",
	"custom-auth",
	"digest-auth",
	"dynamic-dropdown",
	"files",
	"middleware",
	"minimal",
	"oauth2",
	"resource",
	"rest-hooks",
	"search",
	"session-auth",
	"trigger",
}

// Config is the scaffold configuration file.
type Config struct {
	DefaultTemplate string          `toml:"default_template"`
	Prompt          string          `toml:"prompt"`
	Source          SourceConfig    `toml:"source"`
	Fetch           FetchConfig     `toml:"fetch"`
	Templates       TemplatesConfig `toml:"templates"`

	timeout time.Duration
}

// SourceConfig describes where template archives are downloaded from.
type SourceConfig struct {
	Owner      string `toml:"owner"`
	RepoPrefix string `toml:"repo_prefix"`
	DefaultRef string `toml:"default_ref"`
	ArchiveURL string `toml:"archive_url"`
	APIURL     string `toml:"api_url"`
}

// FetchConfig bounds template downloads.
type FetchConfig struct {
	Timeout  string `toml:"timeout"`
	MaxBytes int64  `toml:"max_bytes"`
	Retries  int    `toml:"retries"`
	Cache    bool   `toml:"cache"`
}

// TemplatesConfig lists the known template names.
type TemplatesConfig struct {
	Names []string `toml:"names"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		DefaultTemplate: "minimal",
		Prompt:          PromptPlain,
		Source: SourceConfig{
			Owner:      "zapier",
			RepoPrefix: "zapier-platform-example-app-",
			DefaultRef: "master",
			ArchiveURL: "https://github.com/{owner}/{repo}/archive/{ref}.zip",
			APIURL:     "https://api.github.com",
		},
		Fetch: FetchConfig{
			Timeout:  "2m",
			MaxBytes: 100 * 1024 * 1024,
			Retries:  1,
			Cache:    true,
		},
		Templates: TemplatesConfig{
			Names: append([]string(nil), DefaultTemplates...),
		},
		timeout: 2 * time.Minute,
	}
}

// FetchTimeout returns the parsed fetch.timeout. Only meaningful after Validate.
func (c *Config) FetchTimeout() time.Duration {
	return c.timeout
}

// Catalog builds the template catalog described by the config.
func (c *Config) Catalog() *catalog.Catalog {
	return catalog.New(c.Templates.Names, c.DefaultTemplate, catalog.Source{
		Owner:      c.Source.Owner,
		RepoPrefix: c.Source.RepoPrefix,
		DefaultRef: c.Source.DefaultRef,
		ArchiveURL: c.Source.ArchiveURL,
	})
}
