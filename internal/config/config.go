// Package config loads the runtime configuration of repo-trends.
//
// Values are layered, lowest precedence first: built-in defaults, an optional
// config file, REPO_TRENDS_* environment variables (GITHUB_TOKEN for the token)
// and finally command-line flags. A .env file in the working directory is read
// into the environment before anything else.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/naka-gawa/repo-trends/internal/domain"
)

// EnvPrefix prefixes every environment variable except the token.
const EnvPrefix = "REPO_TRENDS"

// TokenEnv is the environment variable holding the GitHub token.
const TokenEnv = "GITHUB_TOKEN"

// Defaults pre-fills the search form and the search command.
type Defaults struct {
	Query string `mapstructure:"query"`
	Sort  string `mapstructure:"sort"`
	Order string `mapstructure:"order"`
	Count int    `mapstructure:"count"`
}

// Config holds all runtime configuration. It is built once at startup and
// passed explicitly to the components that need it.
type Config struct {
	Token        string        `mapstructure:"token"`
	RequireToken bool          `mapstructure:"require_token"`
	APIBaseURL   string        `mapstructure:"api_base_url"`
	GraphQLURL   string        `mapstructure:"graphql_url"`
	Addr         string        `mapstructure:"addr"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Defaults     Defaults      `mapstructure:"defaults"`
}

// flagKeys maps config keys to the command-line flags that may override them.
var flagKeys = map[string]string{
	"addr":          "addr",
	"require_token": "require-token",
	"timeout":       "timeout",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("token", "")
	v.SetDefault("require_token", false)
	v.SetDefault("api_base_url", "https://api.github.com/")
	v.SetDefault("graphql_url", "")
	v.SetDefault("addr", ":8501")
	v.SetDefault("timeout", 15*time.Second)
	v.SetDefault("defaults.query", "language:Python")
	v.SetDefault("defaults.sort", string(domain.SortStars))
	v.SetDefault("defaults.order", string(domain.OrderDesc))
	v.SetDefault("defaults.count", 20)
}

// Load reads the configuration. configFile may be empty; flags may be nil.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %q: %w", configFile, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("token", TokenEnv, EnvPrefix+"_TOKEN"); err != nil {
		return nil, fmt.Errorf("failed to bind token env: %w", err)
	}

	if flags != nil {
		for key, name := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag --%s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.GraphQLURL == "" {
		cfg.GraphQLURL = graphQLURLFor(cfg.APIBaseURL)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// graphQLURLFor derives the GraphQL endpoint served next to a REST API root.
// api.github.com serves it at /graphql; GitHub Enterprise Server roots end in
// /api/v3/ and serve it at /api/graphql.
func graphQLURLFor(apiBaseURL string) string {
	u, err := url.Parse(apiBaseURL)
	if err != nil {
		return apiBaseURL
	}
	path := strings.TrimSuffix(u.Path, "/")
	if strings.HasSuffix(path, "/api/v3") {
		u.Path = strings.TrimSuffix(path, "/v3") + "/graphql"
	} else {
		u.Path = path + "/graphql"
	}
	return u.String()
}

// Validate checks the values a run cannot start without.
func (c *Config) Validate() error {
	for name, raw := range map[string]string{"api_base_url": c.APIBaseURL, "graphql_url": c.GraphQLURL} {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid %s %q: expected an http(s) URL", name, raw)
		}
	}
	if c.Addr == "" {
		return errors.New("invalid addr: must not be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("invalid timeout %s: must be positive", c.Timeout)
	}
	if err := c.DefaultQuery().Validate(); err != nil {
		return fmt.Errorf("invalid defaults: %w", err)
	}
	return nil
}

// DefaultQuery returns the configured defaults as a SearchQuery.
func (c *Config) DefaultQuery() domain.SearchQuery {
	return domain.SearchQuery{
		Text:  c.Defaults.Query,
		Sort:  domain.Sort(c.Defaults.Sort),
		Order: domain.Order(c.Defaults.Order),
		Count: c.Defaults.Count,
	}
}
