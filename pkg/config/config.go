package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// KeysEnv holds the comma separated Groq bearer tokens. It is read on
	// every request and never cached.
	KeysEnv = "GROQ_API_KEYS"

	DefaultUpstreamURL = "https://api.groq.com/openai/v1/chat/completions"
	DefaultModel       = "llama3-8b-8192"
	DefaultRoute       = "/api/groq"
	DefaultPort        = 8080

	// Sampling parameters sent with every upstream request
	Temperature = 0.7
	MaxTokens   = 4096
)

// Config represents the application configuration
type Config struct {
	Port         int
	Debug        bool
	Version      bool
	Route        string
	UpstreamURL  string
	DefaultModel string
	LogFile      string
	CORSOrigins  []string

	// Viper is kept so the key pool can be looked up per request.
	Viper *viper.Viper
}

// Options are the command line overrides
type Options struct {
	ConfigFile string
	Port       int
	Debug      bool
	Version    bool
}

// ParseFlags parses command line flags into Options
func ParseFlags(fs *flag.FlagSet, args []string) (Options, error) {
	var opts Options
	fs.StringVar(&opts.ConfigFile, "config", "", "path to a config file (yaml, json or toml)")
	fs.IntVar(&opts.Port, "port", 0, "listening port")
	fs.BoolVar(&opts.Debug, "debug", false, "enable debug logging")
	fs.BoolVar(&opts.Version, "version", false, "show version")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	return opts, nil
}

// NewViper returns a viper instance bound to the process environment with
// the relay defaults registered.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("port", DefaultPort)
	v.SetDefault("route", DefaultRoute)
	v.SetDefault("upstream_url", DefaultUpstreamURL)
	v.SetDefault("default_model", DefaultModel)
	v.SetDefault("debug", false)
	v.SetDefault("log_file", "")
	v.SetDefault("cors_origins", "")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load builds the configuration from .env, the environment, an optional
// config file and the command line, in increasing priority.
func Load(opts Options) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := NewViper()
	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", opts.ConfigFile, err)
		}
	}
	if opts.Port != 0 {
		v.Set("port", opts.Port)
	}
	if opts.Debug {
		v.Set("debug", true)
	}

	cfg := FromViper(v)
	cfg.Version = opts.Version
	return cfg, cfg.Validate()
}

// FromViper snapshots the static settings held by v
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Port:         v.GetInt("port"),
		Debug:        v.GetBool("debug"),
		Route:        v.GetString("route"),
		UpstreamURL:  v.GetString("upstream_url"),
		DefaultModel: v.GetString("default_model"),
		LogFile:      v.GetString("log_file"),
		CORSOrigins:  splitList(v.GetString("cors_origins")),
		Viper:        v,
	}
}

// Validate checks the static settings. The key pool is deliberately not
// checked here: a missing pool is reported per request.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if !strings.HasPrefix(c.Route, "/") {
		return fmt.Errorf("route must start with '/': %q", c.Route)
	}
	if !strings.HasPrefix(c.UpstreamURL, "http://") && !strings.HasPrefix(c.UpstreamURL, "https://") {
		return fmt.Errorf("upstream url must be http(s): %q", c.UpstreamURL)
	}
	if c.DefaultModel == "" {
		return errors.New("default model must not be empty")
	}
	return nil
}

// CORSEnabled reports whether cors_origins was set. Without it the relay
// route answers every non-POST method, OPTIONS included, with 405.
func (c *Config) CORSEnabled() bool {
	return len(c.CORSOrigins) > 0
}

// AllowAllOrigins reports whether CORS should accept any origin
func (c *Config) AllowAllOrigins() bool {
	return len(c.CORSOrigins) == 1 && c.CORSOrigins[0] == "*"
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
