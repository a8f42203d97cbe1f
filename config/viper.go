package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/duke-git/lancet/v2/fileutil"
	"github.com/duke-git/lancet/v2/validator"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

// DotEnvFile is read when no config file is given explicitly.
const DotEnvFile = ".env"

type Config struct {
	ConfluenceURL      string        `toml:"confluence_url" mapstructure:"confluence_url"`
	ConfluenceUsername string        `toml:"confluence_username" mapstructure:"confluence_username"`
	ConfluenceAPIToken string        `toml:"confluence_api_token" mapstructure:"confluence_api_token"`
	PageID             string        `toml:"page_id" mapstructure:"page_id"`
	HTTPTimeout        time.Duration `toml:"http_timeout" mapstructure:"http_timeout"`

	APIHost string   `toml:"api_host" mapstructure:"api_host"`
	APIPort int      `toml:"api_port" mapstructure:"api_port"`
	APIKeys []string `toml:"api_keys" mapstructure:"api_keys"`
	APIRPM  int      `toml:"api_rpm" mapstructure:"api_rpm"`

	LogLevel string `toml:"log_level" mapstructure:"log_level"`
}

// required keys, in the order they are reported when missing
var requiredKeys = []string{
	"confluence_url",
	"confluence_username",
	"confluence_api_token",
	"page_id",
}

var optionalKeys = []string{
	"http_timeout",
	"api_host",
	"api_port",
	"api_keys",
	"api_rpm",
	"log_level",
}

// EnvName maps a config key to the environment variable it is read from.
func EnvName(key string) string {
	return strings.ToUpper(key)
}

// Load reads configuration from the environment and, when present, from path.
// An empty path falls back to a .env file in the working directory.
// Environment variables take precedence over the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("http_timeout", DefaultHTTPTimeout)
	v.SetDefault("api_host", DefaultAPIHost)
	v.SetDefault("api_port", DefaultAPIPort)
	v.SetDefault("api_keys", []string{})
	v.SetDefault("api_rpm", DefaultAPIRPM)
	v.SetDefault("log_level", "info")

	for _, key := range append(append([]string{}, requiredKeys...), optionalKeys...) {
		if err := v.BindEnv(key, EnvName(key)); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	explicit := path != ""
	if !explicit {
		path = DotEnvFile
	}
	if fileutil.IsExist(path) {
		v.SetConfigFile(path)
		v.SetConfigType(configType(path))
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("config file %s does not exist", path)
	}

	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	c.APIKeys = compact(c.APIKeys)
	return c, nil
}

func configType(path string) string {
	base := filepath.Base(path)
	if base == DotEnvFile || strings.HasSuffix(base, DotEnvFile) {
		return "env"
	}
	if ext := strings.TrimPrefix(filepath.Ext(base), "."); ext != "" {
		return ext
	}
	return "env"
}

func compact(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

// Validate checks that every required value is present and usable.
// Missing values are reported together as a *MissingError.
func (c *Config) Validate() error {
	values := map[string]string{
		"confluence_url":       c.ConfluenceURL,
		"confluence_username":  c.ConfluenceUsername,
		"confluence_api_token": c.ConfluenceAPIToken,
		"page_id":              c.PageID,
	}
	var missing []string
	var errs error
	for _, key := range requiredKeys {
		if strings.TrimSpace(values[key]) == "" {
			missing = append(missing, EnvName(key))
			errs = multierr.Append(errs, fmt.Errorf("%s is not set", EnvName(key)))
		}
	}
	if len(missing) > 0 {
		return &MissingError{Keys: missing, err: errs}
	}
	if !validator.IsUrl(c.ConfluenceURL) || !strings.HasPrefix(strings.ToLower(c.ConfluenceURL), "http") {
		return fmt.Errorf("CONFLUENCE_URL %q is not a valid http(s) URL", c.ConfluenceURL)
	}
	return nil
}

// Addr is the listen address of the HTTP transport.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.APIHost, c.APIPort)
}

type MissingError struct {
	Keys []string
	err  error
}

func (e *MissingError) Error() string {
	return "missing required configuration: " + strings.Join(e.Keys, ", ")
}

// Errors returns one error per missing key.
func (e *MissingError) Errors() []error {
	return multierr.Errors(e.err)
}
