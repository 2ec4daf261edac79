package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Netflix/go-env"
)

// Environment variables with defaults
type ServerEnvironment struct {

	// http server settings
	Environment           string        `env:"ENVIRONMENT,default=dev"`
	Host                  string        `env:"HOST"`
	Port                  int           `env:"PORT,default=8282"`
	LogLevel              string        `env:"LOG_LEVEL,default=debug"`
	ServerShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT,default=10s"`
	RateLimitRPS          int32         `env:"RATE_LIMIT_RPS,default=0"`
	RateLimitBurst        int32         `env:"RATE_LIMIT_BURST,default=200"`

	// static assets - STATIC_DIRS replaces the default target/webapp and src/main/webapp roots
	StaticPrefix      string   `env:"STATIC_PREFIX,default=/logout"`
	StaticRoot        string   `env:"STATIC_ROOT,default=."`
	StaticDirOverride []string `env:"STATIC_DIRS,separator=|"`

	// backend the request proxy forwards to
	ProxyTarget             string `env:"PROXY_TARGET,default=https://localhost:8993"`
	ProxyInsecureSkipVerify bool   `env:"PROXY_INSECURE_SKIP_VERIFY,default=true"`
}

var validEnvs = map[string]bool{
	"dev":  true,
	"test": true,
}

// NewServerConfig loads environment variables and returns a ServerEnvironment struct that contains the values
func NewServerConfig() (*ServerEnvironment, error) {
	var cfg ServerEnvironment

	// an empty variable counts as unset, so PORT= still gets the default
	es, err := env.EnvironToEnvSet(os.Environ())
	if err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	for key, value := range es {
		if value == "" {
			delete(es, key)
		}
	}

	err = env.Unmarshal(es, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal environment variables: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// StaticDirs returns the directories served under StaticPrefix, in lookup order.
//
// The build output (target/webapp) comes before the sources (src/main/webapp)
// so compiled assets shadow their sources.
func (c *ServerEnvironment) StaticDirs() []string {
	if len(c.StaticDirOverride) > 0 {
		return c.StaticDirOverride
	}
	return []string{
		filepath.Join(c.StaticRoot, "target", "webapp"),
		filepath.Join(c.StaticRoot, "src", "main", "webapp"),
	}
}

// Addr is the listen address. An empty host listens on all interfaces.
func (c *ServerEnvironment) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func validateConfig(cfg *ServerEnvironment) error {
	// 0 asks the kernel for a free port
	if cfg.Port < 0 || cfg.Port > 65535 {
		return fmt.Errorf("PORT must be between 0 and 65535")
	}
	if !validEnvs[cfg.Environment] {
		return fmt.Errorf("invalid ENVIRONMENT: %s", cfg.Environment)
	}

	if !strings.HasPrefix(cfg.StaticPrefix, "/") {
		return fmt.Errorf("STATIC_PREFIX must start with /, got %q", cfg.StaticPrefix)
	}
	cfg.StaticPrefix = strings.TrimRight(cfg.StaticPrefix, "/")
	if cfg.StaticPrefix == "" {
		return fmt.Errorf("STATIC_PREFIX cannot be /")
	}

	target, err := url.Parse(cfg.ProxyTarget)
	if err != nil {
		return fmt.Errorf("invalid PROXY_TARGET: %w", err)
	}
	if target.Scheme == "" || target.Host == "" {
		return fmt.Errorf("PROXY_TARGET must be an absolute URL, got %q", cfg.ProxyTarget)
	}

	if cfg.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be 0 or greater")
	}

	return nil
}
