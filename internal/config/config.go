package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// HookRule runs a command after a deploy when any of its paths changed.
// A rule without paths runs after every deploy.
type HookRule struct {
	Paths []string `mapstructure:"paths"`
	Run   string   `mapstructure:"run"`
}

// SSHConfig holds the ssh client settings for remote deploys.
type SSHConfig struct {
	User                  string        `mapstructure:"user"`
	Port                  int           `mapstructure:"port"`
	IdentityFile          string        `mapstructure:"identity_file"`
	KnownHostsFile        string        `mapstructure:"known_hosts_file"`
	InsecureIgnoreHostKey bool          `mapstructure:"insecure_ignore_host_key"`
	ConfigFile            string        `mapstructure:"config_file"`
	DialTimeout           time.Duration `mapstructure:"dial_timeout"`
}

type Config struct {
	InstallDir   string     `mapstructure:"install_dir"`
	ReleasesRepo string     `mapstructure:"releases_repo"`
	ReleasePaths []string   `mapstructure:"release_paths"`
	PostUpdate   []HookRule `mapstructure:"post_update"`
	Clean        bool       `mapstructure:"clean"`
	ReleasesDir  string     `mapstructure:"releases_dir"`
	Branch       string     `mapstructure:"branch"`
	Remote       string     `mapstructure:"remote"`
	Host         string     `mapstructure:"host"`
	SSH          SSHConfig  `mapstructure:"ssh"`
	LogLevel     string     `mapstructure:"log_level"`
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		Clean:       true,
		ReleasesDir: "releases.git",
		Branch:      "master",
		Remote:      "origin",
		LogLevel:    "warn",
		SSH: SSHConfig{
			DialTimeout: 30 * time.Second,
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.ReleasesDir == "" {
		return fmt.Errorf("releases_dir cannot be empty")
	}
	if err := ValidateRefName(c.Branch); err != nil {
		return fmt.Errorf("invalid branch: %w", err)
	}
	if err := ValidateRefName(c.Remote); err != nil {
		return fmt.Errorf("invalid remote: %w", err)
	}
	for i, rule := range c.PostUpdate {
		if strings.TrimSpace(rule.Run) == "" {
			return fmt.Errorf("post_update[%d]: run cannot be empty", i)
		}
	}
	if c.SSH.Port < 0 || c.SSH.Port > 65535 {
		return fmt.Errorf("ssh.port out of range: %d", c.SSH.Port)
	}
	return nil
}

// ValidateForRelease validates the options a release needs.
func (c *Config) ValidateForRelease() error {
	if c.ReleasesRepo == "" {
		return fmt.Errorf("releases_repo is required to create a release")
	}
	if len(c.ReleasePaths) == 0 {
		return fmt.Errorf("release_paths is required to create a release")
	}
	for _, p := range c.ReleasePaths {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("release_paths cannot contain empty entries")
		}
		if filepath.IsAbs(p) || strings.HasPrefix(filepath.Clean(p), "..") {
			return fmt.Errorf("release path %q must be inside the working tree", p)
		}
	}
	return c.Validate()
}

// ValidateForDeploy validates the options a deploy needs.
func (c *Config) ValidateForDeploy() error {
	if c.ReleasesRepo == "" {
		return fmt.Errorf("releases_repo is required to deploy")
	}
	if c.InstallDir == "" {
		return fmt.Errorf("install_dir is required to deploy")
	}
	return c.Validate()
}

// ValidateRefName performs the checks git applies to simple branch and remote names.
func ValidateRefName(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if strings.HasPrefix(name, "-") || strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/") {
		return fmt.Errorf("invalid name: %s", name)
	}
	if strings.Contains(name, "..") || strings.HasSuffix(name, ".lock") {
		return fmt.Errorf("invalid name: %s", name)
	}
	if strings.ContainsAny(name, " ~^:?*[\\") {
		return fmt.Errorf("invalid name: %s", name)
	}
	return nil
}

// LoadConfig reads .gitdeploy.yaml from dir (if present) and GITDEPLOY_* environment variables.
func LoadConfig(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(".gitdeploy")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	// Configure environment variables
	v.SetEnvPrefix("GITDEPLOY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Set defaults
	defaults := DefaultConfig()
	v.SetDefault("clean", defaults.Clean)
	v.SetDefault("releases_dir", defaults.ReleasesDir)
	v.SetDefault("branch", defaults.Branch)
	v.SetDefault("remote", defaults.Remote)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("ssh.dial_timeout", defaults.SSH.DialTimeout)
	// Keys without defaults must be known for AutomaticEnv to pick them up on Unmarshal
	for _, key := range []string{
		"install_dir", "releases_repo", "release_paths", "host",
		"ssh.user", "ssh.port", "ssh.identity_file", "ssh.known_hosts_file",
		"ssh.insecure_ignore_host_key", "ssh.config_file",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s env: %w", key, err)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &config, nil
}
