package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	DefaultFetchTimeoutSeconds = 10
	DefaultLogLevel            = "info"
	DefaultFormat              = "auto"
	DefaultMessageHeader       = "[upcheck] "
)

// Config holds the application configuration.
type Config struct {
	AppName       string
	LocalVersion  string
	DescriptorURL string
	Format        string
	DownloadURL   string

	Permission    string
	MessageHeader string

	// FetchTimeoutSeconds bounds the descriptor fetch; 0 disables the deadline.
	FetchTimeoutSeconds int

	LogLevel   string
	LogFile    string
	DBPath     string
	ConfigPath string
	UpcheckDir string
}

type fileConfig struct {
	App struct {
		Name    string `toml:"name"`
		Version string `toml:"version"`
	} `toml:"app"`
	Update struct {
		DescriptorURL       string `toml:"descriptor_url"`
		Format              string `toml:"format"`
		DownloadURL         string `toml:"download_url"`
		FetchTimeoutSeconds int    `toml:"fetch_timeout_seconds"`
	} `toml:"update"`
	Notify struct {
		Permission string `toml:"permission"`
		Header     string `toml:"header"`
	} `toml:"notify"`
	Logging struct {
		Level string `toml:"level"`
		File  string `toml:"file"`
	} `toml:"logging"`
	History struct {
		Path string `toml:"path"`
	} `toml:"history"`
}

// LoadConfig loads configuration from file, environment variables, and
// defaults, in increasing order of precedence. An empty explicitPath falls
// back to $HOME/.upcheck/config.toml.
func LoadConfig(explicitPath string) (*Config, error) {
	dir, err := upcheckDir()
	if err != nil {
		return nil, err
	}

	configPath := explicitPath
	if configPath == "" {
		configPath = filepath.Join(dir, "config.toml")
	}

	cfg := &Config{
		AppName:             "upcheck",
		Format:              DefaultFormat,
		MessageHeader:       DefaultMessageHeader,
		FetchTimeoutSeconds: DefaultFetchTimeoutSeconds,
		LogLevel:            DefaultLogLevel,
		LogFile:             filepath.Join(dir, "logs", "upcheck.log"),
		DBPath:              filepath.Join(dir, "history.sqlite3"),
		ConfigPath:          configPath,
		UpcheckDir:          dir,
	}

	if _, err := os.Stat(configPath); err == nil {
		fileData, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}

		var parsed fileConfig
		if err := toml.Unmarshal(fileData, &parsed); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", configPath, err)
		}

		if parsed.App.Name != "" {
			cfg.AppName = parsed.App.Name
		}
		if parsed.App.Version != "" {
			cfg.LocalVersion = parsed.App.Version
		}
		if parsed.Update.DescriptorURL != "" {
			cfg.DescriptorURL = parsed.Update.DescriptorURL
		}
		if parsed.Update.Format != "" {
			cfg.Format = parsed.Update.Format
		}
		if parsed.Update.DownloadURL != "" {
			cfg.DownloadURL = parsed.Update.DownloadURL
		}
		if parsed.Update.FetchTimeoutSeconds > 0 {
			cfg.FetchTimeoutSeconds = parsed.Update.FetchTimeoutSeconds
		}
		if parsed.Notify.Permission != "" {
			cfg.Permission = parsed.Notify.Permission
		}
		if parsed.Notify.Header != "" {
			cfg.MessageHeader = parsed.Notify.Header
		}
		if parsed.Logging.Level != "" {
			cfg.LogLevel = parsed.Logging.Level
		}
		if parsed.Logging.File != "" {
			cfg.LogFile = parsed.Logging.File
		}
		if parsed.History.Path != "" {
			cfg.DBPath = parsed.History.Path
		}
	} else if explicitPath != "" {
		return nil, fmt.Errorf("config file not found: %s", explicitPath)
	}

	// Apply environment variable overrides
	if name := os.Getenv("UPCHECK_APP_NAME"); name != "" {
		cfg.AppName = name
	}
	if v := os.Getenv("UPCHECK_LOCAL_VERSION"); v != "" {
		cfg.LocalVersion = v
	}
	if u := os.Getenv("UPCHECK_DESCRIPTOR_URL"); u != "" {
		cfg.DescriptorURL = u
	}
	if f := os.Getenv("UPCHECK_FORMAT"); f != "" {
		cfg.Format = f
	}
	if u := os.Getenv("UPCHECK_DOWNLOAD_URL"); u != "" {
		cfg.DownloadURL = u
	}
	if timeoutStr := os.Getenv("UPCHECK_FETCH_TIMEOUT_SECONDS"); timeoutStr != "" {
		if timeout, err := strconv.Atoi(timeoutStr); err == nil {
			cfg.FetchTimeoutSeconds = timeout
		}
	}
	if perm := os.Getenv("UPCHECK_PERMISSION"); perm != "" {
		cfg.Permission = perm
	}
	if level := os.Getenv("UPCHECK_LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}
	if logFile := os.Getenv("UPCHECK_LOG_FILE"); logFile != "" {
		cfg.LogFile = logFile
	}
	if dbPath := os.Getenv("UPCHECK_DB_PATH"); dbPath != "" {
		cfg.DBPath = dbPath
	}

	if !filepath.IsAbs(cfg.LogFile) {
		cfg.LogFile = filepath.Join(dir, cfg.LogFile)
	}
	if !filepath.IsAbs(cfg.DBPath) {
		cfg.DBPath = filepath.Join(dir, cfg.DBPath)
	}

	return cfg, nil
}

// FetchTimeout returns the descriptor fetch deadline; zero means none.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

// Validate verifies the configuration is usable.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DescriptorURL) == "" {
		return fmt.Errorf("descriptor URL is empty")
	}
	if u, err := url.Parse(c.DescriptorURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("descriptor URL is not absolute: %q", c.DescriptorURL)
	}
	if strings.TrimSpace(c.LocalVersion) == "" {
		return fmt.Errorf("local version is empty")
	}
	if c.FetchTimeoutSeconds < 0 {
		return fmt.Errorf("fetch timeout cannot be negative")
	}
	switch strings.ToLower(c.Format) {
	case "", "auto", "xml", "json", "toml", "yaml":
	default:
		return fmt.Errorf("unknown descriptor format: %q", c.Format)
	}
	return nil
}

func upcheckDir() (string, error) {
	if dir := os.Getenv("UPCHECK_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".upcheck"), nil
}
