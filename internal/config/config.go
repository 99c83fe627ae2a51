package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pelletier/go-toml/v2"
)

// Environment variables consulted after the config file.
const (
	EnvBaseURL = "TASKBOARD_BASE_URL"
	EnvToken   = "TASKBOARD_TOKEN"
)

const (
	appName = "taskboard"

	DefaultServiceURL      = "http://localhost:3000"
	DefaultRequestTimeout  = 15 * time.Second
	DefaultBulkConcurrency = 8
	DefaultLogLevel        = "info"
)

// Config represents the taskboard configuration
type Config struct {
	ServiceURL        string
	Token             string
	RequestTimeout    time.Duration
	BulkConcurrency   int
	ValidateResponses bool
	KeyBindings       map[string]string
	Theme             ThemeConfig
	Log               LogConfig

	// Path is the file the config was read from, empty for defaults.
	Path string
}

// ThemeConfig defines color and styling options
type ThemeConfig struct {
	PrimaryColor   string `json:"primaryColor" toml:"primaryColor"`
	SecondaryColor string `json:"secondaryColor" toml:"secondaryColor"`
	AccentColor    string `json:"accentColor" toml:"accentColor"`
	SuccessColor   string `json:"successColor" toml:"successColor"`
	ErrorColor     string `json:"errorColor" toml:"errorColor"`
	WarningColor   string `json:"warningColor" toml:"warningColor"`
	MutedColor     string `json:"mutedColor" toml:"mutedColor"`
}

// LogConfig controls the diagnostic log file.
type LogConfig struct {
	Level string `json:"level" toml:"level"`
	File  string `json:"file" toml:"file"`
}

// fileConfig is the on-disk shape. Pointer fields distinguish "unset" from
// the zero value when merging.
type fileConfig struct {
	ServiceURL        string            `json:"serviceURL" toml:"serviceURL"`
	Token             string            `json:"token" toml:"token"`
	RequestTimeout    string            `json:"requestTimeout" toml:"requestTimeout"`
	BulkConcurrency   int               `json:"bulkConcurrency" toml:"bulkConcurrency"`
	ValidateResponses *bool             `json:"validateResponses" toml:"validateResponses"`
	KeyBindings       map[string]string `json:"keyBindings" toml:"keyBindings"`
	Theme             ThemeConfig       `json:"theme" toml:"theme"`
	Log               LogConfig         `json:"log" toml:"log"`
}

// LoadOptions selects the config file and carries command-line overrides,
// which win over both the file and the environment.
type LoadOptions struct {
	Path       string
	ServiceURL string
	LogFile    string
	LogLevel   string
}

// Load builds the configuration: defaults, then the config file, then the
// environment, then opts.
func Load(opts LoadOptions) (*Config, error) {
	cfg := defaultConfig()

	path := opts.Path
	if path == "" {
		path = findConfigFile()
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	if path != "" {
		if err := mergeConfigFile(cfg, path); err != nil {
			return nil, err
		}
		cfg.Path = path
	}

	cfg.ServiceURL = GetEnv(EnvBaseURL, cfg.ServiceURL)
	cfg.Token = GetEnv(EnvToken, cfg.Token)

	if opts.ServiceURL != "" {
		cfg.ServiceURL = opts.ServiceURL
	}
	if opts.LogFile != "" {
		cfg.Log.File = opts.LogFile
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the client cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.ServiceURL) == "" {
		errs = append(errs, errors.New("serviceURL must not be empty"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("requestTimeout must be positive, got %s", c.RequestTimeout))
	}
	if c.BulkConcurrency <= 0 {
		errs = append(errs, fmt.Errorf("bulkConcurrency must be positive, got %d", c.BulkConcurrency))
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	return errors.Join(errs...)
}

// mergeConfigFile loads a JSON or TOML config file and merges its values
// into the target config
func mergeConfigFile(target *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var partial fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &partial)
	default:
		err = json.Unmarshal(data, &partial)
	}
	if err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if partial.ServiceURL != "" {
		target.ServiceURL = partial.ServiceURL
	}
	if partial.Token != "" {
		target.Token = partial.Token
	}
	if partial.RequestTimeout != "" {
		d, err := time.ParseDuration(partial.RequestTimeout)
		if err != nil {
			return fmt.Errorf("requestTimeout: %w", err)
		}
		target.RequestTimeout = d
	}
	if partial.BulkConcurrency != 0 {
		target.BulkConcurrency = partial.BulkConcurrency
	}
	if partial.ValidateResponses != nil {
		target.ValidateResponses = *partial.ValidateResponses
	}

	if target.KeyBindings == nil {
		target.KeyBindings = make(map[string]string, len(partial.KeyBindings))
	}
	for action, keys := range partial.KeyBindings {
		target.KeyBindings[action] = keys
	}

	mergeString(&target.Theme.PrimaryColor, partial.Theme.PrimaryColor)
	mergeString(&target.Theme.SecondaryColor, partial.Theme.SecondaryColor)
	mergeString(&target.Theme.AccentColor, partial.Theme.AccentColor)
	mergeString(&target.Theme.SuccessColor, partial.Theme.SuccessColor)
	mergeString(&target.Theme.ErrorColor, partial.Theme.ErrorColor)
	mergeString(&target.Theme.WarningColor, partial.Theme.WarningColor)
	mergeString(&target.Theme.MutedColor, partial.Theme.MutedColor)

	mergeString(&target.Log.Level, partial.Log.Level)
	mergeString(&target.Log.File, partial.Log.File)

	return nil
}

func mergeString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// findConfigFile returns the first config file present in the config
// directory, or "".
func findConfigFile() string {
	dir := ConfigDir()
	for _, name := range []string{"config.json", "config.toml"} {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// ConfigDir is $XDG_CONFIG_HOME/taskboard, defaulting to ~/.config/taskboard.
func ConfigDir() string {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// StateDir is $XDG_STATE_HOME/taskboard, defaulting to ~/.local/state/taskboard.
func StateDir() string {
	return xdgDir("XDG_STATE_HOME", filepath.Join(".local", "state"))
}

// DefaultLogFile is where the diagnostic log goes when none is configured.
func DefaultLogFile() string {
	return filepath.Join(StateDir(), appName+".log")
}

func xdgDir(env, fallback string) string {
	if base := os.Getenv(env); base != "" {
		return filepath.Join(base, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), appName)
	}
	return filepath.Join(home, fallback, appName)
}

// defaultConfig returns the default configuration
func defaultConfig() *Config {
	return &Config{
		ServiceURL:        DefaultServiceURL,
		RequestTimeout:    DefaultRequestTimeout,
		BulkConcurrency:   DefaultBulkConcurrency,
		ValidateResponses: true,
		KeyBindings:       map[string]string{},
		Theme: ThemeConfig{
			PrimaryColor:   "#7d56f4",
			SecondaryColor: "#EE6FF8",
			AccentColor:    "#F780E2",
			SuccessColor:   "#04B575",
			ErrorColor:     "#EF4146",
			WarningColor:   "#FF9800",
			MutedColor:     "#626262",
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
	}
}

// ConfigManager handles configuration with file watching capabilities
type ConfigManager struct {
	opts       LoadOptions
	config     *Config
	watcher    *Watcher
	reloadChan chan struct{}
	logger     *log.Logger
	mu         sync.RWMutex
}

// NewConfigManager loads the configuration once and remembers opts for
// later reloads.
func NewConfigManager(opts LoadOptions) (*ConfigManager, error) {
	cfg, err := Load(opts)
	if err != nil {
		return nil, err
	}
	return &ConfigManager{
		opts:       opts,
		config:     cfg,
		reloadChan: make(chan struct{}, 1),
		logger:     log.New(io.Discard),
	}, nil
}

// SetLogger routes reload diagnostics to logger.
func (cm *ConfigManager) SetLogger(logger *log.Logger) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if logger != nil {
		cm.logger = logger
	}
}

// GetConfig returns the current configuration (thread-safe)
func (cm *ConfigManager) GetConfig() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// Reload loads the configuration from disk. On error the previous
// configuration stays in place.
func (cm *ConfigManager) Reload() error {
	cfg, err := Load(cm.opts)
	if err != nil {
		return fmt.Errorf("failed to reload config: %w", err)
	}

	cm.mu.Lock()
	cm.config = cfg
	cm.mu.Unlock()
	return nil
}

// StartWatcher begins watching the config file for changes with a 300ms
// debounce.
func (cm *ConfigManager) StartWatcher(ctx context.Context) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.watcher != nil {
		return fmt.Errorf("watcher already started")
	}
	if cm.config.Path == "" {
		return fmt.Errorf("no config paths to watch")
	}

	watcher, err := NewWatcher(ctx, cm.config.Path)
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	if err := watcher.Start(300 * time.Millisecond); err != nil {
		return fmt.Errorf("failed to start config watcher: %w", err)
	}

	cm.watcher = watcher
	go cm.handleConfigChanges(ctx, watcher)
	return nil
}

// handleConfigChanges processes config file change notifications
func (cm *ConfigManager) handleConfigChanges(ctx context.Context, w *Watcher) {
	for {
		select {
		case <-ctx.Done():
			return

		case _, ok := <-w.Events():
			if !ok {
				return
			}
			if err := cm.Reload(); err != nil {
				cm.log().Warn("config reload failed", "err", err)
				continue
			}
			cm.log().Info("config reloaded", "path", cm.GetConfig().Path)

			select {
			case cm.reloadChan <- struct{}{}:
			default:
				// reload notification already pending
			}

		case err, ok := <-w.Errors():
			if !ok {
				return
			}
			cm.log().Warn("config watcher error", "err", err)
		}
	}
}

func (cm *ConfigManager) log() *log.Logger {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.logger
}

// StopWatcher stops the config file watcher if it's running
func (cm *ConfigManager) StopWatcher() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.watcher == nil {
		return nil
	}

	err := cm.watcher.Stop()
	cm.watcher = nil
	return err
}

// ReloadEvents returns a channel that signals when config has been reloaded
func (cm *ConfigManager) ReloadEvents() <-chan struct{} {
	return cm.reloadChan
}

// GetEnv retrieves an environment variable with an optional fallback value
func GetEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
