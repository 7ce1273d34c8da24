// Package config holds the application preferences and the project registry,
// stored as one JSON file under ~/.skein. Session transcripts and UI state
// are not configuration; they live in the record store.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Config holds the application configuration.
type Config struct {
	Projects []Project `json:"projects"`
	Folders  []Folder  `json:"folders,omitempty"`

	// DataDir overrides where session and UI records are written.
	DataDir string `json:"data_dir,omitempty"`

	DefaultProvider string `json:"default_provider,omitempty"`
	DefaultModel    string `json:"default_model,omitempty"`

	NotificationsEnabled bool `json:"notifications_enabled,omitempty"`

	// DisableThinkingOutsidePlan forces the thinking level to off whenever a
	// session leaves plan mode.
	DisableThinkingOutsidePlan bool `json:"disable_thinking_outside_plan,omitempty"`

	mu       sync.RWMutex
	filePath string
}

// configDir returns the path to the config directory
func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".skein"), nil
}

// configPath returns the path to the config file
func configPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or creates a new one if it doesn't exist
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	return loadFrom(path)
}

func loadFrom(path string) (*Config, error) {
	cfg := &Config{
		Projects: []Project{},
		Folders:  []Folder{},
		filePath: path,
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	cfg.ensureInitialized()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ensureInitialized ensures all slices are initialized (not nil) after
// unmarshaling. Not thread-safe; called from loadFrom before the Config is
// shared.
func (c *Config) ensureInitialized() {
	if c.Projects == nil {
		c.Projects = []Project{}
	}
	if c.Folders == nil {
		c.Folders = []Folder{}
	}
}

// Validate checks that the config is internally consistent.
func (c *Config) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seenIDs := make(map[string]bool)
	seenPaths := make(map[string]bool)
	folderIDs := make(map[string]bool)
	for _, f := range c.Folders {
		if f.ID == "" {
			return fmt.Errorf("folder with empty ID found")
		}
		if folderIDs[f.ID] {
			return fmt.Errorf("duplicate folder ID: %s", f.ID)
		}
		folderIDs[f.ID] = true
	}
	for _, p := range c.Projects {
		if p.ID == "" {
			return fmt.Errorf("project with empty ID found")
		}
		if seenIDs[p.ID] {
			return fmt.Errorf("duplicate project ID: %s", p.ID)
		}
		seenIDs[p.ID] = true

		if p.Path == "" {
			return fmt.Errorf("project %s has empty path", p.ID)
		}
		if seenPaths[p.Path] {
			return fmt.Errorf("duplicate project path: %s", p.Path)
		}
		seenPaths[p.Path] = true

		if p.FolderID != "" && !folderIDs[p.FolderID] {
			return fmt.Errorf("project %s references unknown folder %s", p.ID, p.FolderID)
		}
	}

	return nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(c.filePath), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(c.filePath, data, 0644)
}

// EffectiveDataDir returns where records are stored: the configured
// override, or the config directory itself.
func (c *Config) EffectiveDataDir() (string, error) {
	c.mu.RLock()
	override := c.DataDir
	c.mu.RUnlock()
	if override != "" {
		return override, nil
	}
	return configDir()
}

// GetDefaultProvider returns the provider used for new sessions
func (c *Config) GetDefaultProvider() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.DefaultProvider
}

// SetDefaultProvider sets the provider used for new sessions
func (c *Config) SetDefaultProvider(provider string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.DefaultProvider = provider
}

// GetDefaultModel returns the model used when a session has none selected
func (c *Config) GetDefaultModel() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.DefaultModel
}

// SetDefaultModel sets the model used when a session has none selected
func (c *Config) SetDefaultModel(model string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.DefaultModel = model
}

// GetNotificationsEnabled returns whether desktop notifications are enabled
func (c *Config) GetNotificationsEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.NotificationsEnabled
}

// SetNotificationsEnabled sets whether desktop notifications are enabled
func (c *Config) SetNotificationsEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.NotificationsEnabled = enabled
}

// GetDisableThinkingOutsidePlan returns the thinking policy flag
func (c *Config) GetDisableThinkingOutsidePlan() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.DisableThinkingOutsidePlan
}

// SetDisableThinkingOutsidePlan sets the thinking policy flag
func (c *Config) SetDisableThinkingOutsidePlan(disable bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.DisableThinkingOutsidePlan = disable
}
