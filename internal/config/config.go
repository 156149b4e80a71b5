package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const defaultModel = "gpt-4o-mini"

type Profile struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url,omitempty"`
	Model   string `json:"model"`
}

type Config struct {
	Profiles      map[string]Profile `json:"profiles"`
	ActiveProfile string             `json:"active_profile"`

	// Runtime settings resolved from the environment at load time,
	// not persisted to the config file.
	Shell       string `json:"-"`
	WorkingDir  string `json:"-"`
	HistoryFile string `json:"-"`
	MaxHistory  int    `json:"-"`

	currentProfile *Profile
}

func LoadConfig() (*Config, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}

	// Ensure config directory exists
	if err := ensureConfigDir(configPath); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	// Load existing config or create default
	config, err := loadConfigFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Validate and set current profile
	if err := config.setCurrentProfile(); err != nil {
		return nil, fmt.Errorf("failed to set current profile: %w", err)
	}

	config.applyEnvironment(filepath.Dir(configPath))

	return config, nil
}

// applyEnvironment resolves shell, working directory and history settings.
// OPENAI_API_KEY fills in a missing credential for the active profile so the
// tool works without a config file edit.
func (c *Config) applyEnvironment(configDir string) {
	if c.currentProfile != nil && c.currentProfile.APIKey == "" {
		if key := os.Getenv("OPENAI_API_KEY"); key != "" {
			c.currentProfile.APIKey = key
		}
	}

	c.Shell = os.Getenv("COMGEN_SHELL")
	if c.Shell == "" {
		c.Shell = os.Getenv("SHELL")
	}
	if c.Shell == "" {
		c.Shell = "/bin/bash"
	}

	if cwd, err := os.Getwd(); err == nil {
		c.WorkingDir = cwd
	} else {
		c.WorkingDir = "."
	}

	c.HistoryFile = filepath.Join(configDir, "history")
	c.MaxHistory = 1000
}

// Validate returns the list of startup errors. A non-empty result means the
// interactive loop must not start.
func (c *Config) Validate() []string {
	var errs []string
	if c.GetAPIKey() == "" {
		errs = append(errs,
			"no API key configured. Set OPENAI_API_KEY or run: comgen profile edit "+c.ActiveProfile)
	}
	return errs
}

func (c *Config) IsValid() bool {
	return len(c.Validate()) == 0
}

func (c *Config) GetAPIKey() string {
	if c.currentProfile == nil {
		return ""
	}
	return c.currentProfile.APIKey
}

func (c *Config) GetModel() string {
	if c.currentProfile == nil || c.currentProfile.Model == "" {
		return defaultModel
	}
	return c.currentProfile.Model
}

func (c *Config) GetBaseURL() string {
	if c.currentProfile == nil {
		return ""
	}
	return c.currentProfile.BaseURL
}

// SetModel overrides the active profile's model for this process only.
func (c *Config) SetModel(model string) {
	if c.currentProfile != nil && model != "" {
		c.currentProfile.Model = model
	}
}

// SetWorkingDir overrides the resolved working directory. Non-directory paths
// are ignored.
func (c *Config) SetWorkingDir(path string) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		c.WorkingDir = path
	}
}

func getConfigPath() (string, error) {
	var configDir string

	// Use COMGEN_HOME if set, otherwise use user's home directory
	if comgenHome := os.Getenv("COMGEN_HOME"); comgenHome != "" {
		configDir = comgenHome
	} else {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = homeDir
	}

	return filepath.Join(configDir, ".comgen", "config.json"), nil
}

func ensureConfigDir(configPath string) error {
	configDir := filepath.Dir(configPath)
	return os.MkdirAll(configDir, 0755)
}

func loadConfigFile(configPath string) (*Config, error) {
	// If config file doesn't exist, create default
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return createDefaultConfig(configPath)
	}

	// Read existing config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	return &config, nil
}

func createDefaultConfig(configPath string) (*Config, error) {
	config := &Config{
		Profiles: map[string]Profile{
			"default": {
				APIKey:  "",
				BaseURL: "",
				Model:   defaultModel,
			},
		},
		ActiveProfile: "default",
	}

	// Save default config to file
	if err := saveConfig(config, configPath); err != nil {
		return nil, err
	}

	return config, nil
}

func saveConfig(config *Config, configPath string) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0600)
}

func (c *Config) Save() error {
	configPath, err := getConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	return saveConfig(c, configPath)
}

func (c *Config) setCurrentProfile() error {
	if c.Profiles == nil {
		return fmt.Errorf("no profiles defined")
	}

	profile, exists := c.Profiles[c.ActiveProfile]
	if !exists {
		// If active profile doesn't exist, try to use the first available profile
		for name, p := range c.Profiles {
			c.ActiveProfile = name
			profile = p
			exists = true
			break
		}
	}

	if !exists {
		return fmt.Errorf("no valid profiles found")
	}

	c.currentProfile = &profile
	return nil
}
