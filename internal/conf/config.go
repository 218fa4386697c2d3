// config.go: settings struct and functions to load and save the application settings.
package conf

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

//go:embed config.yaml
var configFiles embed.FS

// LogConfig defines the configuration for a log file
type LogConfig struct {
	Enabled     bool         // true to enable this log
	Path        string       // Path to the log file
	Rotation    RotationType // Type of log rotation
	MaxSize     int64        // Max size in bytes for RotationSize
	RotationDay string       // Day of the week for RotationWeekly (as a string: "Sunday", "Monday", etc.)
}

// RotationType defines different types of log rotations.
type RotationType string

const (
	RotationDaily  RotationType = "daily"
	RotationWeekly RotationType = "weekly"
	RotationSize   RotationType = "size"
)

// MainSettings contains main application settings.
type MainSettings struct {
	Name string    // name of the service instance
	Log  LogConfig // main log settings
}

// DatasetSettings contains settings for the observation dataset.
type DatasetSettings struct {
	Path                 string   // path to the observation CSV file
	DefaultInstruments   []string // instrument tags preselected in filter views
	MaxAdditionalSources int      // cap on additional image/movie links shown per observation
}

// WebServerSettings contains settings for the HTTP API server.
type WebServerSettings struct {
	Enabled bool      // true to enable the HTTP server
	Port    string    // port to listen on
	Log     LogConfig // web server log settings
}

// ADSSettings contains settings for the NASA/SAO ADS literature search client.
type ADSSettings struct {
	APIKey      string // ADS API token, also read from ADS_DEV_KEY env variable
	BaseURL     string // ADS search API endpoint
	Timeout     int    // request timeout in seconds
	CacheTTL    int    // result cache lifetime in minutes
	RateLimitMS int    // minimum interval between requests in milliseconds
	MaxRows     int    // maximum number of rows per query
}

// OutputSettings contains settings for CLI query output.
type OutputSettings struct {
	File struct {
		Enabled bool   // true to enable file output
		Path    string // directory to output results
		Type    string // table or csv
	}
}

// Settings contains all application settings
type Settings struct {
	Debug bool // true to enable debug mode

	Main      MainSettings
	Dataset   DatasetSettings
	WebServer WebServerSettings
	ADS       ADSSettings
	Output    OutputSettings
}

// settingsInstance is the current settings instance
var (
	settingsInstance *Settings
	once             sync.Once
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into the settings struct.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}

	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	// Set default values for each configuration parameter
	// function defined in defaults.go
	setDefaultConfig()

	// ADS token may come from the environment like the notebooks expect
	if err := viper.BindEnv("ads.apikey", "ADS_DEV_KEY"); err != nil {
		return fmt.Errorf("error binding ADS_DEV_KEY: %w", err)
	}

	err = viper.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// Config file not found, create config with defaults
			return createDefaultConfig()
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// createDefaultConfig creates a default config file and writes it to the default config path
func createDefaultConfig() error {
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	configPath := filepath.Join(configPaths[0], "config.yaml")
	defaultConfig := getDefaultConfig()

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	fmt.Println("Created default config file at:", configPath)
	return viper.ReadInConfig()
}

// getDefaultConfig reads the default configuration from the embedded config.yaml file.
func getDefaultConfig() string {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		log.Fatalf("Error reading config file: %v", err)
	}
	return string(data)
}

// GetDefaultConfigPaths returns the paths where the config file is searched for.
// The working directory is checked first, then the user config directory.
func GetDefaultConfigPaths() ([]string, error) {
	paths := []string{"."}

	if configDir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(configDir, "sunscan"))
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(homeDir, ".config", "sunscan"))
	}

	return paths, nil
}

// FindConfigFile returns the path of the config file currently in use.
func FindConfigFile() (string, error) {
	configPath := viper.ConfigFileUsed()
	if configPath == "" {
		return "", fmt.Errorf("no config file in use")
	}
	return configPath, nil
}

// ValidateSettings checks the loaded settings for obvious misconfiguration.
func ValidateSettings(settings *Settings) error {
	if settings.Dataset.Path == "" {
		return fmt.Errorf("dataset.path must not be empty")
	}
	if settings.Dataset.MaxAdditionalSources < 1 {
		return fmt.Errorf("dataset.maxadditionalsources must be at least 1, got %d", settings.Dataset.MaxAdditionalSources)
	}
	if settings.ADS.Timeout < 1 {
		return fmt.Errorf("ads.timeout must be at least 1 second, got %d", settings.ADS.Timeout)
	}
	if settings.ADS.MaxRows < 1 || settings.ADS.MaxRows > 500 {
		return fmt.Errorf("ads.maxrows must be between 1 and 500, got %d", settings.ADS.MaxRows)
	}
	return nil
}

// GetSettings returns the current settings instance
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// Setting returns the current settings instance, initializing it if necessary
func Setting() *Settings {
	once.Do(func() {
		if settingsInstance == nil {
			_, err := Load()
			if err != nil {
				log.Fatalf("Error loading settings: %v", err)
			}
		}
	})
	return GetSettings()
}

// SaveSettings saves the current settings to the configuration file.
func SaveSettings() error {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()

	settingsCopy := *settingsInstance

	configPath, err := FindConfigFile()
	if err != nil {
		return fmt.Errorf("error finding config file: %w", err)
	}

	if err := SaveYAMLConfig(configPath, &settingsCopy); err != nil {
		return fmt.Errorf("error saving config: %w", err)
	}

	log.Printf("Settings saved successfully to %s", configPath)
	return nil
}

// SaveYAMLConfig updates the YAML configuration file with new settings.
// It overwrites the existing file, not preserving comments or structure.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	yamlData, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings to YAML: %w", err)
	}

	// Write the YAML data to a temporary file to ensure atomic replacement
	tempFile, err := os.CreateTemp(filepath.Dir(configPath), "config-*.yaml")
	if err != nil {
		return fmt.Errorf("error creating temporary file: %w", err)
	}
	tempFileName := tempFile.Name()
	defer os.Remove(tempFileName)

	if _, err := tempFile.Write(yamlData); err != nil {
		tempFile.Close()
		return fmt.Errorf("error writing to temporary file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("error closing temporary file: %w", err)
	}

	if err := os.Rename(tempFileName, configPath); err != nil {
		return fmt.Errorf("error replacing config file: %w", err)
	}

	return nil
}
