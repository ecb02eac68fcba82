// Package config provides XML-based configuration for the localizer tools.
package config

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// FileName is the configuration file looked up next to the executable.
const FileName = "LayoutLocalizer.config"

// AppConfig represents the root XML configuration structure
type AppConfig struct {
	XMLName xml.Name `xml:"LayoutLocalizer"`

	// Batch and conversion settings
	Conversion ConversionConfig `xml:"Conversion"`

	// Server configuration
	Server ServerConfig `xml:"Server"`

	// Storage configuration
	Storage StorageConfig `xml:"Storage"`

	// Processing configuration
	Processing ProcessingConfig `xml:"Processing"`

	// Security configuration
	Security SecurityConfig `xml:"Security"`

	// Advanced options
	Advanced AdvancedConfig `xml:"Advanced"`
}

// ConversionConfig contains sheet input and document output settings
type ConversionConfig struct {
	InputDirectory  string `xml:"InputDirectory"`  // empty: the config directory
	InputExtensions string `xml:"InputExtensions"` // comma separated
	OutputSuffix    string `xml:"OutputSuffix"`
	OutputExtension string `xml:"OutputExtension"`
	OutputFormat    string `xml:"OutputFormat"` // json or msgpack
	CSVEncoding     string `xml:"CSVEncoding"`
	LanguageFile    string `xml:"LanguageFile"` // empty: built-in table
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int    `xml:"Port"`
	BindAddress  string `xml:"BindAddress"`
	EnableCORS   bool   `xml:"EnableCORS"`
	AllowOrigins string `xml:"AllowOrigins"`
	ReadTimeout  int    `xml:"ReadTimeoutSeconds"`
	WriteTimeout int    `xml:"WriteTimeoutSeconds"`
	IdleTimeout  int    `xml:"IdleTimeoutSeconds"`
	BodyLimit    string `xml:"BodyLimit"`
}

// StorageConfig contains file storage settings. Empty sub-paths default to
// locations inside DataDirectory.
type StorageConfig struct {
	DataDirectory    string `xml:"DataDirectory"`
	UploadsDirectory string `xml:"UploadsDirectory"`
	ArchivePath      string `xml:"ArchivePath"`
	EnableArchive    bool   `xml:"EnableArchive"`
}

// ProcessingConfig contains session and response settings
type ProcessingConfig struct {
	SessionTimeoutMinutes  int  `xml:"SessionTimeoutMinutes"`
	CleanupIntervalMinutes int  `xml:"CleanupIntervalMinutes"`
	EnableCompression      bool `xml:"EnableCompression"`
	CompressionLevel       int  `xml:"CompressionLevel"`
}

// SecurityConfig contains security settings
type SecurityConfig struct {
	AllowFileDeletion bool `xml:"AllowFileDeletion"`
}

// AdvancedConfig contains advanced/tuning options
type AdvancedConfig struct {
	EnableRequestLogging bool   `xml:"EnableRequestLogging"`
	DuckDBThreads        int    `xml:"DuckDBThreads"`
	DuckDBMemoryLimit    string `xml:"DuckDBMemoryLimit"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		XMLName: xml.Name{Local: "LayoutLocalizer"},
		Conversion: ConversionConfig{
			InputExtensions: ".xlsx",
			OutputSuffix:    "Localization",
			OutputExtension: ".txt",
			OutputFormat:    "json",
			CSVEncoding:     "utf-8",
		},
		Server: ServerConfig{
			Port:         8090,
			BindAddress:  "0.0.0.0",
			EnableCORS:   true,
			AllowOrigins: "*",
			ReadTimeout:  30,
			WriteTimeout: 30,
			IdleTimeout:  120,
			BodyLimit:    "64M",
		},
		Storage: StorageConfig{
			DataDirectory: "./data",
			EnableArchive: true,
		},
		Processing: ProcessingConfig{
			SessionTimeoutMinutes:  30,
			CleanupIntervalMinutes: 5,
			EnableCompression:      true,
			CompressionLevel:       5,
		},
		Security: SecurityConfig{
			AllowFileDeletion: true,
		},
		Advanced: AdvancedConfig{
			EnableRequestLogging: true,
			DuckDBThreads:        2,
			DuckDBMemoryLimit:    "512MB",
		},
	}
}

// LoadConfig loads configuration from an XML file, writing the defaults
// there first if it does not exist.
func LoadConfig(configPath string) (*AppConfig, error) {
	config := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := xml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	config.applyEnvironmentOverrides()
	config.resolvePaths(filepath.Dir(configPath))

	return config, nil
}

// Save saves the configuration to XML file
func (c *AppConfig) Save(configPath string) error {
	output, err := xml.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(xml.Header + "\n<!-- Layout Localizer Configuration -->\n<!-- This file is auto-generated on first run -->\n\n")
	content := append(header, output...)

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		c.Storage.DataDirectory = dataDir
	}

	if langFile := os.Getenv("LOCALIZER_LANGUAGES"); langFile != "" {
		c.Conversion.LanguageFile = langFile
	}
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	c.Storage.DataDirectory = resolve(configDir, c.Storage.DataDirectory)

	if c.Storage.UploadsDirectory == "" {
		c.Storage.UploadsDirectory = filepath.Join(c.Storage.DataDirectory, "uploads")
	}
	c.Storage.UploadsDirectory = resolve(configDir, c.Storage.UploadsDirectory)

	if c.Storage.ArchivePath == "" {
		c.Storage.ArchivePath = filepath.Join(c.Storage.DataDirectory, "archive.duckdb")
	}
	c.Storage.ArchivePath = resolve(configDir, c.Storage.ArchivePath)

	if c.Conversion.InputDirectory == "" {
		c.Conversion.InputDirectory = configDir
	}
	c.Conversion.InputDirectory = resolve(configDir, c.Conversion.InputDirectory)

	if c.Conversion.LanguageFile != "" {
		c.Conversion.LanguageFile = resolve(configDir, c.Conversion.LanguageFile)
	}
}

func resolve(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// GetDataDir returns the absolute data directory path
func (c *AppConfig) GetDataDir() string {
	return c.Storage.DataDirectory
}

// GetUploadDir returns the absolute uploads directory path
func (c *AppConfig) GetUploadDir() string {
	return c.Storage.UploadsDirectory
}

// GetArchivePath returns the DuckDB archive file path
func (c *AppConfig) GetArchivePath() string {
	return c.Storage.ArchivePath
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// GetInputExtensions returns the configured input extensions, lower-cased
// and dot-prefixed.
func (c *AppConfig) GetInputExtensions() []string {
	var exts []string
	for _, e := range strings.Split(c.Conversion.InputExtensions, ",") {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts = append(exts, e)
	}
	return exts
}

// EnsureDirectories creates all necessary directories
func (c *AppConfig) EnsureDirectories() error {
	dirs := []string{
		c.Storage.DataDirectory,
		c.Storage.UploadsDirectory,
		filepath.Dir(c.Storage.ArchivePath),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
