package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"rasteralign/internal/geo"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and database locations.
type Paths struct {
	StagingDir string `toml:"staging_dir"`
	LogDir     string `toml:"log_dir"`
	LedgerPath string `toml:"ledger_path"`
}

// Grid contains the settings that shape the common reference grid and the
// files written onto it.
type Grid struct {
	TargetCRS           string  `toml:"target_crs"`
	DownsampleTolerance float64 `toml:"downsample_tolerance"`
	OutputSuffix        string  `toml:"output_suffix"`
	SidecarName         string  `toml:"sidecar_name"`
	BurnValue           float64 `toml:"burn_value"`
}

// Formats lists the file extensions the pipeline recognizes. Companion
// extensions are sidecars that travel with a primary file but are never
// processed on their own.
type Formats struct {
	RasterExtensions    []string `toml:"raster_extensions"`
	VectorExtensions    []string `toml:"vector_extensions"`
	CompanionExtensions []string `toml:"companion_extensions"`
}

// Staging contains run-directory housekeeping settings.
type Staging struct {
	StaleAfterHours int `toml:"stale_after_hours"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Metrics contains configuration for the Prometheus textfile export.
type Metrics struct {
	Enabled      bool   `toml:"enabled"`
	TextfilePath string `toml:"textfile_path"`
}

// Publish contains configuration for copying aligned outputs elsewhere once
// a run completes. Driver "s3" uploads to a bucket; driver "dir" mirrors the
// tree into a local or mounted directory.
type Publish struct {
	Enabled         bool   `toml:"enabled"`
	Driver          string `toml:"driver"`
	Bucket          string `toml:"bucket"`
	Region          string `toml:"region"`
	Endpoint        string `toml:"endpoint"`
	Prefix          string `toml:"prefix"`
	PathStyle       bool   `toml:"path_style"`
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
	Dir             string `toml:"dir"`
}

// Preview contains configuration for heat-map rendering.
type Preview struct {
	WidthInches   float64 `toml:"width_inches"`
	HeightInches  float64 `toml:"height_inches"`
	PaletteColors int     `toml:"palette_colors"`
}

// Config encapsulates all configuration values for rasteralign.
//
// Configuration sections by subsystem:
//   - Paths: staging, log and ledger locations
//   - Grid: target CRS, downsampling tolerance, output naming, burn value
//   - Formats: raster, vector and companion extensions
//   - Staging: stale run directory cleanup
//   - Logging: log format and level
//   - Metrics: Prometheus textfile export
//   - Publish: S3 or directory publishing of aligned outputs
//   - Preview: heat-map size and palette
type Config struct {
	Paths   Paths   `toml:"paths"`
	Grid    Grid    `toml:"grid"`
	Formats Formats `toml:"formats"`
	Staging Staging `toml:"staging"`
	Logging Logging `toml:"logging"`
	Metrics Metrics `toml:"metrics"`
	Publish Publish `toml:"publish"`
	Preview Preview `toml:"preview"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/rasteralign/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("rasteralign.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the staging and log directories and the parent
// of the ledger database.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.StagingDir, c.Paths.LogDir}
	if c.Paths.LedgerPath != "" {
		dirs = append(dirs, filepath.Dir(c.Paths.LedgerPath))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// TargetCRS returns the parsed grid CRS. Validate guarantees it parses.
func (c *Config) TargetCRS() geo.CRS {
	crs, err := geo.ParseCRS(c.Grid.TargetCRS)
	if err != nil {
		return geo.EPSG(defaultTargetEPSG)
	}
	return crs
}

// StaleAfter is the age beyond which a staging run directory is purged.
func (c *Config) StaleAfter() time.Duration {
	return time.Duration(c.Staging.StaleAfterHours) * time.Hour
}

// LogFilePath is the file the CLI mirrors its log output into.
func (c *Config) LogFilePath() string {
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return ""
	}
	return filepath.Join(c.Paths.LogDir, "rasteralign.log")
}

// IsRaster reports whether path carries a raster extension.
func (c *Config) IsRaster(path string) bool {
	return hasExtension(path, c.Formats.RasterExtensions)
}

// IsVector reports whether path carries a vector extension.
func (c *Config) IsVector(path string) bool {
	return hasExtension(path, c.Formats.VectorExtensions)
}

// IsCompanion reports whether path is a sidecar of some other file.
func (c *Config) IsCompanion(path string) bool {
	lower := strings.ToLower(path)
	for _, ext := range c.Formats.CompanionExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func hasExtension(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, candidate := range exts {
		if ext == candidate {
			return true
		}
	}
	return false
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
