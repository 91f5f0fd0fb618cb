package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeGrid()
	c.normalizeFormats()
	if err := c.normalizeMetrics(); err != nil {
		return err
	}
	if err := c.normalizePublish(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.LedgerPath, err = expandPath(c.Paths.LedgerPath); err != nil {
		return fmt.Errorf("paths.ledger_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeGrid() {
	if value, ok := os.LookupEnv("RASTERALIGN_TARGET_CRS"); ok && strings.TrimSpace(value) != "" {
		c.Grid.TargetCRS = value
	}
	c.Grid.TargetCRS = strings.TrimSpace(c.Grid.TargetCRS)
	if c.Grid.TargetCRS == "" {
		c.Grid.TargetCRS = defaultTargetCRS
	}
	if c.Grid.DownsampleTolerance == 0 {
		c.Grid.DownsampleTolerance = defaultDownsampleTolerance
	}
	c.Grid.SidecarName = strings.TrimSpace(c.Grid.SidecarName)
	if c.Grid.SidecarName == "" {
		c.Grid.SidecarName = defaultSidecarName
	}
}

func (c *Config) normalizeFormats() {
	c.Formats.RasterExtensions = normalizeExtensions(c.Formats.RasterExtensions)
	c.Formats.VectorExtensions = normalizeExtensions(c.Formats.VectorExtensions)
	c.Formats.CompanionExtensions = normalizeExtensions(c.Formats.CompanionExtensions)
}

// normalizeExtensions lowercases entries, adds a missing leading dot, and
// drops blanks and duplicates.
func normalizeExtensions(exts []string) []string {
	seen := make(map[string]struct{}, len(exts))
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, dup := seen[ext]; dup {
			continue
		}
		seen[ext] = struct{}{}
		out = append(out, ext)
	}
	return out
}

func (c *Config) normalizeMetrics() error {
	var err error
	if c.Metrics.TextfilePath, err = expandPath(strings.TrimSpace(c.Metrics.TextfilePath)); err != nil {
		return fmt.Errorf("metrics.textfile_path: %w", err)
	}
	return nil
}

func (c *Config) normalizePublish() error {
	c.Publish.Driver = strings.ToLower(strings.TrimSpace(c.Publish.Driver))
	if c.Publish.Driver == "" {
		c.Publish.Driver = defaultPublishDriver
	}
	if value, ok := os.LookupEnv("AWS_REGION"); ok && strings.TrimSpace(c.Publish.Region) == "" {
		c.Publish.Region = value
	}
	c.Publish.Region = strings.TrimSpace(c.Publish.Region)
	if c.Publish.Region == "" {
		c.Publish.Region = defaultPublishRegion
	}
	c.Publish.Bucket = strings.TrimSpace(c.Publish.Bucket)
	c.Publish.Endpoint = strings.TrimSpace(c.Publish.Endpoint)
	c.Publish.Prefix = strings.Trim(strings.TrimSpace(c.Publish.Prefix), "/")
	var err error
	if c.Publish.Dir, err = expandPath(strings.TrimSpace(c.Publish.Dir)); err != nil {
		return fmt.Errorf("publish.dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch format {
	case "", "console", "text", "pretty":
		c.Logging.Format = "console"
	case "json":
		c.Logging.Format = "json"
	default:
		c.Logging.Format = format
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
