package config

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"rasteralign/internal/geo"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateGrid(); err != nil {
		return err
	}
	if err := c.validateFormats(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateMetrics(); err != nil {
		return err
	}
	if err := c.validatePublish(); err != nil {
		return err
	}
	if err := c.validatePreview(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		return errors.New("paths.staging_dir must be set")
	}
	if c.Staging.StaleAfterHours <= 0 {
		return errors.New("staging.stale_after_hours must be positive")
	}
	return nil
}

func (c *Config) validateGrid() error {
	crs, err := geo.ParseCRS(c.Grid.TargetCRS)
	if err != nil {
		return fmt.Errorf("grid.target_crs: %w", err)
	}
	if !crs.Known() {
		return fmt.Errorf("grid.target_crs %q must resolve to an EPSG code", c.Grid.TargetCRS)
	}
	if !geo.Registered(crs.Code) && crs.Definition == "" {
		return fmt.Errorf("grid.target_crs EPSG:%d has no built-in definition; supply WKT or proj4 text instead", crs.Code)
	}
	if c.Grid.DownsampleTolerance < 1 || math.IsInf(c.Grid.DownsampleTolerance, 0) || math.IsNaN(c.Grid.DownsampleTolerance) {
		return errors.New("grid.downsample_tolerance must be a finite value >= 1")
	}
	if strings.ContainsAny(c.Grid.OutputSuffix, `/\`) {
		return errors.New("grid.output_suffix must not contain path separators")
	}
	if strings.ContainsAny(c.Grid.SidecarName, `/\`) {
		return errors.New("grid.sidecar_name must be a file name")
	}
	if math.IsNaN(c.Grid.BurnValue) || math.IsInf(c.Grid.BurnValue, 0) || c.Grid.BurnValue == 0 {
		return errors.New("grid.burn_value must be finite and differ from the nodata value 0")
	}
	return nil
}

func (c *Config) validateFormats() error {
	if len(c.Formats.RasterExtensions) == 0 {
		return errors.New("formats.raster_extensions must list at least one extension")
	}
	primary := make(map[string]string)
	for _, ext := range c.Formats.RasterExtensions {
		primary[ext] = "raster"
	}
	for _, ext := range c.Formats.VectorExtensions {
		if kind, ok := primary[ext]; ok {
			return fmt.Errorf("extension %q is listed as both %s and vector", ext, kind)
		}
		primary[ext] = "vector"
	}
	for _, ext := range c.Formats.CompanionExtensions {
		if kind, ok := primary[ext]; ok {
			return fmt.Errorf("extension %q is listed as both %s and companion", ext, kind)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q must be console or json", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q must be debug, info, warn or error", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateMetrics() error {
	if c.Metrics.Enabled && strings.TrimSpace(c.Metrics.TextfilePath) == "" {
		return errors.New("metrics.textfile_path must be set when metrics.enabled is true")
	}
	return nil
}

func (c *Config) validatePublish() error {
	if !c.Publish.Enabled {
		return nil
	}
	switch c.Publish.Driver {
	case "s3":
		if c.Publish.Bucket == "" {
			return errors.New("publish.bucket must be set when publish.driver is s3")
		}
		if (c.Publish.AccessKeyID == "") != (c.Publish.SecretAccessKey == "") {
			return errors.New("publish.access_key_id and publish.secret_access_key must be set together")
		}
	case "dir":
		if c.Publish.Dir == "" {
			return errors.New("publish.dir must be set when publish.driver is dir")
		}
	default:
		return fmt.Errorf("publish.driver %q must be s3 or dir", c.Publish.Driver)
	}
	return nil
}

func (c *Config) validatePreview() error {
	if c.Preview.WidthInches <= 0 || c.Preview.HeightInches <= 0 {
		return errors.New("preview.width_inches and preview.height_inches must be positive")
	}
	if c.Preview.PaletteColors < 2 {
		return errors.New("preview.palette_colors must be at least 2")
	}
	return nil
}
