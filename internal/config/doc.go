// Package config loads, normalizes, and validates rasteralign configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the RASTERALIGN_TARGET_CRS
// override and the AWS_REGION fallback. The Config type centralizes every
// knob the pipeline and CLI need: where staging and logs live, which CRS the
// common grid uses, which extensions count as rasters, vectors or companions,
// and the optional metrics and publishing outputs.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical extension lists, and clear validation errors.
package config
