// Package preview renders rasters as heat-map images and summarises their
// values.
package preview
