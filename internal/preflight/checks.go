package preflight

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"rasteralign/internal/config"
	"rasteralign/internal/geo"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.W_OK|unix.X_OK, "read/write ok")
}

// CheckReadableDirectory verifies that the directory exists and can be listed.
func CheckReadableDirectory(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.X_OK, "read ok")
}

func checkDirectory(name, path string, mode uint32, ok string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, mode); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, ok)}
}

// CheckCreatable verifies that path is a writable directory or can be
// created: its nearest existing ancestor must be a writable directory.
func CheckCreatable(name, path string) Result {
	if path == "" {
		return Result{Name: name, Detail: "path not configured"}
	}
	if info, err := os.Stat(path); err == nil {
		if !info.IsDir() {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
		}
		return CheckDirectoryAccess(name, path)
	}
	ancestor, err := existingAncestor(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if err := unix.Access(ancestor, unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: cannot create under %s: %v)", path, ancestor, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", path)}
}

// CheckTargetCRS verifies that the configured grid CRS has a projection
// definition points can be transformed with.
func CheckTargetCRS(cfg *config.Config) Result {
	const name = "Target CRS"

	crs := cfg.TargetCRS()
	if !crs.Known() {
		return Result{Name: name, Detail: fmt.Sprintf("%q has no EPSG code", cfg.Grid.TargetCRS)}
	}
	if _, err := geo.SpatialReference(crs); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", crs, err)}
	}
	return Result{Name: name, Passed: true, Detail: crs.String()}
}

// CheckPublish verifies the publish settings without contacting the
// destination.
func CheckPublish(cfg config.Publish) Result {
	const name = "Publish"

	switch cfg.Driver {
	case "dir":
		return CheckCreatable(name, cfg.Dir)
	case "s3":
		if cfg.Bucket == "" {
			return Result{Name: name, Detail: "s3 bucket missing"}
		}
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("s3://%s (%s)", cfg.Bucket, cfg.Region)}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("unknown driver %q", cfg.Driver)}
	}
}

func existingAncestor(path string) (string, error) {
	dir := filepath.Clean(path)
	for {
		info, err := os.Stat(dir)
		if err == nil {
			if !info.IsDir() {
				return "", fmt.Errorf("%s is not a directory", dir)
			}
			return dir, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no existing ancestor of %s", path)
		}
		dir = parent
	}
}
