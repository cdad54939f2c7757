package cli

import (
	"os"
	"path/filepath"

	"github.com/ardnew/dioscript/pkg"
)

// Base names of files in the configuration and cache directories.
const (
	baseConfig  = "config"
	baseHistory = "history"
)

var defaultDirMode os.FileMode = 0o700

func configDir() string { return pkg.ConfigDir() }

func cacheDir() string { return pkg.CacheDir() }

// configPath joins elem onto the configuration directory.
func configPath(elem ...string) string {
	return filepath.Join(append([]string{configDir()}, elem...)...)
}

// cachePath joins elem onto the cache directory.
func cachePath(elem ...string) string {
	return filepath.Join(append([]string{cacheDir()}, elem...)...)
}

// mkdirAllRequired creates the configuration and cache directories.
func mkdirAllRequired() error {
	for _, dir := range []string{configDir(), cacheDir()} {
		err := os.MkdirAll(dir, defaultDirMode)
		if err != nil {
			return err
		}
	}

	return nil
}
