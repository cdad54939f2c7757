package pkg

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

// prefixRules rewrite the executable name into the directory prefix.
//
//nolint:gochecknoglobals
var prefixRules = []struct {
	rex *regexp.Regexp
	rep string
}{
	{regexp.MustCompile(`^__debug_bin\d*$`), Name}, // dlv output
	{regexp.MustCompile(`\.test$`), Name},          // go test binaries
	{regexp.MustCompile(`^\.+`), ""},
}

// Prefix is the name of the per-user directories of dioscript: the base
// name of the executable after prefixRules, without extension. An
// executable whose name reduces to nothing uses [Name].
//
//nolint:gochecknoglobals
var Prefix = sync.OnceValue(func() string {
	exe, err := os.Executable()
	if err != nil {
		exe = os.Args[0]
	}

	return prefix(exe)
})

func prefix(exe string) string {
	id := filepath.Base(exe)

	for _, rule := range prefixRules {
		id = rule.rex.ReplaceAllString(id, rule.rep)
	}

	id = strings.TrimSuffix(id, filepath.Ext(id))
	if id == "" || id == string(filepath.Separator) {
		return Name
	}

	return id
}

// ConfigDir returns the directory of the configuration script.
//
//nolint:gochecknoglobals
var ConfigDir = sync.OnceValue(func() string {
	return userDir(os.UserConfigDir, ".config")
})

// CacheDir returns the directory of transient files such as history and
// profiles.
//
//nolint:gochecknoglobals
var CacheDir = sync.OnceValue(func() string {
	return userDir(os.UserCacheDir, ".cache")
})

// userDir joins Prefix onto the directory base reports. When base fails,
// the hidden directory fallback under the home directory is used, then the
// working directory.
func userDir(base func() (string, error), fallback string) string {
	dir, err := base()
	if err != nil {
		dir, err = os.UserHomeDir()
		if err == nil {
			dir = filepath.Join(dir, fallback)
		} else if dir, err = os.Getwd(); err != nil {
			dir = "."
		}
	}

	return filepath.Join(dir, Prefix())
}
