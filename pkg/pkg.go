//nolint:gochecknoglobals
package pkg

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var version string

// Version is the semantic version of dioscript, embedded from the VERSION
// file at build time. It is printed by --version.
var Version = strings.TrimSpace(version)

const (
	// Name is the command name. It appears in help text and is the fallback
	// name of the configuration and cache directories.
	Name = "dioscript"
	// Description summarizes dioscript in help output.
	Description = "Evaluate DioScript, a small scripting language for generating HTML"
)

// AuthorInfo is an author's name and email address.
type AuthorInfo struct {
	Name  string
	Email string
}

// Author lists the primary author(s) of the project.
var Author = []AuthorInfo{
	{"ardnew", "andrew@ardnew.com"},
}
