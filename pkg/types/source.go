package types

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Source identifies one database file to export and the name its artifact is
// written under.
type Source struct {
	Path string `json:"path" yaml:"path" mapstructure:"path"`
	Name string `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name"`
}

// Source errors.
var (
	ErrSourcePathEmpty = errors.New("source path must not be empty")
)

// ExportName returns the explicit Name when set, otherwise the file name
// without its extension.
func (s Source) ExportName() string {
	if s.Name != "" {
		return s.Name
	}
	base := filepath.Base(s.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Validate checks that the source names a path.
func (s Source) Validate() error {
	if strings.TrimSpace(s.Path) == "" {
		return ErrSourcePathEmpty
	}
	return nil
}

// ParseSource parses a command-line source argument of the form PATH or
// PATH=NAME. The last '=' separates the name, unless the text after it
// contains a path separator or the whole argument names an existing file;
// then the argument is a path.
func ParseSource(arg string) Source {
	i := strings.LastIndex(arg, "=")
	if i <= 0 || strings.ContainsAny(arg[i+1:], `/\`) {
		return Source{Path: arg}
	}
	if _, err := os.Stat(arg); err == nil {
		return Source{Path: arg}
	}
	return Source{Path: arg[:i], Name: arg[i+1:]}
}
