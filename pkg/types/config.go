package types

import (
	"errors"
	"fmt"
	"time"
)

// Format selects the structured-document serialization.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Suffix returns the canonical file extension for the format, without the dot.
func (f Format) Suffix() string {
	return string(f)
}

// BlobPolicy decides how binary cells are exported.
type BlobPolicy string

// Blob policies.
const (
	// BlobBase64 keeps blobs as binary values; JSON writes them as standard
	// base64 strings and YAML as !!binary scalars.
	BlobBase64 BlobPolicy = "base64"
	// BlobHex converts blobs to lower-case hexadecimal text.
	BlobHex BlobPolicy = "hex"
	// BlobReject fails the source when a blob is found.
	BlobReject BlobPolicy = "reject"
)

// Supported database driver names, as registered with database/sql.
const (
	DriverSQLite  = "sqlite"  // modernc.org/sqlite, pure Go.
	DriverSQLite3 = "sqlite3" // github.com/mattn/go-sqlite3, needs cgo.
)

// Defaults used when the configuration leaves a value unset.
const (
	DefaultFormat      = FormatJSON
	DefaultIndent      = 2
	DefaultBlobPolicy  = BlobBase64
	DefaultDriver      = DriverSQLite
	DefaultParallelism = 1
	DefaultDebounce    = 500 * time.Millisecond
	MaxIndent          = 8
)

// LogConfig selects log verbosity and encoding.
type LogConfig struct {
	Level  string `json:"level" yaml:"level" mapstructure:"level"`
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// Config holds everything an export run needs.
type Config struct {
	OutputDir   string        `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`
	Format      Format        `json:"format" yaml:"format" mapstructure:"format"`
	Indent      int           `json:"indent" yaml:"indent" mapstructure:"indent"`
	BlobPolicy  BlobPolicy    `json:"blob_policy" yaml:"blob_policy" mapstructure:"blob_policy"`
	Driver      string        `json:"driver" yaml:"driver" mapstructure:"driver"`
	Parallelism int           `json:"parallelism" yaml:"parallelism" mapstructure:"parallelism"`
	Debounce    time.Duration `json:"debounce" yaml:"debounce" mapstructure:"debounce"`
	MetricsFile string        `json:"metrics_file" yaml:"metrics_file,omitempty" mapstructure:"metrics_file"`
	Log         LogConfig     `json:"log" yaml:"log" mapstructure:"log"`
	Sources     []Source      `json:"sources" yaml:"sources" mapstructure:"sources"`
}

// Config validation errors.
var (
	ErrFormatUnknown      = errors.New("unknown format")
	ErrBlobPolicyUnknown  = errors.New("unknown blob policy")
	ErrDriverUnknown      = errors.New("unknown driver")
	ErrParallelismInvalid = errors.New("parallelism must be at least 1")
	ErrIndentInvalid      = errors.New("indent out of range")
	ErrDebounceInvalid    = errors.New("debounce must not be negative")
)

var knownFormats = map[Format]bool{
	FormatJSON: true,
	FormatYAML: true,
}

var knownBlobPolicies = map[BlobPolicy]bool{
	BlobBase64: true,
	BlobHex:    true,
	BlobReject: true,
}

var knownDrivers = map[string]bool{
	DriverSQLite:  true,
	DriverSQLite3: true,
}

// DefaultConfig returns a Config with every default applied and no sources.
func DefaultConfig() Config {
	return Config{
		OutputDir:   ".",
		Format:      DefaultFormat,
		Indent:      DefaultIndent,
		BlobPolicy:  DefaultBlobPolicy,
		Driver:      DefaultDriver,
		Parallelism: DefaultParallelism,
		Debounce:    DefaultDebounce,
		Log:         LogConfig{Level: "info", Format: "text"},
	}
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package, wrapped with the offending value.
func (c Config) Validate() error {
	if !knownFormats[c.Format] {
		return fmt.Errorf("%w: %q", ErrFormatUnknown, c.Format)
	}
	if !knownBlobPolicies[c.BlobPolicy] {
		return fmt.Errorf("%w: %q", ErrBlobPolicyUnknown, c.BlobPolicy)
	}
	if !knownDrivers[c.Driver] {
		return fmt.Errorf("%w: %q", ErrDriverUnknown, c.Driver)
	}
	if c.Parallelism < 1 {
		return fmt.Errorf("%w: %d", ErrParallelismInvalid, c.Parallelism)
	}
	if c.Indent < 0 || c.Indent > MaxIndent {
		return fmt.Errorf("%w: %d (want 0-%d)", ErrIndentInvalid, c.Indent, MaxIndent)
	}
	if c.Debounce < 0 {
		return fmt.Errorf("%w: %s", ErrDebounceInvalid, c.Debounce)
	}
	for i, s := range c.Sources {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("sources[%d]: %w", i, err)
		}
	}
	return nil
}
