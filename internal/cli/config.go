package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/larder/internal/paths"
	"github.com/mesh-intelligence/larder/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	envPrefix = "LARDER"
)

// Config keys.
const (
	cfgKeyOutputDir   = "output_dir"
	cfgKeyFormat      = "format"
	cfgKeyIndent      = "indent"
	cfgKeyBlobPolicy  = "blob_policy"
	cfgKeyDriver      = "driver"
	cfgKeyParallelism = "parallelism"
	cfgKeyDebounce    = "debounce"
	cfgKeyMetricsFile = "metrics_file"
	cfgKeyLogLevel    = "log.level"
	cfgKeyLogFormat   = "log.format"
	cfgKeySources     = "sources"
)

// flagKeys maps command-line flags to the config keys they override. Only
// the flags a command actually defines are bound.
var flagKeys = map[string]string{
	"format":       cfgKeyFormat,
	"indent":       cfgKeyIndent,
	"blob-policy":  cfgKeyBlobPolicy,
	"driver":       cfgKeyDriver,
	"parallel":     cfgKeyParallelism,
	"debounce":     cfgKeyDebounce,
	"metrics-file": cfgKeyMetricsFile,
	"log-level":    cfgKeyLogLevel,
	"log-format":   cfgKeyLogFormat,
}

// defaultSources are exported when neither the config file nor the command
// line names any.
var defaultSources = []types.Source{
	{Path: "resume_data.db", Name: "resume_data_export"},
	{Path: "feedback/feedback.db", Name: "feedback_export"},
}

// newViper returns a Viper instance with defaults, config search paths and
// LARDER_ environment overrides.
func newViper(configDirFlag string) (*viper.Viper, error) {
	dirs, err := paths.ConfigSearchPath(configDirFlag)
	if err != nil {
		return nil, fmt.Errorf("resolve config dir: %w", err)
	}

	v := viper.New()
	def := types.DefaultConfig()
	v.SetDefault(cfgKeyOutputDir, "")
	v.SetDefault(cfgKeyFormat, string(def.Format))
	v.SetDefault(cfgKeyIndent, def.Indent)
	v.SetDefault(cfgKeyBlobPolicy, string(def.BlobPolicy))
	v.SetDefault(cfgKeyDriver, def.Driver)
	v.SetDefault(cfgKeyParallelism, def.Parallelism)
	v.SetDefault(cfgKeyDebounce, def.Debounce)
	v.SetDefault(cfgKeyMetricsFile, "")
	v.SetDefault(cfgKeyLogLevel, def.Log.Level)
	v.SetDefault(cfgKeyLogFormat, def.Log.Format)
	v.SetDefault(cfgKeySources, sourceMaps(defaultSources))

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	for _, dir := range dirs {
		v.AddConfigPath(dir)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v, nil
}

// bindFlags lets the flags cmd defines override their config keys.
func bindFlags(v *viper.Viper, cmd *cobra.Command) {
	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			_ = v.BindPFlag(key, f)
		}
	}
}

// loadConfig reads config.yaml if present and returns the validated
// configuration. A missing config.yaml is not an error.
func loadConfig(v *viper.Viper) (types.Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return types.Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func sourceMaps(sources []types.Source) []map[string]any {
	out := make([]map[string]any, len(sources))
	for i, s := range sources {
		out[i] = map[string]any{"path": s.Path, "name": s.Name}
	}
	return out
}
