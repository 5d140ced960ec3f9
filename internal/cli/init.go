package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/larder/internal/paths"
	"github.com/mesh-intelligence/larder/pkg/types"
)

// configFile holds the structure written to config.yaml.
type configFile struct {
	OutputDir   string          `yaml:"output_dir"`
	Format      string          `yaml:"format"`
	Indent      int             `yaml:"indent"`
	BlobPolicy  string          `yaml:"blob_policy"`
	Driver      string          `yaml:"driver"`
	Parallelism int             `yaml:"parallelism"`
	Debounce    string          `yaml:"debounce"`
	Log         types.LogConfig `yaml:"log"`
	Sources     []types.Source  `yaml:"sources"`
}

const configHeader = "# larder configuration\n" +
	"# Every key can be overridden by a LARDER_<KEY> environment variable\n" +
	"# (LARDER_LOG_LEVEL for log.level) or by the matching command-line flag.\n\n"

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config.yaml",
		Long:  "Create the configuration directory and write config.yaml with default\nvalues. An existing config.yaml is left untouched.",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := paths.ResolveConfigDir(a.flags.configDir)
			if err != nil {
				return usageError(fmt.Errorf("resolve config dir: %w", err))
			}
			path := filepath.Join(dir, configFileExt)
			created, err := writeConfigIfMissing(path)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s already exists\n", path)
			}
			return nil
		},
	}
}

// writeConfigIfMissing creates config.yaml with default values if the file
// does not exist. It reports whether the file was written.
func writeConfigIfMissing(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}

	def := types.DefaultConfig()
	cfg := configFile{
		OutputDir:   def.OutputDir,
		Format:      string(def.Format),
		Indent:      def.Indent,
		BlobPolicy:  string(def.BlobPolicy),
		Driver:      def.Driver,
		Parallelism: def.Parallelism,
		Debounce:    def.Debounce.String(),
		Log:         def.Log,
		Sources:     defaultSources,
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, append([]byte(configHeader), data...), 0o644); err != nil {
		return false, fmt.Errorf("write config: %w", err)
	}
	return true, nil
}
