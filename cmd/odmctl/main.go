// Command odmctl inspects the model schema and the configured document store.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/forgo/odmapi/internal/config"
	"github.com/forgo/odmapi/internal/odm"
)

// options are the persistent flags shared by every subcommand.
type options struct {
	configFile string
	schemaPath string
	asJSON     bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "odmctl",
		Short: "Manage the ODM API schema and document store",
		Long: `Inspect the model schema and the document store behind the ODM API.

Configuration is read the same way the server reads it: defaults, the YAML
file named by --config or CONFIG_FILE, then environment variables.`,
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", os.Getenv("CONFIG_FILE"), "YAML config file")
	flags.StringVar(&opts.schemaPath, "schema", "", "model schema file (overrides SCHEMA_PATH)")
	flags.BoolVar(&opts.asJSON, "json", false, "print JSON")

	root.AddCommand(
		newSchemaCmd(opts),
		newMigrateCmd(opts),
		newGetCmd(opts),
	)
	return root
}

func (o *options) load() (*config.Config, *odm.Registry, error) {
	cfg, err := config.LoadFile(o.configFile)
	if err != nil {
		return nil, nil, err
	}
	if o.schemaPath != "" {
		cfg.Schema.Path = o.schemaPath
	}
	reg, err := odm.LoadSchema(cfg.Schema.Path)
	if err != nil {
		return nil, nil, err
	}
	return cfg, reg, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
