// cmd/orrery/initconfig.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/opd-ai/go-orrery/pkg/config"
)

type initConfigOptions struct {
	*rootOptions
	force bool
}

func newInitConfigCommand(root *rootOptions) *cobra.Command {
	opts := &initConfigOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "init-config [path]",
		Short: "Write the default configuration to a file",
		Long: `Writes the built-in configuration, the Sun and the four inner planets, to
path or to the --config path. A .yaml or .yml extension selects YAML.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.configPath
			if len(args) == 1 {
				path = args[0]
			}
			return opts.run(cmd.Context(), path)
		},
	}
	cmd.Flags().BoolVar(&opts.force, "force", false, "Overwrite an existing file")
	return cmd
}

func (o *initConfigOptions) run(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err == nil && !o.force {
		err := fmt.Errorf("%s already exists; use --force to overwrite", path)
		o.logger.Error(ctx, "Refusing to overwrite configuration", err, "config_path", path)
		return err
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	if err := config.SaveConfig(config.DefaultConfig(), path); err != nil {
		o.logger.Error(ctx, "Failed to create default configuration", err,
			"config_path", path,
		)
		return err
	}
	o.logger.Info(ctx, "Created default configuration file",
		"config_path", path,
	)
	return nil
}
