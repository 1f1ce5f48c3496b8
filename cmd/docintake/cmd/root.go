// Package cmd implements the docintake command line tool
package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/docintake/docintake-backend/pkg/config"
	"github.com/docintake/docintake-backend/pkg/logger"
)

const appName = "docintake"

// app carries state shared by the subcommands
type app struct {
	verbose bool
	cfg     *config.Config
	log     *logger.Logger
}

// NewRootCommand builds the docintake command tree
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   appName,
		Short: "Identity document extraction tools",
		Long: `docintake extracts structured fields from Romanian identity documents.

Examples:
  docintake parse ocr-output.txt
  docintake extract buletin.jpg
  docintake migrate`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(appName)
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			a.cfg = cfg
			a.log = logger.NewWithWriter(appName, cfg.Server.Environment, cmd.ErrOrStderr())

			level := zerolog.WarnLevel
			if a.verbose {
				level = zerolog.DebugLevel
			}
			a.log.Logger = a.log.Logger.Level(level)
			return nil
		},
	}

	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(
		newParseCommand(a),
		newExtractCommand(a),
		newMigrateCommand(a),
	)
	return root
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
