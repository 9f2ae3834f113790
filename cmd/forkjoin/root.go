// File: cmd/forkjoin/root.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/momentics/forkjoin/control"
	"github.com/momentics/forkjoin/internal/logger"
)

// Version is the current release.
const Version = "0.1.0"

type globalFlags struct {
	cfgFile string
	debug   bool
	quiet   bool
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "forkjoin",
		Short:         "Work-stealing fork/join pool tools",
		Long:          "forkjoin runs parallel range reductions on work-stealing pools and checks that their leaves stay inside the pool they were submitted to.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.cfgFile, "config", "", "YAML configuration file")
	root.PersistentFlags().BoolVar(&g.debug, "debug", false, "enable debug logging")
	root.PersistentFlags().BoolVarP(&g.quiet, "quiet", "q", false, "disable logging")
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetVersionTemplate(fmt.Sprintf("forkjoin %s\n", Version))

	root.AddCommand(newRunCmd(g), newAffinityCmd(g), newVersionCmd())
	return root
}

// load reads the configuration file, applies the global flags and installs the
// resulting logger as the package-level one.
func (g *globalFlags) load() (control.Config, *zap.Logger, error) {
	cfg, err := control.Load(g.cfgFile)
	if err != nil {
		return control.Config{}, nil, err
	}
	if g.debug {
		cfg.Log.Level = "debug"
	}
	if g.quiet {
		cfg.Log.Output = "none"
	}
	return cfg, logger.Init(&cfg.Log), nil
}
