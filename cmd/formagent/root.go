package main

import (
	"fmt"

	"form-agent/internal/di"
	"form-agent/internal/infrastructure/config"
	"form-agent/internal/infrastructure/env"
	"form-agent/internal/infrastructure/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app carries state shared by subcommands of one invocation.
type app struct {
	v       *viper.Viper
	cfgFile string
	envDir  string
	cfg     *config.Config
	log     *logger.LoggerAdapter
}

func NewRootCommand() *cobra.Command {
	a := &app{v: viper.New(), envDir: "."}

	root := &cobra.Command{
		Use:               "formagent",
		Short:             "Fills multi-page web forms with generated answers",
		Version:           Version,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Close()
			}
		},
	}
	root.SetVersionTemplate("{{printf \"%s\\n\" .Version}}")

	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file (default is ./form-agent.yaml)")
	root.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newFillCommand(a),
		newInspectCommand(a),
		newHistoryCommand(a),
		newVersionCommand(),
	)
	return root
}

// setup loads .env files, the config and the logger before any subcommand.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	loaded, err := env.Load(a.envDir)
	if err != nil {
		return err
	}
	if err := config.Prepare(a.v, a.cfgFile); err != nil {
		return err
	}
	if err := a.v.BindPFlag("logger.level", cmd.Root().PersistentFlags().Lookup("log-level")); err != nil {
		return err
	}
	if err := a.reload(); err != nil {
		return err
	}

	a.log, err = di.NewLogger(a.cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	a.log.Debug("Configuration loaded",
		"app_env", loaded.AppEnv,
		"env_files", loaded.Loaded,
		"config_file", a.v.ConfigFileUsed(),
	)
	return nil
}

// reload re-reads the config after subcommand flags were bound.
func (a *app) reload() error {
	cfg, err := config.FromViper(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

// bindFlags maps command flags onto config keys; only flags set on the
// command line override file and environment values.
func (a *app) bindFlags(cmd *cobra.Command, keys map[string]string) error {
	for flag, key := range keys {
		if err := a.v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("bind --%s: %w", flag, err)
		}
	}
	return a.reload()
}
