package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/JustUsingaWebsite/usage-widen/backend/internal/config"
	"github.com/JustUsingaWebsite/usage-widen/backend/internal/logging"
)

// app carries state shared by every command of one invocation.
type app struct {
	v       *viper.Viper
	cfgFile string
	verbose bool
	quiet   bool
	cfg     *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.New()}

	root := &cobra.Command{
		Use:   "usagewiden",
		Short: "Widen a master table with per-resource monthly usage",
		Long: `usagewiden reads a monthly usage report (one row per resource and month),
then copies the master table adding one column per resource. Each new cell
holds the usage recorded for that resource in the row's month, or the null
marker when nothing was recorded.

Paths and options come from .usagewiden.yaml, USAGEWIDEN_* environment
variables or flags. Running without a subcommand is the same as "merge".`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		RunE:              a.runMerge,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default ./.usagewiden.yaml, then ~/.usagewiden.yaml)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging (lists every lookup miss)")
	pf.BoolVarP(&a.quiet, "quiet", "q", false, "only log warnings and errors")
	pf.String("log-level", "", "log level: trace, debug, info, warn, error")
	pf.String("usage", "", "usage report path")
	pf.String("master", "", "master table path")
	pf.String("encoding", "", "input encoding: utf-8, windows-1252, latin1")
	bindFlags(a.v, pf, map[string]string{
		"log.level":   "log-level",
		"usage_path":  "usage",
		"master_path": "master",
		"encoding":    "encoding",
	})

	root.AddCommand(
		a.newMergeCmd(),
		a.newIndexCmd(),
		a.newCheckCmd(),
		a.newHistoryCmd(),
		a.newConfigCmd(),
		newVersionCmd(),
	)
	addMergeFlags(root.Flags())
	return root
}

// bindFlags binds config keys to flags so a flag that was set wins over
// file and environment values. Keys whose flag is not in fs are skipped.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			panic(err)
		}
	}
}

// setup loads configuration and puts the configured logger in the command context.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if isMergeCmd(cmd) {
		bindFlags(a.v, cmd.Flags(), mergeFlagKeys)
	}
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}

	logCfg := cfg.Log
	logCfg.Level = a.logLevel(cmd, cfg.Log.Level)
	logger := logging.NewLoggerFromConfig(&logCfg)
	logging.SetDefault(logger)
	cmd.SetContext(logging.WithLogger(cmd.Context(), &logger))

	if cfg.ConfigFile != "" {
		logger.Debug().Str("file", cfg.ConfigFile).Msg("Loaded config file")
	}
	a.cfg = cfg
	return nil
}

// logLevel applies the precedence --log-level > --quiet > --verbose > config.
func (a *app) logLevel(cmd *cobra.Command, configured string) string {
	if f := cmd.Flags().Lookup("log-level"); f != nil && f.Changed {
		return configured
	}
	if a.quiet {
		return "warn"
	}
	if a.verbose {
		return "debug"
	}
	return configured
}
