package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/erazemk/lostfound/internal/config"
)

type rootOptions struct {
	configPath string
	envFile    string
	storage    string
	dbPath     string
	logPath    string
	logLevel   string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "lostfound",
		Short: "Campus lost-and-found portal",
		Long: `lostfound tracks lost and found items on campus.

Run "lostfound serve" for the JSON API, or use the other commands as a
single-user client. The client keeps the logged-in user between runs.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "lostfound.yaml", "configuration file")
	pf.StringVar(&opts.envFile, "env-file", ".env", "environment file")
	pf.StringVarP(&opts.storage, "storage", "s", "", "storage backend (sqlite, postgres, bolt, redis, memory)")
	pf.StringVarP(&opts.dbPath, "db", "d", "", "sqlite or bolt file path")
	pf.StringVarP(&opts.logPath, "log", "l", "", "log file path")
	pf.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "print info logs from client commands")

	root.AddCommand(
		newServeCmd(opts),
		newConfigCmd(opts),
		newLoginCmd(opts),
		newRegisterCmd(opts),
		newLogoutCmd(opts),
		newWhoamiCmd(opts),
		newReportCmd(opts),
		newListCmd(opts),
		newShowCmd(opts),
		newClaimCmd(opts),
		newReviewCmd(opts),
		newIntakeCmd(opts),
		newStatsCmd(opts),
	)
	return root
}

// loadConfig reads configuration and applies the global flags on top.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath, o.envFile)
	if err != nil {
		return nil, err
	}
	if o.storage != "" {
		cfg.Storage.Backend = o.storage
	}
	if o.dbPath != "" {
		cfg.Storage.Path = o.dbPath
	}
	if o.logPath != "" {
		cfg.Logging.File = o.logPath
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// clientOutput is where client commands send info logs. Command output goes
// to stdout, so info logs are dropped unless --verbose is given.
func (o *rootOptions) clientOutput(cmd *cobra.Command) io.Writer {
	if o.verbose {
		return cmd.ErrOrStderr()
	}
	return io.Discard
}
