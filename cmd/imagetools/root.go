package main

import (
	"io"

	"github.com/dunamismax/imagetools/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type cliOptions struct {
	configFile string
	jsonOutput bool
	viper      *viper.Viper
	cfg        config.Config
	logger     *logrus.Logger
}

func newRootCommand() *cobra.Command {
	opts := &cliOptions{viper: config.New()}

	root := &cobra.Command{
		Use:           "imagetools",
		Short:         "Image tool catalog, conversion and HTTP API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load(cmd.ErrOrStderr())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "config file (defaults to $"+config.EnvConfigFile+")")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("log-format", "", "log format (text or json)")
	flags.BoolVar(&opts.jsonOutput, "json", false, "output JSON")
	_ = opts.viper.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = opts.viper.BindPFlag("log.format", flags.Lookup("log-format"))

	root.AddCommand(
		newServeCmd(opts),
		newToolsCmd(opts),
		newConvertCmd(opts),
	)
	return root
}

// load resolves config after flags are parsed. Logs go to stderr so --json
// output stays parseable.
func (o *cliOptions) load(logOut io.Writer) error {
	cfg, err := config.FromViper(o.viper, o.configFile)
	if err != nil {
		return err
	}
	logger, err := config.NewLoggerTo(cfg.Log, logOut)
	if err != nil {
		return err
	}
	o.cfg = cfg
	o.logger = logger
	return nil
}
