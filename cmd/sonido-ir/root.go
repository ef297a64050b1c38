package main

import (
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-ir/config"
	"github.com/RyanBlaney/sonido-ir/logging"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

// ensureConfig loads --config once, falling back to the defaults.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		path := strings.TrimSpace(*c.configFlag)
		if path == "" {
			cfg := config.Default()
			c.config = &cfg
			return
		}
		c.config, c.configErr = config.Load(path)
	})
	return c.config, c.configErr
}

// setupLogging sends all log output to stderr so stdout stays clean for
// documents. --log-level wins over the config file.
func (c *commandContext) setupLogging(cmd *cobra.Command, cfg *config.Config) error {
	level := strings.TrimSpace(*c.logLevelFlag)
	if level == "" {
		level = cfg.Logging.Level
	}
	parsed, err := logging.ParseLevel(level)
	if err != nil {
		return err
	}
	logger := logging.NewWriterLogger(cmd.ErrOrStderr(), cmd.ErrOrStderr())
	logger.SetLevel(parsed)
	logging.SetGlobalLogger(logger)
	return nil
}

func newRootCommand() *cobra.Command {
	var configFlag string
	var logLevelFlag string

	ctx := newCommandContext(&configFlag, &logLevelFlag)

	rootCmd := &cobra.Command{
		Use:           "sonido-ir",
		Short:         "Derive a validated intermediate representation from audio",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return ctx.setupLogging(cmd, cfg)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path (.toml, .yaml or .json)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(newIngestCommand(ctx))
	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newInspectCommand())

	return rootCmd
}
