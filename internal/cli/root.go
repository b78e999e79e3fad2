// Package cli implements the gogate command.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/MrEthical07/goGate/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// app carries what every subcommand needs once the root has loaded config.
type app struct {
	configPath string
	logLevel   string
	deviceID   string

	cfg    *config.Config
	logger *logrus.Logger

	// readCode reads one access code from the user. Tests replace it.
	readCode func(prompt string) (string, error)
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&app{readCode: readCodeFromTerminal})
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "gogate",
		Short:         "Access gate with attempt lockouts and a free-usage quota",
		Long:          "gogate tracks failed access-code attempts per device, locks the device out\nafter repeated failures, and meters free use of the prompt builder.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations["skipConfig"] == "true" {
				a.logger = newLogger(config.LoggingConfig{Level: "info", Format: "text"}, a.logLevel)
				return nil
			}
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("device") {
				cfg.Device.CLI = a.deviceID
			}
			a.cfg = cfg
			a.logger = newLogger(cfg.Logging, a.logLevel)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to gogate.yaml (default: ./gogate.yaml, then user config dir)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Override logging.level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&a.deviceID, "device", "", "Device id for local commands (default: device.cli)")

	root.AddCommand(
		newServeCmd(a),
		newStatusCmd(a),
		newUnlockCmd(a),
		newResetCmd(a),
		newEncodeCmd(a),
		newConfigCmd(a),
	)
	return root
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(cfg config.LoggingConfig, override string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level := cfg.Level
	if override != "" {
		level = override
	}
	if lvl, err := logrus.ParseLevel(strings.ToLower(level)); err == nil {
		logger.SetLevel(lvl)
	} else {
		logger.Warnf("unknown log level %q, using info", level)
	}
	return logger
}
