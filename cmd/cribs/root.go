package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/DanLeiria/cribs/config"
	"github.com/DanLeiria/cribs/internal/logging"
	"github.com/DanLeiria/cribs/internal/metrics"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	configPath string
	envFiles   []string
}

// app is built once per invocation before the subcommand runs
var app struct {
	cfg      *config.Config
	logger   *logrus.Logger
	closeLog func() error
	metrics  *metrics.Recorder
}

var rootCmd = &cobra.Command{
	Use:   "cribs",
	Short: "Clean real-estate listings and build stratified cross-validation folds",
	Long: "cribs derives normalized fields from raw listings, removes incomplete and anomalous\n" +
		"records, attaches regions and partitions the result into stratified folds.",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.configPath, "config", "", "YAML configuration file")
	pf.StringSliceVar(&rootFlags.envFiles, "env-file", nil, "Environment files to load (default .env)")

	rootCmd.AddCommand(preprocessCmd)
	rootCmd.AddCommand(splitCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.Version = version
}

func setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig(rootFlags.configPath, rootFlags.envFiles...)
	if err != nil {
		return err
	}

	logger, closeLog, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}

	app.cfg = cfg
	app.logger = logger
	app.closeLog = closeLog
	app.metrics = metrics.New()

	logger.WithFields(logrus.Fields{
		"command": cmd.Name(),
		"version": version,
	}).Debug("Configuration loaded")
	return nil
}
