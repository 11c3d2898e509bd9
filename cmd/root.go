// Package cmd holds the tax-advisor command line.
package cmd

import (
	"context"
	"os"

	"github.com/AnnaCarter465/tax-advisor/config"
	"github.com/AnnaCarter465/tax-advisor/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const serviceName = "tax-advisor"

func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "tax-advisor",
		Short:        "Thai personal income tax advisor",
		SilenceUsage: true,
	}

	root.AddCommand(
		newServeCommand(),
		newCalcServiceCommand(),
		newCheckCommand(),
		newRulesetsCommand(),
		newTokenCommand(),
	)

	return root
}

func Execute() {
	if err := NewRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func bootstrap(name string) (config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, nil, err
	}

	log, err := logger.New(logger.Config{
		ServiceName: name,
		Environment: cfg.Env,
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
	})
	if err != nil {
		return cfg, nil, err
	}

	return cfg, log, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
