package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/carepoint/scheduling-api/internal/pkg/config"
	"github.com/carepoint/scheduling-api/pkg/logger"
)

const serviceName = "scheduling-api"

var envFile string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:           serviceName,
	Short:         "Healthcare scheduling backend",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI with SIGINT/SIGTERM wired to the command context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log := zerolog.New(os.Stderr).With().Timestamp().Logger()
		log.Error().Err(err).Msg("command failed")
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "load environment variables from this file before reading configuration")
}

// bootstrap loads configuration and initialises the process logger.
func bootstrap(cmd *cobra.Command) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(cmd.Context(), envFile)
	if err != nil {
		return nil, zerolog.Logger{}, err
	}
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: serviceName,
		Env:     cfg.Env,
	})
	return cfg, log, nil
}
