package main

import (
	"fmt"
	"os"

	"procurement/internal/config"
	"procurement/internal/logger"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const serviceName = "procurement-api"

var rootCmd = &cobra.Command{
	Use:           "api-server",
	Short:         "Procurement approval and lifecycle service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// bootstrap читает конфигурацию и создает логгер для любой команды
func bootstrap() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	log := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Environment: cfg.Server.Env,
		ServiceName: serviceName,
	})
	return cfg, log, nil
}
