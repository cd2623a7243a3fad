package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/angeloszaimis/region-probe/config"
	"github.com/angeloszaimis/region-probe/internal/transport"
	"github.com/angeloszaimis/region-probe/pkg/logger"
)

// app carries what every subcommand needs once configuration is loaded.
type app struct {
	cfg       *config.Config
	log       *slog.Logger
	transport transport.Transport
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
		a          = &app{}
	)

	root := &cobra.Command{
		Use:          "regionprobe",
		Short:        "Find domains blocked through one egress but reachable through another",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if logLevel != "" {
				cfg.Logging.Level = logLevel
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			a.cfg = cfg
			a.log = logger.New(cfg.Logging.Level, false, cfg.Environment, cmd.ErrOrStderr())

			t, err := newHTTPTransport(cfg, a.log)
			if err != nil {
				return err
			}
			a.transport = t
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ./config/config.yaml or ./config.yaml)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(batchCmd(a), checkCmd(a))
	return root
}

func newHTTPTransport(cfg *config.Config, log *slog.Logger) (*transport.HTTPTransport, error) {
	registry, err := cfg.Registry()
	if err != nil {
		return nil, fmt.Errorf("build egress registry: %w", err)
	}
	t, err := transport.NewHTTPTransport(registry, cfg.Probe.MaxBodyBytes, log)
	if err != nil {
		return nil, fmt.Errorf("build transport: %w", err)
	}
	return t, nil
}
