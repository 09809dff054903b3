package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/maksim44m/unichain-testnet-nft/internal/app"
	"github.com/maksim44m/unichain-testnet-nft/internal/config"
	"github.com/maksim44m/unichain-testnet-nft/internal/logger"
)

var (
	configPath string
	debug      bool

	cfg *config.Config
	log *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "unichain",
	Short:         "Bridge Sepolia ether to Unichain and claim testnet NFTs",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if configPath != "" {
			cfg, err = config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
		} else {
			cfg = config.Default()
		}
		if debug {
			cfg.Log.Level = "debug"
		}
		log, err = logger.New(cfg.Log)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.yaml (defaults are used when empty)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func newApp() (*app.App, error) {
	account, err := app.LoadAccount(cfg.Account)
	if err != nil {
		return nil, fmt.Errorf("load account (set %s, %s or account.keystore.path): %w",
			cfg.Account.PrivateKeyEnv, cfg.Account.MnemonicEnv, err)
	}
	return app.New(cfg, log, account), nil
}
