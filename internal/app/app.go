package app

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/maksim44m/unichain-testnet-nft/internal/abistore"
	"github.com/maksim44m/unichain-testnet-nft/internal/chain"
	"github.com/maksim44m/unichain-testnet-nft/internal/config"
	"github.com/maksim44m/unichain-testnet-nft/internal/jitter"
	"github.com/maksim44m/unichain-testnet-nft/internal/journal"
	"github.com/maksim44m/unichain-testnet-nft/internal/keys"
)

var ErrBalanceNotReady = errors.New("balance not ready")

// Dialer opens a backend for an RPC endpoint. The returned func releases it.
type Dialer func(ctx context.Context, endpoint string) (chain.Backend, func(), error)

type App struct {
	cfg     *config.Config
	logger  *zap.Logger
	account *keys.Account
	abis    *abistore.Store
	journal *journal.Store
	src     jitter.Source
	dial    Dialer
}

type Option func(*App)

func WithDialer(d Dialer) Option {
	return func(a *App) { a.dial = d }
}

func WithSource(src jitter.Source) Option {
	return func(a *App) { a.src = src }
}

func New(cfg *config.Config, logger *zap.Logger, account *keys.Account, opts ...Option) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{
		cfg:     cfg,
		logger:  logger,
		account: account,
		abis:    abistore.New(cfg.ABIDir),
		journal: journal.New(cfg.Journal.Path, logger),
		src:     jitter.NewSource(),
	}
	a.dial = a.dialRPC
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// LoadAccount builds the signing account from the environment variables named in cfg.
func LoadAccount(cfg config.Account) (*keys.Account, error) {
	return keys.NewAccount(keys.Material{
		PrivateKey:     os.Getenv(cfg.PrivateKeyEnv),
		KeystorePath:   cfg.Keystore.Path,
		Passphrase:     os.Getenv(cfg.Keystore.PassphraseEnv),
		Mnemonic:       os.Getenv(cfg.MnemonicEnv),
		DerivationPath: cfg.DerivationPath,
	})
}

func (a *App) Address() common.Address {
	return a.account.Address()
}

// Run bridges to the L2 and then claims the configured NFT there.
func (a *App) Run(ctx context.Context) error {
	if _, err := a.Bridge(ctx); err != nil {
		return err
	}
	target, err := a.cfg.NFTAddress(a.cfg.Claim.NFT)
	if err != nil {
		return err
	}
	_, err = a.Claim(ctx, target)
	return err
}

func (a *App) dialRPC(ctx context.Context, endpoint string) (chain.Backend, func(), error) {
	dialCtx, cancel := withTimeout(ctx, a.cfg.RPC.RequestTimeout.Duration)
	defer cancel()
	client, err := chain.Dial(dialCtx, endpoint, chain.DialOptions{
		Proxy:          a.cfg.RPC.Proxy,
		RequestTimeout: a.cfg.RPC.RequestTimeout.Duration,
	})
	if err != nil {
		return nil, nil, err
	}
	a.logger.Debug("rpc connected", zap.String("endpoint", endpoint))
	return client, client.Close, nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
