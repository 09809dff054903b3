package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/maksim44m/unichain-testnet-nft/internal/balance"
	"github.com/maksim44m/unichain-testnet-nft/internal/chain"
	"github.com/maksim44m/unichain-testnet-nft/internal/contract"
	"github.com/maksim44m/unichain-testnet-nft/internal/journal"
	"github.com/maksim44m/unichain-testnet-nft/internal/sender"
	"github.com/maksim44m/unichain-testnet-nft/internal/txbuilder"
	"github.com/maksim44m/unichain-testnet-nft/internal/util"
)

// pipeline is the transaction stack bound to one RPC endpoint.
type pipeline struct {
	app     *App
	backend chain.Backend
	builder *txbuilder.Builder
	invoker *contract.Invoker
	sender  *sender.Client
	gate    *balance.Gate
	close   func()
}

func (a *App) open(ctx context.Context, endpoint string) (*pipeline, error) {
	if a.account == nil {
		return nil, errors.New("account is not loaded")
	}
	backend, closeFn, err := a.dial(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	if closeFn == nil {
		closeFn = func() {}
	}
	builder := txbuilder.NewBuilderFromConfig(backend, a.cfg, a.src)
	log := a.logger.With(zap.String("rpc", endpoint), zap.String("account", a.account.Address().Hex()))
	return &pipeline{
		app:     a,
		backend: backend,
		builder: builder,
		invoker: contract.NewInvoker(builder),
		sender: sender.NewClient(backend, a.account, sender.Config{
			Headroom:            txbuilder.HeadroomFromConfig(a.cfg),
			ReceiptPollInterval: a.cfg.Tx.ReceiptPollInterval.Duration,
			ConfirmTimeout:      a.cfg.Tx.ConfirmTimeout.Duration,
		}, a.src, log),
		gate:  balance.NewGate(backend, a.src, log),
		close: closeFn,
	}, nil
}

func (p *pipeline) from() common.Address {
	return p.app.account.Address()
}

// submit builds and sends a transaction, rebuilding it with a fresh nonce and fee
// quote after failures that left nothing on chain. The mined hash is journaled under
// flow.
func (p *pipeline) submit(ctx context.Context, flow string, build func(ctx context.Context) (*txbuilder.TransactionRequest, error)) (common.Hash, error) {
	var (
		hash common.Hash
		req  *txbuilder.TransactionRequest
	)
	attempt := 0
	err := util.RetryIf(ctx, p.app.cfg.Tx.ResubmitMax, p.app.cfg.Tx.ResubmitBackoff.Duration, resubmittable, func() error {
		attempt++
		var err error
		req, err = build(ctx)
		if err == nil {
			hash, err = p.sender.Submit(ctx, req)
		}
		if err != nil {
			p.builder.ResetNonce(p.from())
			p.app.logger.Warn("submission failed",
				zap.String("flow", flow),
				zap.Int("attempt", attempt),
				zap.Bool("will_retry", resubmittable(err) && attempt <= p.app.cfg.Tx.ResubmitMax),
				zap.Error(err))
			return err
		}
		return nil
	})
	if err != nil {
		return hash, fmt.Errorf("%s: %w", flow, err)
	}
	p.app.logger.Info("flow complete", zap.String("flow", flow), zap.Stringer("hash", hash))
	entry := journal.Entry{
		Address: p.from().Hex(),
		ChainID: req.ChainID.Uint64(),
		To:      req.To.Hex(),
		TxHash:  hash.Hex(),
	}
	if req.Value != nil {
		entry.Value = req.Value.String()
	}
	if err := p.app.journal.Record(flow, entry); err != nil {
		p.app.logger.Error("journal write failed", zap.String("flow", flow), zap.Error(err))
	}
	return hash, nil
}

func resubmittable(err error) bool {
	return errors.Is(err, txbuilder.ErrFeeEstimationFailed) || errors.Is(err, sender.ErrBroadcastRejected)
}
