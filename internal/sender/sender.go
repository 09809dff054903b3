// Package sender estimates gas for, signs, broadcasts and confirms transaction
// requests. Each step runs once; a failure stops the pipeline and is returned as a
// *StepError.
package sender

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/maksim44m/unichain-testnet-nft/internal/jitter"
	"github.com/maksim44m/unichain-testnet-nft/internal/txbuilder"
)

type Backend interface {
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

type Signer interface {
	Address() common.Address
	SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

type Config struct {
	Headroom            jitter.Band
	ReceiptPollInterval time.Duration
	// ConfirmTimeout bounds the receipt wait; zero waits until ctx ends.
	ConfirmTimeout time.Duration
}

type Client struct {
	backend Backend
	signer  Signer
	cfg     Config
	src     jitter.Source
	log     *zap.Logger
}

func NewClient(backend Backend, signer Signer, cfg Config, src jitter.Source, log *zap.Logger) *Client {
	if cfg.Headroom.Min <= 0 {
		cfg.Headroom = jitter.DefaultHeadroom
	}
	if cfg.ReceiptPollInterval <= 0 {
		cfg.ReceiptPollInterval = 2 * time.Second
	}
	if src == nil {
		src = jitter.NewSource()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{backend: backend, signer: signer, cfg: cfg, src: src, log: log}
}

func (c *Client) Address() common.Address {
	return c.signer.Address()
}

// EstimateGas simulates req and returns the estimate scaled by a fresh headroom draw.
func (c *Client) EstimateGas(ctx context.Context, req *txbuilder.TransactionRequest) (uint64, error) {
	gas, err := c.backend.EstimateGas(ctx, req.CallMsg())
	if err != nil {
		stepErr := c.stepError(StepEstimateGas, req, common.Hash{}, err)
		if reason, ok := revertReason(err); ok {
			stepErr.Reason = reason
			stepErr.Err = fmt.Errorf("%w: %w", ErrSimulationReverted, err)
		}
		return 0, stepErr
	}
	return jitter.MulUint64(gas, c.cfg.Headroom.Draw(c.src)), nil
}

func (c *Client) Sign(req *txbuilder.TransactionRequest) (*types.Transaction, error) {
	if c.signer == nil {
		return nil, errors.New("signer is nil")
	}
	if req.From != c.signer.Address() {
		return nil, fmt.Errorf("request from %s does not match signer %s", req.From.Hex(), c.signer.Address().Hex())
	}
	tx, err := req.Transaction()
	if err != nil {
		return nil, err
	}
	return c.signer.SignTx(tx, req.ChainID)
}

// Submit runs estimate, sign, broadcast and confirm for req and returns the mined
// transaction hash. req.Gas is overwritten. A mined but failed transaction is logged
// and still returns its hash.
func (c *Client) Submit(ctx context.Context, req *txbuilder.TransactionRequest) (common.Hash, error) {
	if req == nil {
		return common.Hash{}, errors.New("transaction request is nil")
	}
	log := c.log.With(zap.String("from", req.From.Hex()), zap.String("to", req.To.Hex()), zap.Uint64("nonce", req.Nonce))

	gas, err := c.EstimateGas(ctx, req)
	if err != nil {
		log.Warn("gas estimation failed", zap.Error(err))
		return common.Hash{}, err
	}
	req.Gas = gas

	signed, err := c.Sign(req)
	if err != nil {
		return common.Hash{}, c.stepError(StepSign, req, common.Hash{}, err)
	}
	hash := signed.Hash()

	if err := c.backend.SendTransaction(ctx, signed); err != nil {
		if broadcastOutcomeUnknown(ctx, err) {
			log.Warn("broadcast outcome unknown", zap.Stringer("hash", hash), zap.Error(err))
			return hash, c.stepError(StepBroadcast, req, hash, fmt.Errorf("%w: %w", ErrBroadcastUnknown, err))
		}
		return common.Hash{}, c.stepError(StepBroadcast, req, hash, fmt.Errorf("%w: %w", ErrBroadcastRejected, err))
	}
	log.Info("transaction sent",
		zap.Stringer("hash", hash),
		zap.Uint64("gas", req.Gas),
		zap.Stringer("max_fee", req.MaxFeePerGas),
		zap.Stringer("priority_fee", req.MaxPriorityFeePerGas))

	receipt, err := c.waitReceipt(ctx, hash)
	if err != nil {
		return hash, c.stepError(StepConfirm, req, hash, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		log.Warn("transaction mined with failed status",
			zap.Stringer("hash", receipt.TxHash),
			zap.Stringer("block", receipt.BlockNumber))
	} else {
		log.Info("transaction confirmed",
			zap.Stringer("hash", receipt.TxHash),
			zap.Stringer("block", receipt.BlockNumber),
			zap.Uint64("gas_used", receipt.GasUsed))
	}
	return receipt.TxHash, nil
}

func (c *Client) waitReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	waitCtx := ctx
	if c.cfg.ConfirmTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, c.cfg.ConfirmTimeout)
		defer cancel()
	}
	ticker := time.NewTicker(c.cfg.ReceiptPollInterval)
	defer ticker.Stop()
	for {
		receipt, err := c.backend.TransactionReceipt(waitCtx, hash)
		if err == nil && receipt != nil {
			return receipt, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) && waitCtx.Err() == nil {
			return nil, err
		}
		select {
		case <-waitCtx.Done():
			if ctx.Err() == nil {
				return nil, fmt.Errorf("%w after %s", ErrConfirmationTimeout, c.cfg.ConfirmTimeout)
			}
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) stepError(step string, req *txbuilder.TransactionRequest, hash common.Hash, err error) *StepError {
	return &StepError{Step: step, From: req.From, To: req.To, Hash: hash, Err: err}
}
