package txbuilder

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/maksim44m/unichain-testnet-nft/internal/amount"
)

type Fees interface {
	EstimateFees(ctx context.Context) (FeeQuote, error)
}

type Builder struct {
	client ChainClient
	fees   Fees
	nonce  NonceProvider
}

func NewBuilder(client ChainClient, fees Fees) *Builder {
	return &Builder{client: client, fees: fees}
}

func (b *Builder) SetNonceProvider(provider NonceProvider) {
	b.nonce = provider
}

// ResetNonce drops any cached nonce for from so the next build re-reads the pending count.
func (b *Builder) ResetNonce(from common.Address) {
	if b.nonce != nil {
		b.nonce.Reset(from)
	}
}

// BuildTransaction fills nonce, chain id and fees for a transfer of value from -> to.
// A nil value leaves the request's Value unset. On failure the nonce provider is reset
// so the next build re-reads the pending count.
func (b *Builder) BuildTransaction(ctx context.Context, from, to common.Address, value *amount.Amount) (*TransactionRequest, error) {
	if b.client == nil || b.fees == nil {
		return nil, errors.New("client and fee estimator are required")
	}
	var (
		nonce   uint64
		chainID *big.Int
		quote   FeeQuote
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := b.nextNonce(gctx, from)
		if err != nil {
			return fmt.Errorf("nonce for %s: %w", from.Hex(), err)
		}
		nonce = n
		return nil
	})
	g.Go(func() error {
		id, err := b.client.ChainID(gctx)
		if err != nil {
			return fmt.Errorf("chain id: %w", err)
		}
		chainID = id
		return nil
	})
	g.Go(func() error {
		q, err := b.fees.EstimateFees(gctx)
		if err != nil {
			return err
		}
		quote = q
		return nil
	})
	if err := g.Wait(); err != nil {
		// the nonce may already have been reserved; a failed build must not leave a gap
		b.ResetNonce(from)
		return nil, err
	}
	req := &TransactionRequest{
		From:                 from,
		To:                   to,
		Nonce:                nonce,
		ChainID:              chainID,
		MaxPriorityFeePerGas: quote.PriorityFeePerGas,
		MaxFeePerGas:         quote.MaxFeePerGas,
	}
	if value != nil {
		req.Value = value.Wei()
	}
	return req, nil
}

func (b *Builder) nextNonce(ctx context.Context, from common.Address) (uint64, error) {
	if b.nonce != nil {
		return b.nonce.Next(ctx, from)
	}
	return b.client.PendingNonceAt(ctx, from)
}
