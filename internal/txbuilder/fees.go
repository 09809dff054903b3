package txbuilder

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum"
	"golang.org/x/sync/errgroup"

	"github.com/maksim44m/unichain-testnet-nft/internal/jitter"
)

const (
	DefaultFeeHistoryBlocks     = 30
	DefaultFeeHistoryPercentile = 20.0
)

type FeeQuote struct {
	PriorityFeePerGas *big.Int
	MaxFeePerGas      *big.Int
}

type FeeEstimatorConfig struct {
	BlockCount uint64
	Percentile float64
	Headroom   jitter.Band
}

// FeeEstimator derives a fee quote from the reward percentile of recent blocks and the
// node's gas price. Quotes are never cached.
type FeeEstimator struct {
	client ChainClient
	cfg    FeeEstimatorConfig
	src    jitter.Source
}

func NewFeeEstimator(client ChainClient, cfg FeeEstimatorConfig, src jitter.Source) *FeeEstimator {
	if cfg.BlockCount == 0 {
		cfg.BlockCount = DefaultFeeHistoryBlocks
	}
	if cfg.Percentile <= 0 || cfg.Percentile > 100 {
		cfg.Percentile = DefaultFeeHistoryPercentile
	}
	if cfg.Headroom.Min <= 0 {
		cfg.Headroom = jitter.DefaultHeadroom
	}
	if src == nil {
		src = jitter.NewSource()
	}
	return &FeeEstimator{client: client, cfg: cfg, src: src}
}

func (e *FeeEstimator) EstimateFees(ctx context.Context) (FeeQuote, error) {
	if e.client == nil {
		return FeeQuote{}, fmt.Errorf("%w: client is nil", ErrFeeEstimationFailed)
	}
	var (
		rewards []*big.Int
		base    *big.Int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		h, err := e.client.FeeHistory(gctx, e.cfg.BlockCount, nil, []float64{e.cfg.Percentile})
		if err != nil {
			return fmt.Errorf("fee history: %w", err)
		}
		rewards = rewardSamples(h)
		return nil
	})
	g.Go(func() error {
		price, err := e.client.SuggestGasPrice(gctx)
		if err != nil {
			return fmt.Errorf("gas price: %w", err)
		}
		base = price
		return nil
	})
	if err := g.Wait(); err != nil {
		return FeeQuote{}, fmt.Errorf("%w: %w", ErrFeeEstimationFailed, err)
	}
	if base == nil || base.Sign() < 0 {
		return FeeQuote{}, fmt.Errorf("%w: invalid gas price", ErrFeeEstimationFailed)
	}
	tip, err := median(rewards)
	if err != nil {
		return FeeQuote{}, fmt.Errorf("%w: %w", ErrFeeEstimationFailed, err)
	}
	return e.quote(base, tip), nil
}

func (e *FeeEstimator) quote(base, tip *big.Int) FeeQuote {
	total := new(big.Int).Add(base, tip)
	maxFee := jitter.MulBig(total, e.cfg.Headroom.Draw(e.src))
	if maxFee.Cmp(tip) < 0 {
		maxFee = new(big.Int).Set(tip)
	}
	return FeeQuote{
		PriorityFeePerGas: new(big.Int).Set(tip),
		MaxFeePerGas:      maxFee,
	}
}

// rewardSamples takes the first requested percentile of every block.
func rewardSamples(h *ethereum.FeeHistory) []*big.Int {
	if h == nil {
		return nil
	}
	out := make([]*big.Int, 0, len(h.Reward))
	for _, block := range h.Reward {
		if len(block) == 0 || block[0] == nil || block[0].Sign() < 0 {
			continue
		}
		out = append(out, block[0])
	}
	return out
}

// median returns the element at index n/2 of the sorted samples, so even-sized inputs
// resolve to the upper of the two middle values.
func median(samples []*big.Int) (*big.Int, error) {
	if len(samples) == 0 {
		return nil, errors.New("fee history has no reward samples")
	}
	sorted := make([]*big.Int, len(samples))
	copy(sorted, samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Cmp(sorted[j]) < 0 })
	return new(big.Int).Set(sorted[len(sorted)/2]), nil
}
