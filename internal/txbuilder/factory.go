package txbuilder

import (
	"github.com/maksim44m/unichain-testnet-nft/internal/config"
	"github.com/maksim44m/unichain-testnet-nft/internal/jitter"
)

func NewFeeEstimatorFromConfig(client ChainClient, cfg *config.Config, src jitter.Source) *FeeEstimator {
	return NewFeeEstimator(client, FeeEstimatorConfig{
		BlockCount: cfg.Tx.FeeHistoryBlocks,
		Percentile: cfg.Tx.FeePercentile,
		Headroom:   HeadroomFromConfig(cfg),
	}, src)
}

// NewBuilderFromConfig wires a builder with its own NonceManager.
func NewBuilderFromConfig(client ChainClient, cfg *config.Config, src jitter.Source) *Builder {
	b := NewBuilder(client, NewFeeEstimatorFromConfig(client, cfg, src))
	b.SetNonceProvider(NewNonceManager(client))
	return b
}

func HeadroomFromConfig(cfg *config.Config) jitter.Band {
	return jitter.Band{Min: cfg.Tx.HeadroomMin, Max: cfg.Tx.HeadroomMax}
}
