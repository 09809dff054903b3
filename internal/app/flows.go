package app

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"github.com/maksim44m/unichain-testnet-nft/internal/abistore"
	"github.com/maksim44m/unichain-testnet-nft/internal/amount"
	"github.com/maksim44m/unichain-testnet-nft/internal/balance"
	"github.com/maksim44m/unichain-testnet-nft/internal/contract"
	"github.com/maksim44m/unichain-testnet-nft/internal/txbuilder"
)

const (
	FlowBridge   = "bridge"
	FlowClaim    = "claim"
	FlowTransfer = "transfer"
)

// Bridge deposits bridge.amount of ether through the L1 bridge to the account's own
// address on the L2.
func (a *App) Bridge(ctx context.Context) (common.Hash, error) {
	cfg := a.cfg.Bridge
	value, err := amount.Parse(cfg.Amount, amount.DefaultDecimals)
	if err != nil {
		return common.Hash{}, fmt.Errorf("bridge amount: %w", err)
	}
	extra, err := hexutil.Decode(cfg.ExtraData)
	if err != nil {
		return common.Hash{}, fmt.Errorf("bridge extra_data: %w", err)
	}
	ref, err := a.contractRef(cfg.ABI, common.HexToAddress(cfg.Contract))
	if err != nil {
		return common.Hash{}, err
	}

	p, err := a.open(ctx, cfg.RPC)
	if err != nil {
		return common.Hash{}, err
	}
	defer p.close()

	a.logger.Info("bridging", zap.String("contract", ref.String()), zap.Stringer("amount", value))
	args := contract.BridgeArgs(p.from(), cfg.MinGasLimit, extra)
	return p.submit(ctx, FlowBridge, func(ctx context.Context) (*txbuilder.TransactionRequest, error) {
		return p.invoker.Invoke(ctx, p.from(), ref, "bridgeETHTo", args, &value)
	})
}

// Claim waits for the account to be funded on the L2 and claims one token from the
// drop at target.
func (a *App) Claim(ctx context.Context, target common.Address) (common.Hash, error) {
	cfg := a.cfg.Claim
	minimum, err := amount.Parse(cfg.MinBalance, amount.DefaultDecimals)
	if err != nil {
		return common.Hash{}, fmt.Errorf("claim min_balance: %w", err)
	}
	ref, err := a.contractRef(cfg.ABI, target)
	if err != nil {
		return common.Hash{}, err
	}

	p, err := a.open(ctx, cfg.RPC)
	if err != nil {
		return common.Hash{}, err
	}
	defer p.close()

	interval := balance.Interval{Min: cfg.BalanceIntervalMin.Duration, Max: cfg.BalanceIntervalMax.Duration}
	ready, err := p.gate.WaitForBalance(ctx, p.from(), minimum, cfg.BalanceAttempts, interval)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%s: %w", FlowClaim, err)
	}
	if !ready {
		return common.Hash{}, fmt.Errorf("%s: %w: %s below %s after %d checks",
			FlowClaim, ErrBalanceNotReady, p.from().Hex(), minimum, cfg.BalanceAttempts)
	}

	a.logger.Info("claiming", zap.String("contract", ref.String()), zap.Int64("quantity", cfg.Quantity))
	args := contract.ClaimArgs(p.from(), cfg.Quantity)
	return p.submit(ctx, FlowClaim, func(ctx context.Context) (*txbuilder.TransactionRequest, error) {
		return p.invoker.Invoke(ctx, p.from(), ref, "claim", args, nil)
	})
}

// Transfer sends value of the native coin, or of token when it is non-nil, to to.
func (a *App) Transfer(ctx context.Context, endpoint string, to common.Address, value string, token *common.Address) (common.Hash, error) {
	p, err := a.open(ctx, endpoint)
	if err != nil {
		return common.Hash{}, err
	}
	defer p.close()

	if token == nil {
		v, err := amount.Parse(value, amount.DefaultDecimals)
		if err != nil {
			return common.Hash{}, err
		}
		return p.submit(ctx, FlowTransfer, func(ctx context.Context) (*txbuilder.TransactionRequest, error) {
			return p.builder.BuildTransaction(ctx, p.from(), to, &v)
		})
	}

	decimals, err := balance.TokenDecimals(ctx, p.backend, *token)
	if err != nil {
		return common.Hash{}, err
	}
	v, err := amount.Parse(value, decimals)
	if err != nil {
		return common.Hash{}, err
	}
	ref := contract.Ref{Name: abistore.ERC20, Address: *token, ABI: abistore.ERC20ABI()}
	args := contract.TransferArgs(to, v.Wei())
	return p.submit(ctx, FlowTransfer, func(ctx context.Context) (*txbuilder.TransactionRequest, error) {
		return p.invoker.Invoke(ctx, p.from(), ref, "transfer", args, nil)
	})
}

// Balance returns the account's native balance, or its token balance when token is
// non-nil.
func (a *App) Balance(ctx context.Context, endpoint string, token *common.Address) (amount.Amount, error) {
	p, err := a.open(ctx, endpoint)
	if err != nil {
		return amount.Amount{}, err
	}
	defer p.close()
	if token == nil {
		return balance.Native(ctx, p.backend, p.from())
	}
	return balance.Token(ctx, p.backend, *token, p.from())
}

func (a *App) contractRef(abiName string, addr common.Address) (contract.Ref, error) {
	parsed, err := a.abis.Load(abiName)
	if err != nil {
		return contract.Ref{}, err
	}
	return contract.Ref{Name: abiName, Address: addr, ABI: parsed}, nil
}
