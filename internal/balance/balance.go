// Package balance reads native and ERC20 balances and waits for an account to be
// funded before a flow continues.
package balance

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/maksim44m/unichain-testnet-nft/internal/abistore"
	"github.com/maksim44m/unichain-testnet-nft/internal/amount"
	"github.com/maksim44m/unichain-testnet-nft/internal/jitter"
)

type Reader interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

type Interval = jitter.Interval

func Native(ctx context.Context, r Reader, addr common.Address) (amount.Amount, error) {
	wei, err := r.BalanceAt(ctx, addr, nil)
	if err != nil {
		return amount.Amount{}, fmt.Errorf("balance of %s: %w", addr.Hex(), err)
	}
	return amount.FromWei(wei, amount.DefaultDecimals)
}

func TokenDecimals(ctx context.Context, c Caller, token common.Address) (int32, error) {
	out, err := callERC20(ctx, c, token, "decimals")
	if err != nil {
		return 0, err
	}
	d, ok := out[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("decimals of %s: unexpected type %T", token.Hex(), out[0])
	}
	return int32(d), nil
}

// Token returns owner's balance of token scaled by the token's own decimals.
func Token(ctx context.Context, c Caller, token, owner common.Address) (amount.Amount, error) {
	decimals, err := TokenDecimals(ctx, c, token)
	if err != nil {
		return amount.Amount{}, err
	}
	out, err := callERC20(ctx, c, token, "balanceOf", owner)
	if err != nil {
		return amount.Amount{}, err
	}
	wei, ok := out[0].(*big.Int)
	if !ok {
		return amount.Amount{}, fmt.Errorf("balanceOf on %s: unexpected type %T", token.Hex(), out[0])
	}
	return amount.FromWei(wei, decimals)
}

func callERC20(ctx context.Context, c Caller, token common.Address, method string, args ...interface{}) ([]interface{}, error) {
	erc20 := abistore.ERC20ABI()
	data, err := erc20.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	raw, err := c.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("%s on %s: %w", method, token.Hex(), err)
	}
	out, err := erc20.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("unpack %s from %s: %w", method, token.Hex(), err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s on %s returned nothing", method, token.Hex())
	}
	return out, nil
}

type Gate struct {
	reader Reader
	src    jitter.Source
	log    *zap.Logger
}

func NewGate(reader Reader, src jitter.Source, log *zap.Logger) *Gate {
	if src == nil {
		src = jitter.NewSource()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Gate{reader: reader, src: src, log: log}
}

// WaitForBalance reads the native balance of addr up to maxAttempts times and reports
// whether it reached minimum. It sleeps a random duration within interval between
// reads, never after the last one.
func (g *Gate) WaitForBalance(ctx context.Context, addr common.Address, minimum amount.Amount, maxAttempts int, interval Interval) (bool, error) {
	if maxAttempts < 1 {
		return false, errors.New("maxAttempts must be >= 1")
	}
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		current, err := Native(ctx, g.reader, addr)
		if err != nil {
			return false, err
		}
		if current.Cmp(minimum) >= 0 {
			g.log.Info("balance ready",
				zap.String("address", addr.Hex()),
				zap.Stringer("balance", current),
				zap.Int("attempt", attempt))
			return true, nil
		}
		g.log.Debug("balance below minimum",
			zap.String("address", addr.Hex()),
			zap.Stringer("balance", current),
			zap.Stringer("minimum", minimum),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", maxAttempts))
		if attempt == maxAttempts {
			break
		}
		if err := sleep(ctx, interval.Draw(g.src)); err != nil {
			return false, err
		}
	}
	return false, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
