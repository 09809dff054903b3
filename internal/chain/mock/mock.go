// Package mock provides an in-memory chain backend for tests. Every method counts its
// calls; behaviour is overridden through the exported func fields.
package mock

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

type Backend struct {
	ChainIDValue *big.Int
	Nonce        uint64
	GasPrice     *big.Int
	Rewards      []*big.Int
	GasEstimate  uint64
	Balance      *big.Int

	FeeHistoryFunc  func(ctx context.Context, blockCount uint64, percentiles []float64) (*ethereum.FeeHistory, error)
	EstimateGasFunc func(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendFunc        func(ctx context.Context, tx *types.Transaction) error
	ReceiptFunc     func(ctx context.Context, hash common.Hash) (*types.Receipt, error)
	BalanceFunc     func(ctx context.Context, account common.Address, call int) (*big.Int, error)
	CallFunc        func(ctx context.Context, msg ethereum.CallMsg) ([]byte, error)

	mu    sync.Mutex
	calls map[string]int
	sent  []*types.Transaction
}

// New returns a backend on chain 1301 whose fee history rewards are 1..30 wei.
func New() *Backend {
	rewards := make([]*big.Int, 30)
	for i := range rewards {
		rewards[i] = big.NewInt(int64(i + 1))
	}
	return &Backend{
		ChainIDValue: big.NewInt(1301),
		GasPrice:     big.NewInt(100),
		Rewards:      rewards,
		GasEstimate:  21000,
		Balance:      big.NewInt(1_000_000_000_000_000_000),
		calls:        make(map[string]int),
	}
}

func (b *Backend) Calls(method string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[method]
}

func (b *Backend) Sent() []*types.Transaction {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*types.Transaction(nil), b.sent...)
}

func (b *Backend) count(method string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.calls == nil {
		b.calls = make(map[string]int)
	}
	b.calls[method]++
	return b.calls[method]
}

func (b *Backend) ChainID(context.Context) (*big.Int, error) {
	b.count("ChainID")
	return new(big.Int).Set(b.ChainIDValue), nil
}

func (b *Backend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	b.count("PendingNonceAt")
	return b.Nonce, nil
}

func (b *Backend) SuggestGasPrice(context.Context) (*big.Int, error) {
	b.count("SuggestGasPrice")
	return new(big.Int).Set(b.GasPrice), nil
}

func (b *Backend) FeeHistory(ctx context.Context, blockCount uint64, lastBlock *big.Int, percentiles []float64) (*ethereum.FeeHistory, error) {
	b.count("FeeHistory")
	if b.FeeHistoryFunc != nil {
		return b.FeeHistoryFunc(ctx, blockCount, percentiles)
	}
	h := &ethereum.FeeHistory{OldestBlock: big.NewInt(1)}
	for _, r := range b.Rewards {
		h.Reward = append(h.Reward, []*big.Int{new(big.Int).Set(r)})
		h.BaseFee = append(h.BaseFee, new(big.Int).Set(b.GasPrice))
		h.GasUsedRatio = append(h.GasUsedRatio, 0.5)
	}
	return h, nil
}

func (b *Backend) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	b.count("EstimateGas")
	if b.EstimateGasFunc != nil {
		return b.EstimateGasFunc(ctx, msg)
	}
	return b.GasEstimate, nil
}

func (b *Backend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	b.count("SendTransaction")
	if b.SendFunc != nil {
		if err := b.SendFunc(ctx, tx); err != nil {
			return err
		}
	}
	b.mu.Lock()
	b.sent = append(b.sent, tx)
	b.mu.Unlock()
	return nil
}

// TransactionReceipt reports every sent transaction as mined successfully.
func (b *Backend) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	b.count("TransactionReceipt")
	if b.ReceiptFunc != nil {
		return b.ReceiptFunc(ctx, hash)
	}
	for _, tx := range b.Sent() {
		if tx.Hash() == hash {
			return &types.Receipt{
				Status:      types.ReceiptStatusSuccessful,
				TxHash:      hash,
				BlockNumber: big.NewInt(1),
				GasUsed:     tx.Gas(),
			}, nil
		}
	}
	return nil, ethereum.NotFound
}

func (b *Backend) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	n := b.count("BalanceAt")
	if b.BalanceFunc != nil {
		return b.BalanceFunc(ctx, account, n)
	}
	return new(big.Int).Set(b.Balance), nil
}

func (b *Backend) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	b.count("CallContract")
	if b.CallFunc != nil {
		return b.CallFunc(ctx, msg)
	}
	return nil, ethereum.NotFound
}
