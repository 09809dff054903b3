package txbuilder

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"github.com/maksim44m/unichain-testnet-nft/internal/amount"
	"github.com/maksim44m/unichain-testnet-nft/internal/chain/mock"
	"github.com/maksim44m/unichain-testnet-nft/internal/config"
	"github.com/maksim44m/unichain-testnet-nft/internal/jitter"
)

var (
	testFrom = common.HexToAddress("0x1111111111111111111111111111111111111111")
	testTo   = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

func TestMedianRewardUpper(t *testing.T) {
	backend := mock.New()
	est := NewFeeEstimator(backend, FeeEstimatorConfig{}, jitter.Fixed(0))

	quote, err := est.EstimateFees(context.Background())
	if err != nil {
		t.Fatalf("EstimateFees error: %v", err)
	}
	if quote.PriorityFeePerGas.String() != "16" {
		t.Fatalf("unexpected priority fee: %s", quote.PriorityFeePerGas)
	}
	if quote.MaxFeePerGas.Cmp(quote.PriorityFeePerGas) < 0 {
		t.Fatalf("max fee %s below priority %s", quote.MaxFeePerGas, quote.PriorityFeePerGas)
	}
}

func TestMedianUnsortedOdd(t *testing.T) {
	got, err := median([]*big.Int{big.NewInt(9), big.NewInt(1), big.NewInt(5)})
	if err != nil {
		t.Fatalf("median error: %v", err)
	}
	if got.Int64() != 5 {
		t.Fatalf("unexpected median: %s", got)
	}
}

func TestMaxFeeHeadroom(t *testing.T) {
	backend := mock.New()
	backend.GasPrice = big.NewInt(100)
	// r = 1.15 + 0.4*0.15 = 1.21; (100+16)*1.21 = 140.36
	est := NewFeeEstimator(backend, FeeEstimatorConfig{}, jitter.Fixed(0.4))

	quote, err := est.EstimateFees(context.Background())
	if err != nil {
		t.Fatalf("EstimateFees error: %v", err)
	}
	if quote.MaxFeePerGas.String() != "140" {
		t.Fatalf("unexpected max fee: %s", quote.MaxFeePerGas)
	}
	if backend.Calls("FeeHistory") != 1 || backend.Calls("SuggestGasPrice") != 1 {
		t.Fatalf("expected one fee history and one gas price call")
	}
}

func TestMaxFeeNeverBelowPriority(t *testing.T) {
	backend := mock.New()
	backend.GasPrice = big.NewInt(0)
	est := NewFeeEstimator(backend, FeeEstimatorConfig{Headroom: jitter.Band{Min: 0.5, Max: 0.5}}, jitter.Fixed(0))

	quote, err := est.EstimateFees(context.Background())
	if err != nil {
		t.Fatalf("EstimateFees error: %v", err)
	}
	if quote.MaxFeePerGas.Cmp(quote.PriorityFeePerGas) != 0 {
		t.Fatalf("expected max fee clamped to priority, got %s", quote.MaxFeePerGas)
	}
}

func TestFeeHistoryRequest(t *testing.T) {
	backend := mock.New()
	var gotBlocks uint64
	var gotPercentiles []float64
	backend.FeeHistoryFunc = func(ctx context.Context, blockCount uint64, percentiles []float64) (*ethereum.FeeHistory, error) {
		gotBlocks = blockCount
		gotPercentiles = percentiles
		return &ethereum.FeeHistory{Reward: [][]*big.Int{{big.NewInt(3)}}}, nil
	}
	est := NewFeeEstimator(backend, FeeEstimatorConfig{}, jitter.Fixed(0))
	if _, err := est.EstimateFees(context.Background()); err != nil {
		t.Fatalf("EstimateFees error: %v", err)
	}
	if gotBlocks != 30 || len(gotPercentiles) != 1 || gotPercentiles[0] != 20 {
		t.Fatalf("unexpected fee history request: blocks=%d percentiles=%v", gotBlocks, gotPercentiles)
	}
}

func TestEstimateFeesFailures(t *testing.T) {
	backend := mock.New()
	backend.FeeHistoryFunc = func(context.Context, uint64, []float64) (*ethereum.FeeHistory, error) {
		return &ethereum.FeeHistory{}, nil
	}
	est := NewFeeEstimator(backend, FeeEstimatorConfig{}, jitter.Fixed(0))
	if _, err := est.EstimateFees(context.Background()); !errors.Is(err, ErrFeeEstimationFailed) {
		t.Fatalf("expected ErrFeeEstimationFailed for empty history, got %v", err)
	}

	rpcErr := errors.New("connection refused")
	backend.FeeHistoryFunc = func(context.Context, uint64, []float64) (*ethereum.FeeHistory, error) {
		return nil, rpcErr
	}
	_, err := est.EstimateFees(context.Background())
	if !errors.Is(err, ErrFeeEstimationFailed) || !errors.Is(err, rpcErr) {
		t.Fatalf("expected wrapped rpc error, got %v", err)
	}
	if backend.Calls("FeeHistory") != 2 {
		t.Fatalf("fee history must not be retried, calls=%d", backend.Calls("FeeHistory"))
	}
}

func TestBuildTransactionValue(t *testing.T) {
	backend := mock.New()
	backend.Nonce = 7
	b := NewBuilder(backend, NewFeeEstimator(backend, FeeEstimatorConfig{}, jitter.Fixed(0)))

	value := amount.MustParse("0.001", amount.DefaultDecimals)
	req, err := b.BuildTransaction(context.Background(), testFrom, testTo, &value)
	if err != nil {
		t.Fatalf("BuildTransaction error: %v", err)
	}
	if req.Value.String() != "1000000000000000" {
		t.Fatalf("unexpected value: %s", req.Value)
	}
	if req.Nonce != 7 || req.ChainID.Int64() != 1301 {
		t.Fatalf("unexpected nonce/chain: %d/%s", req.Nonce, req.ChainID)
	}
	if req.From != testFrom || req.To != testTo {
		t.Fatalf("unexpected addresses: %s -> %s", req.From.Hex(), req.To.Hex())
	}
	if req.Gas != 0 || len(req.Data) != 0 {
		t.Fatalf("gas and data must be left empty")
	}
}

func TestBuildTransactionNilValue(t *testing.T) {
	backend := mock.New()
	b := NewBuilder(backend, NewFeeEstimator(backend, FeeEstimatorConfig{}, jitter.Fixed(0)))

	req, err := b.BuildTransaction(context.Background(), testFrom, testTo, nil)
	if err != nil {
		t.Fatalf("BuildTransaction error: %v", err)
	}
	if req.Value != nil {
		t.Fatalf("expected nil value, got %s", req.Value)
	}
	if msg := req.CallMsg(); msg.Value.Sign() != 0 {
		t.Fatalf("call msg value should be zero, got %s", msg.Value)
	}
}

func TestBuildTransactionFeeFailure(t *testing.T) {
	backend := mock.New()
	backend.Rewards = nil
	b := NewBuilder(backend, NewFeeEstimator(backend, FeeEstimatorConfig{}, jitter.Fixed(0)))

	_, err := b.BuildTransaction(context.Background(), testFrom, testTo, nil)
	if !errors.Is(err, ErrFeeEstimationFailed) {
		t.Fatalf("expected ErrFeeEstimationFailed, got %v", err)
	}
}

func TestBuildFailureReleasesNonce(t *testing.T) {
	backend := mock.New()
	backend.Nonce = 4
	rewards := backend.Rewards
	backend.Rewards = nil
	b := NewBuilderFromConfig(backend, config.Default(), jitter.Fixed(0))

	if _, err := b.BuildTransaction(context.Background(), testFrom, testTo, nil); !errors.Is(err, ErrFeeEstimationFailed) {
		t.Fatalf("expected ErrFeeEstimationFailed, got %v", err)
	}

	backend.Rewards = rewards
	req, err := b.BuildTransaction(context.Background(), testFrom, testTo, nil)
	if err != nil {
		t.Fatalf("BuildTransaction error: %v", err)
	}
	if req.Nonce != 4 {
		t.Fatalf("expected pending nonce 4 after failed build, got %d", req.Nonce)
	}
}

func TestNonceManagerSequence(t *testing.T) {
	backend := mock.New()
	backend.Nonce = 4
	b := NewBuilder(backend, NewFeeEstimator(backend, FeeEstimatorConfig{}, jitter.Fixed(0)))
	b.SetNonceProvider(NewNonceManager(backend))

	for want := uint64(4); want < 7; want++ {
		req, err := b.BuildTransaction(context.Background(), testFrom, testTo, nil)
		if err != nil {
			t.Fatalf("BuildTransaction error: %v", err)
		}
		if req.Nonce != want {
			t.Fatalf("expected nonce %d, got %d", want, req.Nonce)
		}
	}
	if backend.Calls("PendingNonceAt") != 1 {
		t.Fatalf("expected a single pending nonce read, got %d", backend.Calls("PendingNonceAt"))
	}

	b.ResetNonce(testFrom)
	req, err := b.BuildTransaction(context.Background(), testFrom, testTo, nil)
	if err != nil {
		t.Fatalf("BuildTransaction error: %v", err)
	}
	if req.Nonce != 4 {
		t.Fatalf("expected nonce 4 after reset, got %d", req.Nonce)
	}
}

func TestRequestTransaction(t *testing.T) {
	req := &TransactionRequest{
		From:                 testFrom,
		To:                   testTo,
		Nonce:                3,
		ChainID:              big.NewInt(1301),
		MaxPriorityFeePerGas: big.NewInt(16),
		MaxFeePerGas:         big.NewInt(140),
		Data:                 []byte{0xa9, 0x05, 0x9c, 0xbb},
	}
	if _, err := req.Transaction(); err == nil {
		t.Fatalf("expected error for missing gas")
	}
	req.Gas = 25200
	tx, err := req.Transaction()
	if err != nil {
		t.Fatalf("Transaction error: %v", err)
	}
	if tx.Gas() != 25200 || tx.Nonce() != 3 || tx.Value().Sign() != 0 || *tx.To() != testTo {
		t.Fatalf("unexpected transaction fields")
	}
	if tx.GasFeeCap().Int64() != 140 || tx.GasTipCap().Int64() != 16 {
		t.Fatalf("unexpected fee caps")
	}
}
