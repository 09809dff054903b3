package txbuilder

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// TransactionRequest is an unsigned EIP-1559 transaction. Value nil means zero; Gas is
// filled by the sender once every other field is final.
type TransactionRequest struct {
	From                 common.Address
	To                   common.Address
	Nonce                uint64
	ChainID              *big.Int
	MaxPriorityFeePerGas *big.Int
	MaxFeePerGas         *big.Int
	Value                *big.Int
	Data                 []byte
	Gas                  uint64
}

// CallMsg is the request as seen by eth_estimateGas.
func (r *TransactionRequest) CallMsg() ethereum.CallMsg {
	to := r.To
	return ethereum.CallMsg{
		From:      r.From,
		To:        &to,
		Value:     r.value(),
		Data:      r.Data,
		GasFeeCap: r.MaxFeePerGas,
		GasTipCap: r.MaxPriorityFeePerGas,
	}
}

func (r *TransactionRequest) Transaction() (*types.Transaction, error) {
	if r.ChainID == nil {
		return nil, errors.New("chainID is required")
	}
	if r.Gas == 0 {
		return nil, errors.New("gas is required")
	}
	if r.MaxFeePerGas == nil || r.MaxPriorityFeePerGas == nil {
		return nil, errors.New("maxFeePerGas and maxPriorityFeePerGas are required")
	}
	if r.MaxFeePerGas.Sign() < 0 || r.MaxPriorityFeePerGas.Sign() < 0 {
		return nil, errors.New("fee values must be non-negative")
	}
	if r.MaxFeePerGas.Cmp(r.MaxPriorityFeePerGas) < 0 {
		return nil, errors.New("maxFeePerGas is below maxPriorityFeePerGas")
	}
	value := r.value()
	if value.Sign() < 0 {
		return nil, errors.New("value must be non-negative")
	}
	to := r.To
	return types.NewTx(&types.DynamicFeeTx{
		ChainID:   new(big.Int).Set(r.ChainID),
		Nonce:     r.Nonce,
		Gas:       r.Gas,
		GasFeeCap: new(big.Int).Set(r.MaxFeePerGas),
		GasTipCap: new(big.Int).Set(r.MaxPriorityFeePerGas),
		To:        &to,
		Value:     value,
		Data:      append([]byte(nil), r.Data...),
	}), nil
}

func (r *TransactionRequest) value() *big.Int {
	if r.Value == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(r.Value)
}
