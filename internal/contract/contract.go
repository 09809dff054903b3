// Package contract encodes calls against a named contract ABI and turns them into
// transaction requests.
package contract

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/maksim44m/unichain-testnet-nft/internal/amount"
	"github.com/maksim44m/unichain-testnet-nft/internal/txbuilder"
)

var (
	ErrUnknownFunction  = errors.New("unknown function")
	ErrArgumentMismatch = errors.New("argument mismatch")
)

// Ref identifies a deployed contract and the ABI used to talk to it.
type Ref struct {
	Name    string
	Address common.Address
	ABI     abi.ABI
}

func (r Ref) String() string {
	if r.Name == "" {
		return r.Address.Hex()
	}
	return r.Name + "@" + r.Address.Hex()
}

// EncodeCall packs selector and arguments for function. Argument count and types must
// match the ABI exactly.
func EncodeCall(ref Ref, function string, args ...interface{}) ([]byte, error) {
	method, ok := ref.ABI.Methods[function]
	if !ok {
		return nil, fmt.Errorf("%w: %s on %s", ErrUnknownFunction, function, ref)
	}
	if len(args) != len(method.Inputs) {
		return nil, fmt.Errorf("%w: %s on %s takes %d arguments, got %d",
			ErrArgumentMismatch, method.Sig, ref, len(method.Inputs), len(args))
	}
	data, err := ref.ABI.Pack(function, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s on %s: %w", ErrArgumentMismatch, method.Sig, ref, err)
	}
	return data, nil
}

type Builder interface {
	BuildTransaction(ctx context.Context, from, to common.Address, value *amount.Amount) (*txbuilder.TransactionRequest, error)
}

type Invoker struct {
	builder Builder
}

func NewInvoker(builder Builder) *Invoker {
	return &Invoker{builder: builder}
}

// Invoke returns an unsigned request calling function on ref, sending value with it.
// Encoding is checked before any network access.
func (i *Invoker) Invoke(ctx context.Context, from common.Address, ref Ref, function string, args []interface{}, value *amount.Amount) (*txbuilder.TransactionRequest, error) {
	data, err := EncodeCall(ref, function, args...)
	if err != nil {
		return nil, err
	}
	req, err := i.builder.BuildTransaction(ctx, from, ref.Address, value)
	if err != nil {
		return nil, fmt.Errorf("build %s call on %s: %w", function, ref, err)
	}
	req.Data = data
	return req, nil
}
