package sender

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

var (
	ErrSimulationReverted  = errors.New("simulation reverted")
	ErrBroadcastRejected   = errors.New("broadcast rejected")
	ErrBroadcastUnknown    = errors.New("broadcast outcome unknown")
	ErrConfirmationTimeout = errors.New("confirmation timeout")
)

const (
	StepEstimateGas = "estimate_gas"
	StepSign        = "sign"
	StepBroadcast   = "broadcast"
	StepConfirm     = "confirm"
)

// StepError reports which submission step failed and for which transaction. Hash is
// zero before signing.
type StepError struct {
	Step   string
	From   common.Address
	To     common.Address
	Hash   common.Hash
	Reason string
	Err    error
}

func (e *StepError) Error() string {
	if e == nil {
		return "submit failed"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s -> %s", e.Step, e.From.Hex(), e.To.Hex())
	if e.Hash != (common.Hash{}) {
		fmt.Fprintf(&b, " tx %s", e.Hash.Hex())
	}
	if e.Reason != "" {
		fmt.Fprintf(&b, " (reason: %s)", e.Reason)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *StepError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// revertReason reports whether err is an execution revert and decodes its
// Error(string) payload when the node returned one.
func revertReason(err error) (string, bool) {
	if err == nil {
		return "", false
	}
	reverted := strings.Contains(strings.ToLower(err.Error()), "revert")
	var dataErr rpc.DataError
	if !errors.As(err, &dataErr) {
		return "", reverted
	}
	var data []byte
	switch v := dataErr.ErrorData().(type) {
	case string:
		b, derr := hexutil.Decode(v)
		if derr != nil {
			return "", reverted
		}
		data = b
	case []byte:
		data = v
	}
	if reason, rerr := abi.UnpackRevert(data); rerr == nil {
		return reason, true
	}
	return "", reverted
}

// broadcastOutcomeUnknown reports whether a send error leaves the transaction's fate
// open. Only an error response from the node proves the transaction was not accepted.
func broadcastOutcomeUnknown(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return false
	}
	var dataErr rpc.DataError
	return !errors.As(err, &dataErr)
}
