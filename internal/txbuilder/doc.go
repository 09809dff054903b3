// Package txbuilder assembles unsigned EIP-1559 transaction requests: nonce, chain id
// and a fee quote derived from recent block history. Gas is left for the sender.
//
// Builder does not serialize nonces. Callers submitting several transactions from one
// account concurrently should install a NonceProvider (see NonceManager) and Reset it
// after a failed submission.
//
// Usage example (not compiled):
//
//	fees := txbuilder.NewFeeEstimator(client, txbuilder.FeeEstimatorConfig{}, jitter.NewSource())
//	b := txbuilder.NewBuilder(client, fees)
//	req, err := b.BuildTransaction(ctx, from, to, &value)
//	// attach calldata, then hand req to sender.Client.Submit
package txbuilder
