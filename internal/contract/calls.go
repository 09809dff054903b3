package contract

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
)

// NativeCurrency is the placeholder address drop contracts use for the chain's coin.
var NativeCurrency = common.HexToAddress("0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE")

// AllowlistProof mirrors the drop contract's allowlist tuple. Field names follow the
// ABI component names so the packer can match them.
type AllowlistProof struct {
	Proof                  [][32]byte
	QuantityLimitPerWallet *big.Int
	PricePerToken          *big.Int
	Currency               common.Address
}

// OpenAllowlist is the proof for a public claim phase.
func OpenAllowlist() AllowlistProof {
	return AllowlistProof{
		Proof:                  [][32]byte{},
		QuantityLimitPerWallet: big.NewInt(0),
		PricePerToken:          new(big.Int).Set(math.MaxBig256),
		Currency:               common.Address{},
	}
}

// ClaimArgs builds arguments for claim(receiver, quantity, currency, pricePerToken,
// allowlistProof, data) on a free public drop.
func ClaimArgs(receiver common.Address, quantity int64) []interface{} {
	return []interface{}{
		receiver,
		big.NewInt(quantity),
		NativeCurrency,
		big.NewInt(0),
		OpenAllowlist(),
		[]byte{},
	}
}

// BridgeArgs builds arguments for bridgeETHTo(to, minGasLimit, extraData).
func BridgeArgs(to common.Address, minGasLimit uint32, extraData []byte) []interface{} {
	return []interface{}{to, minGasLimit, extraData}
}

// TransferArgs builds arguments for an ERC20 transfer(to, amount).
func TransferArgs(to common.Address, wei *big.Int) []interface{} {
	return []interface{}{to, wei}
}
