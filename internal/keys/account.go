package keys

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip39"
)

var ErrAccountNotInitialized = errors.New("account not initialized")

// Material is the secret an Account is built from. The first non-empty source wins, in
// field order: PrivateKey, KeystorePath, Mnemonic.
type Material struct {
	PrivateKey     string
	KeystorePath   string
	Passphrase     string
	Mnemonic       string
	DerivationPath string
}

type Account struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

func NewAccount(m Material) (*Account, error) {
	switch {
	case strings.TrimSpace(m.PrivateKey) != "":
		return FromPrivateKey(m.PrivateKey)
	case strings.TrimSpace(m.KeystorePath) != "":
		return FromKeystore(m.KeystorePath, m.Passphrase)
	case strings.TrimSpace(m.Mnemonic) != "":
		return FromMnemonic(m.Mnemonic, m.DerivationPath)
	}
	return nil, ErrAccountNotInitialized
}

func FromPrivateKey(hexKey string) (*Account, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid private key: %w", ErrAccountNotInitialized, err)
	}
	return fromECDSA(key), nil
}

func FromKeystore(path, passphrase string) (*Account, error) {
	keyJSON, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAccountNotInitialized, err)
	}
	key, err := keystore.DecryptKey(keyJSON, passphrase)
	if err != nil {
		return nil, fmt.Errorf("%w: decrypt %s: %w", ErrAccountNotInitialized, path, err)
	}
	if key.PrivateKey == nil {
		return nil, fmt.Errorf("%w: private key not available", ErrAccountNotInitialized)
	}
	return fromECDSA(key.PrivateKey), nil
}

// FromMnemonic derives the key at path, m/44'/60'/0'/0/0 when path is empty.
func FromMnemonic(mnemonic, path string) (*Account, error) {
	mnemonic = strings.Join(strings.Fields(mnemonic), " ")
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, "")
	if err != nil {
		return nil, fmt.Errorf("%w: invalid mnemonic: %w", ErrAccountNotInitialized, err)
	}
	derivation := accounts.DefaultBaseDerivationPath
	if path != "" {
		derivation, err = accounts.ParseDerivationPath(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrAccountNotInitialized, err)
		}
	}
	master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAccountNotInitialized, err)
	}
	key := master
	for _, n := range derivation {
		key, err = key.Derive(n)
		if err != nil {
			return nil, fmt.Errorf("%w: derive %s: %w", ErrAccountNotInitialized, derivation, err)
		}
	}
	priv, err := key.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAccountNotInitialized, err)
	}
	return fromECDSA(priv.ToECDSA()), nil
}

func fromECDSA(key *ecdsa.PrivateKey) *Account {
	return &Account{key: key, address: crypto.PubkeyToAddress(key.PublicKey)}
}

func (a *Account) Address() common.Address {
	if a == nil {
		return common.Address{}
	}
	return a.address
}

// SignTx signs with the latest signer for chainID, so dynamic-fee transactions are
// accepted. The result is deterministic for a given key and transaction.
func (a *Account) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	if a == nil || a.key == nil {
		return nil, ErrAccountNotInitialized
	}
	if chainID == nil {
		return nil, errors.New("chainID is required")
	}
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), a.key)
}
