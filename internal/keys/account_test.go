package keys

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testMnemonic = "test test test test test test test test test test test junk"
	testKey      = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
)

var testAddress = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")

func TestNewAccountSources(t *testing.T) {
	tests := []struct {
		name     string
		material Material
	}{
		{"private key", Material{PrivateKey: testKey}},
		{"private key 0x", Material{PrivateKey: "0x" + testKey}},
		{"mnemonic", Material{Mnemonic: testMnemonic}},
		{"mnemonic explicit path", Material{Mnemonic: testMnemonic, DerivationPath: "m/44'/60'/0'/0/0"}},
		{"key wins over mnemonic", Material{PrivateKey: testKey, Mnemonic: "bogus"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acct, err := NewAccount(tt.material)
			require.NoError(t, err)
			assert.Equal(t, testAddress, acct.Address())
		})
	}
}

func TestMnemonicSecondIndex(t *testing.T) {
	acct, err := FromMnemonic(testMnemonic, "m/44'/60'/0'/0/1")
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8"), acct.Address())
}

func TestNewAccountErrors(t *testing.T) {
	for name, m := range map[string]Material{
		"empty":        {},
		"bad key":      {PrivateKey: "zz"},
		"bad mnemonic": {Mnemonic: "not a real mnemonic phrase"},
		"bad path":     {Mnemonic: testMnemonic, DerivationPath: "x/1"},
		"no keystore":  {KeystorePath: filepath.Join(t.TempDir(), "missing.json")},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := NewAccount(m)
			assert.ErrorIs(t, err, ErrAccountNotInitialized)
		})
	}
}

func TestFromKeystore(t *testing.T) {
	priv, err := crypto.HexToECDSA(testKey)
	require.NoError(t, err)
	key := &keystore.Key{Address: testAddress, PrivateKey: priv}
	blob, err := keystore.EncryptKey(key, "secret", keystore.LightScryptN, keystore.LightScryptP)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "key.json")
	require.NoError(t, os.WriteFile(path, blob, 0o600))

	acct, err := NewAccount(Material{KeystorePath: path, Passphrase: "secret"})
	require.NoError(t, err)
	assert.Equal(t, testAddress, acct.Address())

	_, err = NewAccount(Material{KeystorePath: path, Passphrase: "wrong"})
	assert.ErrorIs(t, err, ErrAccountNotInitialized)
}

func TestSignTxDeterministic(t *testing.T) {
	acct, err := FromPrivateKey(testKey)
	require.NoError(t, err)
	to := common.HexToAddress("0x2222222222222222222222222222222222222222")
	chainID := big.NewInt(1301)
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     1,
		Gas:       21000,
		GasFeeCap: big.NewInt(140),
		GasTipCap: big.NewInt(16),
		To:        &to,
		Value:     big.NewInt(1_000_000_000_000_000),
	})

	a, err := acct.SignTx(tx, chainID)
	require.NoError(t, err)
	b, err := acct.SignTx(tx, chainID)
	require.NoError(t, err)
	assert.Equal(t, a.Hash(), b.Hash())

	sender, err := types.Sender(types.LatestSignerForChainID(chainID), a)
	require.NoError(t, err)
	assert.Equal(t, testAddress, sender)

	var empty *Account
	_, err = empty.SignTx(tx, chainID)
	assert.ErrorIs(t, err, ErrAccountNotInitialized)
}
