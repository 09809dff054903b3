package abistore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const transferABI = `[{"type":"function","name":"ping","stateMutability":"nonpayable","inputs":[{"name":"x","type":"uint256"}],"outputs":[]}]`

func TestLoadBundled(t *testing.T) {
	s := New(filepath.Join("..", "..", "abis"))

	bridge, err := s.Load("L1StandardBridge")
	require.NoError(t, err)
	assert.Contains(t, bridge.Methods, "bridgeETHTo")

	drop, err := s.Load("OpenEditionERC721.json")
	require.NoError(t, err)
	require.Contains(t, drop.Methods, "claim")
	assert.Len(t, drop.Methods["claim"].Inputs, 6)
}

func TestLoadBuiltinERC20(t *testing.T) {
	s := New(t.TempDir())
	erc20, err := s.Load(ERC20)
	require.NoError(t, err)
	for _, m := range []string{"transfer", "balanceOf", "decimals"} {
		assert.Contains(t, erc20.Methods, m)
	}
}

func TestLoadCaches(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Ping.json")
	require.NoError(t, os.WriteFile(path, []byte(transferABI), 0o600))

	s := New(dir)
	first, err := s.Load("Ping")
	require.NoError(t, err)

	require.NoError(t, os.Remove(path))
	second, err := s.Load("Ping")
	require.NoError(t, err)
	assert.Equal(t, first.Methods["ping"].ID, second.Methods["ping"].ID)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Broken.json"), []byte(`{"abi":`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Empty.json"), []byte(`{"contractName":"x"}`), 0o600))
	s := New(dir)

	_, err := s.Load("Missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Load("")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Load("Broken")
	assert.Error(t, err)
	_, err = s.Load("Empty")
	assert.Error(t, err)
}
