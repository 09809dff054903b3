// Package abistore loads contract ABIs by name from a directory of JSON files.
package abistore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethersphere/go-sw3-abi/sw3abi"
	gocache "github.com/patrickmn/go-cache"
)

// ERC20 is the name of the built-in token ABI.
const ERC20 = "erc20"

var ErrNotFound = errors.New("abi not found")

var erc20ABI = mustParseABI(sw3abi.ERC20ABIv0_3_1)

// ERC20ABI returns the built-in token ABI without touching the filesystem.
func ERC20ABI() abi.ABI {
	return erc20ABI
}

// Store caches parsed ABIs for the life of the process; it is safe for concurrent use.
type Store struct {
	dir   string
	cache *gocache.Cache
}

func New(dir string) *Store {
	s := &Store{
		dir:   dir,
		cache: gocache.New(gocache.NoExpiration, 0),
	}
	s.cache.Set(ERC20, erc20ABI, gocache.NoExpiration)
	return s
}

// Load returns the ABI stored as <dir>/<name>.json. The file may hold a bare ABI
// array or a compiler artifact with an "abi" field.
func (s *Store) Load(name string) (abi.ABI, error) {
	name = strings.TrimSuffix(strings.TrimSpace(name), ".json")
	if name == "" {
		return abi.ABI{}, fmt.Errorf("%w: empty name", ErrNotFound)
	}
	if v, ok := s.cache.Get(name); ok {
		return v.(abi.ABI), nil
	}
	path := filepath.Join(s.dir, name+".json")
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return abi.ABI{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return abi.ABI{}, err
	}
	parsed, err := parse(b)
	if err != nil {
		return abi.ABI{}, fmt.Errorf("parse abi %s: %w", path, err)
	}
	s.cache.Set(name, parsed, gocache.NoExpiration)
	return parsed, nil
}

func parse(b []byte) (abi.ABI, error) {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '{' {
		var artifact struct {
			ABI json.RawMessage `json:"abi"`
		}
		if err := json.Unmarshal(b, &artifact); err != nil {
			return abi.ABI{}, err
		}
		if len(artifact.ABI) == 0 {
			return abi.ABI{}, errors.New("artifact has no abi field")
		}
		b = artifact.ABI
	}
	return abi.JSON(bytes.NewReader(b))
}

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(fmt.Sprintf("parse built-in abi: %v", err))
	}
	return parsed
}
