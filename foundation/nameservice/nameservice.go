// Package nameservice reads a folder of key files and creates a name
// service lookup for the wallet addresses they hold.
package nameservice

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/jdforsythe/bloch/foundation/blockchain/signature"
)

// keyExt is the extension of the private key files.
const keyExt = ".ecdsa"

// NameService maintains a map of addresses for name lookup.
type NameService struct {
	addresses map[string]string
}

// New constructs a name service with the addresses of the key files found
// under root. The file name without the extension is the name. An empty or
// missing root gives back an empty name service.
func New(root string) (*NameService, error) {
	ns := NameService{
		addresses: make(map[string]string),
	}

	if root == "" {
		return &ns, nil
	}

	if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
		return &ns, nil
	}

	fn := func(fileName string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walkdir failure: %w", err)
		}

		if d.IsDir() || filepath.Ext(fileName) != keyExt {
			return nil
		}

		privateKey, err := crypto.LoadECDSA(fileName)
		if err != nil {
			return fmt.Errorf("%s: %w", fileName, err)
		}

		address := signature.PublicKeyToAddress(privateKey.PublicKey)
		ns.addresses[address] = strings.TrimSuffix(filepath.Base(fileName), keyExt)

		return nil
	}

	if err := filepath.WalkDir(root, fn); err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return &ns, nil
}

// Lookup returns the name for the specified address. An unknown address is
// returned as is.
func (ns *NameService) Lookup(address string) string {
	name, exists := ns.addresses[address]
	if !exists {
		return address
	}
	return name
}

// Copy returns a copy of the map of addresses and names.
func (ns *NameService) Copy() map[string]string {
	cpy := make(map[string]string, len(ns.addresses))
	for address, name := range ns.addresses {
		cpy[address] = name
	}
	return cpy
}

// Addresses returns the known addresses sorted by name.
func (ns *NameService) Addresses() []string {
	addresses := make([]string, 0, len(ns.addresses))
	for address := range ns.addresses {
		addresses = append(addresses, address)
	}

	sort.Slice(addresses, func(i, j int) bool {
		return ns.addresses[addresses[i]] < ns.addresses[addresses[j]]
	})

	return addresses
}
