package nameservice_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/jdforsythe/bloch/foundation/blockchain/signature"
	"github.com/jdforsythe/bloch/foundation/nameservice"
)

func Test_Lookup(t *testing.T) {
	root := t.TempDir()

	keys := map[string]string{
		"kennedy": "8dc79feefd3b86e2f9991def0e5ccd9a5128e104682407b308594bc1032ac7f0",
		"pavel":   "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959",
	}

	addresses := make(map[string]string)
	for name, hexKey := range keys {
		pk, err := crypto.HexToECDSA(hexKey)
		if err != nil {
			t.Fatalf("Should be able to load the private key: %s", err)
		}

		if err := crypto.SaveECDSA(filepath.Join(root, name+".ecdsa"), pk); err != nil {
			t.Fatalf("Should be able to save the private key: %s", err)
		}

		addresses[name] = signature.PublicKeyToAddress(pk.PublicKey)
	}

	if err := os.WriteFile(filepath.Join(root, "README.md"), []byte("keys"), 0600); err != nil {
		t.Fatalf("Should be able to write a file: %s", err)
	}

	ns, err := nameservice.New(root)
	if err != nil {
		t.Fatalf("Should be able to construct the name service: %s", err)
	}

	for name, address := range addresses {
		if got := ns.Lookup(address); got != name {
			t.Fatalf("Should get back %s for the address, got %s", name, got)
		}
	}

	if got := ns.Lookup("04unknown"); got != "04unknown" {
		t.Fatalf("Should get back an unknown address as is, got %s", got)
	}

	if got := ns.Addresses(); len(got) != 2 || got[0] != addresses["kennedy"] {
		t.Fatalf("Should get back the addresses sorted by name.")
	}

	empty, err := nameservice.New(filepath.Join(root, "missing"))
	if err != nil || len(empty.Copy()) != 0 {
		t.Fatalf("Should get back an empty name service for a missing folder.")
	}
}
