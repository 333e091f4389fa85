package signature_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/jdforsythe/bloch/foundation/blockchain/signature"
)

const (
	pkHexKey  = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	pkHexKey2 = "8dc79feefd3b86e2f9991def0e5ccd9a5128e104682407b308594bc1032ac7f0"
)

// =============================================================================

func Test_Signing(t *testing.T) {
	pk, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to generate a private key: %s", err)
	}

	hash := signature.Hash("Bill")

	sig, err := signature.Sign(hash, pk)
	if err != nil {
		t.Fatalf("Should be able to sign data: %s", err)
	}

	address := signature.PublicKeyToAddress(pk.PublicKey)
	if !signature.Verify(address, sig, hash) {
		t.Fatalf("Should be able to verify the signature.")
	}

	if signature.Verify(address, sig, signature.Hash("Jill")) {
		t.Fatalf("Should not verify the signature against different data.")
	}

	pk2, err := crypto.HexToECDSA(pkHexKey2)
	if err != nil {
		t.Fatalf("Should be able to generate a private key: %s", err)
	}

	if signature.Verify(signature.PublicKeyToAddress(pk2.PublicKey), sig, hash) {
		t.Fatalf("Should not verify the signature against a different address.")
	}

	if signature.Verify(address, "zz", hash) {
		t.Fatalf("Should not verify a malformed signature.")
	}
}

func Test_Hash(t *testing.T) {
	h1 := signature.Hash("Bill")
	h2 := signature.Hash("Bill")
	if h1 != h2 {
		t.Logf("got: %s", h1)
		t.Logf("exp: %s", h2)
		t.Fatalf("Should get back the same hash twice.")
	}

	if len(h1) != 64 {
		t.Fatalf("Should get back a 64 character hash, got %d", len(h1))
	}

	const empty = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if h := signature.Hash(""); h != empty {
		t.Logf("got: %s", h)
		t.Logf("exp: %s", empty)
		t.Fatalf("Should get back the sha256 of the empty string.")
	}
}

func Test_Canonical(t *testing.T) {
	value := struct {
		Name    string `json:"name"`
		Address string `json:"address"`
		Amount  int64  `json:"amount"`
	}{
		Name:    "<Bill & Jill>",
		Address: "addr",
		Amount:  1000,
	}

	data, err := signature.Canonical(value)
	if err != nil {
		t.Fatalf("Should be able to encode the value: %s", err)
	}

	exp := `{"name":"<Bill & Jill>","address":"addr","amount":1000}`
	if string(data) != exp {
		t.Logf("got: %s", data)
		t.Logf("exp: %s", exp)
		t.Fatalf("Should get back the canonical encoding.")
	}
}

func Test_PrivateKey(t *testing.T) {
	pk, err := signature.ToPrivateKey(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to parse the private key: %s", err)
	}

	if got := signature.PrivateKeyToHex(pk); got != pkHexKey {
		t.Logf("got: %s", got)
		t.Logf("exp: %s", pkHexKey)
		t.Fatalf("Should get back the same private key.")
	}

	address := signature.PublicKeyToAddress(pk.PublicKey)
	if len(address) != 130 || address[:2] != "04" {
		t.Fatalf("Should get an uncompressed public key address, got %s", address)
	}

	if !signature.IsAddress(address) {
		t.Fatalf("Should recognize a valid address.")
	}

	if signature.IsAddress("bill") {
		t.Fatalf("Should not recognize an invalid address.")
	}
}
