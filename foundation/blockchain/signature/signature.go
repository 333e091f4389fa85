// Package signature provides helper functions for handling the blockchain
// hashing and signature needs.
package signature

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	decdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/ethereum/go-ethereum/crypto"
)

// privateKeyHexLen is the length of a 32 byte private key in hex.
const privateKeyHexLen = 64

// =============================================================================

// Hash returns the hex encoded sha256 of the string.
func Hash(data string) string {
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// Canonical returns the compact JSON encoding of the value. Struct fields are
// written in declaration order and HTML characters are not escaped, so the
// same value always produces the same bytes on every node.
func Canonical(value any) ([]byte, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(value); err != nil {
		return nil, err
	}

	// Encode terminates the value with a newline.
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// HashValue returns the hash of the canonical encoding of the value.
func HashValue(value any) (string, error) {
	data, err := Canonical(value)
	if err != nil {
		return "", err
	}

	return Hash(string(data)), nil
}

// Sign uses the specified private key to sign the hex encoded hash. The
// signature is returned as hex encoded DER.
func Sign(hash string, privateKey *ecdsa.PrivateKey) (string, error) {
	digest, err := hex.DecodeString(hash)
	if err != nil {
		return "", fmt.Errorf("decoding hash: %w", err)
	}

	if privateKey == nil {
		return "", errors.New("private key is missing")
	}

	key := secp256k1.PrivKeyFromBytes(crypto.FromECDSA(privateKey))
	sig := decdsa.Sign(key, digest)

	return hex.EncodeToString(sig.Serialize()), nil
}

// Verify reports whether the hex DER signature was produced over the hex
// encoded hash by the private key behind the address.
func Verify(address string, sig string, hash string) bool {
	pubBytes, err := hex.DecodeString(address)
	if err != nil {
		return false
	}

	pub, err := secp256k1.ParsePubKey(pubBytes)
	if err != nil {
		return false
	}

	sigBytes, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}

	s, err := decdsa.ParseDERSignature(sigBytes)
	if err != nil {
		return false
	}

	digest, err := hex.DecodeString(hash)
	if err != nil {
		return false
	}

	return s.Verify(digest, pub)
}

// =============================================================================

// PublicKeyToAddress converts the public key into the address used on the
// chain, the hex encoding of the uncompressed key.
func PublicKeyToAddress(pk ecdsa.PublicKey) string {
	return hex.EncodeToString(crypto.FromECDSAPub(&pk))
}

// ToPrivateKey parses a hex encoded private key. Keys generated by other
// tools may drop leading zeros, so short keys are padded.
func ToPrivateKey(privHex string) (*ecdsa.PrivateKey, error) {
	privHex = strings.TrimPrefix(privHex, "0x")
	if len(privHex) < privateKeyHexLen {
		privHex = strings.Repeat("0", privateKeyHexLen-len(privHex)) + privHex
	}

	return crypto.HexToECDSA(privHex)
}

// PrivateKeyToHex returns the hex encoding of the private key.
func PrivateKeyToHex(pk *ecdsa.PrivateKey) string {
	return hex.EncodeToString(crypto.FromECDSA(pk))
}

// IsAddress reports whether the string is a valid address.
func IsAddress(address string) bool {
	b, err := hex.DecodeString(address)
	if err != nil {
		return false
	}

	_, err = crypto.UnmarshalPubkey(b)
	return err == nil
}
