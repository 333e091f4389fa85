package database_test

import (
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/jdforsythe/bloch/foundation/blockchain/database"
	"github.com/jdforsythe/bloch/foundation/blockchain/signature"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const (
	senderKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	minerKey  = "8dc79feefd3b86e2f9991def0e5ccd9a5128e104682407b308594bc1032ac7f0"
)

// addressOf returns the address for the hex private key.
func addressOf(t *testing.T, hexKey string) string {
	pk, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		t.Fatalf("Should be able to load the private key: %s", err)
	}

	return signature.PublicKeyToAddress(pk.PublicKey)
}

// signedTx builds and signs a transaction from the sender key.
func signedTx(t *testing.T, dest string, balance int64, amount int64) database.SignedTx {
	pk, err := crypto.HexToECDSA(senderKey)
	if err != nil {
		t.Fatalf("Should be able to load the private key: %s", err)
	}

	tx, err := database.NewTx(signature.PublicKeyToAddress(pk.PublicKey), dest, balance, amount)
	if err != nil {
		t.Fatalf("Should be able to build the transaction: %s", err)
	}

	signed, err := tx.Sign(pk)
	if err != nil {
		t.Fatalf("Should be able to sign the transaction: %s", err)
	}

	return signed
}

// nextBlock links a new block to prev with a hash that matches its contents.
func nextBlock(t *testing.T, prev database.Block, miner string, trans ...database.SignedTx) database.Block {
	ub := database.UnfinishedBlock{
		Timestamp: prev.Timestamp + 1000,
		LastHash:  prev.Hash,
		Data: database.BlockData{
			Coinbase: database.NewCoinbaseTx(miner, 10),
			Trans:    trans,
		},
		Difficulty: 1,
	}

	return database.Block{UnfinishedBlock: ub, Hash: hashBlock(t, ub)}
}

// hashBlock returns the hash of the block and fails the test if it can't
// be computed.
func hashBlock(t *testing.T, ub database.UnfinishedBlock) string {
	hash, err := database.HashBlock(ub)
	if err != nil {
		t.Fatalf("Should be able to hash the block: %s", err)
	}

	return hash
}

// =============================================================================

func Test_Genesis(t *testing.T) {
	t.Log("Given the need to reproduce the genesis block.")
	{
		gen := database.Genesis()

		if gen.Timestamp != 380221200000 || gen.LastHash != "bigbang" || gen.Nonce != 195250 || gen.Difficulty != 4 {
			t.Logf("\t%s\tgot: %+v", failed, gen)
			t.Fatalf("\t%s\tShould get back the genesis header values.", failed)
		}
		t.Logf("\t%s\tShould get back the genesis header values.", success)

		const hash = "0000c5f48c60d075730f45945cc7f8cad953e7d0f168186c8c7d3ff07db6f0f7"
		if gen.Hash != hash {
			t.Logf("\t%s\tgot: %s", failed, gen.Hash)
			t.Logf("\t%s\texp: %s", failed, hash)
			t.Fatalf("\t%s\tShould get back the genesis hash.", failed)
		}
		t.Logf("\t%s\tShould get back the genesis hash.", success)

		cb := gen.Data.Coinbase
		if cb.ID != "genesis" || len(cb.Outputs) != 1 || cb.Outputs[0].Amount != 1000 || len(gen.Data.Trans) != 0 {
			t.Logf("\t%s\tgot: %+v", failed, cb)
			t.Fatalf("\t%s\tShould get back the genesis coinbase.", failed)
		}
		t.Logf("\t%s\tShould get back the genesis coinbase.", success)

		const digest = "e936a8c7bf81af9126474cbd73e36893024a159bc4d1845d406daae3d30b0d3f"
		if h := hashBlock(t, gen.UnfinishedBlock); h != digest {
			t.Logf("\t%s\tgot: %s", failed, h)
			t.Logf("\t%s\texp: %s", failed, digest)
			t.Fatalf("\t%s\tShould hash the genesis fields to the known digest.", failed)
		}
		t.Logf("\t%s\tShould hash the genesis fields to the known digest.", success)
	}
}

func Test_HashBlock(t *testing.T) {
	miner := addressOf(t, minerKey)
	tx := signedTx(t, miner, 1000, 300)

	ub := database.UnfinishedBlock{
		Timestamp: 1600000000000,
		LastHash:  database.Genesis().Hash,
		Data: database.BlockData{
			Coinbase: database.CoinbaseTx{ID: "cb", Outputs: []database.Output{{Address: miner, Amount: 10}}},
			Trans:    []database.SignedTx{tx},
		},
		Nonce:      7,
		Difficulty: 2,
	}

	h1, err := database.HashBlock(ub)
	if err != nil {
		t.Fatalf("Should be able to hash the block: %s", err)
	}

	h2 := hashBlock(t, ub)
	if h1 != h2 {
		t.Logf("got: %s", h1)
		t.Logf("exp: %s", h2)
		t.Fatalf("Should get back the same hash twice.")
	}

	// A block received from a peer must hash the same as the block sent.
	data, err := json.Marshal(database.Block{UnfinishedBlock: ub, Hash: h1})
	if err != nil {
		t.Fatalf("Should be able to marshal the block: %s", err)
	}

	var block database.Block
	if err := json.Unmarshal(data, &block); err != nil {
		t.Fatalf("Should be able to unmarshal the block: %s", err)
	}

	if h := hashBlock(t, block.UnfinishedBlock); h != h1 {
		t.Logf("got: %s", h)
		t.Logf("exp: %s", h1)
		t.Fatalf("Should get back the same hash after a round trip.")
	}

	ub.Nonce++
	if hashBlock(t, ub) == h1 {
		t.Fatalf("Should get a different hash for a different nonce.")
	}
}

func Test_BlockData(t *testing.T) {
	data, err := json.Marshal(database.Genesis().Data)
	if err != nil {
		t.Fatalf("Should be able to marshal the block data: %s", err)
	}

	exp := `[{"id":"genesis","input":{},"outputs":[{"address":"046acf12468cb92de2e7bf7442987d73c183719454ccd91e42c5785437954c97418ec6fa979c63e82f4dd794db28f86f41ac81275603dbad9f99ac06d5046c133a","amount":1000}]}]`
	if string(data) != exp {
		t.Logf("got: %s", data)
		t.Logf("exp: %s", exp)
		t.Fatalf("Should encode the block data as an array with the coinbase first.")
	}

	var bd database.BlockData
	if err := json.Unmarshal([]byte(`[]`), &bd); err == nil {
		t.Fatalf("Should reject block data without a coinbase.")
	}
}

func Test_IsHashSolved(t *testing.T) {
	tt := []struct {
		difficulty uint
		hash       string
		exp        bool
	}{
		{0, "ffff", true},
		{2, "00ff", true},
		{3, "00ff", false},
		{4, "0000c5f4", true},
		{5, "0000", false},
	}

	for _, tst := range tt {
		if got := database.IsHashSolved(tst.difficulty, tst.hash); got != tst.exp {
			t.Fatalf("Should get %v for difficulty %d and hash %s.", tst.exp, tst.difficulty, tst.hash)
		}
	}
}
