package database

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jdforsythe/bloch/foundation/blockchain/signature"
)

// BlockData is the ordered set of transactions in a block. On the wire it is
// a single JSON array with the coinbase transaction first.
type BlockData struct {
	Coinbase CoinbaseTx
	Trans    []SignedTx
}

// MarshalJSON implements the json.Marshaler interface.
func (bd BlockData) MarshalJSON() ([]byte, error) {
	values := make([]any, 0, len(bd.Trans)+1)
	values = append(values, bd.Coinbase)
	for _, tx := range bd.Trans {
		values = append(values, tx)
	}

	return signature.Canonical(values)
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (bd *BlockData) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if len(raw) == 0 {
		return errors.New("block data has no coinbase transaction")
	}

	var coinbase CoinbaseTx
	if err := json.Unmarshal(raw[0], &coinbase); err != nil {
		return fmt.Errorf("coinbase: %w", err)
	}

	trans := make([]SignedTx, len(raw)-1)
	for i, r := range raw[1:] {
		if err := json.Unmarshal(r, &trans[i]); err != nil {
			return fmt.Errorf("transaction %d: %w", i+1, err)
		}
	}

	bd.Coinbase = coinbase
	bd.Trans = trans

	return nil
}

// IDs returns the ids of every transaction in the block, coinbase included.
func (bd BlockData) IDs() []string {
	ids := make([]string, 0, len(bd.Trans)+1)
	ids = append(ids, bd.Coinbase.ID)
	for _, tx := range bd.Trans {
		ids = append(ids, tx.ID)
	}

	return ids
}

// =============================================================================

// UnfinishedBlock is a block that hasn't been mined yet so it has no hash.
type UnfinishedBlock struct {
	Timestamp  int64     `json:"timestamp"` // Unix milliseconds the mining attempt started.
	LastHash   string    `json:"lastHash"`  // Hash of the previous block in the chain.
	Data       BlockData `json:"data"`
	Nonce      uint64    `json:"nonce"`      // Value identified to solve the hash solution.
	Difficulty uint      `json:"difficulty"` // Number of 0's needed to solve the hash solution.
}

// Block represents a group of transactions batched together.
type Block struct {
	UnfinishedBlock
	Hash string `json:"hash"`
}

// HashBlock returns the hash for the block. Every node must produce the same
// bytes for the same block so the data is encoded canonically.
func HashBlock(ub UnfinishedBlock) (string, error) {
	data, err := signature.Canonical(ub.Data)
	if err != nil {
		return "", fmt.Errorf("encoding block data: %w", err)
	}

	return hashHeader(ub, data), nil
}

// hashHeader hashes the block fields with the already encoded data.
func hashHeader(ub UnfinishedBlock, data []byte) string {
	return signature.Hash(fmt.Sprintf("%d%s%s%d%d", ub.Timestamp, ub.LastHash, data, ub.Nonce, ub.Difficulty))
}

// IsHashSolved checks the hash to make sure it complies with
// the POW rules. We need to match a difficulty number of 0's.
func IsHashSolved(difficulty uint, hash string) bool {
	if uint(len(hash)) < difficulty {
		return false
	}

	return hash[:difficulty] == strings.Repeat("0", int(difficulty))
}

// =============================================================================

// genesisAddress is paid the initial supply of the chain.
const genesisAddress = "046acf12468cb92de2e7bf7442987d73c183719454ccd91e42c5785437954c97418ec6fa979c63e82f4dd794db28f86f41ac81275603dbad9f99ac06d5046c133a"

// Genesis returns the first block of every chain. The stored hash is a fixed
// literal and is the trust anchor for the chain.
func Genesis() Block {
	return Block{
		UnfinishedBlock: UnfinishedBlock{
			Timestamp: 380221200000,
			LastHash:  "bigbang",
			Data: BlockData{
				Coinbase: CoinbaseTx{
					ID: "genesis",
					Outputs: []Output{
						{Address: genesisAddress, Amount: 1000},
					},
				},
				Trans: []SignedTx{},
			},
			Nonce:      195250,
			Difficulty: 4,
		},
		Hash: "0000c5f48c60d075730f45945cc7f8cad953e7d0f168186c8c7d3ff07db6f0f7",
	}
}
