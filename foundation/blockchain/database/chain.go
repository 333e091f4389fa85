package database

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/jdforsythe/bloch/foundation/blockchain/signature"
)

// ErrInvalidChain is returned when a chain fails structural validation.
var ErrInvalidChain = errors.New("invalid chain")

// =============================================================================

// Wallet is the address of a node's miner and its last known balance. The
// balance is a cache and can always be recomputed from the chain.
type Wallet struct {
	Address string `json:"address"`
	Balance int64  `json:"balance"`
}

// Chain is the full state of a node: the blocks, the pending transactions
// and the wallet. This is what nodes share with each other.
type Chain struct {
	Blocks  []Block    `json:"blocks"`
	Mempool []SignedTx `json:"mempool"`
	Wallet  Wallet     `json:"wallet"`
}

// LastHash returns the hash of the block at the head of the chain.
func (c Chain) LastHash() string {
	if len(c.Blocks) == 0 {
		return ""
	}

	return c.Blocks[len(c.Blocks)-1].Hash
}

// =============================================================================

// ValidateChain checks the chain starts at genesis and each block links to
// its parent with a hash that matches its contents. The difficulty of each
// hash and the transaction signatures are not checked here.
func ValidateChain(blocks []Block) error {
	if len(blocks) == 0 {
		return fmt.Errorf("no blocks: %w", ErrInvalidChain)
	}

	if !isGenesis(blocks[0]) {
		return fmt.Errorf("first block is not genesis: %w", ErrInvalidChain)
	}

	for i := 1; i < len(blocks); i++ {
		current := blocks[i]
		last := blocks[i-1]

		if current.LastHash != last.Hash {
			return fmt.Errorf("blk[%d]: parent hash doesn't match, got %s, exp %s: %w", i, current.LastHash, last.Hash, ErrInvalidChain)
		}

		hash, err := HashBlock(current.UnfinishedBlock)
		if err != nil {
			return fmt.Errorf("blk[%d]: %w: %w", i, err, ErrInvalidChain)
		}

		if current.Hash != hash {
			return fmt.Errorf("blk[%d]: hash doesn't match contents, got %s, exp %s: %w", i, current.Hash, hash, ErrInvalidChain)
		}
	}

	return nil
}

// IsValidChain reports whether the chain passes ValidateChain.
func IsValidChain(blocks []Block) bool {
	return ValidateChain(blocks) == nil
}

// BestChain returns the candidate chain if it is longer than the local chain
// and valid. Otherwise the local chain is kept.
func BestChain(local Chain, candidate Chain) Chain {
	if len(candidate.Blocks) <= len(local.Blocks) || !IsValidChain(candidate.Blocks) {
		return local
	}

	return candidate
}

// ChainWithNewBlock returns the chain with the block appended and every
// transaction in the block removed from the mempool.
func ChainWithNewBlock(chain Chain, block Block) Chain {
	ids := make(map[string]struct{})
	for _, id := range block.Data.IDs() {
		ids[id] = struct{}{}
	}

	blocks := make([]Block, len(chain.Blocks), len(chain.Blocks)+1)
	copy(blocks, chain.Blocks)
	blocks = append(blocks, block)

	mempool := make([]SignedTx, 0, len(chain.Mempool))
	for _, tx := range chain.Mempool {
		if _, exists := ids[tx.ID]; !exists {
			mempool = append(mempool, tx)
		}
	}

	return Chain{
		Blocks:  blocks,
		Mempool: mempool,
		Wallet:  chain.Wallet,
	}
}

// =============================================================================

// isGenesis performs a full structural comparison against the genesis block.
func isGenesis(block Block) bool {
	got, err := signature.Canonical(block)
	if err != nil {
		return false
	}

	exp, err := signature.Canonical(Genesis())
	if err != nil {
		return false
	}

	return bytes.Equal(got, exp)
}
