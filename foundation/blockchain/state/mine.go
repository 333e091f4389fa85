package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/jdforsythe/bloch/foundation/blockchain/database"
)

// ErrEmptyMempool is returned when a block is requested to be created
// and there are no valid transactions to put in it.
var ErrEmptyMempool = errors.New("no valid transactions in mempool")

// =============================================================================

// MineNewBlock attempts to create a new block with a proper hash that can become
// the next block in the chain. Mining is aborted if the head of the chain
// changes while the search is running.
func (s *State) MineNewBlock(ctx context.Context) (database.Block, error) {
	s.evHandler("state: MineNewBlock: MINING: check mempool")

	s.mu.RLock()
	lastHash := s.blocks[len(s.blocks)-1].Hash
	pending := s.mempool.Copy()
	s.mu.RUnlock()

	// Invalid transactions are left out of the block but stay in the mempool.
	trans := make([]database.SignedTx, 0, len(pending))
	for _, tx := range pending {
		if err := tx.Validate(); err != nil {
			s.evHandler("state: MineNewBlock: MINING: skip tx[%s]: %s", tx, err)
			continue
		}
		trans = append(trans, tx)
	}

	if len(trans) == 0 {
		return database.Block{}, ErrEmptyMempool
	}

	s.evHandler("state: MineNewBlock: MINING: perform POW")

	args := database.POWArgs{
		MinerAddress: s.address,
		Difficulty:   s.genesis.Difficulty,
		MiningReward: s.genesis.MiningReward,
		LastHash:     lastHash,
		Trans:        trans,
		Head:         s.Head,
		EvHandler:    s.evHandler,
	}

	// Attempt to create a new block by solving the POW puzzle. This can be cancelled.
	block, err := database.POW(ctx, args)
	if err != nil {
		return database.Block{}, err
	}

	s.evHandler("state: MineNewBlock: MINING: update local state")

	s.mu.Lock()
	defer s.mu.Unlock()

	// The head may have moved after the last check made by POW.
	if head := s.blocks[len(s.blocks)-1].Hash; head != block.LastHash {
		return database.Block{}, fmt.Errorf("head[%s] block parent[%s]: %w", head, block.LastHash, database.ErrMiningAborted)
	}

	s.setChain(database.ChainWithNewBlock(s.local(), block))

	return block, nil
}
