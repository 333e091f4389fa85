// Package balance reconstructs address balances from the blocks in the chain.
//
// There is no set of unspent outputs. Every spend uses the whole balance of
// the sender and returns the change to the sender as an output, so the last
// spend of an address is a known balance. Only the blocks after that spend
// need to be replayed.
package balance

import (
	"github.com/jdforsythe/bloch/foundation/blockchain/database"
)

// Current returns the spendable balance of the address.
func Current(address string, blocks []database.Block) int64 {
	var initial int64

	// The blocks to replay start after the last spend, or at genesis if the
	// address never spent anything.
	from := 0

	if idx, found := LastSpend(address, blocks); found {
		initial = spendBase(address, blocks[idx])
		from = idx + 1
	}

	return accumulate(initial, address, blocks[from:])
}

// LastSpend returns the index of the most recent block holding a
// transaction spent by the address.
func LastSpend(address string, blocks []database.Block) (int, bool) {
	for i := len(blocks) - 1; i >= 0; i-- {
		for _, tx := range blocks[i].Data.Trans {
			if tx.Input.Address == address {
				return i, true
			}
		}
	}

	return 0, false
}

// =============================================================================

// spendBase returns the balance of the address right after the block holding
// its last spend: the change from that spend plus the block reward if the
// address mined the block.
func spendBase(address string, block database.Block) int64 {
	var base int64

	trans := block.Data.Trans
	for i := len(trans) - 1; i >= 0; i-- {
		if trans[i].Input.Address != address {
			continue
		}

		for _, out := range trans[i].Outputs {
			if out.Address == address {
				base = out.Amount
				break
			}
		}
		break
	}

	if outs := block.Data.Coinbase.Outputs; len(outs) > 0 && outs[0].Address == address {
		base += outs[0].Amount
	}

	return base
}

// accumulate adds every deposit to the address and subtracts every spend by
// the address in the blocks.
func accumulate(balance int64, address string, blocks []database.Block) int64 {
	for _, block := range blocks {
		for _, out := range block.Data.Coinbase.Outputs {
			if out.Address == address {
				balance += out.Amount
			}
		}

		for _, tx := range block.Data.Trans {
			if tx.Input.Address == address {
				balance -= tx.Input.Amount
			}

			for _, out := range tx.Outputs {
				if out.Address == address {
					balance += out.Amount
				}
			}
		}
	}

	return balance
}
