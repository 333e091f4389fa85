package state

import (
	"errors"
	"fmt"

	"github.com/jdforsythe/bloch/foundation/blockchain/balance"
	"github.com/jdforsythe/bloch/foundation/blockchain/database"
)

// ErrDuplicatePendingSpend is returned when the node's wallet already has a
// transaction waiting in the mempool.
var ErrDuplicatePendingSpend = errors.New("please wait until your last transaction is verified")

// ErrSendToSelf is returned when the node's wallet is asked to pay itself.
var ErrSendToSelf = errors.New("cannot send coins to yourself")

// =============================================================================

// SendTransaction builds and signs a transaction from the node's wallet,
// adds it to the mempool and shares it with the network.
func (s *State) SendTransaction(destAddress string, amount int64) (database.SignedTx, error) {
	s.mu.Lock()

	if destAddress == s.address {
		s.mu.Unlock()
		return database.SignedTx{}, ErrSendToSelf
	}

	// Every spend uses the whole balance so a second spend would be built
	// from a balance that is about to change.
	if s.mempool.HasSpendFrom(s.address) {
		s.mu.Unlock()
		return database.SignedTx{}, ErrDuplicatePendingSpend
	}

	s.wallet.Balance = balance.Current(s.address, s.blocks)

	tx, err := database.NewTx(s.address, destAddress, s.wallet.Balance, amount)
	if err != nil {
		s.mu.Unlock()
		return database.SignedTx{}, err
	}

	signedTx, err := tx.Sign(s.privateKey)
	if err != nil {
		s.mu.Unlock()
		return database.SignedTx{}, fmt.Errorf("sign: %w", err)
	}

	s.mempool.Upsert(signedTx)
	s.mu.Unlock()

	s.evHandler("state: SendTransaction: sending %d coins to %s: tx[%s]", amount, destAddress, signedTx)

	s.Worker().SignalShareTx(signedTx)
	s.Worker().SignalStartMining()

	return signedTx, nil
}

// ProcessTransaction accepts a transaction shared by a peer for inclusion. The
// sender must hold at least the amount being spent. Signatures are checked
// when the transaction is mined.
func (s *State) ProcessTransaction(tx database.SignedTx) error {
	s.mu.Lock()

	current := balance.Current(tx.Input.Address, s.blocks)
	if current < tx.Input.Amount {
		s.mu.Unlock()
		return fmt.Errorf("tx[%s] spends %d with a balance of %d: %w", tx, tx.Input.Amount, current, database.ErrInsufficientFunds)
	}

	n := s.mempool.Upsert(tx)
	s.mu.Unlock()

	s.evHandler("state: ProcessTransaction: added tx[%s]: mempool[%d]", tx, n)

	s.Worker().SignalStartMining()

	return nil
}
