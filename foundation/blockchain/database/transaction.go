package database

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jdforsythe/bloch/foundation/blockchain/signature"
)

// ErrInsufficientFunds is returned when a transaction would send more than
// the source balance.
var ErrInsufficientFunds = errors.New("insufficient funds")

// =============================================================================

// Output is one of the payments a transaction makes.
type Output struct {
	Address string `json:"address"`
	Amount  int64  `json:"amount"`
}

// Input identifies the address being spent. Amount is always the full
// balance of the address at the time the transaction was built.
type Input struct {
	Address   string `json:"address"`
	Amount    int64  `json:"amount"`
	Timestamp int64  `json:"timestamp"` // Unix milliseconds.
}

// SignedInput is the input with the signature over the outputs attached.
type SignedInput struct {
	Input
	Signature string `json:"signature"`
}

// =============================================================================

// UnsignedTx is a transaction that has been built but not signed.
type UnsignedTx struct {
	ID      string   `json:"id"`
	Input   Input    `json:"input"`
	Outputs []Output `json:"outputs"`
}

// NewTx constructs a transaction that spends the source's entire balance,
// paying amount to dest and returning the change to source.
func NewTx(source string, dest string, sourceBalance int64, amount int64) (UnsignedTx, error) {
	if amount > sourceBalance {
		return UnsignedTx{}, fmt.Errorf("amount %d exceeds wallet balance of %d: %w", amount, sourceBalance, ErrInsufficientFunds)
	}

	tx := UnsignedTx{
		ID: newID(),
		Input: Input{
			Address:   source,
			Amount:    sourceBalance,
			Timestamp: time.Now().UnixMilli(),
		},
		Outputs: []Output{
			{Address: dest, Amount: amount},
			{Address: source, Amount: sourceBalance - amount},
		},
	}

	return tx, nil
}

// Sign uses the specified private key to sign the transaction outputs.
func (tx UnsignedTx) Sign(privateKey *ecdsa.PrivateKey) (SignedTx, error) {
	hash, err := signature.HashValue(tx.Outputs)
	if err != nil {
		return SignedTx{}, err
	}

	sig, err := signature.Sign(hash, privateKey)
	if err != nil {
		return SignedTx{}, err
	}

	signedTx := SignedTx{
		ID: tx.ID,
		Input: SignedInput{
			Input:     tx.Input,
			Signature: sig,
		},
		Outputs: tx.Outputs,
	}

	return signedTx, nil
}

// =============================================================================

// SignedTx is a signed version of the transaction. This is what is kept in
// the mempool, shared with peers and recorded in blocks.
type SignedTx struct {
	ID      string      `json:"id"`
	Input   SignedInput `json:"input"`
	Outputs []Output    `json:"outputs"`
}

// Validate checks the outputs add up to the input amount and the signature
// was produced by the input address over these outputs.
func (tx SignedTx) Validate() error {
	var total int64
	for _, out := range tx.Outputs {
		total += out.Amount
	}

	if total != tx.Input.Amount {
		return fmt.Errorf("outputs total %d, input amount %d", total, tx.Input.Amount)
	}

	hash, err := signature.HashValue(tx.Outputs)
	if err != nil {
		return err
	}

	if !signature.Verify(tx.Input.Address, tx.Input.Signature, hash) {
		return errors.New("invalid signature")
	}

	return nil
}

// IsValid reports whether the transaction passes Validate.
func (tx SignedTx) IsValid() bool {
	return tx.Validate() == nil
}

// String implements the fmt.Stringer interface for logging.
func (tx SignedTx) String() string {
	from := tx.Input.Address
	if len(from) > 16 {
		from = from[:16]
	}

	return fmt.Sprintf("%s:%s", from, tx.ID)
}

// =============================================================================

// CoinbaseTx is the reward minting transaction. It has no input and always
// comes first in a block.
type CoinbaseTx struct {
	ID      string   `json:"id"`
	Input   struct{} `json:"input"`
	Outputs []Output `json:"outputs"`
}

// NewCoinbaseTx constructs the reward for the miner of a block.
func NewCoinbaseTx(minerAddress string, reward int64) CoinbaseTx {
	return CoinbaseTx{
		ID: newID(),
		Outputs: []Output{
			{Address: minerAddress, Amount: reward},
		},
	}
}

// =============================================================================

// newID returns a time based unique id for a transaction.
func newID() string {
	id, err := uuid.NewUUID()
	if err != nil {
		return uuid.NewString()
	}

	return id.String()
}
