package gossip

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jdforsythe/bloch/foundation/blockchain/database"
	"github.com/jdforsythe/bloch/foundation/blockchain/signature"
)

// ErrUnknownMessage is returned when a message has a type that isn't part of
// the protocol.
var ErrUnknownMessage = errors.New("unknown message type")

// Set of message types on the wire.
const (
	TypeChain       = "chain"
	TypeTransaction = "transaction"
	TypePeers       = "peers"
)

// =============================================================================

// Message is one of the messages nodes send each other. The set of messages
// is closed; only this package can add to it.
type Message interface {
	Type() string
	payload() any
}

// ChainMessage carries the full state of the sending node.
type ChainMessage struct {
	Chain database.Chain
}

// Type implements the Message interface.
func (ChainMessage) Type() string { return TypeChain }

func (m ChainMessage) payload() any { return m.Chain }

// TransactionMessage carries a single new transaction.
type TransactionMessage struct {
	Tx database.SignedTx
}

// Type implements the Message interface.
func (TransactionMessage) Type() string { return TypeTransaction }

func (m TransactionMessage) payload() any { return m.Tx }

// PeersMessage carries the urls of the peers known to the sending node.
type PeersMessage struct {
	Peers []string
}

// Type implements the Message interface.
func (PeersMessage) Type() string { return TypePeers }

func (m PeersMessage) payload() any {
	if m.Peers == nil {
		return []string{}
	}
	return m.Peers
}

// =============================================================================

// envelope is the wire form of every message.
type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Encode returns the wire form of the message.
func Encode(msg Message) ([]byte, error) {
	data, err := signature.Canonical(msg.payload())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", msg.Type(), err)
	}

	return signature.Canonical(envelope{Type: msg.Type(), Data: data})
}

// Decode parses the wire form of a message.
func Decode(data []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("envelope: %w", err)
	}

	switch env.Type {
	case TypeChain:
		var chain database.Chain
		if err := json.Unmarshal(env.Data, &chain); err != nil {
			return nil, fmt.Errorf("%s: %w", env.Type, err)
		}
		return ChainMessage{Chain: chain}, nil

	case TypeTransaction:
		var tx database.SignedTx
		if err := json.Unmarshal(env.Data, &tx); err != nil {
			return nil, fmt.Errorf("%s: %w", env.Type, err)
		}
		return TransactionMessage{Tx: tx}, nil

	case TypePeers:
		var peers []string
		if err := json.Unmarshal(env.Data, &peers); err != nil {
			return nil, fmt.Errorf("%s: %w", env.Type, err)
		}
		return PeersMessage{Peers: peers}, nil
	}

	return nil, fmt.Errorf("type %q: %w", env.Type, ErrUnknownMessage)
}
