// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jdforsythe/bloch/business/sys/validate"
	"github.com/jdforsythe/bloch/business/web/errs"
	"github.com/jdforsythe/bloch/foundation/blockchain/database"
	"github.com/jdforsythe/bloch/foundation/blockchain/gossip"
	"github.com/jdforsythe/bloch/foundation/blockchain/state"
	"github.com/jdforsythe/bloch/foundation/events"
	"github.com/jdforsythe/bloch/foundation/nameservice"
	"github.com/jdforsythe/bloch/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of node endpoints.
type Handlers struct {
	Log    *zap.SugaredLogger
	State  *state.State
	Gossip *gossip.Server
	NS     *nameservice.NameService
	WS     websocket.Upgrader
	Evts   *events.Events
}

// Balance returns the balance of the node's wallet.
func (h Handlers) Balance(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, balanceResponse{Balance: h.State.Balance()}, http.StatusOK)
}

// Blocks returns the full chain.
func (h Handlers) Blocks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, blocksResponse{Blocks: h.State.Blocks()}, http.StatusOK)
}

// Mempool returns the transactions waiting to be mined.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, mempoolResponse{Pool: h.State.Mempool()}, http.StatusOK)
}

// Address returns the address of the node's wallet.
func (h Handlers) Address(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, addressResponse{Address: h.State.Address()}, http.StatusOK)
}

// Peers returns the urls of the nodes this node connected to.
func (h Handlers) Peers(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := peersResponse{
		Peers:       h.Gossip.Peers(),
		Connections: h.Gossip.Connections(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Accounts returns the named accounts known to the node with their balances.
func (h Handlers) Accounts(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	addresses := h.NS.Addresses()

	resp := accountsResponse{
		Accounts: make([]account, len(addresses)),
	}
	for i, address := range addresses {
		resp.Accounts[i] = account{
			Name:    h.NS.Lookup(address),
			Address: address,
			Balance: h.State.BalanceOf(address),
		}
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// SendTransaction spends coins from the node's wallet.
func (h Handlers) SendTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var nt newTransaction
	if err := web.Decode(r, &nt); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	if err := validate.Check(nt); err != nil {
		return err
	}

	h.Log.Infow("send transaction", "traceid", v.TraceID, "to", nt.DestAddress, "amount", nt.Amount)

	if _, err := h.State.SendTransaction(nt.DestAddress, nt.Amount); err != nil {
		switch {
		case errors.Is(err, state.ErrSendToSelf):
			return errs.NewTrusted(errors.New("Cannot send coins to yourself!"), http.StatusBadRequest)
		case errors.Is(err, state.ErrDuplicatePendingSpend), errors.Is(err, database.ErrInsufficientFunds):
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
		return err
	}

	return web.Respond(ctx, w, transactionResponse{Success: true}, http.StatusOK)
}

// Events handles a web socket to provide events to a client. A comma
// separated topic query parameter limits the events sent.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var topics []string
	if topic := r.URL.Query().Get("topic"); topic != "" {
		topics = strings.Split(topic, ",")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID, topics...)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}
