// Package v1 contains the full set of handler functions and routes
// supported by the node's web api.
package v1

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/jdforsythe/bloch/app/services/node/handlers/v1/public"
	"github.com/jdforsythe/bloch/foundation/blockchain/gossip"
	"github.com/jdforsythe/bloch/foundation/blockchain/state"
	"github.com/jdforsythe/bloch/foundation/events"
	"github.com/jdforsythe/bloch/foundation/nameservice"
	"github.com/jdforsythe/bloch/foundation/web"
	"go.uber.org/zap"
)

// The routes are served from the root for the existing wallet clients.
const group = ""

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log    *zap.SugaredLogger
	State  *state.State
	Gossip *gossip.Server
	NS     *nameservice.NameService
	Evts   *events.Events
}

// PublicRoutes binds all the public routes.
func PublicRoutes(app *web.App, cfg Config) {
	pbl := public.Handlers{
		Log:    cfg.Log,
		State:  cfg.State,
		Gossip: cfg.Gossip,
		NS:     cfg.NS,
		WS:     websocket.Upgrader{},
		Evts:   cfg.Evts,
	}

	app.Handle(http.MethodGet, group, "/balance", pbl.Balance)
	app.Handle(http.MethodGet, group, "/blocks", pbl.Blocks)
	app.Handle(http.MethodGet, group, "/mempool", pbl.Mempool)
	app.Handle(http.MethodGet, group, "/address", pbl.Address)
	app.Handle(http.MethodPost, group, "/transaction", pbl.SendTransaction)
	app.Handle(http.MethodGet, group, "/peers", pbl.Peers)
	app.Handle(http.MethodGet, group, "/accounts", pbl.Accounts)
	app.Handle(http.MethodGet, group, "/events", pbl.Events)
}
