// Package gossip implements the peer to peer protocol nodes use to share
// their chains, transactions and peers over websockets.
package gossip

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jdforsythe/bloch/foundation/blockchain/database"
	"github.com/jdforsythe/bloch/foundation/blockchain/peer"
)

// Set of default values for the server.
const (
	retryDelay   = 5 * time.Second
	writeTimeout = 10 * time.Second
)

// Ledger represents the behavior required from the state of the node to
// process what peers share.
type Ledger interface {
	Snapshot() database.Chain
	ProcessChain(chain database.Chain) bool
	ProcessTransaction(tx database.SignedTx) error
}

// Config represents the values required to run a gossip server.
type Config struct {
	Host       string // Address to listen on, like 0.0.0.0:5001.
	Self       string // Url other nodes use to reach this node, never dialed.
	MaxPeers   int
	Ledger     Ledger
	RetryDelay time.Duration
	EvHandler  func(v string, args ...any)
}

// =============================================================================

// conn is a websocket to another node. Outbound connections know the url of
// the node, inbound connections don't.
type conn struct {
	ws   *websocket.Conn
	peer peer.Peer
	mu   sync.Mutex
}

// send writes a single message to the node. The websocket only allows one
// writer at a time.
func (c *conn) send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// =============================================================================

// Server accepts connections from other nodes and connects to the nodes it
// learns about.
type Server struct {
	host       string
	self       peer.Peer
	maxPeers   int
	ledger     Ledger
	retryDelay time.Duration
	evHandler  func(v string, args ...any)

	upgrader websocket.Upgrader
	dialer   *websocket.Dialer
	listener net.Listener
	http     *http.Server

	mu       sync.Mutex
	conns    map[*conn]struct{}
	outbound *peer.PeerSet
	pending  *peer.PeerSet

	wg   sync.WaitGroup
	shut chan struct{}
}

// New constructs a gossip server that is ready to be started.
func New(cfg Config) *Server {
	ev := cfg.EvHandler
	if ev == nil {
		ev = func(string, ...any) {}
	}

	retry := cfg.RetryDelay
	if retry <= 0 {
		retry = retryDelay
	}

	s := Server{
		host:       cfg.Host,
		self:       peer.New(cfg.Self),
		maxPeers:   cfg.MaxPeers,
		ledger:     cfg.Ledger,
		retryDelay: retry,
		evHandler:  ev,

		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},

		conns:    make(map[*conn]struct{}),
		outbound: peer.NewPeerSet(),
		pending:  peer.NewPeerSet(),
		shut:     make(chan struct{}),
	}

	return &s
}

// Start listens for inbound connections and connects to the known peers.
func (s *Server) Start(knownPeers []string) error {
	listener, err := net.Listen("tcp", s.host)
	if err != nil {
		return err
	}
	s.listener = listener

	s.http = &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		s.evHandler("gossip: listening: %s", listener.Addr())
		if err := s.http.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.evHandler("gossip: serve: ERROR: %s", err)
		}
	}()

	s.AddPeers(knownPeers)

	return nil
}

// Addr returns the address the server is listening on.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.host
	}
	return s.listener.Addr().String()
}

// Shutdown closes the listener and every connection.
func (s *Server) Shutdown(ctx context.Context) error {
	s.evHandler("gossip: shutdown: started")
	defer s.evHandler("gossip: shutdown: completed")

	s.mu.Lock()
	close(s.shut)
	s.mu.Unlock()

	var err error
	if s.http != nil {
		err = s.http.Shutdown(ctx)
	}

	s.mu.Lock()
	for c := range s.conns {
		c.ws.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()

	return err
}

// Peers returns the urls of the outbound connections.
func (s *Server) Peers() []string {
	return s.outbound.Hosts("")
}

// Connections returns the number of live connections, inbound and outbound.
func (s *Server) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.conns)
}

// =============================================================================

// BroadcastChain sends the full state of the node to every connection.
func (s *Server) BroadcastChain() {
	s.broadcast(ChainMessage{Chain: s.ledger.Snapshot()})
}

// BroadcastTransaction sends the transaction to every connection.
func (s *Server) BroadcastTransaction(tx database.SignedTx) {
	s.broadcast(TransactionMessage{Tx: tx})
}

// broadcast sends the message to every connection. A failed write is logged,
// the read loop of that connection removes it.
func (s *Server) broadcast(msg Message) {
	data, err := Encode(msg)
	if err != nil {
		s.evHandler("gossip: broadcast: %s: ERROR: %s", msg.Type(), err)
		return
	}

	s.mu.Lock()
	conns := make([]*conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	s.evHandler("gossip: broadcast: %s: connections[%d]", msg.Type(), len(conns))

	for _, c := range conns {
		if err := c.send(data); err != nil {
			s.evHandler("gossip: broadcast: %s: %s: WARNING: %s", msg.Type(), c.ws.RemoteAddr(), err)
		}
	}
}

// =============================================================================

// AddPeers connects to every url not already connected or being dialed, as
// long as the number of peers stays under the limit.
func (s *Server) AddPeers(hosts []string) {
	for _, host := range hosts {
		p := peer.New(host)
		if p.Host == "" || p == s.self {
			continue
		}

		if !s.reserve(p) {
			continue
		}

		go func() {
			defer s.wg.Done()
			s.dial(p)
		}()
	}
}

// reserve marks the peer as being dialed. It reports false if the peer is
// already connected or being dialed, or there is no room for another peer.
func (s *Server) reserve(p peer.Peer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isShutdown() || s.outbound.Contains(p) || s.pending.Contains(p) {
		return false
	}

	if n := len(s.conns) + s.pending.Len(); n >= s.maxPeers {
		s.evHandler("gossip: AddPeers: %s: max peers reached[%d]", p.Host, n)
		return false
	}

	s.pending.Add(p)
	s.wg.Add(1)

	return true
}

// dial connects to the peer. A refused connection is retried until it works
// or the server is shut down, any other error drops the peer.
func (s *Server) dial(p peer.Peer) {
	if s.isSelf(p) {
		s.evHandler("gossip: dial: %s: skipped, url points at this node", p.Host)
		s.pending.Remove(p)
		return
	}

	for {
		if s.isShutdown() {
			s.pending.Remove(p)
			return
		}

		ws, _, err := s.dialer.Dial(p.Host, nil)
		if err == nil {
			c := conn{ws: ws, peer: p}
			if !s.add(&c) {
				s.pending.Remove(p)
				ws.Close()
				return
			}

			s.evHandler("gossip: dial: %s: connected", p.Host)

			s.sendChain(&c)
			s.readLoop(&c)
			return
		}

		if !errors.Is(err, syscall.ECONNREFUSED) {
			s.evHandler("gossip: dial: %s: ERROR: %s", p.Host, err)
			s.pending.Remove(p)
			return
		}

		s.evHandler("gossip: dial: %s: connection refused, retry in %v", p.Host, s.retryDelay)

		select {
		case <-time.After(s.retryDelay):
		case <-s.shut:
			s.pending.Remove(p)
			return
		}
	}
}

// isSelf reports whether the url points at this server's own listener. The
// host must resolve to an address the listener accepts on and the port must
// be the listening port.
func (s *Server) isSelf(p peer.Peer) bool {
	if p == s.self {
		return true
	}

	if s.listener == nil {
		return false
	}

	addr, ok := s.listener.Addr().(*net.TCPAddr)
	if !ok {
		return false
	}

	u, err := url.Parse(p.Host)
	if err != nil || u.Port() != strconv.Itoa(addr.Port) {
		return false
	}

	ips, err := net.LookupIP(u.Hostname())
	if err != nil {
		return false
	}

	for _, ip := range ips {
		if !addr.IP.IsUnspecified() {
			if ip.Equal(addr.IP) {
				return true
			}
			continue
		}

		if isLocalIP(ip) {
			return true
		}
	}

	return false
}

// isLocalIP reports whether the ip belongs to this host.
func isLocalIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsUnspecified() {
		return true
	}

	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return false
	}

	for _, addr := range addrs {
		if ipNet, ok := addr.(*net.IPNet); ok && ipNet.IP.Equal(ip) {
			return true
		}
	}

	return false
}

// =============================================================================

// ServeHTTP accepts an inbound connection from another node.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.evHandler("gossip: accept: %s: ERROR: %s", r.RemoteAddr, err)
		return
	}

	c := conn{ws: ws}
	if !s.add(&c) {
		ws.Close()
		return
	}

	s.evHandler("gossip: accept: %s: connected", ws.RemoteAddr())

	s.sendChain(&c)

	// Only the urls of outbound connections are known.
	data, err := Encode(PeersMessage{Peers: s.Peers()})
	if err == nil {
		if err := c.send(data); err != nil {
			s.evHandler("gossip: accept: %s: send peers: WARNING: %s", ws.RemoteAddr(), err)
		}
	}

	s.readLoop(&c)
}

// =============================================================================

// add registers the connection. It reports false if the server has been
// shut down.
func (s *Server) add(c *conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isShutdown() {
		return false
	}

	s.conns[c] = struct{}{}
	if c.peer.Host != "" {
		s.outbound.Add(c.peer)
		s.pending.Remove(c.peer)
	}

	return true
}

// remove drops the connection from the server and closes it.
func (s *Server) remove(c *conn) {
	s.mu.Lock()
	delete(s.conns, c)
	if c.peer.Host != "" {
		s.outbound.Remove(c.peer)
	}
	s.mu.Unlock()

	c.ws.Close()
}

// sendChain sends the full state of the node to the connection.
func (s *Server) sendChain(c *conn) {
	data, err := Encode(ChainMessage{Chain: s.ledger.Snapshot()})
	if err != nil {
		s.evHandler("gossip: sendChain: ERROR: %s", err)
		return
	}

	if err := c.send(data); err != nil {
		s.evHandler("gossip: sendChain: %s: WARNING: %s", c.ws.RemoteAddr(), err)
	}
}

// readLoop processes the messages from the connection until it fails.
func (s *Server) readLoop(c *conn) {
	defer s.remove(c)

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if !s.isShutdown() {
				s.evHandler("gossip: read: %s: disconnected: %s", c.ws.RemoteAddr(), err)
			}
			return
		}

		msg, err := Decode(data)
		if err != nil {
			s.evHandler("gossip: read: %s: dropped message: %s", c.ws.RemoteAddr(), err)
			continue
		}

		s.dispatch(msg)
	}
}

// dispatch hands the message to the part of the node that processes it.
func (s *Server) dispatch(msg Message) {
	switch m := msg.(type) {
	case ChainMessage:
		s.ledger.ProcessChain(m.Chain)

	case TransactionMessage:
		if err := s.ledger.ProcessTransaction(m.Tx); err != nil {
			s.evHandler("gossip: dispatch: transaction: ignored: %s", err)
		}

	case PeersMessage:
		s.AddPeers(m.Peers)
	}
}

// isShutdown is used to test if a shutdown has been signaled.
func (s *Server) isShutdown() bool {
	select {
	case <-s.shut:
		return true
	default:
		return false
	}
}
