package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/jdforsythe/bloch/app/services/node/handlers"
	"github.com/jdforsythe/bloch/foundation/blockchain/genesis"
	"github.com/jdforsythe/bloch/foundation/blockchain/gossip"
	"github.com/jdforsythe/bloch/foundation/blockchain/signature"
	"github.com/jdforsythe/bloch/foundation/blockchain/state"
	"github.com/jdforsythe/bloch/foundation/blockchain/worker"
	"github.com/jdforsythe/bloch/foundation/events"
	"github.com/jdforsythe/bloch/foundation/logger"
	"github.com/jdforsythe/bloch/foundation/nameservice"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("NODE")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	cfg, help, err := parseConfig()
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	// Display the current configuration to the logs.
	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Name Service Support

	// The nameservice package provides name resolution for account addresses.
	// The names come from the file names in the accounts folder.
	ns, err := nameservice.New(cfg.NameService.Folder)
	if err != nil {
		return fmt.Errorf("unable to load account name service: %w", err)
	}

	// Logging the accounts for documentation in the logs.
	for address, name := range ns.Copy() {
		log.Infow("startup", "status", "nameservice", "name", name, "address", address)
	}

	// =========================================================================
	// Blockchain Support

	privateKey, err := signature.ToPrivateKey(cfg.Miner.PrivKey)
	if err != nil {
		return fmt.Errorf("unable to load private key for node: %w", err)
	}

	if address := signature.PublicKeyToAddress(privateKey.PublicKey); !strings.EqualFold(address, cfg.Miner.PubKey) {
		return fmt.Errorf("miner public key %q does not match the private key", cfg.Miner.PubKey)
	}

	gen, err := genesis.Load(cfg.State.GenesisPath)
	if err != nil {
		return fmt.Errorf("unable to load genesis settings: %w", err)
	}

	// The blockchain packages accept a function of this signature to allow the
	// application to log. These raw messages are also sent to any websocket
	// client that is connected into the system through the events package.
	evts := events.New()
	ev := func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		log.Infow(s, "traceid", "00000000-0000-0000-0000-000000000000")
		evts.Send(s)
	}

	// The state value represents the blockchain node and manages the chain,
	// the mempool and the wallet of the node.
	st, err := state.New(state.Config{
		PrivateKey: privateKey,
		Genesis:    gen,
		EvHandler:  ev,
	})
	if err != nil {
		return err
	}
	defer st.Shutdown()

	// The gossip server shares the chain and the transactions with the
	// other nodes of the network.
	p2p := gossip.New(gossip.Config{
		Host:       fmt.Sprintf("0.0.0.0:%d", cfg.P2P.Port),
		Self:       fmt.Sprintf("ws://localhost:%d", cfg.P2P.Port),
		MaxPeers:   cfg.P2P.MaxPeers,
		Ledger:     st,
		RetryDelay: cfg.P2P.RetryDelay,
		EvHandler:  ev,
	})

	// The worker package implements mining and transaction sharing. The
	// worker registers itself with the state, which must happen before any
	// peer can reach the state.
	worker.Run(worker.Config{
		State:      st,
		Net:        p2p,
		RetryDelay: cfg.Miner.RetryDelay,
		EvHandler:  ev,
	})

	if err := p2p.Start(knownPeers(cfg.P2P.KnownPeers)); err != nil {
		return fmt.Errorf("starting gossip server: %w", err)
	}

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug router started", "host", cfg.Web.DebugHost)

	// Construct the mux for the debug calls.
	debugMux := handlers.DebugMux(build, log, st)

	// Start the service listening for debug requests.
	// Not concerned with shutting this down with load shedding.
	go func() {
		if err := http.ListenAndServe(cfg.Web.DebugHost, debugMux); err != nil {
			log.Errorw("shutdown", "status", "debug router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Service Start/Stop Support

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this error.
	serverErrors := make(chan error, 1)

	// =========================================================================
	// Start Public Service

	log.Infow("startup", "status", "initializing public API support")

	// Construct the mux for the public API calls.
	publicMux := handlers.PublicMux(handlers.MuxConfig{
		Shutdown: shutdown,
		Log:      log,
		State:    st,
		Gossip:   p2p,
		NS:       ns,
		Evts:     evts,
	})

	// Construct a server to service the requests against the mux.
	public := http.Server{
		Addr:         net.JoinHostPort(cfg.Web.HTTPHost, fmt.Sprint(cfg.Web.HTTPPort)),
		Handler:      publicMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	// Start the service listening for api requests.
	go func() {
		log.Infow("startup", "status", "public api router started", "host", public.Addr)
		serverErrors <- public.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	// Blocking main and waiting for shutdown.
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		// Release any web sockets that are currently active.
		log.Infow("shutdown", "status", "shutdown web socket channels")
		evts.Shutdown()

		// Give outstanding requests a deadline for completion.
		ctx, cancelPub := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancelPub()

		// Asking listener to shut down and shed load.
		log.Infow("shutdown", "status", "shutdown public API started")
		if err := public.Shutdown(ctx); err != nil {
			public.Close()
			return fmt.Errorf("could not stop public service gracefully: %w", err)
		}

		// Give the peer connections the same deadline.
		ctx, cancelP2P := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancelP2P()

		log.Infow("shutdown", "status", "shutdown gossip server started")
		if err := p2p.Shutdown(ctx); err != nil {
			return fmt.Errorf("could not stop gossip server gracefully: %w", err)
		}
	}

	return nil
}

// config is all the configuration for the node and the default values.
type config struct {
	conf.Version
	Web struct {
		ReadTimeout     time.Duration `conf:"default:5s"`
		WriteTimeout    time.Duration `conf:"default:10s"`
		IdleTimeout     time.Duration `conf:"default:120s"`
		ShutdownTimeout time.Duration `conf:"default:20s"`
		DebugHost       string        `conf:"default:0.0.0.0:7080"`
		HTTPHost        string        `conf:"env:HTTP_HOST,required"`
		HTTPPort        int           `conf:"env:HTTP_PORT,required"`
	}
	P2P struct {
		Port       int           `conf:"env:P2P_PORT,required"`
		MaxPeers   int           `conf:"env:MAX_PEERS,required"`
		KnownPeers string        `conf:"env:KNOWN_PEERS"`
		RetryDelay time.Duration `conf:"default:5s"`
	}
	Miner struct {
		PubKey     string        `conf:"env:MINER_PUB_KEY,required"`
		PrivKey    string        `conf:"env:MINER_PRIV_KEY,required,mask"`
		RetryDelay time.Duration `conf:"default:2s"`
	}
	State struct {
		GenesisPath string
	}
	NameService struct {
		Folder string `conf:"default:zblock/accounts/"`
	}
}

// parseConfig sets the defaults and then looks for any overriding values
// in environment variables and command line flags. There is no prefix so the
// node reads P2P_PORT, MAX_PEERS and the others by their plain names.
func parseConfig() (config, string, error) {
	cfg := config{
		Version: conf.Version{
			Build: build,
			Desc:  "bloch proof of work node",
		},
	}

	help, err := conf.Parse("", &cfg)
	if err != nil {
		return config{}, help, err
	}

	return cfg, "", nil
}

// knownPeers splits the configured peer urls. Both commas and semicolons
// separate urls.
func knownPeers(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';'
	})

	hosts := make([]string, 0, len(fields))
	for _, field := range fields {
		if host := strings.TrimSpace(field); host != "" {
			hosts = append(hosts, host)
		}
	}

	return hosts
}
