// Package httpapi serves the staking views, the event index and a live event
// stream over HTTP. In dev mode it also accepts transactions, sealing one
// block per submission.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
	"github.com/smolage/gbones/common"
	"github.com/smolage/gbones/core/types"
	"github.com/smolage/gbones/event"
	"github.com/smolage/gbones/internal/stakeapi"
	"github.com/smolage/gbones/log"
	"github.com/smolage/gbones/stakeidx"
	"github.com/smolage/gbones/sysaction"
	"golang.org/x/time/rate"
)

// Chain is the chain the server reads from and, in dev mode, writes to.
// Satisfied by core.BlockChain.
type Chain interface {
	stakeapi.Backend
	CurrentBlock() *types.Block
	NonceAt(addr common.Address) uint64
	InsertBlock(txs types.Transactions, time uint64) (*types.Block, types.Receipts, error)
	SubscribeLogsEvent(ch chan<- []*types.Log) event.Subscription
}

// Config configures the HTTP server.
type Config struct {
	Addr        string
	CorsOrigins []string
	RateLimit   float64 // requests per second; 0 disables limiting
	RateBurst   int
	DevMode     bool // accept POST /tx
}

// DefaultConfig contains the default HTTP server settings.
var DefaultConfig = Config{
	Addr:        "127.0.0.1:8645",
	CorsOrigins: []string{"*"},
	RateLimit:   50,
	RateBurst:   100,
}

var (
	errNoIndex    = errors.New("event index disabled")
	errBadAddress = errors.New("invalid address")
	errBadNumber  = errors.New("invalid number")
	errRateLimit  = errors.New("rate limit exceeded")
)

// Server is the HTTP front end of a node.
type Server struct {
	cfg      Config
	chain    Chain
	api      *stakeapi.API
	idx      *stakeidx.Index
	limiter  *rate.Limiter
	upgrader websocket.Upgrader
	handler  http.Handler

	// clock returns the block time of dev-mode submissions
	clock func() uint64

	submitMu sync.Mutex
}

// New creates a server over chain. idx may be nil, which disables /logs.
func New(cfg Config, chain Chain, idx *stakeidx.Index) *Server {
	s := &Server{
		cfg:   cfg,
		clock: func() uint64 { return uint64(time.Now().Unix()) },
		chain: chain,
		api:   stakeapi.NewAPI(chain),
		idx:   idx,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true }, // CORS policy is applied on the HTTP routes
		},
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	router := httprouter.New()
	router.GET("/head", s.handleHead)
	router.GET("/yard", s.handleYard)
	router.GET("/catalog", s.handleCatalog)
	router.GET("/accounts/:addr", s.handleHoldings)
	router.GET("/accounts/:addr/staked", s.handleStaked)
	router.GET("/accounts/:addr/devground", s.handleDevFeInfo)
	router.GET("/accounts/:addr/bones", s.handleCalculateBones)
	router.GET("/accounts/:addr/caves", s.handleCavesFeInfo)
	router.GET("/accounts/:addr/labor", s.handleLaborFeInfo)
	router.GET("/smols/:id", s.handleSmol)
	router.GET("/devground/:id", s.handleDevPosition)
	router.GET("/caves/:id", s.handleCavesPosition)
	router.GET("/labor/:id", s.handleLaborPosition)
	router.GET("/logs", s.handleLogs)
	router.GET("/events", s.handleEvents)
	if cfg.DevMode {
		router.POST("/tx", s.handleSubmit)
	}

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.CorsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         600,
	})
	s.handler = c.Handler(s.limit(router))
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.handler }

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	log.Info("HTTP server started", "endpoint", ln.Addr().String(), "dev", s.cfg.DevMode, "cors", s.cfg.CorsOrigins)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	log.Info("HTTP server stopped", "endpoint", ln.Addr().String())
	return err
}

func (s *Server) limit(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, errRateLimit)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug("Failed to write response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

// reply writes v, or maps err to its status code.
func reply(w http.ResponseWriter, v interface{}, err error) {
	switch {
	case err == nil:
		writeJSON(w, v)
	case errors.Is(err, stakeapi.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, stakeapi.ErrBadFilter), errors.Is(err, errBadAddress), errors.Is(err, errBadNumber):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, errNoIndex):
		writeError(w, http.StatusNotImplemented, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func addressParam(ps httprouter.Params) (common.Address, error) {
	addr, err := sysaction.ParseAddress(ps.ByName("addr"))
	if err != nil {
		return common.Address{}, errBadAddress
	}
	return addr, nil
}

func idParam(ps httprouter.Params) (uint64, error) {
	return parseUint(ps.ByName("id"))
}

func parseUint(s string) (uint64, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, errBadNumber
	}
	return n, nil
}
