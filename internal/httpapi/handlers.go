package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/smolage/gbones/common"
	"github.com/smolage/gbones/core/types"
	"github.com/smolage/gbones/log"
	"github.com/smolage/gbones/stakeidx"
	"github.com/smolage/gbones/sysaction"
)

func (s *Server) handleHead(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	head, err := s.api.Head(r.Context())
	reply(w, head, err)
}

func (s *Server) handleYard(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	info, err := s.api.Yard(r.Context())
	reply(w, info, err)
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, s.api.Catalog(r.Context()))
}

func (s *Server) handleHoldings(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	addr, err := addressParam(ps)
	if err != nil {
		reply(w, nil, err)
		return
	}
	h, err := s.api.Holdings(r.Context(), addr)
	reply(w, h, err)
}

func (s *Server) handleStaked(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	addr, err := addressParam(ps)
	if err != nil {
		reply(w, nil, err)
		return
	}
	staked, err := s.api.StakedTokens(r.Context(), addr)
	reply(w, staked, err)
}

func (s *Server) handleDevFeInfo(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	addr, err := addressParam(ps)
	if err != nil {
		reply(w, nil, err)
		return
	}
	infos, err := s.api.DevFeInfo(r.Context(), addr, r.URL.Query().Get("filter"))
	reply(w, infos, err)
}

func (s *Server) handleCalculateBones(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	addr, err := addressParam(ps)
	if err != nil {
		reply(w, nil, err)
		return
	}
	amounts, err := s.api.CalculateBones(r.Context(), addr)
	reply(w, amounts, err)
}

func (s *Server) handleCavesFeInfo(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	addr, err := addressParam(ps)
	if err != nil {
		reply(w, nil, err)
		return
	}
	infos, err := s.api.CavesFeInfo(r.Context(), addr, r.URL.Query().Get("filter"))
	reply(w, infos, err)
}

func (s *Server) handleLaborFeInfo(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	addr, err := addressParam(ps)
	if err != nil {
		reply(w, nil, err)
		return
	}
	infos, err := s.api.LaborFeInfo(r.Context(), addr, r.URL.Query().Get("filter"))
	reply(w, infos, err)
}

func (s *Server) handleSmol(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := idParam(ps)
	if err != nil {
		reply(w, nil, err)
		return
	}
	smol, err := s.api.Smol(r.Context(), id)
	reply(w, smol, err)
}

func (s *Server) handleDevPosition(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := idParam(ps)
	if err != nil {
		reply(w, nil, err)
		return
	}
	pos, err := s.api.DevPosition(r.Context(), id)
	reply(w, pos, err)
}

func (s *Server) handleCavesPosition(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := idParam(ps)
	if err != nil {
		reply(w, nil, err)
		return
	}
	pos, err := s.api.CavesPosition(r.Context(), id)
	reply(w, pos, err)
}

func (s *Server) handleLaborPosition(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := idParam(ps)
	if err != nil {
		reply(w, nil, err)
		return
	}
	pos, err := s.api.LaborPosition(r.Context(), id)
	reply(w, pos, err)
}

// logFilter builds an index filter from the name, owner, token, from, to
// and limit query parameters.
func logFilter(r *http.Request) (stakeidx.Filter, error) {
	var (
		q = r.URL.Query()
		f = stakeidx.Filter{Name: q.Get("name")}
	)
	if v := q.Get("owner"); v != "" {
		addr, err := sysaction.ParseAddress(v)
		if err != nil {
			return f, errBadAddress
		}
		f.Owner = &addr
	}
	if v := q.Get("token"); v != "" {
		id, err := parseUint(v)
		if err != nil {
			return f, err
		}
		f.TokenID = &id
	}
	for _, p := range []struct {
		key string
		dst *uint64
	}{{"from", &f.FromBlock}, {"to", &f.ToBlock}} {
		if v := q.Get(p.key); v != "" {
			n, err := parseUint(v)
			if err != nil {
				return f, err
			}
			*p.dst = n
		}
	}
	if v := q.Get("limit"); v != "" {
		n, err := parseUint(v)
		if err != nil {
			return f, err
		}
		f.Limit = int(n)
	}
	return f, nil
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if s.idx == nil {
		reply(w, nil, errNoIndex)
		return
	}
	f, err := logFilter(r)
	if err != nil {
		reply(w, nil, err)
		return
	}
	events, err := s.idx.Events(r.Context(), f)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if events == nil {
		events = []*sysaction.DecodedEvent{}
	}
	writeJSON(w, events)
}

// streamMessage is a frame of the /events websocket stream.
type streamMessage struct {
	Type    string                  `json:"type"`
	Session string                  `json:"session,omitempty"`
	Event   *sysaction.DecodedEvent `json:"event,omitempty"`
}

const (
	streamWriteTimeout = 5 * time.Second
	streamBuffer       = 64
)

func matches(ev *sysaction.DecodedEvent, f stakeidx.Filter) bool {
	if f.Name != "" && ev.Name != f.Name {
		return false
	}
	if f.Owner != nil && ev.Owner != *f.Owner {
		return false
	}
	if f.TokenID != nil && (ev.TokenID == nil || *ev.TokenID != *f.TokenID) {
		return false
	}
	return true
}

// handleEvents upgrades to a websocket and streams every new event matching
// the name, owner and token query parameters.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	f, err := logFilter(r)
	if err != nil {
		reply(w, nil, err)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	session := uuid.New().String()
	logger := log.New("session", session, "remote", r.RemoteAddr)

	logsCh := make(chan []*types.Log, streamBuffer)
	sub := s.chain.SubscribeLogsEvent(logsCh)
	defer sub.Unsubscribe()

	// Detect the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	write := func(msg streamMessage) error {
		_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
		return conn.WriteJSON(msg)
	}
	if err := write(streamMessage{Type: "subscribed", Session: session}); err != nil {
		return
	}
	logger.Debug("Event stream opened", "name", f.Name)

	for {
		select {
		case logs := <-logsCh:
			for _, l := range logs {
				ev, err := sysaction.DecodeLog(l)
				if err != nil || !matches(ev, f) {
					continue
				}
				if err := write(streamMessage{Type: "event", Event: ev}); err != nil {
					logger.Debug("Event stream write failed", "err", err)
					return
				}
			}
		case err := <-sub.Err():
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "chain stopped"))
			logger.Debug("Event stream closed by chain", "err", err)
			return
		case <-closed:
			logger.Debug("Event stream closed by client")
			return
		}
	}
}

// submitRequest is the body of POST /tx. Nonce defaults to the sender's
// next nonce, Time to the server clock.
type submitRequest struct {
	From  common.Address  `json:"from"`
	Nonce *uint64         `json:"nonce,omitempty"`
	Time  *uint64         `json:"time,omitempty"`
	Data  json.RawMessage `json:"data"`
}

type submitResponse struct {
	BlockNumber uint64         `json:"blockNumber"`
	BlockHash   common.Hash    `json:"blockHash"`
	Receipt     *types.Receipt `json:"receipt"`
}

var errEmptyData = errors.New("missing data")

// handleSubmit seals a block holding the submitted transaction.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req submitRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(req.Data) == 0 {
		writeError(w, http.StatusBadRequest, errEmptyData)
		return
	}

	s.submitMu.Lock()
	defer s.submitMu.Unlock()

	nonce := s.chain.NonceAt(req.From)
	if req.Nonce != nil {
		nonce = *req.Nonce
	}
	var blockTime uint64
	if req.Time != nil {
		blockTime = *req.Time
	} else {
		blockTime = s.clock()
		if head := s.chain.CurrentBlock(); head != nil && blockTime < head.Time() {
			blockTime = head.Time()
		}
	}
	tx := types.NewTransaction(req.From, nonce, req.Data)
	block, receipts, err := s.chain.InsertBlock(types.Transactions{tx}, blockTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	log.Debug("Submitted transaction", "from", req.From, "nonce", nonce, "block", block.NumberU64(), "status", receipts[0].Status)
	writeJSON(w, &submitResponse{
		BlockNumber: block.NumberU64(),
		BlockHash:   block.Hash(),
		Receipt:     receipts[0],
	})
}
