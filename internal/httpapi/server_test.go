package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/smolage/gbones/common"
	"github.com/smolage/gbones/core"
	"github.com/smolage/gbones/core/rawdb"
	"github.com/smolage/gbones/params"
	"github.com/smolage/gbones/stakeidx"
	"github.com/smolage/gbones/sysaction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var alice = common.HexToAddress("0xa1")

const t0 = uint64(1_000_000)

func newTestChain(t *testing.T) *core.BlockChain {
	t.Helper()
	eco := params.DefaultEconomy()
	eco.Yard.MinimumThreshold = params.BoneUnits(1000)
	genesis := &core.Genesis{
		Config:    &params.ChainConfig{ChainID: 1, Economy: eco},
		Timestamp: t0,
		Alloc: core.GenesisAlloc{alice: {
			Bones: params.BoneUnits(2000),
			Smols: []uint64{100},
		}},
	}
	bc, err := core.NewBlockChain(rawdb.NewMemoryDatabase(), nil, genesis, nil)
	require.NoError(t, err)
	t.Cleanup(bc.Stop)
	return bc
}

func newTestServer(t *testing.T, cfg Config, idx *stakeidx.Index) (*Server, *core.BlockChain) {
	t.Helper()
	bc := newTestChain(t)
	srv := New(cfg, bc, idx)
	srv.clock = func() uint64 { return t0 + 10 }
	return srv, bc
}

func get(t *testing.T, h http.Handler, path string, out interface{}) int {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	if out != nil && rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec.Code
}

func submit(t *testing.T, h http.Handler, body interface{}) (*httptest.ResponseRecorder, *submitResponse) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/tx", bytes.NewReader(raw)))
	if rec.Code != http.StatusOK {
		return rec, nil
	}
	var resp submitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, &resp
}

func yardStake(t *testing.T, bones int64) json.RawMessage {
	t.Helper()
	data, err := sysaction.MakeSysAction(sysaction.ActionYardStake, sysaction.AmountPayload{Amount: params.BoneUnits(bones).String()})
	require.NoError(t, err)
	return data
}

func TestReadRoutes(t *testing.T) {
	srv, _ := newTestServer(t, Config{}, nil)
	h := srv.Handler()

	var head struct {
		Number uint64 `json:"number"`
		Time   uint64 `json:"timestamp"`
	}
	require.Equal(t, http.StatusOK, get(t, h, "/head", &head))
	assert.Equal(t, uint64(0), head.Number)
	assert.Equal(t, t0, head.Time)

	var yard struct {
		On bool `json:"on"`
	}
	require.Equal(t, http.StatusOK, get(t, h, "/yard", &yard))
	assert.False(t, yard.On)

	var holdings struct {
		Smols []uint64 `json:"smols"`
	}
	require.Equal(t, http.StatusOK, get(t, h, "/accounts/"+alice.Hex(), &holdings))
	assert.Equal(t, []uint64{1}, holdings.Smols)

	var smol struct {
		Owner       common.Address `json:"owner"`
		CommonSense uint64         `json:"commonSense"`
		Facility    string         `json:"facility"`
	}
	require.Equal(t, http.StatusOK, get(t, h, "/smols/1", &smol))
	assert.Equal(t, alice, smol.Owner)
	assert.Equal(t, uint64(100), smol.CommonSense)
	assert.Equal(t, "none", smol.Facility)

	var staked struct {
		All []uint64 `json:"all"`
	}
	require.Equal(t, http.StatusOK, get(t, h, "/accounts/"+alice.Hex()+"/staked", &staked))
	assert.Empty(t, staked.All)

	var catalog json.RawMessage
	assert.Equal(t, http.StatusOK, get(t, h, "/catalog", &catalog))

	for path, code := range map[string]int{
		"/smols/99":      http.StatusNotFound,
		"/smols/x":       http.StatusBadRequest,
		"/devground/1":   http.StatusNotFound,
		"/caves/1":       http.StatusNotFound,
		"/labor/1":       http.StatusNotFound,
		"/accounts/nope": http.StatusBadRequest,
		"/accounts/" + alice.Hex() + "/devground?filter=" + "%28": http.StatusBadRequest,
		"/accounts/" + alice.Hex() + "/caves":                     http.StatusOK,
		"/logs":                                                   http.StatusNotImplemented,
		"/tx":                                                     http.StatusNotFound,
	} {
		assert.Equal(t, code, get(t, h, path, nil), path)
	}
}

func TestSubmit(t *testing.T) {
	srv, bc := newTestServer(t, Config{DevMode: true}, nil)
	h := srv.Handler()

	rec, resp := submit(t, h, map[string]interface{}{"from": alice, "data": yardStake(t, 1000)})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, uint64(1), resp.BlockNumber)
	assert.False(t, resp.Receipt.Failed())
	assert.Len(t, resp.Receipt.Logs, 2) // YardStake, YardOn
	assert.Equal(t, t0+10, bc.CurrentBlock().Time())
	assert.Equal(t, uint64(1), bc.NonceAt(alice))

	// reverted actions still seal a block with a failed receipt
	_, resp = submit(t, h, map[string]interface{}{"from": alice, "data": yardStake(t, 5000)})
	require.NotNil(t, resp)
	assert.True(t, resp.Receipt.Failed())
	assert.Equal(t, "BalanceIsInsufficient", resp.Receipt.Err)

	rec, _ = submit(t, h, map[string]interface{}{"from": alice, "nonce": 0, "data": yardStake(t, 1)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "nonce too low")

	rec, _ = submit(t, h, map[string]interface{}{"from": alice})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var yard struct {
		On bool `json:"on"`
	}
	require.Equal(t, http.StatusOK, get(t, h, "/yard", &yard))
	assert.True(t, yard.On)
}

func TestLogsFromIndex(t *testing.T) {
	idx, err := stakeidx.Open(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })

	srv, bc := newTestServer(t, Config{DevMode: true}, idx)
	h := srv.Handler()
	idx.Start(bc)

	// the index subscribes asynchronously; keep sealing until it catches up
	require.Eventually(t, func() bool {
		if _, resp := submit(t, h, map[string]interface{}{"from": alice, "data": yardStake(t, 1)}); resp == nil {
			return false
		}
		var events []*sysaction.DecodedEvent
		get(t, h, "/logs?name=YardStake&owner="+alice.Hex(), &events)
		return len(events) > 0
	}, 5*time.Second, 20*time.Millisecond)

	var events []*sysaction.DecodedEvent
	require.Equal(t, http.StatusOK, get(t, h, "/logs?name=NoSuchEvent", &events))
	assert.Empty(t, events)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/logs?from=5&to=1", nil))
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/logs?token=abc", nil))
}

func TestEventStream(t *testing.T) {
	srv, _ := newTestServer(t, Config{DevMode: true}, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/events?name=YardStake"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var hello streamMessage
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, "subscribed", hello.Type)
	assert.NotEmpty(t, hello.Session)

	raw, _ := json.Marshal(map[string]interface{}{"from": alice, "data": yardStake(t, 1000)})
	resp, err := http.Post(ts.URL+"/tx", "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var msg streamMessage
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, "event", msg.Type)
	assert.Equal(t, "YardStake", msg.Event.Name)
	assert.Equal(t, alice, msg.Event.Owner)
	assert.Equal(t, uint64(1), msg.Event.BlockNumber)
}

func TestRateLimit(t *testing.T) {
	srv, _ := newTestServer(t, Config{RateLimit: 0.001, RateBurst: 1}, nil)
	h := srv.Handler()
	assert.Equal(t, http.StatusOK, get(t, h, "/head", nil))
	assert.Equal(t, http.StatusTooManyRequests, get(t, h, "/head", nil))
}

func TestServeShutdown(t *testing.T) {
	srv, _ := newTestServer(t, Config{Addr: "127.0.0.1:0"}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx) }()
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
