package rollup

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Timilehin-bello/melodious-sub000/internal/config"
	"github.com/Timilehin-bello/melodious-sub000/internal/dispatcher"
	"github.com/Timilehin-bello/melodious-sub000/internal/logic"
	"github.com/Timilehin-bello/melodious-sub000/internal/output"
	"github.com/Timilehin-bello/melodious-sub000/internal/portal"
	"github.com/Timilehin-bello/melodious-sub000/internal/store"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRollup 模拟 rollup HTTP 服务：按顺序下发请求并记录收到的输出
type fakeRollup struct {
	mu       sync.Mutex
	pending  []Request
	statuses []dispatcher.Status
	notices  []string
	vouchers []voucherBody
	reports  []string
	done     chan struct{}
}

func newFakeRollup(reqs ...Request) *fakeRollup {
	return &fakeRollup{pending: reqs, done: make(chan struct{})}
}

func (f *fakeRollup) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.URL.Path {
	case "/finish":
		var body finishBody
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.statuses = append(f.statuses, body.Status)
		if len(f.pending) == 0 {
			select {
			case <-f.done:
			default:
				close(f.done)
			}
			w.WriteHeader(http.StatusAccepted)
			return
		}
		next := f.pending[0]
		f.pending = f.pending[1:]
		_ = json.NewEncoder(w).Encode(next)
	case "/notice":
		var body noticeBody
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.notices = append(f.notices, body.Payload)
	case "/voucher":
		var body voucherBody
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.vouchers = append(f.vouchers, body)
	case "/report":
		var body noticeBody
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.reports = append(f.reports, body.Payload)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func advance(t *testing.T, sender string, payload []byte) Request {
	t.Helper()
	data, err := json.Marshal(AdvanceData{
		Metadata: dispatcher.Metadata{MsgSender: sender, Timestamp: 100},
		Payload:  hexutil.Encode(payload),
	})
	require.NoError(t, err)
	return Request{Type: AdvanceState, Data: data}
}

func inspect(t *testing.T, route string) Request {
	t.Helper()
	data, err := json.Marshal(InspectData{Payload: hexutil.Encode([]byte(route))})
	require.NoError(t, err)
	return Request{Type: InspectState, Data: data}
}

func newDispatcher() *dispatcher.Dispatcher {
	d := dispatcher.New(store.New(), portal.NewClassifier(config.PortalConfig{
		EtherPortal:         "0xFfdbe43d4c855BF7e0f105c400A50857f53AB044",
		ERC20Portal:         "0x9C21AEb2093C32DDbC53eEF24B873BDCd1aDa1DB",
		ERC721Portal:        "0x237F8DD094C0e47f4236f12b4Fa01d6Dae89fb87",
		ERC1155SinglePortal: "0x7CFB0193Ca87eB6e48056885E026552c3A941FC4",
		ERC1155BatchPortal:  "0xedB53860A6B52bbb7561Ad596416ee9965B055Aa",
		DAppAddressRelay:    "0xF5DE34d6BbC0446E2a45719E718efEbaaE179daE",
	}), output.NewEmitter())

	d.MustRegister(dispatcher.MethodCreateUser, func(ctx *dispatcher.Context) ([]output.Output, error) {
		ctx.Emitter.Enqueue(output.Notice([]byte("created")))
		return []output.Output{output.Notice([]byte("user"))}, nil
	})
	d.MustRegister(dispatcher.MethodWithdrawEther, func(ctx *dispatcher.Context) ([]output.Output, error) {
		return []output.Output{output.Voucher(ctx.Sender, []byte{}, nil)}, nil
	})
	d.MustRegisterInspect(dispatcher.InspectStats, func(r store.Reader, _ string) ([]output.Output, error) {
		o, err := output.ReportJSON(r.Stats())
		return []output.Output{o}, err
	})
	return d
}

func TestRunnerProcessesRequestsInOrder(t *testing.T) {
	const sender = "0x1111111111111111111111111111111111111111"
	fake := newFakeRollup(
		advance(t, sender, []byte(`{"method":"create_user","args":{}}`)),
		advance(t, sender, []byte(`{"method":"foo_bar","args":{}}`)),
		advance(t, sender, []byte(`{"method":"withdraw_ether","args":{}}`)),
		inspect(t, "stats"),
	)
	srv := httptest.NewServer(fake)
	defer srv.Close()

	runner := NewRunner(NewClient(config.RollupConfig{URL: srv.URL, Timeout: 5}), newDispatcher(), 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- runner.Run(ctx) }()

	select {
	case <-fake.done:
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not drain requests")
	}
	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)

	fake.mu.Lock()
	defer fake.mu.Unlock()

	// 第一次 finish 为初始 accept，之后依次为各请求状态
	require.GreaterOrEqual(t, len(fake.statuses), 5)
	assert.Equal(t, []dispatcher.Status{
		dispatcher.StatusAccept,
		dispatcher.StatusAccept,
		dispatcher.StatusReject,
		dispatcher.StatusAccept,
		dispatcher.StatusAccept,
	}, fake.statuses[:5])

	assert.Equal(t, []string{hexutil.Encode([]byte("user")), hexutil.Encode([]byte("created"))}, fake.notices)
	require.Len(t, fake.vouchers, 1)
	assert.Equal(t, sender, fake.vouchers[0].Destination)
	assert.Equal(t, "0x", fake.vouchers[0].Payload)
	assert.Equal(t, hexutil.Encode(make([]byte, 32)), fake.vouchers[0].Value)
	require.Len(t, fake.reports, 2)

	raw, err := hexutil.Decode(fake.reports[0])
	require.NoError(t, err)
	assert.Contains(t, string(raw), "unknown method: foo_bar")
}

func TestHandleRejectsBadPayload(t *testing.T) {
	fake := newFakeRollup()
	srv := httptest.NewServer(fake)
	defer srv.Close()
	runner := NewRunner(NewClient(config.RollupConfig{URL: srv.URL}), newDispatcher(), 0)

	requests := []*Request{
		{Type: AdvanceState, Data: json.RawMessage(`{"payload":"not-hex"}`)},
		{Type: AdvanceState, Data: json.RawMessage(`{"payload":`)},
		{Type: InspectState, Data: json.RawMessage(`{"payload":"0xzz"}`)},
		{Type: "unknown", Data: json.RawMessage(`{}`)},
	}
	for _, req := range requests {
		assert.Equal(t, dispatcher.StatusReject, runner.Handle(context.Background(), req))
	}

	// 每个被拒请求都带一条 validation 类型的 report
	require.Len(t, fake.reports, len(requests))
	for _, hex := range fake.reports {
		raw, err := hexutil.Decode(hex)
		require.NoError(t, err)
		var rej dispatcher.Rejection
		require.NoError(t, json.Unmarshal(raw, &rej))
		assert.Equal(t, logic.KindValidation, rej.Kind)
		assert.NotEmpty(t, rej.Error)
	}
	assert.Empty(t, fake.notices)
}

func TestClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()
	c := NewClient(config.RollupConfig{URL: srv.URL + "/"})

	_, err := c.Finish(context.Background(), dispatcher.StatusAccept)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")

	err = c.SendNotice(context.Background(), output.Notice([]byte("x")))
	assert.Error(t, err)
}

type trackerCalls struct {
	kinds   []string
	indexes []uint64
}

func (tc *trackerCalls) Begin(requestType string, inputIndex uint64) {
	tc.kinds = append(tc.kinds, requestType)
	tc.indexes = append(tc.indexes, inputIndex)
}

func TestHandleNotifiesTrackers(t *testing.T) {
	fake := newFakeRollup()
	srv := httptest.NewServer(fake)
	defer srv.Close()

	runner := NewRunner(NewClient(config.RollupConfig{URL: srv.URL}), newDispatcher(), 0)
	calls := &trackerCalls{}
	runner.Track(calls)

	data, err := json.Marshal(AdvanceData{
		Metadata: dispatcher.Metadata{MsgSender: "0x1111111111111111111111111111111111111111", InputIndex: 42},
		Payload:  hexutil.Encode([]byte(`{"method":"create_user","args":{}}`)),
	})
	require.NoError(t, err)

	assert.Equal(t, dispatcher.StatusAccept, runner.Handle(context.Background(), &Request{Type: AdvanceState, Data: data}))
	assert.Equal(t, dispatcher.StatusAccept, runner.Handle(context.Background(), ptr(inspect(t, "stats"))))

	assert.Equal(t, []string{"advance", "inspect"}, calls.kinds)
	assert.Equal(t, []uint64{42, 0}, calls.indexes)
	assert.Len(t, fake.notices, 2)
	assert.Len(t, fake.reports, 1)
}

func ptr[T any](v T) *T { return &v }
