package handler

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Timilehin-bello/melodious-sub000/internal/chain"
	"github.com/Timilehin-bello/melodious-sub000/internal/config"
	"github.com/Timilehin-bello/melodious-sub000/internal/dispatcher"
	"github.com/Timilehin-bello/melodious-sub000/internal/output"
	"github.com/Timilehin-bello/melodious-sub000/internal/portal"
	"github.com/Timilehin-bello/melodious-sub000/internal/store"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var portals = config.PortalConfig{
	EtherPortal:         "0xFfdbe43d4c855BF7e0f105c400A50857f53AB044",
	ERC20Portal:         "0x9C21AEb2093C32DDbC53eEF24B873BDCd1aDa1DB",
	ERC721Portal:        "0x237F8DD094C0e47f4236f12b4Fa01d6Dae89fb87",
	ERC1155SinglePortal: "0x7CFB0193Ca87eB6e48056885E026552c3A941FC4",
	ERC1155BatchPortal:  "0xedB53860A6B52bbb7561Ad596416ee9965B055Aa",
	DAppAddressRelay:    "0xF5DE34d6BbC0446E2a45719E718efEbaaE179daE",
}

const (
	admin   = "0xa000000000000000000000000000000000000001"
	token   = "0x00000000000000000000000000000000000000c0"
	vault   = "0x00000000000000000000000000000000000000c1"
	nft     = "0x00000000000000000000000000000000000000e0"
	dapp    = "0x00000000000000000000000000000000000000d0"
	artistA = "0x1000000000000000000000000000000000000001"
	artistB = "0x1000000000000000000000000000000000000002"
	fan     = "0x2000000000000000000000000000000000000001"
)

type app struct {
	t        *testing.T
	d        *dispatcher.Dispatcher
	sink     *sink
	inputIdx uint64
}

type sink struct {
	sent []output.Output
}

func (s *sink) SendNotice(_ context.Context, o output.Output) error {
	s.sent = append(s.sent, o)
	return nil
}

func (s *sink) SendVoucher(_ context.Context, o output.Output) error {
	s.sent = append(s.sent, o)
	return nil
}

func (s *sink) SendReport(_ context.Context, o output.Output) error {
	s.sent = append(s.sent, o)
	return nil
}

func newApp(t *testing.T) *app {
	d := dispatcher.New(store.New(), portal.NewClassifier(portals), output.NewEmitter())
	NewHandlers(d.Store()).RegisterAll(d)
	return &app{t: t, d: d, sink: &sink{}}
}

// send 执行一次 advance 并投递输出，返回本次投递的输出
func (a *app) send(sender string, payload []byte) (dispatcher.Status, []output.Output) {
	a.t.Helper()
	a.inputIdx++
	res := a.d.Advance(dispatcher.Metadata{MsgSender: sender, InputIndex: a.inputIdx, Timestamp: int64(1000 + a.inputIdx)}, payload)
	a.sink.sent = nil
	_, err := a.d.Flush(context.Background(), a.sink, res)
	require.NoError(a.t, err)
	return res.Status, a.sink.sent
}

func (a *app) command(sender, method string, args interface{}) (dispatcher.Status, []output.Output) {
	a.t.Helper()
	raw, err := json.Marshal(args)
	require.NoError(a.t, err)
	payload, err := json.Marshal(dispatcher.Envelope{Method: method, Args: raw})
	require.NoError(a.t, err)
	return a.send(sender, payload)
}

func (a *app) mustAccept(sender, method string, args interface{}) []output.Output {
	a.t.Helper()
	status, outs := a.command(sender, method, args)
	require.Equalf(a.t, dispatcher.StatusAccept, status, "%s rejected: %s", method, firstPayload(outs))
	return outs
}

func (a *app) inspect(route string, v interface{}) dispatcher.Status {
	a.t.Helper()
	res := a.d.Inspect([]byte(route))
	require.Len(a.t, res.Outputs, 1)
	if v != nil && res.Status == dispatcher.StatusAccept {
		require.NoError(a.t, json.Unmarshal(res.Outputs[0].Payload, v))
	}
	return res.Status
}

func firstPayload(outs []output.Output) string {
	if len(outs) == 0 {
		return ""
	}
	return string(outs[0].Payload)
}

func statementType(t *testing.T, o output.Output) string {
	t.Helper()
	require.Equal(t, output.KindNotice, o.Kind)
	var s output.Statement
	require.NoError(t, json.Unmarshal(o.Payload, &s))
	return s.Type
}

func erc20Payload(tok, from string, amount *big.Int) []byte {
	p := []byte{1}
	p = append(p, common.HexToAddress(tok).Bytes()...)
	p = append(p, common.HexToAddress(from).Bytes()...)
	return append(p, chain.EncodeUint256(amount)...)
}

func erc721Payload(tok, from string, id int64) []byte {
	p := append([]byte{}, common.HexToAddress(tok).Bytes()...)
	p = append(p, common.HexToAddress(from).Bytes()...)
	return append(p, chain.EncodeUint256(big.NewInt(id))...)
}

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1_000_000_000_000_000_000))
}

func setupConfig(a *app) {
	a.mustAccept(admin, "create_config", map[string]interface{}{
		"cartesiTokenAddress":  token,
		"vaultContractAddress": vault,
		"serverAddress":        "0x00000000000000000000000000000000000000c2",
		"relayerAddress":       "0x00000000000000000000000000000000000000c3",
		"artistPercentage":     70,
		"poolPercentage":       30,
		"feePercentage":        2,
		"referralPoints":       100,
		"conversionRate":       "100",
		"minConversion":        10,
		"maxDailyConversion":   1000,
	})
}

func TestRegisterAllTwicePanics(t *testing.T) {
	a := newApp(t)
	assert.Panics(t, func() { NewHandlers(a.d.Store()).RegisterAll(a.d) })
}

func TestDistributionEndToEnd(t *testing.T) {
	a := newApp(t)
	setupConfig(a)
	a.mustAccept(artistA, "create_user", map[string]string{"username": "artist1", "role": "artist"})
	a.mustAccept(artistB, "create_user", map[string]string{"username": "artist2", "role": "artist"})

	status, outs := a.send(portals.ERC20Portal, erc20Payload(token, vault, ether(1000)))
	require.Equal(t, dispatcher.StatusAccept, status)
	assert.Equal(t, EventERC20Deposited, statementType(t, outs[0]))

	// 非管理员
	status, outs = a.command(artistA, "distribute_reward", map[string]interface{}{
		"artists": []map[string]interface{}{{"wallet": artistA, "listeningTime": 60}},
	})
	assert.Equal(t, dispatcher.StatusReject, status)
	assert.Equal(t, output.KindReport, outs[0].Kind)

	args := map[string]interface{}{
		"artists": []map[string]interface{}{
			{"wallet": artistA, "listeningTime": 60},
			{"wallet": artistB, "listeningTime": 40},
		},
	}
	outs = a.mustAccept(admin, "distribute_reward", args)
	assert.Equal(t, EventRewardDistributed, statementType(t, outs[0]))

	status, outs = a.command(admin, "distribute_reward", args)
	assert.Equal(t, dispatcher.StatusReject, status)
	assert.Contains(t, string(outs[0].Payload), "no new funds to distribute")

	var bal BalanceView
	require.Equal(t, dispatcher.StatusAccept, a.inspect("balance/"+artistA, &bal))
	assert.Equal(t, "411.6", bal.Ctsi.String())

	var cfg struct {
		FeeBalance                  string `json:"feeBalance"`
		LastVaultBalanceDistributed string `json:"lastVaultBalanceDistributed"`
	}
	a.inspect("config", &cfg)
	assert.Equal(t, "14", cfg.FeeBalance)
	assert.Equal(t, "1000", cfg.LastVaultBalanceDistributed)
}

func TestCreateUserEmitsSecondaryNotices(t *testing.T) {
	a := newApp(t)
	setupConfig(a)
	a.mustAccept(artistA, "create_user", map[string]string{"username": "artist1", "role": "artist"})

	var referrer struct {
		ReferralCode string `json:"referralCode"`
	}
	a.inspect("user/"+artistA, &referrer)
	require.NotEmpty(t, referrer.ReferralCode)

	outs := a.mustAccept(fan, "create_user", map[string]string{
		"username":     "fan",
		"role":         "listener",
		"referralCode": referrer.ReferralCode,
	})
	require.Len(t, outs, 3)
	assert.Equal(t, EventUserCreated, statementType(t, outs[0]))
	assert.Equal(t, EventReferralProcessed, statementType(t, outs[1]))
	assert.Equal(t, EventCreated, statementType(t, outs[2]))

	// 同一钱包不能再次被推荐
	status, _ := a.command(fan, "process_referral", map[string]string{"referralCode": referrer.ReferralCode, "name": "fan"})
	assert.Equal(t, dispatcher.StatusReject, status)

	// 被拒绝的请求不会留下次要输出
	status, outs = a.command(fan, "create_user", map[string]string{"username": "fan2", "role": "listener"})
	assert.Equal(t, dispatcher.StatusReject, status)
	assert.Len(t, outs, 1)
}

func TestConvertAndWithdrawSettlementToken(t *testing.T) {
	a := newApp(t)
	setupConfig(a)
	a.mustAccept(artistA, "create_user", map[string]string{"username": "artist1", "role": "artist"})
	a.mustAccept(fan, "create_user", map[string]string{"username": "fan", "role": "listener"})

	var referrer struct {
		ReferralCode string `json:"referralCode"`
	}
	a.inspect("user/"+artistA, &referrer)
	a.mustAccept("0x2000000000000000000000000000000000000002", "process_referral", map[string]string{"referralCode": referrer.ReferralCode, "name": "friend"})

	outs := a.mustAccept(artistA, "convert_melo_to_ctsi", map[string]int64{"points": 100})
	assert.Equal(t, EventMeloConverted, statementType(t, outs[0]))

	outs = a.mustAccept(artistA, "withdraw_erc20", map[string]string{"token": token, "amount": "1"})
	require.Len(t, outs, 2)
	assert.Equal(t, output.KindVoucher, outs[0].Kind)
	assert.Equal(t, token, outs[0].Destination)
	to, amount, err := chain.DecodeERC20Transfer(outs[0].Payload)
	require.NoError(t, err)
	assert.Equal(t, artistA, chain.FromCommon(to))
	assert.Equal(t, ether(1).String(), amount.String())
	assert.Equal(t, EventWithdrawal, statementType(t, outs[1]))

	status, _ := a.command(artistA, "withdraw_erc20", map[string]string{"token": token, "amount": "1"})
	assert.Equal(t, dispatcher.StatusReject, status)
}

func TestERC721WithdrawalNeedsRelay(t *testing.T) {
	a := newApp(t)
	setupConfig(a)

	status, _ := a.send(portals.ERC721Portal, erc721Payload(nft, fan, 7))
	require.Equal(t, dispatcher.StatusAccept, status)

	args := map[string]interface{}{"token": nft, "tokenId": 7}
	status, outs := a.command(fan, "withdraw_erc721", args)
	assert.Equal(t, dispatcher.StatusReject, status)
	assert.Contains(t, string(outs[0].Payload), "dapp address not set")

	status, outs = a.send(portals.DAppAddressRelay, common.HexToAddress(dapp).Bytes())
	require.Equal(t, dispatcher.StatusAccept, status)
	assert.Equal(t, EventDappAddressSet, statementType(t, outs[0]))

	status, outs = a.send(portals.DAppAddressRelay, common.HexToAddress(artistA).Bytes())
	require.Equal(t, dispatcher.StatusAccept, status)
	assert.Equal(t, EventDappAddressUnchanged, statementType(t, outs[0]))

	// tokenId 也可以字符串形式给出
	outs = a.mustAccept(fan, "withdraw_erc721", map[string]interface{}{"token": nft, "tokenId": "7"})
	from, to, id, err := chain.DecodeERC721TransferFrom(outs[0].Payload)
	require.NoError(t, err)
	assert.Equal(t, dapp, chain.FromCommon(from))
	assert.Equal(t, fan, chain.FromCommon(to))
	assert.Equal(t, int64(7), id.Int64())

	var dappView DappAddressData
	a.inspect("dapp_address", &dappView)
	assert.Equal(t, dapp, dappView.DappAddress)
}

func TestMalformedPortalPayloadRejectsOnlyThatInput(t *testing.T) {
	a := newApp(t)
	status, _ := a.send(portals.EtherPortal, []byte{1, 2})
	assert.Equal(t, dispatcher.StatusReject, status)

	status, _ = a.send(portals.ERC20Portal, append([]byte{0}, erc20Payload(token, fan, big.NewInt(1))[1:]...))
	assert.Equal(t, dispatcher.StatusReject, status)

	setupConfig(a)
}

func TestInspectRoutes(t *testing.T) {
	a := newApp(t)
	assert.Equal(t, dispatcher.StatusReject, a.inspect("config", nil))

	setupConfig(a)
	a.mustAccept(artistA, "create_user", map[string]string{"username": "artist1", "role": "artist"})
	a.mustAccept(fan, "create_user", map[string]string{"username": "fan", "role": "listener"})
	a.mustAccept(admin, "create_subscription_plan", map[string]interface{}{"name": "monthly", "price": "5", "duration": 3600})

	var users []map[string]interface{}
	a.inspect("users", &users)
	assert.Len(t, users, 2)

	var artists []map[string]interface{}
	a.inspect("artists", &artists)
	assert.Len(t, artists, 1)

	var byID map[string]interface{}
	assert.Equal(t, dispatcher.StatusAccept, a.inspect("user_by_id/2", &byID))
	assert.Equal(t, "fan", byID["username"])
	assert.Equal(t, dispatcher.StatusReject, a.inspect("user_by_id/abc", nil))
	assert.Equal(t, dispatcher.StatusAccept, a.inspect("user_by_username/ARTIST1", nil))

	var plans []map[string]interface{}
	a.inspect("subscription_plans", &plans)
	assert.Len(t, plans, 1)

	var stats store.Stats
	a.inspect("stats", &stats)
	assert.Equal(t, 2, stats.Users)
	assert.Equal(t, 1, stats.Listeners)

	assert.Equal(t, dispatcher.StatusReject, a.inspect("foo_bar", nil))
}

func TestDebugInspectEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	a := newApp(t)
	setupConfig(a)

	h := NewDebugHandler(a.d, "test-session")
	r := gin.New()
	r.GET("/health", h.Health)
	r.GET("/inspect/*path", h.Inspect)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/inspect/config", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/inspect/foo_bar", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unknown method: foo_bar")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "test-session")
}
