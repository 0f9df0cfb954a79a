package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"golang.org/x/time/rate"

	"acdmchain/core/events"
	"acdmchain/core/types"
	"acdmchain/crypto"
	"acdmchain/native/governance"
	"acdmchain/native/platform"
	"acdmchain/native/staking"
	"acdmchain/native/token"
	"acdmchain/state"
	"acdmchain/storage"
)

type testEnv struct {
	server   *httptest.Server
	manager  *state.Manager
	ledger   *token.Ledger
	recorder *events.Recorder
	clock    *int64
}

func addrString(fill byte) string {
	var addr [20]byte
	for i := range addr {
		addr[i] = fill
	}
	return crypto.NewAddress(crypto.ACDMPrefix, addr[:]).String()
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	manager := state.NewManager(storage.NewMemDB())

	platformAddr := crypto.ModuleAddress("platform")
	stakingAddr := crypto.ModuleAddress("staking")
	governanceAddr := crypto.ModuleAddress("governance")

	ledger := token.NewLedger()
	ledger.SetState(manager)
	for symbol, owner := range map[string][20]byte{
		token.SymbolACDM: platformAddr,
		token.SymbolSTK:  stakingAddr,
		token.SymbolRWD:  stakingAddr,
	} {
		if err := ledger.SetOwner(owner, symbol, owner); err != nil {
			t.Fatalf("set owner %s: %v", symbol, err)
		}
	}

	now := int64(1_700_000_000)
	clockFn := func() int64 { return now }
	recorder := &events.Recorder{}
	ledger.SetEmitter(recorder)

	market := platform.NewEngine(ledger)
	market.SetState(manager)
	market.SetEmitter(recorder)
	market.SetModuleAddress(platformAddr)
	market.SetAuthority(governanceAddr)
	market.SetNowFunc(clockFn)

	vault := staking.NewEngine(ledger)
	vault.SetState(manager)
	vault.SetEmitter(recorder)
	vault.SetModuleAddress(stakingAddr)
	vault.SetAuthority(governanceAddr)
	vault.SetNowFunc(clockFn)

	dao := governance.NewEngine()
	dao.SetState(manager)
	dao.SetEmitter(recorder)
	dao.SetPowers(vault)
	dao.SetExecutor(&governance.ParamExecutor{Platform: market, Staking: vault, Caller: governanceAddr})
	dao.SetNowFunc(clockFn)
	vault.SetVoteLocks(dao)

	server := NewServer(Options{
		Platform:   market,
		Staking:    vault,
		Governance: dao,
		Ledger:     ledger,
		Events:     recorder,
	})
	ts := httptest.NewServer(server.Router())
	t.Cleanup(ts.Close)
	return &testEnv{server: ts, manager: manager, ledger: ledger, recorder: recorder, clock: &now}
}

func (env *testEnv) post(t *testing.T, path string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(env.server.URL+path, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("post %s: %v", path, err)
	}
	defer resp.Body.Close()
	decoded := make(map[string]interface{})
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return resp, decoded
}

func (env *testEnv) get(t *testing.T, path string) (*http.Response, map[string]interface{}) {
	t.Helper()
	resp, err := http.Get(env.server.URL + path)
	if err != nil {
		t.Fatalf("get %s: %v", path, err)
	}
	defer resp.Body.Close()
	decoded := make(map[string]interface{})
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return resp, decoded
}

func (env *testEnv) fund(t *testing.T, addr string, wei *big.Int) {
	t.Helper()
	decoded, err := crypto.DecodeAddress(addr)
	if err != nil {
		t.Fatalf("decode address: %v", err)
	}
	if err := env.manager.PutAccount(decoded.Bytes(), &types.Account{BalanceWei: wei}); err != nil {
		t.Fatalf("fund: %v", err)
	}
}

func TestSaleRoundOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	buyer := addrString(0x10)
	oneEther := new(big.Int).Mul(big.NewInt(1_000_000_000), big.NewInt(1_000_000_000))
	env.fund(t, buyer, oneEther)

	resp, body := env.post(t, "/v1/platform/sale/start", map[string]string{})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start sale status %d: %v", resp.StatusCode, body)
	}
	if body["tokensForSale"] != "100000" {
		t.Fatalf("supply %v", body["tokensForSale"])
	}

	resp, body = env.post(t, "/v1/platform/buy", map[string]string{
		"buyer":      buyer,
		"paymentWei": oneEther.String(),
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("buy status %d: %v", resp.StatusCode, body)
	}
	if body["units"] != "100000" || body["refundWei"] != "0" {
		t.Fatalf("purchase result %v", body)
	}

	resp, body = env.get(t, "/v1/token/acdm/balance/"+buyer)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("balance status %d", resp.StatusCode)
	}
	if body["balance"] != "100000" {
		t.Fatalf("balance %v", body["balance"])
	}

	// Supply exhausted: the sale force-ended, so further buys conflict.
	resp, body = env.post(t, "/v1/platform/buy", map[string]string{
		"buyer":      buyer,
		"paymentWei": "10000000000000",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected conflict, got %d: %v", resp.StatusCode, body)
	}
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	seller := addrString(0x20)
	buyer := addrString(0x21)
	oneEther := new(big.Int).Mul(big.NewInt(1_000_000_000), big.NewInt(1_000_000_000))
	env.fund(t, seller, oneEther)
	env.fund(t, buyer, oneEther)

	if resp, body := env.post(t, "/v1/platform/sale/start", map[string]string{}); resp.StatusCode != http.StatusOK {
		t.Fatalf("start sale: %v", body)
	}
	if resp, body := env.post(t, "/v1/platform/buy", map[string]string{
		"buyer":      seller,
		"paymentWei": new(big.Int).Quo(oneEther, big.NewInt(2)).String(),
	}); resp.StatusCode != http.StatusOK {
		t.Fatalf("buy: %v", body)
	}
	*env.clock += 3*24*60*60 + 1
	if resp, body := env.post(t, "/v1/platform/trade/start", map[string]string{}); resp.StatusCode != http.StatusOK {
		t.Fatalf("start trade: %v", body)
	}

	platformAddr := crypto.NewAddress(crypto.ACDMPrefix, func() []byte {
		a := crypto.ModuleAddress("platform")
		return a[:]
	}()).String()
	if resp, body := env.post(t, "/v1/token/acdm/approve", map[string]string{
		"owner":   seller,
		"spender": platformAddr,
		"amount":  "1000",
	}); resp.StatusCode != http.StatusOK {
		t.Fatalf("approve: %v", body)
	}

	resp, body := env.post(t, "/v1/platform/orders", map[string]string{
		"seller":   seller,
		"amount":   "1000",
		"priceWei": "20000000000000",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add order status %d: %v", resp.StatusCode, body)
	}
	orderID := fmt.Sprintf("%.0f", body["orderId"].(float64))

	resp, body = env.post(t, "/v1/platform/orders/"+orderID+"/redeem", map[string]string{
		"buyer":      buyer,
		"paymentWei": new(big.Int).Mul(big.NewInt(20_000_000_000_000), big.NewInt(500)).String(),
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("redeem status %d: %v", resp.StatusCode, body)
	}
	if body["units"] != "500" {
		t.Fatalf("redeem units %v", body["units"])
	}

	resp, body = env.get(t, "/v1/platform/orders/"+orderID)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get order status %d", resp.StatusCode)
	}
	if body["amount"] != "500" {
		t.Fatalf("remaining %v", body["amount"])
	}

	req, err := http.NewRequest(http.MethodDelete, env.server.URL+"/v1/platform/orders/"+orderID, bytes.NewReader([]byte(`{"seller":"`+seller+`"}`)))
	if err != nil {
		t.Fatalf("delete request: %v", err)
	}
	deleteResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	deleteResp.Body.Close()
	if deleteResp.StatusCode != http.StatusOK {
		t.Fatalf("remove status %d", deleteResp.StatusCode)
	}
}

func TestGovernanceOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	staker := addrString(0x30)
	stakingAddr := crypto.ModuleAddress("staking")
	stakingAddrString := crypto.NewAddress(crypto.ACDMPrefix, stakingAddr[:]).String()

	decoded, err := crypto.DecodeAddress(staker)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	var stakerBytes [20]byte
	copy(stakerBytes[:], decoded.Bytes())
	if err := env.ledger.Mint(stakingAddr, token.SymbolSTK, stakerBytes, big.NewInt(1_000)); err != nil {
		t.Fatalf("mint stk: %v", err)
	}
	if resp, body := env.post(t, "/v1/token/stk/approve", map[string]string{
		"owner":   staker,
		"spender": stakingAddrString,
		"amount":  "1000",
	}); resp.StatusCode != http.StatusOK {
		t.Fatalf("approve: %v", body)
	}
	if resp, body := env.post(t, "/v1/staking/stake", map[string]string{
		"account": staker,
		"amount":  "1000",
	}); resp.StatusCode != http.StatusOK {
		t.Fatalf("stake: %v", body)
	}

	resp, body := env.post(t, "/v1/governance/proposals", map[string]interface{}{
		"proposer":    staker,
		"description": "one-day rounds",
		"target":      "platform",
		"method":      "setRoundTime",
		"args":        []string{"86400"},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("propose status %d: %v", resp.StatusCode, body)
	}
	proposalID := fmt.Sprintf("%.0f", body["proposalId"].(float64))

	if resp, body := env.post(t, "/v1/governance/proposals/"+proposalID+"/votes", map[string]interface{}{
		"voter":   staker,
		"support": true,
	}); resp.StatusCode != http.StatusOK {
		t.Fatalf("vote: %v", body)
	}

	// Withdrawal preconditions surface as conflicts.
	*env.clock += 24 * 60 * 60
	if resp, body := env.post(t, "/v1/staking/unstake", map[string]string{"account": staker}); resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected freeze conflict: %v", body)
	}

	*env.clock += 3 * 24 * 60 * 60
	if resp, body := env.post(t, "/v1/governance/proposals/"+proposalID+"/finalize", map[string]string{}); resp.StatusCode != http.StatusOK {
		t.Fatalf("finalize: %v", body)
	} else if body["status"] != "passed" {
		t.Fatalf("status %v", body["status"])
	}
	if resp, body := env.post(t, "/v1/governance/proposals/"+proposalID+"/execute", map[string]string{}); resp.StatusCode != http.StatusOK {
		t.Fatalf("execute: %v", body)
	}

	resp, body = env.get(t, "/v1/governance/proposals/"+proposalID)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get proposal status %d", resp.StatusCode)
	}
	if body["status"] != "executed" {
		t.Fatalf("proposal status %v", body["status"])
	}

	if resp, _ := env.get(t, "/v1/governance/proposals/999"); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown proposal, got %d", resp.StatusCode)
	}
}

func TestConcurrentBuysConserveWei(t *testing.T) {
	env := newTestEnv(t)
	const buyers = 16
	price := big.NewInt(10_000_000_000_000)
	pay := new(big.Int).Mul(price, big.NewInt(5))

	addrs := make([]string, buyers)
	for i := 0; i < buyers; i++ {
		addrs[i] = addrString(byte(0x40 + i))
		env.fund(t, addrs[i], new(big.Int).Set(pay))
	}
	if resp, body := env.post(t, "/v1/platform/sale/start", map[string]string{}); resp.StatusCode != http.StatusOK {
		t.Fatalf("start sale: %v", body)
	}

	var wg sync.WaitGroup
	errs := make(chan string, buyers)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(buyer string) {
			defer wg.Done()
			raw, _ := json.Marshal(map[string]string{"buyer": buyer, "paymentWei": pay.String()})
			resp, err := http.Post(env.server.URL+"/v1/platform/buy", "application/json", bytes.NewReader(raw))
			if err != nil {
				errs <- err.Error()
				return
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				errs <- fmt.Sprintf("buy status %d", resp.StatusCode)
			}
		}(addrs[i])
	}
	wg.Wait()
	close(errs)
	for msg := range errs {
		t.Fatalf("concurrent buy: %s", msg)
	}

	// No referrers, exact multiples of the price: every wei the buyers held
	// must now sit on the module account.
	platformAddr := crypto.ModuleAddress("platform")
	moduleAcc, err := env.manager.GetAccount(platformAddr[:])
	if err != nil {
		t.Fatalf("module account: %v", err)
	}
	total := new(big.Int).Set(moduleAcc.BalanceWei)
	for _, buyer := range addrs {
		decoded, err := crypto.DecodeAddress(buyer)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		acc, err := env.manager.GetAccount(decoded.Bytes())
		if err != nil {
			t.Fatalf("buyer account: %v", err)
		}
		total.Add(total, acc.BalanceWei)
	}
	want := new(big.Int).Mul(pay, big.NewInt(buyers))
	if total.Cmp(want) != 0 {
		t.Fatalf("wei not conserved: total %s want %s", total, want)
	}
	if moduleAcc.BalanceWei.Cmp(want) != 0 {
		t.Fatalf("module holds %s want %s", moduleAcc.BalanceWei, want)
	}
}

func TestEventFeedOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	buyer := addrString(0x10)
	env.fund(t, buyer, big.NewInt(10_000_000_000_000))

	if resp, body := env.post(t, "/v1/platform/sale/start", map[string]string{}); resp.StatusCode != http.StatusOK {
		t.Fatalf("start sale: %v", body)
	}
	if resp, body := env.post(t, "/v1/platform/buy", map[string]string{
		"buyer":      buyer,
		"paymentWei": "10000000000000",
	}); resp.StatusCode != http.StatusOK {
		t.Fatalf("buy: %v", body)
	}

	resp, body := env.get(t, "/v1/events")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("events status %d", resp.StatusCode)
	}
	feed, ok := body["events"].([]interface{})
	if !ok || len(feed) == 0 {
		t.Fatalf("empty feed: %v", body)
	}
	types := make(map[string]map[string]interface{})
	for _, raw := range feed {
		entry := raw.(map[string]interface{})
		kind, _ := entry["type"].(string)
		attrs, _ := entry["attributes"].(map[string]interface{})
		types[kind] = attrs
	}
	for _, want := range []string{"platform.sale.started", "platform.sale.purchase", "token.mint"} {
		if _, ok := types[want]; !ok {
			t.Fatalf("feed missing %s", want)
		}
	}
	if attrs := types["platform.sale.purchase"]; len(attrs) == 0 {
		t.Fatalf("purchase event carries no attributes")
	}
}

func TestMetricsPathConfigurable(t *testing.T) {
	server := NewServer(Options{MetricsPath: "/internal/metrics"})
	ts := httptest.NewServer(server.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/internal/metrics")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics status %d", resp.StatusCode)
	}
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(payload), "go_") {
		t.Fatalf("unexpected metrics payload")
	}

	fallback, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("fallback get: %v", err)
	}
	fallback.Body.Close()
	if fallback.StatusCode != http.StatusNotFound {
		t.Fatalf("default path still routed: %d", fallback.StatusCode)
	}
}

func TestRateLimitReturns429(t *testing.T) {
	manager := state.NewManager(storage.NewMemDB())
	ledger := token.NewLedger()
	ledger.SetState(manager)
	market := platform.NewEngine(ledger)
	market.SetState(manager)
	server := NewServer(Options{
		Platform: market,
		Ledger:   ledger,
		Limiter:  rate.NewLimiter(rate.Limit(1), 1),
	})
	ts := httptest.NewServer(server.Router())
	defer ts.Close()

	first, err := http.Get(ts.URL + "/v1/platform/round")
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	first.Body.Close()
	second, err := http.Get(ts.URL + "/v1/platform/round")
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	second.Body.Close()
	if second.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", second.StatusCode)
	}
}

func TestBadAddressIsBadRequest(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.post(t, "/v1/platform/buy", map[string]string{
		"buyer":      "nonsense",
		"paymentWei": "100",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %v", resp.StatusCode, body)
	}
}
