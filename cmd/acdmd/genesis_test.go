package main

import (
	"math/big"
	"testing"

	"acdmchain/config"
	"acdmchain/crypto"
	"acdmchain/native/token"
	"acdmchain/state"
	"acdmchain/storage"
)

func genesisFixture(t *testing.T) (*state.Manager, *token.Ledger, [20]byte) {
	t.Helper()
	manager := state.NewManager(storage.NewMemDB())
	stakingAddr := crypto.ModuleAddress("staking")
	ledger := token.NewLedger()
	ledger.SetState(manager)
	for _, symbol := range []string{token.SymbolSTK, token.SymbolRWD} {
		if err := ledger.SetOwner(stakingAddr, symbol, stakingAddr); err != nil {
			t.Fatalf("set owner %s: %v", symbol, err)
		}
	}
	return manager, ledger, stakingAddr
}

func bech(fill byte) string {
	var addr [20]byte
	for i := range addr {
		addr[i] = fill
	}
	return crypto.NewAddress(crypto.ACDMPrefix, addr[:]).String()
}

func TestApplyGenesisSeedsBalancesOnce(t *testing.T) {
	manager, ledger, stakingAddr := genesisFixture(t)
	alice := bech(0x11)
	genesis := config.Genesis{
		AccountsWei:      map[string]string{alice: "1000000000000000000"},
		StakeTokens:      map[string]string{alice: "500"},
		RewardPoolTokens: "10000",
	}

	if err := applyGenesis(manager, ledger, stakingAddr, genesis); err != nil {
		t.Fatalf("apply: %v", err)
	}

	aliceAddr, err := genesisAddress(alice)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	account, err := manager.GetAccount(aliceAddr[:])
	if err != nil {
		t.Fatalf("account: %v", err)
	}
	if account.BalanceWei.String() != "1000000000000000000" {
		t.Fatalf("wei balance %s", account.BalanceWei)
	}
	stk, err := ledger.BalanceOf(token.SymbolSTK, aliceAddr)
	if err != nil {
		t.Fatalf("stk balance: %v", err)
	}
	if stk.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("stk balance %s", stk)
	}
	pool, err := ledger.BalanceOf(token.SymbolRWD, stakingAddr)
	if err != nil {
		t.Fatalf("rwd pool: %v", err)
	}
	if pool.Cmp(big.NewInt(10_000)) != 0 {
		t.Fatalf("rwd pool %s", pool)
	}

	// A restart must not mint a second time.
	if err := applyGenesis(manager, ledger, stakingAddr, genesis); err != nil {
		t.Fatalf("reapply: %v", err)
	}
	stk, _ = ledger.BalanceOf(token.SymbolSTK, aliceAddr)
	if stk.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("stk minted twice: %s", stk)
	}
	supply, err := ledger.Supply(token.SymbolRWD)
	if err != nil {
		t.Fatalf("supply: %v", err)
	}
	if supply.Cmp(big.NewInt(10_000)) != 0 {
		t.Fatalf("rwd supply %s", supply)
	}
}

func TestApplyGenesisRejectsBadEntries(t *testing.T) {
	manager, ledger, stakingAddr := genesisFixture(t)
	if err := applyGenesis(manager, ledger, stakingAddr, config.Genesis{
		AccountsWei: map[string]string{"not-an-address": "1"},
	}); err == nil {
		t.Fatalf("expected error for malformed address")
	}
	if err := applyGenesis(manager, ledger, stakingAddr, config.Genesis{
		AccountsWei: map[string]string{bech(0x22): "-5"},
	}); err == nil {
		t.Fatalf("expected error for negative amount")
	}
	if seeded, _ := manager.GenesisSeeded(); seeded {
		t.Fatalf("failed genesis must not mark state as seeded")
	}
}
