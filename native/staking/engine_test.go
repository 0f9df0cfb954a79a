package staking

import (
	"errors"
	"math/big"
	"testing"

	"acdmchain/native/token"
)

type mockState struct {
	positions map[[20]byte]*Position
	total     *big.Int
	params    *Params
}

func newMockState() *mockState {
	return &mockState{positions: make(map[[20]byte]*Position), total: big.NewInt(0)}
}

func (m *mockState) StakingPosition(addr [20]byte) (*Position, bool, error) {
	p, ok := m.positions[addr]
	if !ok {
		return nil, false, nil
	}
	return p.Clone(), true, nil
}

func (m *mockState) SetStakingPosition(addr [20]byte, p *Position) error {
	sanitized, err := SanitizePosition(p)
	if err != nil {
		return err
	}
	m.positions[addr] = sanitized
	return nil
}

func (m *mockState) StakingTotal() (*big.Int, error) {
	return new(big.Int).Set(m.total), nil
}

func (m *mockState) SetStakingTotal(total *big.Int) error {
	m.total = new(big.Int).Set(total)
	return nil
}

func (m *mockState) StakingParams() (*Params, bool, error) {
	if m.params == nil {
		return nil, false, nil
	}
	clone := *m.params
	return &clone, true, nil
}

func (m *mockState) SetStakingParams(p *Params) error {
	clone := *p
	m.params = &clone
	return nil
}

type balanceKey struct {
	addr   [20]byte
	symbol string
}

type mockLedger struct {
	balances   map[balanceKey]*big.Int
	allowances map[[2][20]byte]*big.Int
}

func newMockLedger() *mockLedger {
	return &mockLedger{
		balances:   make(map[balanceKey]*big.Int),
		allowances: make(map[[2][20]byte]*big.Int),
	}
}

func (l *mockLedger) balance(addr [20]byte, symbol string) *big.Int {
	if bal, ok := l.balances[balanceKey{addr, symbol}]; ok {
		return new(big.Int).Set(bal)
	}
	return big.NewInt(0)
}

func (l *mockLedger) credit(addr [20]byte, symbol string, amount *big.Int) {
	key := balanceKey{addr, symbol}
	l.balances[key] = new(big.Int).Add(l.balance(addr, symbol), amount)
}

func (l *mockLedger) approve(owner, spender [20]byte, amount *big.Int) {
	l.allowances[[2][20]byte{owner, spender}] = new(big.Int).Set(amount)
}

func (l *mockLedger) move(from, to [20]byte, symbol string, amount *big.Int) error {
	bal := l.balance(from, symbol)
	if bal.Cmp(amount) < 0 {
		return token.ErrInsufficientBalance
	}
	l.balances[balanceKey{from, symbol}] = bal.Sub(bal, amount)
	l.credit(to, symbol, amount)
	return nil
}

func (l *mockLedger) Transfer(caller [20]byte, symbol string, to [20]byte, amount *big.Int) error {
	return l.move(caller, to, symbol, amount)
}

func (l *mockLedger) TransferFrom(caller, from [20]byte, symbol string, to [20]byte, amount *big.Int) error {
	if caller != from {
		key := [2][20]byte{from, caller}
		allowance := big.NewInt(0)
		if existing, ok := l.allowances[key]; ok {
			allowance = new(big.Int).Set(existing)
		}
		if allowance.Cmp(amount) < 0 {
			return token.ErrInsufficientAllowance
		}
		l.allowances[key] = allowance.Sub(allowance, amount)
	}
	return l.move(from, to, symbol, amount)
}

type mockVoteLocks struct {
	until map[[20]byte]int64
}

func (m *mockVoteLocks) CanClaimAt(addr [20]byte) (int64, error) {
	return m.until[addr], nil
}

func testAddr(fill byte) [20]byte {
	var addr [20]byte
	for i := range addr {
		addr[i] = fill
	}
	return addr
}

type testClock struct {
	now int64
}

func (c *testClock) advance(seconds int64) { c.now += seconds }

func newTestEngine(t *testing.T) (*Engine, *mockState, *mockLedger, *mockVoteLocks, *testClock) {
	t.Helper()
	state := newMockState()
	ledger := newMockLedger()
	locks := &mockVoteLocks{until: make(map[[20]byte]int64)}
	clock := &testClock{now: 1_700_000_000}
	engine := NewEngine(ledger)
	engine.SetState(state)
	engine.SetVoteLocks(locks)
	engine.SetModuleAddress(testAddr(0xEE))
	engine.SetAuthority(testAddr(0x01))
	engine.SetNowFunc(func() int64 { return clock.now })
	return engine, state, ledger, locks, clock
}

func fundStaker(ledger *mockLedger, vault, staker [20]byte, amount int64) {
	ledger.credit(staker, token.SymbolSTK, big.NewInt(amount))
	ledger.approve(staker, vault, big.NewInt(amount))
}

func TestStakeEscrowsAndTracksTotal(t *testing.T) {
	engine, _, ledger, _, _ := newTestEngine(t)
	staker := testAddr(0x10)
	fundStaker(ledger, engine.moduleAddr, staker, 1_000)
	if err := engine.Stake(staker, big.NewInt(1_000)); err != nil {
		t.Fatalf("stake: %v", err)
	}
	if got := ledger.balance(staker, token.SymbolSTK); got.Sign() != 0 {
		t.Fatalf("staker balance %s", got)
	}
	if got := ledger.balance(engine.moduleAddr, token.SymbolSTK); got.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("vault balance %s", got)
	}
	total, err := engine.TotalStaked()
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if total.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("total staked %s", total)
	}
	power, err := engine.VotingPower(staker)
	if err != nil {
		t.Fatalf("power: %v", err)
	}
	if power.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("voting power %s", power)
	}
}

func TestWeeklyAccrualTruncates(t *testing.T) {
	engine, _, ledger, _, clock := newTestEngine(t)
	staker := testAddr(0x11)
	fundStaker(ledger, engine.moduleAddr, staker, 1_000)
	ledger.credit(engine.moduleAddr, token.SymbolRWD, big.NewInt(10_000))
	if err := engine.Stake(staker, big.NewInt(1_000)); err != nil {
		t.Fatalf("stake: %v", err)
	}
	// Two weeks and change: the partial third week pays nothing.
	clock.advance(2*WeekSeconds + WeekSeconds/2)
	reward, err := engine.Claim(staker)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	// 3% of 1000 per week for two whole weeks.
	if reward.Cmp(big.NewInt(60)) != 0 {
		t.Fatalf("reward %s want 60", reward)
	}
	if got := ledger.balance(staker, token.SymbolRWD); got.Cmp(big.NewInt(60)) != 0 {
		t.Fatalf("reward balance %s", got)
	}
	// Claim resets the checkpoint: the dangling half week is gone.
	if _, err := engine.Claim(staker); !errors.Is(err, ErrNothingToClaim) {
		t.Fatalf("expected empty claim, got %v", err)
	}
	clock.advance(WeekSeconds / 2)
	if _, err := engine.Claim(staker); !errors.Is(err, ErrNothingToClaim) {
		t.Fatalf("half week accrued: %v", err)
	}
	clock.advance(WeekSeconds / 2)
	reward, err = engine.Claim(staker)
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if reward.Cmp(big.NewInt(30)) != 0 {
		t.Fatalf("second reward %s want 30", reward)
	}
}

func TestAccrualFoldsBeforeTopUp(t *testing.T) {
	engine, _, ledger, _, clock := newTestEngine(t)
	staker := testAddr(0x12)
	fundStaker(ledger, engine.moduleAddr, staker, 2_000)
	if err := engine.Stake(staker, big.NewInt(1_000)); err != nil {
		t.Fatalf("stake: %v", err)
	}
	clock.advance(3 * WeekSeconds)
	if err := engine.Stake(staker, big.NewInt(1_000)); err != nil {
		t.Fatalf("top up: %v", err)
	}
	position, err := engine.Position(staker)
	if err != nil {
		t.Fatalf("position: %v", err)
	}
	// Three weeks at 3% of the prior 1000, not of the topped-up 2000.
	if position.Accumulated.Cmp(big.NewInt(90)) != 0 {
		t.Fatalf("accumulated %s want 90", position.Accumulated)
	}
	if position.Amount.Cmp(big.NewInt(2_000)) != 0 {
		t.Fatalf("amount %s", position.Amount)
	}
	if position.StakedAt != clock.now {
		t.Fatalf("freeze timer not reset")
	}
}

func TestUnstakeFreezeAndVoteLock(t *testing.T) {
	engine, _, ledger, locks, clock := newTestEngine(t)
	staker := testAddr(0x13)
	fundStaker(ledger, engine.moduleAddr, staker, 500)
	if err := engine.Stake(staker, big.NewInt(500)); err != nil {
		t.Fatalf("stake: %v", err)
	}
	if _, err := engine.Unstake(staker); !errors.Is(err, ErrStakeFrozen) {
		t.Fatalf("expected freeze error, got %v", err)
	}
	clock.advance(WeekSeconds + 1)
	locks.until[staker] = clock.now + 3600
	if _, err := engine.Unstake(staker); !errors.Is(err, ErrVoteLocked) {
		t.Fatalf("expected vote-lock error, got %v", err)
	}
	clock.advance(3601)
	amount, err := engine.Unstake(staker)
	if err != nil {
		t.Fatalf("unstake: %v", err)
	}
	if amount.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("returned %s", amount)
	}
	if got := ledger.balance(staker, token.SymbolSTK); got.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("staker balance %s", got)
	}
	total, err := engine.TotalStaked()
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if total.Sign() != 0 {
		t.Fatalf("total not released: %s", total)
	}
	if _, err := engine.Unstake(staker); !errors.Is(err, ErrNothingStaked) {
		t.Fatalf("expected empty-position error, got %v", err)
	}
}

func TestAccumulatedSurvivesUnstake(t *testing.T) {
	engine, _, ledger, _, clock := newTestEngine(t)
	staker := testAddr(0x14)
	fundStaker(ledger, engine.moduleAddr, staker, 1_000)
	ledger.credit(engine.moduleAddr, token.SymbolRWD, big.NewInt(1_000))
	if err := engine.Stake(staker, big.NewInt(1_000)); err != nil {
		t.Fatalf("stake: %v", err)
	}
	clock.advance(2 * WeekSeconds)
	if _, err := engine.Unstake(staker); err != nil {
		t.Fatalf("unstake: %v", err)
	}
	position, err := engine.Position(staker)
	if err != nil {
		t.Fatalf("position: %v", err)
	}
	if position.Accumulated.Cmp(big.NewInt(60)) != 0 {
		t.Fatalf("accumulated %s want 60", position.Accumulated)
	}
	// Accrual stops with a zero amount but the earned reward stays claimable.
	clock.advance(5 * WeekSeconds)
	reward, err := engine.Claim(staker)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if reward.Cmp(big.NewInt(60)) != 0 {
		t.Fatalf("reward %s want 60", reward)
	}
}

func TestClaimFailsWhenPoolEmpty(t *testing.T) {
	engine, _, ledger, _, clock := newTestEngine(t)
	staker := testAddr(0x15)
	fundStaker(ledger, engine.moduleAddr, staker, 1_000)
	if err := engine.Stake(staker, big.NewInt(1_000)); err != nil {
		t.Fatalf("stake: %v", err)
	}
	clock.advance(WeekSeconds)
	if _, err := engine.Claim(staker); !errors.Is(err, token.ErrInsufficientBalance) {
		t.Fatalf("expected pool exhaustion, got %v", err)
	}
}

func TestSettersRequireAuthority(t *testing.T) {
	engine, _, ledger, _, clock := newTestEngine(t)
	stranger := testAddr(0x20)
	owner := testAddr(0x01)
	if err := engine.SetFreezeTime(stranger, 60); !errors.Is(err, ErrNotAuthority) {
		t.Fatalf("expected authority guard, got %v", err)
	}
	if err := engine.SetPercent(stranger, 5); !errors.Is(err, ErrNotAuthority) {
		t.Fatalf("expected authority guard, got %v", err)
	}
	if err := engine.SetFreezeTime(owner, 60); err != nil {
		t.Fatalf("set freeze: %v", err)
	}
	if err := engine.SetPercent(owner, 5); err != nil {
		t.Fatalf("set percent: %v", err)
	}
	if err := engine.SetPercent(owner, 101); err == nil {
		t.Fatalf("expected percent range rejection")
	}

	// The shortened freeze applies to existing positions.
	staker := testAddr(0x21)
	fundStaker(ledger, engine.moduleAddr, staker, 100)
	if err := engine.Stake(staker, big.NewInt(100)); err != nil {
		t.Fatalf("stake: %v", err)
	}
	clock.advance(61)
	if _, err := engine.Unstake(staker); err != nil {
		t.Fatalf("unstake under new freeze: %v", err)
	}
}
