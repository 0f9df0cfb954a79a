package governance

import (
	"errors"
	"math/big"
	"testing"

	"acdmchain/native/staking"
)

type stakingStateStub struct {
	positions map[[20]byte]*staking.Position
	total     *big.Int
	params    *staking.Params
}

func newStakingStateStub() *stakingStateStub {
	return &stakingStateStub{positions: make(map[[20]byte]*staking.Position), total: big.NewInt(0)}
}

func (s *stakingStateStub) StakingPosition(addr [20]byte) (*staking.Position, bool, error) {
	p, ok := s.positions[addr]
	if !ok {
		return nil, false, nil
	}
	return p.Clone(), true, nil
}

func (s *stakingStateStub) SetStakingPosition(addr [20]byte, p *staking.Position) error {
	s.positions[addr] = p.Clone()
	return nil
}

func (s *stakingStateStub) StakingTotal() (*big.Int, error) {
	return new(big.Int).Set(s.total), nil
}

func (s *stakingStateStub) SetStakingTotal(total *big.Int) error {
	s.total = new(big.Int).Set(total)
	return nil
}

func (s *stakingStateStub) StakingParams() (*staking.Params, bool, error) {
	if s.params == nil {
		return nil, false, nil
	}
	clone := *s.params
	return &clone, true, nil
}

func (s *stakingStateStub) SetStakingParams(p *staking.Params) error {
	clone := *p
	s.params = &clone
	return nil
}

type noopLedger struct{}

func (noopLedger) Transfer([20]byte, string, [20]byte, *big.Int) error { return nil }

func (noopLedger) TransferFrom([20]byte, [20]byte, string, [20]byte, *big.Int) error {
	return nil
}

func TestParamExecutorDrivesStakingSetters(t *testing.T) {
	governanceAddr := testAddr(0xDA)
	vault := staking.NewEngine(noopLedger{})
	vault.SetState(newStakingStateStub())
	vault.SetAuthority(governanceAddr)

	executor := &ParamExecutor{Staking: vault, Caller: governanceAddr}
	if err := executor.Execute(Action{Target: TargetStaking, Method: MethodSetPercent, Args: []string{"7"}}); err != nil {
		t.Fatalf("set percent: %v", err)
	}
	if err := executor.Execute(Action{Target: TargetStaking, Method: MethodSetFreezeTime, Args: []string{"120"}}); err != nil {
		t.Fatalf("set freeze: %v", err)
	}
	params, err := vault.Params()
	if err != nil {
		t.Fatalf("params: %v", err)
	}
	if params.RewardPercent != 7 || params.FreezeSeconds != 120 {
		t.Fatalf("params not applied: %+v", params)
	}
}

func TestParamExecutorAuthorityMismatch(t *testing.T) {
	vault := staking.NewEngine(noopLedger{})
	vault.SetState(newStakingStateStub())
	vault.SetAuthority(testAddr(0xDA))

	executor := &ParamExecutor{Staking: vault, Caller: testAddr(0x99)}
	err := executor.Execute(Action{Target: TargetStaking, Method: MethodSetPercent, Args: []string{"7"}})
	if !errors.Is(err, staking.ErrNotAuthority) {
		t.Fatalf("expected authority error, got %v", err)
	}
}

func TestParamExecutorRejectsBadArguments(t *testing.T) {
	vault := staking.NewEngine(noopLedger{})
	vault.SetState(newStakingStateStub())
	executor := &ParamExecutor{Staking: vault, Caller: testAddr(0xDA)}
	if err := executor.Execute(Action{Target: TargetStaking, Method: MethodSetPercent, Args: []string{"many"}}); err == nil {
		t.Fatalf("expected parse failure")
	}
	if err := executor.Execute(Action{Target: TargetStaking, Method: MethodTransferOwnership, Args: []string{"not-an-address"}}); err == nil {
		t.Fatalf("expected address parse failure")
	}
}
