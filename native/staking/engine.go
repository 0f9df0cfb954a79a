package staking

import (
	"math/big"
	"time"

	"acdmchain/core/events"
	"acdmchain/core/types"
	nativecommon "acdmchain/native/common"
	"acdmchain/native/token"
)

const moduleName = "staking"

type engineState interface {
	StakingPosition(addr [20]byte) (*Position, bool, error)
	SetStakingPosition(addr [20]byte, position *Position) error
	StakingTotal() (*big.Int, error)
	SetStakingTotal(total *big.Int) error
	StakingParams() (*Params, bool, error)
	SetStakingParams(params *Params) error
}

// Ledger is the slice of the token ledger the vault needs: pulling the
// staking token in, pushing it back out, and paying rewards from the
// pre-funded module pool.
type Ledger interface {
	Transfer(caller [20]byte, symbol string, to [20]byte, amount *big.Int) error
	TransferFrom(caller, from [20]byte, symbol string, to [20]byte, amount *big.Int) error
}

// VoteLockView reports the earliest time an address may withdraw its stake,
// as determined by its open governance ballots.
type VoteLockView interface {
	CanClaimAt(addr [20]byte) (int64, error)
}

// Engine is the staking vault. Deposits of the staking token accrue a reward
// in the reward token per elapsed whole week; withdrawal is blocked by the
// freeze period and by open governance votes.
type Engine struct {
	state      engineState
	ledger     Ledger
	voteLocks  VoteLockView
	emitter    events.Emitter
	nowFn      func() int64
	pauses     nativecommon.PauseView
	moduleAddr [20]byte
	authority  [20]byte
}

func NewEngine(ledger Ledger) *Engine {
	return &Engine{
		ledger:  ledger,
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

func (e *Engine) SetState(state engineState) { e.state = state }

func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	e.emitter = emitter
}

func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		now = func() int64 { return time.Now().Unix() }
	}
	e.nowFn = now
}

func (e *Engine) SetPauses(p nativecommon.PauseView) { e.pauses = p }

// SetVoteLocks wires the governance lock view. Without it unstaking ignores
// vote locks.
func (e *Engine) SetVoteLocks(view VoteLockView) { e.voteLocks = view }

// SetModuleAddress sets the vault's custody account for staked tokens and
// the reward pool.
func (e *Engine) SetModuleAddress(addr [20]byte) { e.moduleAddr = addr }

// SetAuthority sets the address allowed to tune parameters, normally the
// governance module.
func (e *Engine) SetAuthority(addr [20]byte) { e.authority = addr }

func (e *Engine) Authority() [20]byte { return e.authority }

func (e *Engine) now() int64 { return e.nowFn() }

func (e *Engine) emit(evt *types.Event) {
	if evt == nil {
		return
	}
	e.emitter.Emit(stakingEvent{evt: evt})
}

func (e *Engine) loadParams() (Params, error) {
	stored, ok, err := e.state.StakingParams()
	if err != nil {
		return Params{}, err
	}
	if !ok || stored == nil {
		return DefaultParams(), nil
	}
	return *stored, nil
}

func (e *Engine) loadPosition(addr [20]byte) (*Position, error) {
	stored, ok, err := e.state.StakingPosition(addr)
	if err != nil {
		return nil, err
	}
	if !ok || stored == nil {
		return &Position{Amount: big.NewInt(0), Accumulated: big.NewInt(0)}, nil
	}
	return SanitizePosition(stored)
}

// accrue folds the reward earned since the last checkpoint into the
// position's accumulated balance and moves the checkpoint to now. Partial
// weeks are dropped, matching the window arithmetic everywhere else.
func accrue(position *Position, percent uint32, now int64) {
	if position.Amount.Sign() > 0 && position.CheckpointAt > 0 {
		weeks := (now - position.CheckpointAt) / WeekSeconds
		if weeks > 0 {
			reward := new(big.Int).Mul(position.Amount, big.NewInt(int64(percent)))
			reward.Quo(reward, big.NewInt(100))
			reward.Mul(reward, big.NewInt(weeks))
			position.Accumulated = new(big.Int).Add(position.Accumulated, reward)
		}
	}
	position.CheckpointAt = now
}

func (e *Engine) adjustTotal(delta *big.Int) error {
	total, err := e.state.StakingTotal()
	if err != nil {
		return err
	}
	if total == nil {
		total = big.NewInt(0)
	}
	return e.state.SetStakingTotal(new(big.Int).Add(total, delta))
}

// Stake pulls the staking token from the caller into the vault. Pending
// reward is folded first, then the deposit is added and the freeze timer
// restarts, so topping up re-locks the whole position.
func (e *Engine) Stake(caller [20]byte, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.ledger == nil {
		return errNilLedger
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	amt := cloneBigInt(amount)
	if amt.Sign() <= 0 {
		return ErrNothingStaked
	}
	params, err := e.loadParams()
	if err != nil {
		return err
	}
	position, err := e.loadPosition(caller)
	if err != nil {
		return err
	}
	now := e.now()
	accrue(position, params.RewardPercent, now)
	position.Amount = new(big.Int).Add(position.Amount, amt)
	position.StakedAt = now
	if err := e.state.SetStakingPosition(caller, position); err != nil {
		return err
	}
	if err := e.adjustTotal(amt); err != nil {
		return err
	}
	if err := e.ledger.TransferFrom(e.moduleAddr, caller, token.SymbolSTK, e.moduleAddr, amt); err != nil {
		return err
	}
	e.emit(NewStakedEvent(caller, amt, position))
	return nil
}

// Claim pays the accumulated plus freshly accrued reward in the reward token
// from the vault's pool and resets both counters. Fractional weeks since the
// last whole-week boundary are forfeited by the checkpoint reset.
func (e *Engine) Claim(caller [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if e.ledger == nil {
		return nil, errNilLedger
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	params, err := e.loadParams()
	if err != nil {
		return nil, err
	}
	position, err := e.loadPosition(caller)
	if err != nil {
		return nil, err
	}
	accrue(position, params.RewardPercent, e.now())
	reward := position.Accumulated
	if reward.Sign() == 0 {
		return nil, ErrNothingToClaim
	}
	position.Accumulated = big.NewInt(0)
	if err := e.state.SetStakingPosition(caller, position); err != nil {
		return nil, err
	}
	if err := e.ledger.Transfer(e.moduleAddr, token.SymbolRWD, caller, reward); err != nil {
		return nil, err
	}
	e.emit(NewClaimedEvent(caller, reward))
	return reward, nil
}

// Unstake returns the full staked amount to the caller. The freeze period
// since the last deposit must have elapsed and governance must report no
// active vote lock; each failure is distinct. The accrued reward stays on
// the position for a later Claim.
func (e *Engine) Unstake(caller [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if e.ledger == nil {
		return nil, errNilLedger
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	params, err := e.loadParams()
	if err != nil {
		return nil, err
	}
	position, err := e.loadPosition(caller)
	if err != nil {
		return nil, err
	}
	if position.Amount.Sign() == 0 {
		return nil, ErrNothingStaked
	}
	now := e.now()
	if now < position.StakedAt+params.FreezeSeconds {
		return nil, ErrStakeFrozen
	}
	if e.voteLocks != nil {
		lockedUntil, err := e.voteLocks.CanClaimAt(caller)
		if err != nil {
			return nil, err
		}
		if now < lockedUntil {
			return nil, ErrVoteLocked
		}
	}
	accrue(position, params.RewardPercent, now)
	amount := position.Amount
	position.Amount = big.NewInt(0)
	if err := e.state.SetStakingPosition(caller, position); err != nil {
		return nil, err
	}
	if err := e.adjustTotal(new(big.Int).Neg(amount)); err != nil {
		return nil, err
	}
	if err := e.ledger.Transfer(e.moduleAddr, token.SymbolSTK, caller, amount); err != nil {
		return nil, err
	}
	e.emit(NewUnstakedEvent(caller, amount, position))
	return amount, nil
}

// Position returns a copy of the account's staking record.
func (e *Engine) Position(addr [20]byte) (*Position, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.loadPosition(addr)
}

// VotingPower reports the currently staked amount for governance weighting.
func (e *Engine) VotingPower(addr [20]byte) (*big.Int, error) {
	position, err := e.Position(addr)
	if err != nil {
		return nil, err
	}
	return position.Amount, nil
}

// TotalStaked reports the vault-wide staked amount, the governance quorum
// denominator.
func (e *Engine) TotalStaked() (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	total, err := e.state.StakingTotal()
	if err != nil {
		return nil, err
	}
	if total == nil {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(total), nil
}
