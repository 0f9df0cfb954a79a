package staking

import "fmt"

func (e *Engine) requireAuthority(caller [20]byte) error {
	if caller != e.authority {
		return ErrNotAuthority
	}
	return nil
}

// Params returns the effective parameter set (stored values or defaults).
func (e *Engine) Params() (Params, error) {
	if e == nil || e.state == nil {
		return Params{}, errNilState
	}
	return e.loadParams()
}

// SetFreezeTime updates the withdrawal freeze period. DAO-gated. Applies to
// the next freeze-check, including positions staked under the old value.
func (e *Engine) SetFreezeTime(caller [20]byte, seconds int64) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := e.requireAuthority(caller); err != nil {
		return err
	}
	params, err := e.loadParams()
	if err != nil {
		return err
	}
	params.FreezeSeconds = seconds
	if err := params.Validate(); err != nil {
		return fmt.Errorf("staking: %w", err)
	}
	if err := e.state.SetStakingParams(&params); err != nil {
		return err
	}
	e.emit(NewParamsUpdatedEvent(params))
	return nil
}

// SetPercent updates the weekly reward percentage. DAO-gated. Rewards already
// folded into accumulated balances keep the old rate; only windows closed
// after the change use the new one.
func (e *Engine) SetPercent(caller [20]byte, percent uint32) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := e.requireAuthority(caller); err != nil {
		return err
	}
	params, err := e.loadParams()
	if err != nil {
		return err
	}
	params.RewardPercent = percent
	if err := params.Validate(); err != nil {
		return fmt.Errorf("staking: %w", err)
	}
	if err := e.state.SetStakingParams(&params); err != nil {
		return err
	}
	e.emit(NewParamsUpdatedEvent(params))
	return nil
}

// TransferOwnership hands the parameter authority to a new address.
func (e *Engine) TransferOwnership(caller, newOwner [20]byte) error {
	if err := e.requireAuthority(caller); err != nil {
		return err
	}
	e.authority = newOwner
	e.emit(NewOwnershipTransferredEvent(caller, newOwner))
	return nil
}
