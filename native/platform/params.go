package platform

import "fmt"

func (e *Engine) requireAuthority(caller [20]byte) error {
	if caller != e.authority {
		return ErrNotAuthority
	}
	return nil
}

// Params returns the effective parameter set (stored values or defaults).
func (e *Engine) Params() (Params, error) {
	return e.loadParams()
}

// SetRoundTime updates the shared sale/trade round duration. DAO-gated. The
// new duration applies from the next round start; an open round keeps its
// deadline.
func (e *Engine) SetRoundTime(caller [20]byte, seconds int64) error {
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
	params.RoundSeconds = seconds
	if err := params.Validate(); err != nil {
		return fmt.Errorf("platform: %w", err)
	}
	if err := e.state.SetPlatformParams(&params); err != nil {
		return err
	}
	e.emit(NewParamsUpdatedEvent(params))
	return nil
}

// SetReferralRewardBuyACDM updates the sale-path referral split. DAO-gated.
func (e *Engine) SetReferralRewardBuyACDM(caller [20]byte, first, second uint32) error {
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
	params.BuyFirstPerMille = first
	params.BuySecondPerMille = second
	if err := params.Validate(); err != nil {
		return fmt.Errorf("platform: %w", err)
	}
	if err := e.state.SetPlatformParams(&params); err != nil {
		return err
	}
	e.emit(NewParamsUpdatedEvent(params))
	return nil
}

// SetReferralRewardRedeemOrder updates the per-level redeem-path referral
// percentage. DAO-gated.
func (e *Engine) SetReferralRewardRedeemOrder(caller [20]byte, perMille uint32) error {
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
	params.RedeemPerMille = perMille
	if err := params.Validate(); err != nil {
		return fmt.Errorf("platform: %w", err)
	}
	if err := e.state.SetPlatformParams(&params); err != nil {
		return err
	}
	e.emit(NewParamsUpdatedEvent(params))
	return nil
}

// TransferOwnership hands the parameter authority to a new address, normally
// the DAO once governance goes live.
func (e *Engine) TransferOwnership(caller, newOwner [20]byte) error {
	if err := e.requireAuthority(caller); err != nil {
		return err
	}
	e.authority = newOwner
	e.emit(NewOwnershipTransferredEvent(caller, newOwner))
	return nil
}
