package governance

import (
	"fmt"
	"strconv"

	"acdmchain/crypto"
	"acdmchain/native/platform"
	"acdmchain/native/staking"
)

// ParamExecutor dispatches passed proposals to the platform and staking
// engines' setters, invoking them as the governance module address.
type ParamExecutor struct {
	Platform *platform.Engine
	Staking  *staking.Engine
	Caller   [20]byte
}

func (x *ParamExecutor) Execute(action Action) error {
	if err := action.Validate(); err != nil {
		return err
	}
	switch action.Target {
	case TargetPlatform:
		return x.executePlatform(action)
	case TargetStaking:
		return x.executeStaking(action)
	}
	return fmt.Errorf("governance: unknown target %q", action.Target)
}

func (x *ParamExecutor) executePlatform(action Action) error {
	if x.Platform == nil {
		return fmt.Errorf("governance: platform engine not wired")
	}
	switch action.Method {
	case MethodSetRoundTime:
		seconds, err := parseInt64(action.Args[0])
		if err != nil {
			return err
		}
		return x.Platform.SetRoundTime(x.Caller, seconds)
	case MethodSetReferralBuy:
		first, err := parseUint32(action.Args[0])
		if err != nil {
			return err
		}
		second, err := parseUint32(action.Args[1])
		if err != nil {
			return err
		}
		return x.Platform.SetReferralRewardBuyACDM(x.Caller, first, second)
	case MethodSetReferralRedeem:
		perMille, err := parseUint32(action.Args[0])
		if err != nil {
			return err
		}
		return x.Platform.SetReferralRewardRedeemOrder(x.Caller, perMille)
	case MethodTransferOwnership:
		newOwner, err := parseAddress(action.Args[0])
		if err != nil {
			return err
		}
		return x.Platform.TransferOwnership(x.Caller, newOwner)
	}
	return fmt.Errorf("governance: unhandled platform method %q", action.Method)
}

func (x *ParamExecutor) executeStaking(action Action) error {
	if x.Staking == nil {
		return fmt.Errorf("governance: staking engine not wired")
	}
	switch action.Method {
	case MethodSetFreezeTime:
		seconds, err := parseInt64(action.Args[0])
		if err != nil {
			return err
		}
		return x.Staking.SetFreezeTime(x.Caller, seconds)
	case MethodSetPercent:
		percent, err := parseUint32(action.Args[0])
		if err != nil {
			return err
		}
		return x.Staking.SetPercent(x.Caller, percent)
	case MethodTransferOwnership:
		newOwner, err := parseAddress(action.Args[0])
		if err != nil {
			return err
		}
		return x.Staking.TransferOwnership(x.Caller, newOwner)
	}
	return fmt.Errorf("governance: unhandled staking method %q", action.Method)
}

func parseInt64(raw string) (int64, error) {
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("governance: invalid integer argument %q", raw)
	}
	return value, nil
}

func parseUint32(raw string) (uint32, error) {
	value, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("governance: invalid unsigned argument %q", raw)
	}
	return uint32(value), nil
}

func parseAddress(raw string) ([20]byte, error) {
	addr, err := crypto.DecodeAddress(raw)
	if err != nil {
		return [20]byte{}, fmt.Errorf("governance: invalid address argument %q", raw)
	}
	var out [20]byte
	copy(out[:], addr.Bytes())
	return out, nil
}
