package platform

import (
	"math/big"

	nativecommon "acdmchain/native/common"
)

// Register records the caller's direct referrer. Each account may register at
// most once; the address is stored unconditionally, including the zero
// address or the caller itself (see the platform design notes).
func (e *Engine) Register(caller, referrer [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if _, ok, err := e.state.PlatformReferrerOf(caller); err != nil {
		return err
	} else if ok {
		return ErrAlreadyRegistered
	}
	if err := e.state.PlatformSetReferrer(caller, referrer); err != nil {
		return err
	}
	e.emit(NewRegisteredEvent(caller, referrer))
	return nil
}

// ReferrerOf returns the stored direct referrer for the address, if any.
func (e *Engine) ReferrerOf(addr [20]byte) ([20]byte, bool, error) {
	if e == nil || e.state == nil {
		return [20]byte{}, false, errNilState
	}
	return e.state.PlatformReferrerOf(addr)
}

// referralChain resolves the first- and second-level referrers for the
// account. The second level is always looked up through the first at call
// time, never cached: the upstream edge may be registered after the
// downstream one.
func (e *Engine) referralChain(addr [20]byte) (first [20]byte, hasFirst bool, second [20]byte, hasSecond bool, err error) {
	first, hasFirst, err = e.state.PlatformReferrerOf(addr)
	if err != nil || !hasFirst {
		return
	}
	second, hasSecond, err = e.state.PlatformReferrerOf(first)
	return
}

// feeShare computes amount * perMille / 1000 with truncation.
func feeShare(amount *big.Int, perMille uint32) *big.Int {
	share := new(big.Int).Mul(amount, big.NewInt(int64(perMille)))
	return share.Quo(share, big.NewInt(1000))
}

// payBuyReferrals distributes the sale-round referral split from the spent
// amount. Shares with no referrer at that level stay on the module balance.
func (e *Engine) payBuyReferrals(buyer [20]byte, spent *big.Int, params Params) error {
	first, hasFirst, second, hasSecond, err := e.referralChain(buyer)
	if err != nil {
		return err
	}
	if hasFirst {
		if fee := feeShare(spent, params.BuyFirstPerMille); fee.Sign() > 0 {
			if err := e.transferWei(e.moduleAddr, first, fee); err != nil {
				return err
			}
		}
	}
	if hasSecond {
		if fee := feeShare(spent, params.BuySecondPerMille); fee.Sign() > 0 {
			if err := e.transferWei(e.moduleAddr, second, fee); err != nil {
				return err
			}
		}
	}
	return nil
}

// payRedeemReferrals distributes the trade-round referral split on the
// seller's chain. Both levels use the same percentage, each computed
// independently from the pre-deduction cost. The returned fees are the
// amounts actually paid; levels without a referrer report zero.
func (e *Engine) payRedeemReferrals(seller [20]byte, cost *big.Int, params Params) (*big.Int, *big.Int, error) {
	firstFee := big.NewInt(0)
	secondFee := big.NewInt(0)
	first, hasFirst, second, hasSecond, err := e.referralChain(seller)
	if err != nil {
		return nil, nil, err
	}
	if hasFirst {
		if fee := feeShare(cost, params.RedeemPerMille); fee.Sign() > 0 {
			if err := e.transferWei(e.moduleAddr, first, fee); err != nil {
				return nil, nil, err
			}
			firstFee = fee
		}
	}
	if hasSecond {
		if fee := feeShare(cost, params.RedeemPerMille); fee.Sign() > 0 {
			if err := e.transferWei(e.moduleAddr, second, fee); err != nil {
				return nil, nil, err
			}
			secondFee = fee
		}
	}
	return firstFee, secondFee, nil
}
