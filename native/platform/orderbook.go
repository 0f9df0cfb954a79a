package platform

import (
	"fmt"
	"math/big"

	nativecommon "acdmchain/native/common"
	"acdmchain/native/token"
)

// AddOrder escrows the seller's tokens with the platform and lists them at a
// fixed per-unit price. The seller must have approved the platform module
// address for at least the order amount; an insufficient balance or allowance
// surfaces as the ledger's own error.
func (e *Engine) AddOrder(seller [20]byte, amount, price *big.Int) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	if e.ledger == nil {
		return 0, errNilLedger
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return 0, err
	}
	amt := cloneBigInt(amount)
	if amt.Sign() <= 0 {
		return 0, fmt.Errorf("platform: order amount must be positive")
	}
	unitPrice := cloneBigInt(price)
	if unitPrice.Sign() <= 0 {
		return 0, fmt.Errorf("platform: order price must be positive")
	}
	round, err := e.loadRound()
	if err != nil {
		return 0, err
	}
	if !round.TradeActive(e.now()) {
		return 0, ErrTradeRoundNotActive
	}
	id, err := e.state.PlatformNextOrderID()
	if err != nil {
		return 0, err
	}
	order := &Order{ID: id, Seller: seller, Price: unitPrice, Amount: amt}
	if err := e.state.PlatformOrderPut(order); err != nil {
		return 0, err
	}
	if err := e.ledger.TransferFrom(e.moduleAddr, seller, token.SymbolACDM, e.moduleAddr, amt); err != nil {
		return 0, err
	}
	e.emit(NewOrderCreatedEvent(order))
	return id, nil
}

// RedeemReceipt reports the exact unit and wei movement of an order fill.
type RedeemReceipt struct {
	Units        *big.Int
	Cost         *big.Int
	Refund       *big.Int
	SellerPayout *big.Int
	FirstFee     *big.Int
	SecondFee    *big.Int
}

// RedeemOrder fills an order with the buyer's payment. Whole units only:
// overpayment past the last affordable unit is refunded, the cost feeds the
// trade-volume accumulator, the redeem referral split goes to the seller's
// referral chain, and the seller receives the remainder. The order's amount
// decrements; a fully filled order is left in place with Amount == 0.
func (e *Engine) RedeemOrder(buyer [20]byte, orderID uint64, payment *big.Int) (*RedeemReceipt, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if e.ledger == nil {
		return nil, errNilLedger
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	pay := cloneBigInt(payment)
	if pay.Sign() <= 0 {
		return nil, fmt.Errorf("platform: payment must be positive")
	}
	round, err := e.loadRound()
	if err != nil {
		return nil, err
	}
	if !round.TradeActive(e.now()) {
		return nil, ErrTradeRoundNotActive
	}
	stored, ok, err := e.state.PlatformOrderGet(orderID)
	if err != nil {
		return nil, err
	}
	if !ok || stored.Empty() {
		return nil, ErrOrderEmpty
	}
	order, err := SanitizeOrder(stored)
	if err != nil {
		return nil, err
	}
	units := new(big.Int).Quo(pay, order.Price)
	if units.Sign() == 0 {
		return nil, ErrPaymentTooSmall
	}
	if units.Cmp(order.Amount) > 0 {
		units = new(big.Int).Set(order.Amount)
	}
	cost := new(big.Int).Mul(units, order.Price)
	refund := new(big.Int).Sub(pay, cost)
	params, err := e.loadParams()
	if err != nil {
		return nil, err
	}
	if err := e.requireFunds(buyer, pay); err != nil {
		return nil, err
	}

	order.Amount = new(big.Int).Sub(order.Amount, units)
	if err := e.state.PlatformOrderPut(order); err != nil {
		return nil, err
	}
	round.TotalTradingSum = new(big.Int).Add(round.TotalTradingSum, cost)
	if err := e.storeRound(round); err != nil {
		return nil, err
	}

	// Payment in, refund out, referral fees, then the seller principal.
	if err := e.transferWei(buyer, e.moduleAddr, pay); err != nil {
		return nil, err
	}
	if refund.Sign() > 0 {
		if err := e.transferWei(e.moduleAddr, buyer, refund); err != nil {
			return nil, err
		}
	}
	firstFee, secondFee, err := e.payRedeemReferrals(order.Seller, cost, params)
	if err != nil {
		return nil, err
	}
	payout := new(big.Int).Sub(cost, firstFee)
	payout.Sub(payout, secondFee)
	if payout.Sign() > 0 {
		if err := e.transferWei(e.moduleAddr, order.Seller, payout); err != nil {
			return nil, err
		}
	}
	if err := e.ledger.Transfer(e.moduleAddr, token.SymbolACDM, buyer, units); err != nil {
		return nil, err
	}

	e.emit(NewOrderRedeemedEvent(order, buyer, units, cost, refund))
	return &RedeemReceipt{
		Units:        units,
		Cost:         cost,
		Refund:       refund,
		SellerPayout: payout,
		FirstFee:     firstFee,
		SecondFee:    secondFee,
	}, nil
}

// RemoveOrder returns the remaining escrowed tokens to the seller and zeroes
// the order. A second removal fails the order-empty precondition.
func (e *Engine) RemoveOrder(seller [20]byte, orderID uint64) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.ledger == nil {
		return errNilLedger
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	stored, ok, err := e.state.PlatformOrderGet(orderID)
	if err != nil {
		return err
	}
	if !ok || stored.Empty() {
		return ErrOrderEmpty
	}
	order, err := SanitizeOrder(stored)
	if err != nil {
		return err
	}
	if order.Seller != seller {
		return ErrNotOrderSeller
	}
	remaining := cloneBigInt(order.Amount)
	order.Amount = big.NewInt(0)
	if err := e.state.PlatformOrderPut(order); err != nil {
		return err
	}
	if err := e.ledger.Transfer(e.moduleAddr, token.SymbolACDM, seller, remaining); err != nil {
		return err
	}
	e.emit(NewOrderRemovedEvent(order, remaining))
	return nil
}

// Order returns a copy of the stored order, if any.
func (e *Engine) Order(orderID uint64) (*Order, bool, error) {
	if e == nil || e.state == nil {
		return nil, false, errNilState
	}
	order, ok, err := e.state.PlatformOrderGet(orderID)
	if err != nil || !ok {
		return nil, ok, err
	}
	return order.Clone(), true, nil
}
