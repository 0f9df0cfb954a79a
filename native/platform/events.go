package platform

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"acdmchain/core/types"
)

const (
	EventTypeSaleStarted   = "platform.sale.started"
	EventTypeSaleSoldOut   = "platform.sale.soldout"
	EventTypePurchase      = "platform.sale.purchase"
	EventTypeTradeStarted  = "platform.trade.started"
	EventTypeOrderCreated  = "platform.order.created"
	EventTypeOrderRedeemed = "platform.order.redeemed"
	EventTypeOrderRemoved  = "platform.order.removed"
	EventTypeRegistered    = "platform.referral.registered"
	EventTypeParamsUpdated = "platform.params.updated"
	EventTypeOwnerChanged  = "platform.owner.transferred"
)

type platformEvent struct {
	evt *types.Event
}

func (p platformEvent) EventType() string {
	if p.evt == nil {
		return ""
	}
	return p.evt.Type
}

func (p platformEvent) Event() *types.Event { return p.evt }

func roundAttributes(r *RoundState) map[string]string {
	attrs := make(map[string]string)
	if r == nil {
		return attrs
	}
	attrs["saleFinishAt"] = strconv.FormatInt(r.SaleFinishAt, 10)
	attrs["tradeFinishAt"] = strconv.FormatInt(r.TradeFinishAt, 10)
	attrs["ethPerToken"] = cloneBigInt(r.EthPerToken).String()
	attrs["totalTradingSum"] = cloneBigInt(r.TotalTradingSum).String()
	attrs["tokensForSale"] = cloneBigInt(r.TokensForSale).String()
	return attrs
}

// NewSaleStartedEvent carries the computed supply, price and deadline of the
// freshly opened sale round.
func NewSaleStartedEvent(r *RoundState) *types.Event {
	return &types.Event{Type: EventTypeSaleStarted, Attributes: roundAttributes(r)}
}

// NewSaleSoldOutEvent marks a sale round force-ended by supply exhaustion.
func NewSaleSoldOutEvent(r *RoundState) *types.Event {
	return &types.Event{Type: EventTypeSaleSoldOut, Attributes: roundAttributes(r)}
}

// NewTradeStartedEvent carries the recomputed price for the next sale round.
func NewTradeStartedEvent(r *RoundState) *types.Event {
	return &types.Event{Type: EventTypeTradeStarted, Attributes: roundAttributes(r)}
}

// NewPurchaseEvent reports a sale-round purchase with its exact wei split.
func NewPurchaseEvent(buyer [20]byte, units, spent, refund *big.Int, r *RoundState) *types.Event {
	attrs := roundAttributes(r)
	attrs["buyer"] = hex.EncodeToString(buyer[:])
	attrs["units"] = units.String()
	attrs["spent"] = spent.String()
	attrs["refund"] = refund.String()
	return &types.Event{Type: EventTypePurchase, Attributes: attrs}
}

func orderAttributes(o *Order) map[string]string {
	attrs := make(map[string]string)
	if o == nil {
		return attrs
	}
	attrs["orderId"] = strconv.FormatUint(o.ID, 10)
	attrs["seller"] = hex.EncodeToString(o.Seller[:])
	attrs["price"] = cloneBigInt(o.Price).String()
	attrs["remaining"] = cloneBigInt(o.Amount).String()
	return attrs
}

// NewOrderCreatedEvent reports a freshly escrowed order.
func NewOrderCreatedEvent(o *Order) *types.Event {
	return &types.Event{Type: EventTypeOrderCreated, Attributes: orderAttributes(o)}
}

// NewOrderRedeemedEvent reports a partial or full fill.
func NewOrderRedeemedEvent(o *Order, buyer [20]byte, units, cost, refund *big.Int) *types.Event {
	attrs := orderAttributes(o)
	attrs["buyer"] = hex.EncodeToString(buyer[:])
	attrs["units"] = units.String()
	attrs["cost"] = cost.String()
	attrs["refund"] = refund.String()
	return &types.Event{Type: EventTypeOrderRedeemed, Attributes: attrs}
}

// NewOrderRemovedEvent reports the amount returned to the seller.
func NewOrderRemovedEvent(o *Order, returned *big.Int) *types.Event {
	attrs := orderAttributes(o)
	attrs["returned"] = returned.String()
	return &types.Event{Type: EventTypeOrderRemoved, Attributes: attrs}
}

// NewRegisteredEvent reports a new referral edge.
func NewRegisteredEvent(account, referrer [20]byte) *types.Event {
	return &types.Event{Type: EventTypeRegistered, Attributes: map[string]string{
		"account":  hex.EncodeToString(account[:]),
		"referrer": hex.EncodeToString(referrer[:]),
	}}
}

// NewParamsUpdatedEvent carries the full post-change parameter set.
func NewParamsUpdatedEvent(p Params) *types.Event {
	return &types.Event{Type: EventTypeParamsUpdated, Attributes: map[string]string{
		"roundSeconds":      strconv.FormatInt(p.RoundSeconds, 10),
		"buyFirstPerMille":  strconv.FormatUint(uint64(p.BuyFirstPerMille), 10),
		"buySecondPerMille": strconv.FormatUint(uint64(p.BuySecondPerMille), 10),
		"redeemPerMille":    strconv.FormatUint(uint64(p.RedeemPerMille), 10),
	}}
}

// NewOwnershipTransferredEvent reports an authority change.
func NewOwnershipTransferredEvent(from, to [20]byte) *types.Event {
	return &types.Event{Type: EventTypeOwnerChanged, Attributes: map[string]string{
		"previousOwner": hex.EncodeToString(from[:]),
		"newOwner":      hex.EncodeToString(to[:]),
	}}
}
