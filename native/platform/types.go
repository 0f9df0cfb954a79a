package platform

import (
	"fmt"
	"math/big"
)

// RoundNeverStarted is the bootstrap sentinel stored in SaleFinishAt at
// genesis. It is distinct from 0 ("finished"/unset) and from any real future
// timestamp.
const RoundNeverStarted int64 = 1

// RoundState is the singleton round clock plus the sale-round pricing state.
// At most one of the two rounds is active at any time; the transition entry
// points on the engine are the only writers.
type RoundState struct {
	SaleFinishAt    int64    `json:"saleFinishAt"`
	TradeFinishAt   int64    `json:"tradeFinishAt"`
	EthPerToken     *big.Int `json:"ethPerToken"`
	TotalTradingSum *big.Int `json:"totalTradingSum"`
	TokensForSale   *big.Int `json:"tokensForSale"`
}

// SaleActive reports whether a sale round is open at the supplied time.
func (r *RoundState) SaleActive(now int64) bool {
	if r == nil {
		return false
	}
	return r.SaleFinishAt > RoundNeverStarted && now < r.SaleFinishAt
}

// TradeActive reports whether a trade round is open at the supplied time.
func (r *RoundState) TradeActive(now int64) bool {
	if r == nil {
		return false
	}
	return now < r.TradeFinishAt
}

// SaleEverStarted reports whether the platform has left the bootstrap state.
func (r *RoundState) SaleEverStarted() bool {
	return r != nil && r.SaleFinishAt != RoundNeverStarted
}

// Clone returns a deep copy of the round state.
func (r *RoundState) Clone() *RoundState {
	if r == nil {
		return nil
	}
	clone := *r
	clone.EthPerToken = cloneBigInt(r.EthPerToken)
	clone.TotalTradingSum = cloneBigInt(r.TotalTradingSum)
	clone.TokensForSale = cloneBigInt(r.TokensForSale)
	return &clone
}

// SanitizeRoundState validates the stored round state and returns a clone with
// non-nil amounts.
func SanitizeRoundState(r *RoundState) (*RoundState, error) {
	if r == nil {
		return nil, fmt.Errorf("nil round state")
	}
	clone := r.Clone()
	if clone.SaleFinishAt < 0 || clone.TradeFinishAt < 0 {
		return nil, fmt.Errorf("round deadlines must not be negative")
	}
	if clone.EthPerToken.Sign() <= 0 {
		return nil, fmt.Errorf("eth per token must be positive")
	}
	if clone.TotalTradingSum.Sign() < 0 {
		return nil, fmt.Errorf("total trading sum must not be negative")
	}
	if clone.TokensForSale.Sign() < 0 {
		return nil, fmt.Errorf("tokens for sale must not be negative")
	}
	return clone, nil
}

// Order is an open offer to sell a fixed amount of ACDM at a fixed per-unit
// price, escrowed with the platform. Orders are never deleted; a fully filled
// or removed order simply has Amount == 0 and is indistinguishable from one
// that never existed.
type Order struct {
	ID     uint64   `json:"id"`
	Seller [20]byte `json:"seller"`
	Price  *big.Int `json:"price"`
	Amount *big.Int `json:"amount"`
}

// Empty reports whether the order has no remaining units.
func (o *Order) Empty() bool {
	return o == nil || o.Amount == nil || o.Amount.Sign() == 0
}

// Clone returns a deep copy of the order.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Price = cloneBigInt(o.Price)
	clone.Amount = cloneBigInt(o.Amount)
	return &clone
}

// SanitizeOrder validates a stored order and returns a clone with non-nil
// amounts.
func SanitizeOrder(o *Order) (*Order, error) {
	if o == nil {
		return nil, fmt.Errorf("nil order")
	}
	clone := o.Clone()
	if clone.Price.Sign() <= 0 {
		return nil, fmt.Errorf("order price must be positive")
	}
	if clone.Amount.Sign() < 0 {
		return nil, fmt.Errorf("order amount must not be negative")
	}
	return clone, nil
}

// Params holds the governance-controlled platform knobs. Referral percentages
// are expressed in parts-per-thousand of the amount spent.
type Params struct {
	RoundSeconds      int64  `json:"roundSeconds"`
	BuyFirstPerMille  uint32 `json:"buyFirstPerMille"`
	BuySecondPerMille uint32 `json:"buySecondPerMille"`
	RedeemPerMille    uint32 `json:"redeemPerMille"`
}

// DefaultParams returns the deploy-time defaults: 3-day rounds, 5%/3% buy
// referral split, 2.5% per level on the redeem path.
func DefaultParams() Params {
	return Params{
		RoundSeconds:      3 * 24 * 60 * 60,
		BuyFirstPerMille:  50,
		BuySecondPerMille: 30,
		RedeemPerMille:    25,
	}
}

// Validate enforces the combined range invariants on the parameter set.
func (p Params) Validate() error {
	if p.RoundSeconds <= 0 {
		return fmt.Errorf("round time must be positive")
	}
	if p.BuyFirstPerMille+p.BuySecondPerMille > 1000 {
		return fmt.Errorf("buy referral fees exceed 1000 per mille combined")
	}
	if 2*p.RedeemPerMille > 1000 {
		return fmt.Errorf("redeem referral fee exceeds 500 per mille per level")
	}
	return nil
}

// PricingConfig pins the deploy-time economics: the initial per-unit price,
// the absolute increment applied by the price recurrence, and the synthetic
// trading sum that seeds the first sale round's supply.
type PricingConfig struct {
	InitialEthPerToken *big.Int
	PriceIncrementWei  *big.Int
	InitialTradingSum  *big.Int
}

// DefaultPricing returns the documented launch economics: 0.00001 ETH per
// unit, +0.000004 ETH per round, and a 1 ETH seed volume (100 000 first-round
// units).
func DefaultPricing() PricingConfig {
	return PricingConfig{
		InitialEthPerToken: big.NewInt(10_000_000_000_000),
		PriceIncrementWei:  big.NewInt(4_000_000_000_000),
		InitialTradingSum:  new(big.Int).Mul(big.NewInt(1_000_000_000), big.NewInt(1_000_000_000)),
	}
}

func (c PricingConfig) validate() error {
	if c.InitialEthPerToken == nil || c.InitialEthPerToken.Sign() <= 0 {
		return fmt.Errorf("initial price must be positive")
	}
	if c.PriceIncrementWei == nil || c.PriceIncrementWei.Sign() < 0 {
		return fmt.Errorf("price increment must not be negative")
	}
	if c.InitialTradingSum == nil || c.InitialTradingSum.Sign() < 0 {
		return fmt.Errorf("initial trading sum must not be negative")
	}
	return nil
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
