package platform

import (
	"fmt"
	"math/big"
	"time"

	"acdmchain/core/events"
	"acdmchain/core/types"
	nativecommon "acdmchain/native/common"
	"acdmchain/native/token"
)

const moduleName = "platform"

type engineState interface {
	PlatformRound() (*RoundState, bool, error)
	SetPlatformRound(*RoundState) error
	PlatformParams() (*Params, bool, error)
	SetPlatformParams(*Params) error
	PlatformNextOrderID() (uint64, error)
	PlatformOrderPut(*Order) error
	PlatformOrderGet(id uint64) (*Order, bool, error)
	PlatformReferrerOf(addr [20]byte) ([20]byte, bool, error)
	PlatformSetReferrer(addr, referrer [20]byte) error
	GetAccount(addr []byte) (*types.Account, error)
	PutAccount(addr []byte, account *types.Account) error
}

// Ledger is the fungible-token collaborator boundary. The platform mints the
// sale token on purchases, escrows order amounts via the transfer-from path,
// and pays escrowed tokens back out on redemption and removal.
type Ledger interface {
	Mint(caller [20]byte, symbol string, to [20]byte, amount *big.Int) error
	Transfer(caller [20]byte, symbol string, to [20]byte, amount *big.Int) error
	TransferFrom(caller, from [20]byte, symbol string, to [20]byte, amount *big.Int) error
}

// Engine runs the two-round state machine, the trade-round order book, and
// the referral fee distribution. Every entry point validates first, mutates
// internal state second, and performs payouts last, so a failing transfer
// aborts the whole call without leaving state partially updated.
type Engine struct {
	state      engineState
	ledger     Ledger
	emitter    events.Emitter
	nowFn      func() int64
	pauses     nativecommon.PauseView
	moduleAddr [20]byte
	authority  [20]byte
	pricing    PricingConfig
}

// NewEngine constructs a platform engine bound to the supplied ledger.
func NewEngine(ledger Ledger) *Engine {
	return &Engine{
		ledger:  ledger,
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
		pricing: DefaultPricing(),
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source, primarily used in tests.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetPauses wires the administrative halt switch.
func (e *Engine) SetPauses(p nativecommon.PauseView) { e.pauses = p }

// SetModuleAddress configures the address custodying escrowed tokens and
// retained ETH.
func (e *Engine) SetModuleAddress(addr [20]byte) { e.moduleAddr = addr }

// SetAuthority configures the owner/DAO address allowed to mutate parameters.
func (e *Engine) SetAuthority(addr [20]byte) { e.authority = addr }

// Authority returns the current owner/DAO address.
func (e *Engine) Authority() [20]byte { return e.authority }

// SetPricing overrides the deploy-time economics. Must be called before the
// first round starts; later calls would corrupt the recurrence.
func (e *Engine) SetPricing(cfg PricingConfig) error {
	if err := cfg.validate(); err != nil {
		return fmt.Errorf("platform: %w", err)
	}
	e.pricing = PricingConfig{
		InitialEthPerToken: cloneBigInt(cfg.InitialEthPerToken),
		PriceIncrementWei:  cloneBigInt(cfg.PriceIncrementWei),
		InitialTradingSum:  cloneBigInt(cfg.InitialTradingSum),
	}
	return nil
}

func (e *Engine) emit(evt *types.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(platformEvent{evt: evt})
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

// Now exposes the engine clock so read-side callers evaluate round activity
// against the same time source the engine mutates with.
func (e *Engine) Now() int64 { return e.now() }

// loadRound returns the persisted round state, or the bootstrap state when the
// platform has never run a round.
func (e *Engine) loadRound() (*RoundState, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	round, ok, err := e.state.PlatformRound()
	if err != nil {
		return nil, err
	}
	if !ok {
		return &RoundState{
			SaleFinishAt:    RoundNeverStarted,
			EthPerToken:     cloneBigInt(e.pricing.InitialEthPerToken),
			TotalTradingSum: cloneBigInt(e.pricing.InitialTradingSum),
			TokensForSale:   big.NewInt(0),
		}, nil
	}
	return SanitizeRoundState(round)
}

func (e *Engine) storeRound(round *RoundState) error {
	sanitized, err := SanitizeRoundState(round)
	if err != nil {
		return err
	}
	return e.state.SetPlatformRound(sanitized)
}

func (e *Engine) loadParams() (Params, error) {
	if e == nil || e.state == nil {
		return Params{}, errNilState
	}
	params, ok, err := e.state.PlatformParams()
	if err != nil {
		return Params{}, err
	}
	if !ok || params == nil {
		return DefaultParams(), nil
	}
	if err := params.Validate(); err != nil {
		return Params{}, fmt.Errorf("platform: stored params invalid: %w", err)
	}
	return *params, nil
}

// Round returns a copy of the current round clock and pricing state.
func (e *Engine) Round() (*RoundState, error) {
	return e.loadRound()
}

// requireFunds checks the payer can cover the amount before any state is
// mutated, keeping a later transfer failure impossible in the normal path.
func (e *Engine) requireFunds(addr [20]byte, amount *big.Int) error {
	acc, err := e.state.GetAccount(addr[:])
	if err != nil {
		return err
	}
	acc = types.EnsureAccount(acc)
	if acc.BalanceWei.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}
	return nil
}

// transferWei moves native currency between accounts. A sender balance below
// the amount aborts the transfer with no movement.
func (e *Engine) transferWei(from, to [20]byte, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	amt := cloneBigInt(amount)
	if amt.Sign() == 0 {
		return nil
	}
	if amt.Sign() < 0 {
		return fmt.Errorf("platform: negative transfer amount")
	}
	fromAcc, err := e.state.GetAccount(from[:])
	if err != nil {
		return err
	}
	fromAcc = types.EnsureAccount(fromAcc)
	if fromAcc.BalanceWei.Cmp(amt) < 0 {
		return ErrInsufficientFunds
	}
	toAcc, err := e.state.GetAccount(to[:])
	if err != nil {
		return err
	}
	toAcc = types.EnsureAccount(toAcc)
	fromAcc.BalanceWei = new(big.Int).Sub(fromAcc.BalanceWei, amt)
	toAcc.BalanceWei = new(big.Int).Add(toAcc.BalanceWei, amt)
	if err := e.state.PutAccount(from[:], fromAcc); err != nil {
		return err
	}
	return e.state.PutAccount(to[:], toAcc)
}

// StartSaleRound opens the next sale round. Callable by anyone once neither
// round is active. The sellable supply is the prior trade round's ETH volume
// divided by the current unit price; the fractional remainder of that
// division is discarded permanently.
func (e *Engine) StartSaleRound() (*RoundState, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	round, err := e.loadRound()
	if err != nil {
		return nil, err
	}
	now := e.now()
	if round.SaleActive(now) {
		return nil, ErrSaleRoundActive
	}
	if round.TradeActive(now) {
		return nil, ErrTradeRoundActive
	}
	params, err := e.loadParams()
	if err != nil {
		return nil, err
	}
	round.TokensForSale = new(big.Int).Quo(round.TotalTradingSum, round.EthPerToken)
	round.SaleFinishAt = now + params.RoundSeconds
	round.TradeFinishAt = 0
	if err := e.storeRound(round); err != nil {
		return nil, err
	}
	e.emit(NewSaleStartedEvent(round))
	return round.Clone(), nil
}

// PurchaseReceipt reports the exact unit and wei movement of a sale purchase.
type PurchaseReceipt struct {
	Units  *big.Int
	Spent  *big.Int
	Refund *big.Int
}

// BuyACDM sells freshly minted units to the buyer at the round-fixed price.
// The payment is debited in full, whole-unit overpayment is refunded, the buy
// referral split is paid from the spent amount, and the remainder stays on
// the module balance. Supply exhaustion force-ends the sale round.
func (e *Engine) BuyACDM(buyer [20]byte, payment *big.Int) (*PurchaseReceipt, error) {
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
	now := e.now()
	if !round.SaleActive(now) {
		return nil, ErrSaleRoundNotActive
	}
	units := new(big.Int).Quo(pay, round.EthPerToken)
	if units.Sign() == 0 {
		return nil, ErrPaymentTooSmall
	}
	if round.TokensForSale.Sign() == 0 {
		return nil, ErrSoldOut
	}
	if units.Cmp(round.TokensForSale) > 0 {
		units = new(big.Int).Set(round.TokensForSale)
	}
	spent := new(big.Int).Mul(units, round.EthPerToken)
	refund := new(big.Int).Sub(pay, spent)
	params, err := e.loadParams()
	if err != nil {
		return nil, err
	}
	if err := e.requireFunds(buyer, pay); err != nil {
		return nil, err
	}

	round.TokensForSale = new(big.Int).Sub(round.TokensForSale, units)
	soldOut := round.TokensForSale.Sign() == 0
	if soldOut {
		round.SaleFinishAt = 0
	}
	if err := e.storeRound(round); err != nil {
		return nil, err
	}

	// Payment in, then refund before referral splits before the mint.
	if err := e.transferWei(buyer, e.moduleAddr, pay); err != nil {
		return nil, err
	}
	if refund.Sign() > 0 {
		if err := e.transferWei(e.moduleAddr, buyer, refund); err != nil {
			return nil, err
		}
	}
	if err := e.payBuyReferrals(buyer, spent, params); err != nil {
		return nil, err
	}
	if err := e.ledger.Mint(e.moduleAddr, token.SymbolACDM, buyer, units); err != nil {
		return nil, err
	}

	e.emit(NewPurchaseEvent(buyer, units, spent, refund, round))
	if soldOut {
		e.emit(NewSaleSoldOutEvent(round))
	}
	return &PurchaseReceipt{Units: units, Spent: spent, Refund: refund}, nil
}

// StartTradeRound closes the sale phase and opens the order book. The unit
// price for the following sale round is raised by the fixed recurrence
// price*103/100 + increment, and the trade volume accumulator resets.
func (e *Engine) StartTradeRound() (*RoundState, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	round, err := e.loadRound()
	if err != nil {
		return nil, err
	}
	if !round.SaleEverStarted() {
		return nil, ErrSaleNeverStarted
	}
	now := e.now()
	if round.SaleActive(now) {
		return nil, ErrSaleRoundActive
	}
	if round.TradeActive(now) {
		return nil, ErrTradeRoundActive
	}
	params, err := e.loadParams()
	if err != nil {
		return nil, err
	}
	next := new(big.Int).Mul(round.EthPerToken, big.NewInt(103))
	next.Quo(next, big.NewInt(100))
	next.Add(next, e.pricing.PriceIncrementWei)
	round.EthPerToken = next
	round.TotalTradingSum = big.NewInt(0)
	round.TradeFinishAt = now + params.RoundSeconds
	round.SaleFinishAt = 0
	if err := e.storeRound(round); err != nil {
		return nil, err
	}
	e.emit(NewTradeStartedEvent(round))
	return round.Clone(), nil
}
