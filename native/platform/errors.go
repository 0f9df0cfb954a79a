package platform

import "errors"

var (
	errNilState  = errors.New("platform engine: state not configured")
	errNilLedger = errors.New("platform engine: ledger not configured")

	// ErrSaleRoundActive rejects round transitions while a sale is open.
	ErrSaleRoundActive = errors.New("platform: sale round already active")
	// ErrTradeRoundActive rejects round transitions while a trade round is open.
	ErrTradeRoundActive = errors.New("platform: trade round still active")
	// ErrSaleRoundNotActive rejects purchases outside an open sale round.
	ErrSaleRoundNotActive = errors.New("platform: sale round is not active")
	// ErrTradeRoundNotActive rejects order operations outside an open trade round.
	ErrTradeRoundNotActive = errors.New("platform: trade round is not active")
	// ErrSaleNeverStarted rejects a trade round before the first sale round.
	ErrSaleNeverStarted = errors.New("platform: sale round has never started")
	// ErrPaymentTooSmall marks a payment that cannot buy even one whole unit.
	ErrPaymentTooSmall = errors.New("platform: payment cannot buy a single unit")
	// ErrSoldOut marks a purchase against a sale round with no remaining supply.
	ErrSoldOut = errors.New("platform: sale round supply exhausted")
	// ErrOrderEmpty covers redeeming or removing an order with no remaining
	// amount, whether filled, removed, or never created.
	ErrOrderEmpty = errors.New("platform: order is empty")
	// ErrNotOrderSeller rejects removals by anyone but the order's seller.
	ErrNotOrderSeller = errors.New("platform: caller is not the order seller")
	// ErrAlreadyRegistered rejects a second referral registration.
	ErrAlreadyRegistered = errors.New("platform: referrer already set")
	// ErrNotAuthority rejects configuration calls from outside the DAO/owner.
	ErrNotAuthority = errors.New("platform: caller is not the owner")
	// ErrInsufficientFunds marks a payment exceeding the caller's wei balance.
	ErrInsufficientFunds = errors.New("platform: insufficient ETH balance")
)
