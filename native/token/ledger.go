package token

import (
	"errors"
	"fmt"
	"math/big"

	"acdmchain/core/events"
	"acdmchain/core/types"
)

var (
	errLedgerNilState        = errors.New("token ledger: state not configured")
	ErrInsufficientBalance   = errors.New("token ledger: insufficient balance")
	ErrInsufficientAllowance = errors.New("token ledger: insufficient allowance")
	ErrNotTokenOwner         = errors.New("token ledger: caller is not the token owner")
)

// State describes the persistence hooks the ledger needs from the surrounding
// state implementation.
type State interface {
	TokenBalance(symbol string, addr [20]byte) (*big.Int, error)
	SetTokenBalance(symbol string, addr [20]byte, amount *big.Int) error
	TokenAllowance(symbol string, owner, spender [20]byte) (*big.Int, error)
	SetTokenAllowance(symbol string, owner, spender [20]byte, amount *big.Int) error
	TokenSupply(symbol string) (*big.Int, error)
	SetTokenSupply(symbol string, amount *big.Int) error
	TokenOwner(symbol string) ([20]byte, bool, error)
	SetTokenOwner(symbol string, owner [20]byte) error
}

// Ledger is the fungible token engine. Every mutation either commits fully or
// returns an error with no partial balance movement left behind.
type Ledger struct {
	state   State
	emitter events.Emitter
}

// NewLedger constructs a ledger with a no-op emitter.
func NewLedger() *Ledger {
	return &Ledger{emitter: events.NoopEmitter{}}
}

// SetState configures the state backend used by the ledger.
func (l *Ledger) SetState(state State) { l.state = state }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (l *Ledger) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		l.emitter = events.NoopEmitter{}
		return
	}
	l.emitter = emitter
}

func (l *Ledger) emit(evt *types.Event) {
	if l == nil || l.emitter == nil || evt == nil {
		return
	}
	l.emitter.Emit(tokenEvent{evt: evt})
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

// SetOwner records the address allowed to mint and force-burn the token. The
// first write is unrestricted; subsequent changes must come from the current
// owner.
func (l *Ledger) SetOwner(caller [20]byte, symbol string, owner [20]byte) error {
	if l == nil || l.state == nil {
		return errLedgerNilState
	}
	normalized, err := NormalizeSymbol(symbol)
	if err != nil {
		return err
	}
	current, ok, err := l.state.TokenOwner(normalized)
	if err != nil {
		return err
	}
	if ok && current != caller {
		return ErrNotTokenOwner
	}
	return l.state.SetTokenOwner(normalized, owner)
}

// BalanceOf returns the current balance for the address.
func (l *Ledger) BalanceOf(symbol string, addr [20]byte) (*big.Int, error) {
	if l == nil || l.state == nil {
		return nil, errLedgerNilState
	}
	normalized, err := NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	bal, err := l.state.TokenBalance(normalized, addr)
	if err != nil {
		return nil, err
	}
	return cloneBigInt(bal), nil
}

// Supply returns the total minted supply for the symbol.
func (l *Ledger) Supply(symbol string) (*big.Int, error) {
	if l == nil || l.state == nil {
		return nil, errLedgerNilState
	}
	normalized, err := NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	supply, err := l.state.TokenSupply(normalized)
	if err != nil {
		return nil, err
	}
	return cloneBigInt(supply), nil
}

// Allowance returns the remaining amount the spender may move on behalf of the
// owner.
func (l *Ledger) Allowance(symbol string, owner, spender [20]byte) (*big.Int, error) {
	if l == nil || l.state == nil {
		return nil, errLedgerNilState
	}
	normalized, err := NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	allowance, err := l.state.TokenAllowance(normalized, owner, spender)
	if err != nil {
		return nil, err
	}
	return cloneBigInt(allowance), nil
}

// Mint credits freshly created tokens to the recipient. Only the token owner
// may mint.
func (l *Ledger) Mint(caller [20]byte, symbol string, to [20]byte, amount *big.Int) error {
	if l == nil || l.state == nil {
		return errLedgerNilState
	}
	normalized, err := NormalizeSymbol(symbol)
	if err != nil {
		return err
	}
	amt := cloneBigInt(amount)
	if amt.Sign() <= 0 {
		return fmt.Errorf("token ledger: mint amount must be positive")
	}
	owner, ok, err := l.state.TokenOwner(normalized)
	if err != nil {
		return err
	}
	if !ok || owner != caller {
		return ErrNotTokenOwner
	}
	bal, err := l.state.TokenBalance(normalized, to)
	if err != nil {
		return err
	}
	if err := l.state.SetTokenBalance(normalized, to, new(big.Int).Add(cloneBigInt(bal), amt)); err != nil {
		return err
	}
	supply, err := l.state.TokenSupply(normalized)
	if err != nil {
		return err
	}
	if err := l.state.SetTokenSupply(normalized, new(big.Int).Add(cloneBigInt(supply), amt)); err != nil {
		return err
	}
	l.emit(NewMintEvent(normalized, to, amt))
	return nil
}

// Burn destroys tokens from the caller's own balance.
func (l *Ledger) Burn(caller [20]byte, symbol string, amount *big.Int) error {
	if l == nil || l.state == nil {
		return errLedgerNilState
	}
	normalized, err := NormalizeSymbol(symbol)
	if err != nil {
		return err
	}
	amt := cloneBigInt(amount)
	if amt.Sign() <= 0 {
		return fmt.Errorf("token ledger: burn amount must be positive")
	}
	bal, err := l.state.TokenBalance(normalized, caller)
	if err != nil {
		return err
	}
	current := cloneBigInt(bal)
	if current.Cmp(amt) < 0 {
		return ErrInsufficientBalance
	}
	if err := l.state.SetTokenBalance(normalized, caller, current.Sub(current, amt)); err != nil {
		return err
	}
	supply, err := l.state.TokenSupply(normalized)
	if err != nil {
		return err
	}
	if err := l.state.SetTokenSupply(normalized, new(big.Int).Sub(cloneBigInt(supply), amt)); err != nil {
		return err
	}
	l.emit(NewBurnEvent(normalized, caller, amt))
	return nil
}

// Transfer moves tokens from the caller to the recipient.
func (l *Ledger) Transfer(caller [20]byte, symbol string, to [20]byte, amount *big.Int) error {
	if l == nil || l.state == nil {
		return errLedgerNilState
	}
	normalized, err := NormalizeSymbol(symbol)
	if err != nil {
		return err
	}
	if err := l.move(normalized, caller, to, amount); err != nil {
		return err
	}
	l.emit(NewTransferEvent(normalized, caller, to, cloneBigInt(amount)))
	return nil
}

// TransferFrom moves tokens from the owner to the recipient using the caller's
// allowance. Insufficient allowance or balance fails loudly with no partial
// movement.
func (l *Ledger) TransferFrom(caller, from [20]byte, symbol string, to [20]byte, amount *big.Int) error {
	if l == nil || l.state == nil {
		return errLedgerNilState
	}
	normalized, err := NormalizeSymbol(symbol)
	if err != nil {
		return err
	}
	amt := cloneBigInt(amount)
	if amt.Sign() <= 0 {
		return fmt.Errorf("token ledger: transfer amount must be positive")
	}
	if caller != from {
		allowance, err := l.state.TokenAllowance(normalized, from, caller)
		if err != nil {
			return err
		}
		remaining := cloneBigInt(allowance)
		if remaining.Cmp(amt) < 0 {
			return ErrInsufficientAllowance
		}
		if err := l.state.SetTokenAllowance(normalized, from, caller, remaining.Sub(remaining, amt)); err != nil {
			return err
		}
	}
	if err := l.move(normalized, from, to, amt); err != nil {
		return err
	}
	l.emit(NewTransferEvent(normalized, from, to, amt))
	return nil
}

// Approve sets the spender allowance to the exact amount supplied.
func (l *Ledger) Approve(caller [20]byte, symbol string, spender [20]byte, amount *big.Int) error {
	if l == nil || l.state == nil {
		return errLedgerNilState
	}
	normalized, err := NormalizeSymbol(symbol)
	if err != nil {
		return err
	}
	amt := cloneBigInt(amount)
	if amt.Sign() < 0 {
		return fmt.Errorf("token ledger: allowance must not be negative")
	}
	if err := l.state.SetTokenAllowance(normalized, caller, spender, amt); err != nil {
		return err
	}
	l.emit(NewApprovalEvent(normalized, caller, spender, amt))
	return nil
}

func (l *Ledger) move(symbol string, from, to [20]byte, amount *big.Int) error {
	amt := cloneBigInt(amount)
	if amt.Sign() <= 0 {
		return fmt.Errorf("token ledger: transfer amount must be positive")
	}
	fromBal, err := l.state.TokenBalance(symbol, from)
	if err != nil {
		return err
	}
	current := cloneBigInt(fromBal)
	if current.Cmp(amt) < 0 {
		return ErrInsufficientBalance
	}
	if err := l.state.SetTokenBalance(symbol, from, current.Sub(current, amt)); err != nil {
		return err
	}
	toBal, err := l.state.TokenBalance(symbol, to)
	if err != nil {
		return err
	}
	return l.state.SetTokenBalance(symbol, to, new(big.Int).Add(cloneBigInt(toBal), amt))
}
