package token

import (
	"encoding/hex"
	"math/big"

	"acdmchain/core/types"
)

const (
	EventTypeTokenMint     = "token.mint"
	EventTypeTokenBurn     = "token.burn"
	EventTypeTokenTransfer = "token.transfer"
	EventTypeTokenApproval = "token.approval"
)

type tokenEvent struct {
	evt *types.Event
}

func (t tokenEvent) EventType() string {
	if t.evt == nil {
		return ""
	}
	return t.evt.Type
}

func (t tokenEvent) Event() *types.Event { return t.evt }

// NewMintEvent returns the canonical payload for a mint.
func NewMintEvent(symbol string, to [20]byte, amount *big.Int) *types.Event {
	return &types.Event{Type: EventTypeTokenMint, Attributes: map[string]string{
		"token":  symbol,
		"to":     hex.EncodeToString(to[:]),
		"amount": amount.String(),
	}}
}

// NewBurnEvent returns the canonical payload for a burn.
func NewBurnEvent(symbol string, from [20]byte, amount *big.Int) *types.Event {
	return &types.Event{Type: EventTypeTokenBurn, Attributes: map[string]string{
		"token":  symbol,
		"from":   hex.EncodeToString(from[:]),
		"amount": amount.String(),
	}}
}

// NewTransferEvent returns the canonical payload for a balance movement.
func NewTransferEvent(symbol string, from, to [20]byte, amount *big.Int) *types.Event {
	return &types.Event{Type: EventTypeTokenTransfer, Attributes: map[string]string{
		"token":  symbol,
		"from":   hex.EncodeToString(from[:]),
		"to":     hex.EncodeToString(to[:]),
		"amount": amount.String(),
	}}
}

// NewApprovalEvent returns the canonical payload for an allowance update.
func NewApprovalEvent(symbol string, owner, spender [20]byte, amount *big.Int) *types.Event {
	return &types.Event{Type: EventTypeTokenApproval, Attributes: map[string]string{
		"token":   symbol,
		"owner":   hex.EncodeToString(owner[:]),
		"spender": hex.EncodeToString(spender[:]),
		"amount":  amount.String(),
	}}
}
