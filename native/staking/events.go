package staking

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"acdmchain/core/types"
)

const (
	EventTypeStaked        = "staking.staked"
	EventTypeClaimed       = "staking.claimed"
	EventTypeUnstaked      = "staking.unstaked"
	EventTypeParamsUpdated = "staking.params.updated"
	EventTypeOwnerChanged  = "staking.owner.transferred"
)

type stakingEvent struct {
	evt *types.Event
}

func (s stakingEvent) EventType() string {
	if s.evt == nil {
		return ""
	}
	return s.evt.Type
}

func (s stakingEvent) Event() *types.Event { return s.evt }

func positionAttributes(account [20]byte, p *Position) map[string]string {
	attrs := map[string]string{
		"account": hex.EncodeToString(account[:]),
	}
	if p == nil {
		return attrs
	}
	attrs["staked"] = cloneBigInt(p.Amount).String()
	attrs["accumulated"] = cloneBigInt(p.Accumulated).String()
	attrs["stakedAt"] = strconv.FormatInt(p.StakedAt, 10)
	return attrs
}

func NewStakedEvent(account [20]byte, amount *big.Int, p *Position) *types.Event {
	attrs := positionAttributes(account, p)
	attrs["amount"] = amount.String()
	return &types.Event{Type: EventTypeStaked, Attributes: attrs}
}

func NewClaimedEvent(account [20]byte, reward *big.Int) *types.Event {
	return &types.Event{Type: EventTypeClaimed, Attributes: map[string]string{
		"account": hex.EncodeToString(account[:]),
		"reward":  reward.String(),
	}}
}

func NewUnstakedEvent(account [20]byte, amount *big.Int, p *Position) *types.Event {
	attrs := positionAttributes(account, p)
	attrs["amount"] = amount.String()
	return &types.Event{Type: EventTypeUnstaked, Attributes: attrs}
}

func NewParamsUpdatedEvent(p Params) *types.Event {
	return &types.Event{Type: EventTypeParamsUpdated, Attributes: map[string]string{
		"freezeSeconds": strconv.FormatInt(p.FreezeSeconds, 10),
		"rewardPercent": strconv.FormatUint(uint64(p.RewardPercent), 10),
	}}
}

func NewOwnershipTransferredEvent(from, to [20]byte) *types.Event {
	return &types.Event{Type: EventTypeOwnerChanged, Attributes: map[string]string{
		"previousOwner": hex.EncodeToString(from[:]),
		"newOwner":      hex.EncodeToString(to[:]),
	}}
}
