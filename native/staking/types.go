package staking

import (
	"fmt"
	"math/big"
)

// WeekSeconds is the fixed accrual window. Partial windows never pay.
const WeekSeconds int64 = 7 * 24 * 60 * 60

// Position is the per-account staking record. It is created implicitly on the
// first deposit and kept after a full withdrawal so an unclaimed reward stays
// claimable.
type Position struct {
	Amount       *big.Int `json:"amount"`
	CheckpointAt int64    `json:"checkpointAt"`
	StakedAt     int64    `json:"stakedAt"`
	Accumulated  *big.Int `json:"accumulated"`
}

func (p *Position) Clone() *Position {
	if p == nil {
		return nil
	}
	return &Position{
		Amount:       cloneBigInt(p.Amount),
		CheckpointAt: p.CheckpointAt,
		StakedAt:     p.StakedAt,
		Accumulated:  cloneBigInt(p.Accumulated),
	}
}

// SanitizePosition normalises nil big.Int fields and rejects negatives.
func SanitizePosition(p *Position) (*Position, error) {
	if p == nil {
		return nil, fmt.Errorf("staking: nil position")
	}
	clone := p.Clone()
	if clone.Amount.Sign() < 0 {
		return nil, fmt.Errorf("staking: negative amount")
	}
	if clone.Accumulated.Sign() < 0 {
		return nil, fmt.Errorf("staking: negative accumulated reward")
	}
	return clone, nil
}

// Params holds the DAO-tunable staking knobs.
type Params struct {
	FreezeSeconds int64  `json:"freezeSeconds"`
	RewardPercent uint32 `json:"rewardPercent"`
}

// DefaultParams mirrors the launch configuration: a one-week withdrawal
// freeze and a 3% weekly reward.
func DefaultParams() Params {
	return Params{FreezeSeconds: WeekSeconds, RewardPercent: 3}
}

func (p Params) Validate() error {
	if p.FreezeSeconds < 0 {
		return fmt.Errorf("freeze seconds must not be negative")
	}
	if p.RewardPercent > 100 {
		return fmt.Errorf("reward percent out of range: %d", p.RewardPercent)
	}
	return nil
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
