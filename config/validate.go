package config

import (
	"fmt"
	"math/big"
	"strings"
)

// MinDebateSeconds is the floor for the governance debate period.
var MinDebateSeconds = int64(3600)

func (cfg *Config) Validate() error {
	if cfg.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("ratelimit: requests_per_second <= 0")
	}
	if cfg.RateLimit.Burst <= 0 {
		return fmt.Errorf("ratelimit: burst <= 0")
	}
	if cfg.Platform.RoundSeconds <= 0 {
		return fmt.Errorf("platform: round_seconds <= 0")
	}
	if cfg.Platform.BuyFirstPerMille+cfg.Platform.BuySecondPerMille > 1000 {
		return fmt.Errorf("platform: buy referral shares exceed the whole")
	}
	if 2*cfg.Platform.RedeemPerMille > 1000 {
		return fmt.Errorf("platform: redeem referral shares exceed the whole")
	}
	if cfg.Staking.FreezeSeconds < 0 {
		return fmt.Errorf("staking: freeze_seconds < 0")
	}
	if cfg.Staking.RewardPercent > 100 {
		return fmt.Errorf("staking: reward_percent > 100")
	}
	if cfg.Governance.DebateSeconds < MinDebateSeconds {
		return fmt.Errorf("governance: debate_seconds too small")
	}
	if cfg.Governance.QuorumBps > 10_000 {
		return fmt.Errorf("governance: quorum_bps > 10000")
	}
	for addr, amount := range cfg.Genesis.AccountsWei {
		if err := validAmount(amount); err != nil {
			return fmt.Errorf("genesis: account %s: %w", addr, err)
		}
	}
	for addr, amount := range cfg.Genesis.StakeTokens {
		if err := validAmount(amount); err != nil {
			return fmt.Errorf("genesis: stake %s: %w", addr, err)
		}
	}
	if cfg.Genesis.RewardPoolTokens != "" {
		if err := validAmount(cfg.Genesis.RewardPoolTokens); err != nil {
			return fmt.Errorf("genesis: reward pool: %w", err)
		}
	}
	return nil
}

func validAmount(raw string) error {
	amount, ok := new(big.Int).SetString(strings.TrimSpace(raw), 10)
	if !ok {
		return fmt.Errorf("amount %q is not a decimal integer", raw)
	}
	if amount.Sign() < 0 {
		return fmt.Errorf("amount %q is negative", raw)
	}
	return nil
}
