package config

// Log controls structured logging output and rotation.
type Log struct {
	Level      string `toml:"Level"`
	File       string `toml:"File"`
	MaxSizeMB  int    `toml:"MaxSizeMB"`
	MaxBackups int    `toml:"MaxBackups"`
	MaxAgeDays int    `toml:"MaxAgeDays"`
}

func DefaultLog() Log {
	return Log{Level: "info", MaxSizeMB: 100, MaxBackups: 3, MaxAgeDays: 28}
}

// RateLimit throttles RPC request admission.
type RateLimit struct {
	RequestsPerSecond float64 `toml:"RequestsPerSecond"`
	Burst             int     `toml:"Burst"`
}

func DefaultRateLimit() RateLimit {
	return RateLimit{RequestsPerSecond: 50, Burst: 100}
}

// Pauses disables individual modules at startup. Paused modules reject all
// mutating calls until resumed.
type Pauses struct {
	Platform   bool `toml:"Platform"`
	Staking    bool `toml:"Staking"`
	Governance bool `toml:"Governance"`
}

// Platform seeds the sale/trade round parameters on first boot.
type Platform struct {
	RoundSeconds      int64  `toml:"RoundSeconds"`
	BuyFirstPerMille  uint32 `toml:"BuyFirstPerMille"`
	BuySecondPerMille uint32 `toml:"BuySecondPerMille"`
	RedeemPerMille    uint32 `toml:"RedeemPerMille"`
}

func DefaultPlatform() Platform {
	return Platform{
		RoundSeconds:      3 * 24 * 60 * 60,
		BuyFirstPerMille:  50,
		BuySecondPerMille: 30,
		RedeemPerMille:    25,
	}
}

// Staking seeds the vault parameters on first boot.
type Staking struct {
	FreezeSeconds int64  `toml:"FreezeSeconds"`
	RewardPercent uint32 `toml:"RewardPercent"`
}

func DefaultStaking() Staking {
	return Staking{FreezeSeconds: 7 * 24 * 60 * 60, RewardPercent: 3}
}

// Genesis lists the opening balances written on first boot: native wei
// accounts, the initial staking-token distribution, and the reward pool that
// backs claims. Keys are bech32 addresses, values decimal amounts.
type Genesis struct {
	AccountsWei      map[string]string `toml:"AccountsWei"`
	StakeTokens      map[string]string `toml:"StakeTokens"`
	RewardPoolTokens string            `toml:"RewardPoolTokens"`
}

// Governance seeds the voting thresholds on first boot.
type Governance struct {
	DebateSeconds int64  `toml:"DebateSeconds"`
	QuorumBps     uint32 `toml:"QuorumBps"`
}

func DefaultGovernance() Governance {
	return Governance{DebateSeconds: 3 * 24 * 60 * 60, QuorumBps: 4000}
}
