package staking

import "errors"

var (
	errNilState  = errors.New("staking: state not configured")
	errNilLedger = errors.New("staking: ledger not configured")

	// ErrNothingStaked is returned when unstaking with a zero position.
	ErrNothingStaked = errors.New("staking: nothing staked")
	// ErrNothingToClaim is returned when no reward has accrued.
	ErrNothingToClaim = errors.New("staking: nothing to claim")
	// ErrStakeFrozen is returned while the freeze period since the last
	// deposit has not elapsed.
	ErrStakeFrozen = errors.New("staking: freeze period not elapsed")
	// ErrVoteLocked is returned while governance reports an active vote
	// lock for the caller.
	ErrVoteLocked = errors.New("staking: active vote lock")
	// ErrNotAuthority is returned when a parameter setter is invoked by an
	// address other than the configured governance authority.
	ErrNotAuthority = errors.New("staking: caller is not the authority")
)
