package governance

import "errors"

var (
	errNilState    = errors.New("governance: state not configured")
	errNilPowers   = errors.New("governance: voting power source not configured")
	errNilExecutor = errors.New("governance: executor not configured")

	// ErrProposalNotFound is returned for an unknown proposal id.
	ErrProposalNotFound = errors.New("governance: proposal not found")
	// ErrVotingClosed is returned when voting on a settled or expired
	// proposal.
	ErrVotingClosed = errors.New("governance: voting closed")
	// ErrVotingOpen is returned when finalizing before the debate period
	// has elapsed.
	ErrVotingOpen = errors.New("governance: voting still open")
	// ErrAlreadyVoted is returned on a second ballot from the same voter.
	ErrAlreadyVoted = errors.New("governance: already voted")
	// ErrNoVotingPower is returned when the caller has no staked balance.
	ErrNoVotingPower = errors.New("governance: no voting power")
	// ErrNotPassed is returned when executing a proposal that did not pass.
	ErrNotPassed = errors.New("governance: proposal not passed")
	// ErrAlreadyExecuted is returned on a second execution attempt.
	ErrAlreadyExecuted = errors.New("governance: proposal already executed")
)
