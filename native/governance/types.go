package governance

import (
	"fmt"
	"math/big"
)

// ProposalStatus tracks a proposal through its lifecycle.
type ProposalStatus string

const (
	StatusVoting   ProposalStatus = "voting"
	StatusPassed   ProposalStatus = "passed"
	StatusRejected ProposalStatus = "rejected"
	StatusExecuted ProposalStatus = "executed"
)

// Action names the configuration call a passed proposal performs. Targets
// and methods are allow-listed; arguments are decimal strings decoded by the
// executor.
type Action struct {
	Target string   `json:"target"`
	Method string   `json:"method"`
	Args   []string `json:"args"`
}

const (
	TargetPlatform = "platform"
	TargetStaking  = "staking"
)

const (
	MethodSetRoundTime      = "setRoundTime"
	MethodSetReferralBuy    = "setReferralRewardBuyACDM"
	MethodSetReferralRedeem = "setReferralRewardRedeemOrder"
	MethodSetFreezeTime     = "setFreezeTime"
	MethodSetPercent        = "setPercent"
	MethodTransferOwnership = "transferOwnership"
)

var allowedActions = map[string]map[string]int{
	TargetPlatform: {
		MethodSetRoundTime:      1,
		MethodSetReferralBuy:    2,
		MethodSetReferralRedeem: 1,
		MethodTransferOwnership: 1,
	},
	TargetStaking: {
		MethodSetFreezeTime:     1,
		MethodSetPercent:        1,
		MethodTransferOwnership: 1,
	},
}

// Validate checks the action against the allow-list, including its arity.
func (a Action) Validate() error {
	methods, ok := allowedActions[a.Target]
	if !ok {
		return fmt.Errorf("unknown target %q", a.Target)
	}
	arity, ok := methods[a.Method]
	if !ok {
		return fmt.Errorf("method %q not allowed on %q", a.Method, a.Target)
	}
	if len(a.Args) != arity {
		return fmt.Errorf("%s.%s expects %d argument(s), got %d", a.Target, a.Method, arity, len(a.Args))
	}
	return nil
}

// Proposal is a pending or settled configuration change.
type Proposal struct {
	ID           uint64         `json:"id"`
	Proposer     [20]byte       `json:"proposer"`
	Description  string         `json:"description"`
	Action       Action         `json:"action"`
	VotingStart  int64          `json:"votingStart"`
	VotingEnd    int64          `json:"votingEnd"`
	ForVotes     *big.Int       `json:"forVotes"`
	AgainstVotes *big.Int       `json:"againstVotes"`
	Status       ProposalStatus `json:"status"`
}

func (p *Proposal) Clone() *Proposal {
	if p == nil {
		return nil
	}
	clone := *p
	clone.ForVotes = cloneBigInt(p.ForVotes)
	clone.AgainstVotes = cloneBigInt(p.AgainstVotes)
	clone.Action.Args = append([]string(nil), p.Action.Args...)
	return &clone
}

// SanitizeProposal normalises nil tallies and validates the action.
func SanitizeProposal(p *Proposal) (*Proposal, error) {
	if p == nil {
		return nil, fmt.Errorf("governance: nil proposal")
	}
	if err := p.Action.Validate(); err != nil {
		return nil, fmt.Errorf("governance: %w", err)
	}
	clone := p.Clone()
	if clone.ForVotes.Sign() < 0 || clone.AgainstVotes.Sign() < 0 {
		return nil, fmt.Errorf("governance: negative tally")
	}
	return clone, nil
}

// Vote is a single recorded ballot. One per voter per proposal.
type Vote struct {
	ProposalID uint64   `json:"proposalId"`
	Voter      [20]byte `json:"voter"`
	Support    bool     `json:"support"`
	Weight     *big.Int `json:"weight"`
}

func (v *Vote) Clone() *Vote {
	if v == nil {
		return nil
	}
	clone := *v
	clone.Weight = cloneBigInt(v.Weight)
	return &clone
}

// Params holds the voting thresholds.
type Params struct {
	DebateSeconds int64  `json:"debateSeconds"`
	QuorumBps     uint32 `json:"quorumBps"`
}

// DefaultParams: three-day debate, 40% participation quorum.
func DefaultParams() Params {
	return Params{DebateSeconds: 3 * 24 * 60 * 60, QuorumBps: 4000}
}

func (p Params) Validate() error {
	if p.DebateSeconds <= 0 {
		return fmt.Errorf("debate period must be positive")
	}
	if p.QuorumBps > 10_000 {
		return fmt.Errorf("quorum out of range: %d", p.QuorumBps)
	}
	return nil
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
